package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const auditColumns = `id, user_id, action, resource_type, resource_id,
	ip_address, user_agent, request_id,
	before_state, after_state, status, error_message, created_at`

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return insertAudit(ctx, r.db, log)
}

// CreateTx inserts an audit log entry as part of tx.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return insertAudit(ctx, txDB(tx), log)
}

func insertAudit(ctx context.Context, db DBTX, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	beforeState, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}
	afterState, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		beforeState,
		afterState,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
	)
	return err
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

// List retrieves audit logs with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE 1=1`
	args := []any{}
	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if filter.UserID != "" {
		add(` AND user_id = $%d`, filter.UserID)
	}
	if filter.Action != "" {
		add(` AND action = $%d`, filter.Action)
	}
	if filter.ResourceType != "" {
		add(` AND resource_type = $%d`, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add(` AND resource_id = $%d`, filter.ResourceID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		add(` LIMIT $%d`, filter.Limit)
	}
	if filter.Offset > 0 {
		add(` OFFSET $%d`, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var (
			log                     domain.AuditLog
			beforeState, afterState []byte
		)
		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.IPAddress,
			&log.UserAgent,
			&log.RequestID,
			&beforeState,
			&afterState,
			&log.Status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if beforeState != nil {
			_ = json.Unmarshal(beforeState, &log.BeforeState)
		}
		if afterState != nil {
			_ = json.Unmarshal(afterState, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
