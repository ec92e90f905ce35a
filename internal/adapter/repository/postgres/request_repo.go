package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const requestColumns = `id, investor_id, kind, amount, shares, project_id, holding_id, bank, status, reason, decided_by, created_at, decided_at`

// RequestRepository implements usecase.RequestRepository.
type RequestRepository struct {
	db DBTX
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(db DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create stores a pending request within a transaction.
func (r *RequestRepository) Create(ctx context.Context, tx usecase.Transaction, request *domain.Request) error {
	bank, err := marshalBank(request.Bank)
	if err != nil {
		return err
	}

	_, err = txDB(tx).Exec(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		request.ID,
		request.InvestorID,
		string(request.Kind),
		request.Amount,
		request.Shares,
		request.ProjectID,
		request.HoldingID,
		bank,
		string(request.Status),
		request.Reason,
		request.DecidedBy,
		request.CreatedAt,
		request.DecidedAt,
	)
	return err
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	return scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a request by ID with a FOR UPDATE lock.
func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Request, error) {
	return scanRequest(txDB(tx).QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id))
}

// UpdateDecision stores the decision fields. Only pending rows are updated.
func (r *RequestRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, request *domain.Request) error {
	tag, err := txDB(tx).Exec(ctx, `
		UPDATE requests
		SET status = $2, reason = $3, decided_by = $4, decided_at = $5, amount = $6, holding_id = $7
		WHERE id = $1 AND status = 'pending'`,
		request.ID,
		string(request.Status),
		request.Reason,
		request.DecidedBy,
		request.DecidedAt,
		request.Amount,
		request.HoldingID,
	)
	return affected(tag, err, domain.ErrRequestNotPending)
}

// List lists requests matching filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error) {
	query, args := buildRequestQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.Request, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func buildRequestQuery(filter domain.RequestFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.InvestorID != "" {
		where = append(where, "investor_id = "+arg(filter.InvestorID))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			kinds[i] = string(k)
		}
		where = append(where, "kind = ANY("+arg(kinds)+")")
	}

	var b strings.Builder
	b.WriteString("SELECT " + requestColumns + " FROM requests")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		b.WriteString(" OFFSET " + arg(filter.Offset))
	}
	return b.String(), args
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var (
		request      domain.Request
		kind, status string
		bank         []byte
	)
	err := row.Scan(
		&request.ID,
		&request.InvestorID,
		&kind,
		&request.Amount,
		&request.Shares,
		&request.ProjectID,
		&request.HoldingID,
		&bank,
		&status,
		&request.Reason,
		&request.DecidedBy,
		&request.CreatedAt,
		&request.DecidedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrRequestNotFound)
	}
	request.Kind = domain.RequestKind(kind)
	request.Status = domain.RequestStatus(status)

	if len(bank) > 0 {
		var details domain.BankDetails
		if err := json.Unmarshal(bank, &details); err != nil {
			return nil, fmt.Errorf("failed to decode bank details of request %s: %w", request.ID, err)
		}
		request.Bank = &details
	}

	return &request, nil
}

func marshalBank(bank *domain.BankDetails) ([]byte, error) {
	if bank == nil {
		return nil, nil
	}
	return json.Marshal(bank)
}
