package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const projectColumns = `id, name, type, share_price, monthly_return_rate, funding_target, funded_amount, created_at, updated_at`

// ProjectRepository implements usecase.ProjectRepository.
type ProjectRepository struct {
	db DBTX
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		project.ID,
		project.Name,
		string(project.Type),
		project.SharePrice,
		project.MonthlyReturnRate,
		project.FundingTarget,
		project.FundedAmount,
		project.CreatedAt,
		project.UpdatedAt,
	)
	return err
}

// GetByID retrieves a project by ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a project by ID with a FOR UPDATE lock.
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
	return scanProject(txDB(tx).QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
}

// UpdateFundedAmount stores the funded total of a project.
func (r *ProjectRepository) UpdateFundedAmount(ctx context.Context, tx usecase.Transaction, id string, funded decimal.Decimal, updatedAt time.Time) error {
	tag, err := txDB(tx).Exec(ctx, `UPDATE projects SET funded_amount = $2, updated_at = $3 WHERE id = $1`,
		id, funded, updatedAt,
	)
	return affected(tag, err, domain.ErrProjectNotFound)
}

// List lists every project.
func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		project     domain.Project
		projectType string
	)
	err := row.Scan(
		&project.ID,
		&project.Name,
		&projectType,
		&project.SharePrice,
		&project.MonthlyReturnRate,
		&project.FundingTarget,
		&project.FundedAmount,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrProjectNotFound)
	}
	project.Type = domain.ProjectType(projectType)
	return &project, nil
}
