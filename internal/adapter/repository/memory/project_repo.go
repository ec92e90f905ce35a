package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// ProjectRepository implements usecase.ProjectRepository.
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

func copyProject(p *domain.Project) *domain.Project {
	c := *p
	return &c
}

// Create stores a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.store.write(ctx, func(st *state) error {
		st.projects[project.ID] = copyProject(project)
		return nil
	})
}

// GetByID retrieves a project by ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var out *domain.Project
	r.store.read(func(st *state) {
		if p, ok := st.projects[id]; ok {
			out = copyProject(p)
		}
	})
	if out == nil {
		return nil, domain.ErrProjectNotFound
	}
	return out, nil
}

// GetByIDForUpdate retrieves a project inside tx.
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	p, ok := st.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return copyProject(p), nil
}

// UpdateFundedAmount sets the funded amount inside tx.
func (r *ProjectRepository) UpdateFundedAmount(ctx context.Context, tx usecase.Transaction, id string, funded decimal.Decimal, updatedAt time.Time) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	p, ok := st.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	next := copyProject(p)
	next.FundedAmount = funded
	next.UpdatedAt = updatedAt
	st.projects[id] = next
	return nil
}

// List lists projects by name.
func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	out := []*domain.Project{}
	r.store.read(func(st *state) {
		for _, p := range st.projects {
			out = append(out, copyProject(p))
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
