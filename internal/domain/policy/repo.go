package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mchtrack/mchtrack/internal/platform/store"
)

var ErrNotFound = errors.New("scenario not found")

type Repository interface {
	Upsert(ctx context.Context, s Scenario) (Scenario, error)
	Get(ctx context.Context, scenarioID string) (Scenario, error)
	List(ctx context.Context) ([]Scenario, error)
	Delete(ctx context.Context, scenarioID string) error
}

type MemRepo struct {
	col *store.Collection[Scenario]
}

func NewMemRepo(col *store.Collection[Scenario]) *MemRepo {
	return &MemRepo{col: col}
}

func (r *MemRepo) Upsert(_ context.Context, s Scenario) (Scenario, error) {
	stored := r.col.Upsert(s.ScenarioID, func(existing Scenario, found bool) Scenario {
		if found {
			s.ID = existing.ID
		} else if s.ID == "" {
			s.ID = uuid.NewString()
		}
		return s
	})
	return stored, nil
}

func (r *MemRepo) Get(_ context.Context, scenarioID string) (Scenario, error) {
	s, ok := r.col.Get(scenarioID)
	if !ok {
		return Scenario{}, ErrNotFound
	}
	return s, nil
}

func (r *MemRepo) List(context.Context) ([]Scenario, error) {
	return r.col.List(), nil
}

func (r *MemRepo) Delete(_ context.Context, scenarioID string) error {
	r.col.Delete(scenarioID)
	return nil
}
