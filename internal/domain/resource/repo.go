package resource

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mchtrack/mchtrack/internal/platform/store"
)

var ErrNotFound = errors.New("region not found")

type Repository interface {
	Upsert(ctx context.Context, a Allocation) (Allocation, error)
	Get(ctx context.Context, region string) (Allocation, error)
	List(ctx context.Context) ([]Allocation, error)
	Delete(ctx context.Context, region string) error
}

type MemRepo struct {
	col *store.Collection[Allocation]
}

func NewMemRepo(col *store.Collection[Allocation]) *MemRepo {
	return &MemRepo{col: col}
}

func (r *MemRepo) Upsert(_ context.Context, a Allocation) (Allocation, error) {
	stored := r.col.Upsert(a.Region, func(existing Allocation, found bool) Allocation {
		if found {
			a.ID = existing.ID
		} else if a.ID == "" {
			a.ID = uuid.NewString()
		}
		return a
	})
	return stored, nil
}

func (r *MemRepo) Get(_ context.Context, region string) (Allocation, error) {
	a, ok := r.col.Get(region)
	if !ok {
		return Allocation{}, ErrNotFound
	}
	return a, nil
}

func (r *MemRepo) List(context.Context) ([]Allocation, error) {
	return r.col.List(), nil
}

func (r *MemRepo) Delete(_ context.Context, region string) error {
	r.col.Delete(region)
	return nil
}
