package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mchtrack/mchtrack/internal/platform/store"
)

var ErrNotFound = errors.New("patient not found")

type MaternalRepository interface {
	Upsert(ctx context.Context, p Maternal) (Maternal, error)
	Get(ctx context.Context, patientID string) (Maternal, error)
	List(ctx context.Context) ([]Maternal, error)
	Delete(ctx context.Context, patientID string) error
}

type PediatricRepository interface {
	Upsert(ctx context.Context, p Pediatric) (Pediatric, error)
	Get(ctx context.Context, childID string) (Pediatric, error)
	List(ctx context.Context) ([]Pediatric, error)
	Delete(ctx context.Context, childID string) error
}

// MemMaternalRepo stores maternal patients in a snapshot-backed collection
// keyed by the natural patient id.
type MemMaternalRepo struct {
	col *store.Collection[Maternal]
}

func NewMemMaternalRepo(col *store.Collection[Maternal]) *MemMaternalRepo {
	return &MemMaternalRepo{col: col}
}

func (r *MemMaternalRepo) Upsert(_ context.Context, p Maternal) (Maternal, error) {
	stored := r.col.Upsert(p.PatientID, func(existing Maternal, found bool) Maternal {
		if found {
			p.ID = existing.ID
		} else if p.ID == "" {
			p.ID = uuid.NewString()
		}
		return p
	})
	return stored, nil
}

func (r *MemMaternalRepo) Get(_ context.Context, patientID string) (Maternal, error) {
	p, ok := r.col.Get(patientID)
	if !ok {
		return Maternal{}, ErrNotFound
	}
	return p, nil
}

func (r *MemMaternalRepo) List(context.Context) ([]Maternal, error) {
	return r.col.List(), nil
}

// Delete is idempotent: removing an absent record is not an error.
func (r *MemMaternalRepo) Delete(_ context.Context, patientID string) error {
	r.col.Delete(patientID)
	return nil
}

// MemPediatricRepo stores pediatric patients keyed by the natural child id.
type MemPediatricRepo struct {
	col *store.Collection[Pediatric]
}

func NewMemPediatricRepo(col *store.Collection[Pediatric]) *MemPediatricRepo {
	return &MemPediatricRepo{col: col}
}

func (r *MemPediatricRepo) Upsert(_ context.Context, p Pediatric) (Pediatric, error) {
	stored := r.col.Upsert(p.ChildID, func(existing Pediatric, found bool) Pediatric {
		if found {
			p.ID = existing.ID
		} else if p.ID == "" {
			p.ID = uuid.NewString()
		}
		return p
	})
	return stored, nil
}

func (r *MemPediatricRepo) Get(_ context.Context, childID string) (Pediatric, error) {
	p, ok := r.col.Get(childID)
	if !ok {
		return Pediatric{}, ErrNotFound
	}
	return p, nil
}

func (r *MemPediatricRepo) List(context.Context) ([]Pediatric, error) {
	return r.col.List(), nil
}

func (r *MemPediatricRepo) Delete(_ context.Context, childID string) error {
	r.col.Delete(childID)
	return nil
}
