package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mchtrack/mchtrack/internal/platform/store"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// MemRepo keeps users in a snapshot-backed collection keyed by internal id.
type MemRepo struct {
	col *store.Collection[User]
}

func NewMemRepo(col *store.Collection[User]) *MemRepo {
	return &MemRepo{col: col}
}

func (r *MemRepo) Create(_ context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stored := r.col.Upsert(u.ID, func(User, bool) User { return u })
	return stored, nil
}

func (r *MemRepo) FindByEmail(_ context.Context, email string) (User, error) {
	for _, u := range r.col.List() {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemRepo) FindByID(_ context.Context, id string) (User, error) {
	u, ok := r.col.Get(id)
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}
