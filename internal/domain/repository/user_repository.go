package repository

import (
	"context"
	"time"

	"chatwave/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit, offset int) ([]*entity.User, int64, error)

	// SetOnlineStatus is best-effort from the relay's perspective; callers
	// never propagate its failure into the connection path.
	SetOnlineStatus(ctx context.Context, id string, online bool, at time.Time) error
}
