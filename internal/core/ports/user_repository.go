package ports

import (
	"context"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// UserRepository defines the interface for credential persistence.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// UpdatePasswordHash replaces the stored digest atomically at row level.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// Create exists for the seed tool; the service itself never registers users.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
