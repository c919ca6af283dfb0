package repositories

import (
	"context"

	"storefront/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// FirstOrCreateByPhone returns the user with phone, creating it from defaults when absent.
	FirstOrCreateByPhone(ctx context.Context, phone string, defaults models.User) (*models.User, error)
	List(ctx context.Context, query string) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user and, before it, every order of the user.
	Delete(ctx context.Context, id string) error
}
