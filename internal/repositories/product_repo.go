package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductFilter narrows product listings. Empty fields match everything.
type ProductFilter struct {
	Query    string
	Category string
	Tag      string
	Limit    int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Related(ctx context.Context, product *models.Product, limit int) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
