package repositories

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Query  string
	Status models.OrderStatus
}

// ProductSales aggregates line items of non-cancelled orders per product.
type ProductSales struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// PlaceOrder upserts the customer by phone and inserts the order with its
	// items in one transaction. On return customer holds the stored user and
	// order.UserID points at it.
	PlaceOrder(ctx context.Context, customer *models.User, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// CancelIfAllowed cancels the order in a single conditional update. It
	// reports false when no row satisfied the conditions.
	CancelIfAllowed(ctx context.Context, id, userID string, placedAfter time.Time) (bool, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	SetCanCancel(ctx context.Context, id string, canCancel bool) error
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}
