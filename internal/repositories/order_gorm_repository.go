package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// PlaceOrder stores the order and refreshes the customer's profile atomically.
func (r *GORMOrderRepository) PlaceOrder(ctx context.Context, customer *models.User, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.First(&existing, "phone = ?", customer.Phone).Error
		switch {
		case err == nil:
			existing.Name = customer.Name
			existing.Address = customer.Address
			existing.State = customer.State
			existing.City = customer.City
			if customer.Email != "" {
				existing.Email = customer.Email
			}
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update customer %s: %w", existing.ID, err)
			}
			*customer = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if customer.ID == "" {
				customer.ID = uuid.New().String()
			}
			if err := tx.Create(customer).Error; err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up customer: %w", err)
		}

		if order.ID == "" {
			order.ID = uuid.New().String()
		}
		userID := customer.ID
		order.UserID = &userID
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// List returns orders matching filter, newest first.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items", orderedItems)
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(transaction_id) LIKE ? OR id = ?", like, like, like, s)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var orders []models.Order
	if err := q.Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CancelIfAllowed flips a Processing, cancellable, owned order placed after
// placedAfter to Cancelled. The checks live in the WHERE clause so a concurrent
// admin edit cannot slip between check and write.
func (r *GORMOrderRepository) CancelIfAllowed(ctx context.Context, id, userID string, placedAfter time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND user_id = ?", id, userID).
		Where("status = ? AND can_cancel = ?", models.OrderStatusProcessing, true).
		Where("order_date > ?", placedAfter).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusCancelled,
			"can_cancel": false,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to cancel order %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Update replaces the mutable fields of an order. Prices and items are never touched.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"name":           order.Name,
			"phone":          order.Phone,
			"state":          order.State,
			"city":           order.City,
			"address":        order.Address,
			"transaction_id": order.TransactionID,
			"status":         order.Status,
			"can_cancel":     order.CanCancel,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s for update: %w", order.ID, ErrNotFound)
	}
	return nil
}

// UpdateStatus sets the status of an order.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

// SetCanCancel sets the cancellation flag of an order.
func (r *GORMOrderRepository) SetCanCancel(ctx context.Context, id string, canCancel bool) error {
	return r.updateColumn(ctx, id, "can_cancel", canCancel)
}

func (r *GORMOrderRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of order %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s for update: %w", id, ErrNotFound)
	}
	return nil
}

// CountByStatus returns the number of orders per status. Every status is present.
func (r *GORMOrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	counts := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

// Revenue sums the totals of non-cancelled orders.
func (r *GORMOrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total_amount)").
		Where("status <> ?", models.OrderStatusCancelled).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Recent returns the latest orders.
func (r *GORMOrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).
		Order("order_date DESC").Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return orders, nil
}

// TopProducts ranks products by units sold in non-cancelled orders.
func (r *GORMOrderRepository) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.product_id AS product_id, MAX(order_items.title) AS title, "+
			"SUM(order_items.quantity) AS quantity, SUM(order_items.line_total) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", models.OrderStatusCancelled).
		Group("order_items.product_id").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	return rows, nil
}
