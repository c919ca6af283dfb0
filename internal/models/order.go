package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderDateLayout is the fixed format used wherever an order date is rendered as text.
const OrderDateLayout = "2006-01-02 15:04:05"

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next follows s in the normal lifecycle.
// Admin status edits are allowed to bypass this graph.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCompleted || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusCompleted
	default:
		return false
	}
}

// ParseOrderStatus matches a status case-insensitively.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	for _, known := range OrderStatuses {
		if strings.EqualFold(raw, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("invalid order status: %q", raw)
}

// OrderItem is a snapshot of one cart entry taken when the order was placed.
type OrderItem struct {
	ID              uint            `json:"-" gorm:"primaryKey"`
	OrderID         string          `json:"-" gorm:"type:varchar(36);index;not null"`
	Position        int             `json:"position"`
	ProductID       string          `json:"product_id" gorm:"type:varchar(36);index"`
	Title           string          `json:"title"`
	UnitPrice       decimal.Decimal `json:"unit_price" gorm:"type:decimal(14,4)"`
	DiscountPercent int             `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total" gorm:"type:decimal(14,4)"`
}

// Order represents a customer order.
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderDate      time.Time       `json:"order_date" gorm:"index;not null"`
	Name           string          `json:"name" gorm:"type:varchar(100);not null"`
	Phone          string          `json:"phone" gorm:"type:varchar(20);index;not null"`
	State          string          `json:"state" gorm:"type:varchar(100)"`
	City           string          `json:"city" gorm:"type:varchar(100)"`
	Address        string          `json:"address"`
	TransactionID  string          `json:"transaction_id" gorm:"type:varchar(100)"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(14,4)"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge" gorm:"type:decimal(14,4)"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,4)"`
	AdvancePayment decimal.Decimal `json:"advance_payment" gorm:"type:decimal(14,4)"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	UserID         *string         `json:"user_id" gorm:"type:varchar(36);index"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null"`
	CanCancel      bool            `json:"can_cancel"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ItemsSummary renders the line items as one human-readable line.
func (o *Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		s := fmt.Sprintf("%s x%d @ %s", it.Title, it.Quantity, it.UnitPrice.StringFixed(2))
		if it.DiscountPercent > 0 {
			s += fmt.Sprintf(" (-%d%%)", it.DiscountPercent)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// FormattedDate returns OrderDate in OrderDateLayout.
func (o *Order) FormattedDate() string {
	return o.OrderDate.Format(OrderDateLayout)
}

// OwnedBy reports whether the order belongs to userID.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != nil && *o.UserID == userID
}
