package services

import "storefront/internal/models"

// Routing keys of published order events.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
	EventOrderUpdated   = "order.updated"
)

// EventPublisher publishes order events to a broker.
type EventPublisher interface {
	PublishOrderEvent(routingKey string, payload map[string]interface{}) error
}

// AuditLog receives a line per order lifecycle event.
type AuditLog interface {
	OrderPlaced(o *models.Order)
	OrderCancelled(o *models.Order)
	OrderUpdated(o *models.Order, admin string)
}

func orderEvent(o *models.Order) map[string]interface{} {
	evt := map[string]interface{}{
		"order_id":     o.ID,
		"status":       o.Status,
		"can_cancel":   o.CanCancel,
		"order_date":   o.FormattedDate(),
		"total_amount": o.TotalAmount.String(),
		"advance":      o.AdvancePayment.String(),
	}
	if o.UserID != nil {
		evt["user_id"] = *o.UserID
	}
	return evt
}
