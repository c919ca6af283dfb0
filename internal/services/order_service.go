package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CancellationWindow is how long after placement a customer may cancel.
const CancellationWindow = 24 * time.Hour

// PlaceOrderRequest is the shipping form submitted at checkout. Totals are
// never taken from the client.
type PlaceOrderRequest struct {
	Name          string `json:"name" form:"name" validate:"required,max=100"`
	Phone         string `json:"phone" form:"phone" validate:"required,numeric,min=10,max=15"`
	Email         string `json:"email" form:"email" validate:"omitempty,email"`
	State         string `json:"state" form:"state" validate:"required,max=100"`
	City          string `json:"city" form:"city" validate:"required,max=100"`
	Address       string `json:"address" form:"address" validate:"required,max=500"`
	TransactionID string `json:"transaction_id" form:"transaction_id" validate:"required,max=100"`
}

// OrderUpdate holds the fields an admin may replace on an order.
type OrderUpdate struct {
	Name          string             `json:"name" validate:"required,max=100"`
	Phone         string             `json:"phone" validate:"required,numeric,min=10,max=15"`
	State         string             `json:"state" validate:"max=100"`
	City          string             `json:"city" validate:"max=100"`
	Address       string             `json:"address" validate:"max=500"`
	TransactionID string             `json:"transaction_id" validate:"max=100"`
	Status        models.OrderStatus `json:"status" validate:"required"`
	CanCancel     bool               `json:"can_cancel"`
}

// OrderView is an order as shown to its owner.
type OrderView struct {
	models.Order
	ItemsSummary string `json:"items_summary"`
	Cancellable  bool   `json:"cancellable"`
}

// CheckoutView is what the checkout page needs.
type CheckoutView struct {
	Quote         pricing.Quote           `json:"quote"`
	State         string                  `json:"state"`
	City          string                  `json:"city"`
	MinOrderValue decimal.Decimal         `json:"min_order_value"`
	Delivery      []models.DeliveryCharge `json:"delivery_charges"`
}

// OrderOption configures an OrderService.
type OrderOption func(*OrderService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// WithPublisher sets the broker that receives order events.
func WithPublisher(p EventPublisher) OrderOption {
	return func(s *OrderService) { s.publisher = p }
}

// WithAuditLog sets the order audit trail.
func WithAuditLog(a AuditLog) OrderOption {
	return func(s *OrderService) { s.audit = a }
}

// OrderService handles checkout, customer order history and cancellation,
// and the admin side of order management.
type OrderService struct {
	orders   repositories.OrderRepository
	delivery *DeliveryService
	validate *validator.Validate
	logger   *zap.Logger
	minOrder decimal.Decimal

	publisher EventPublisher
	audit     AuditLog
	now       func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders repositories.OrderRepository, delivery *DeliveryService, validate *validator.Validate,
	logger *zap.Logger, minOrder decimal.Decimal, opts ...OrderOption) *OrderService {
	s := &OrderService{
		orders:   orders,
		delivery: delivery,
		validate: validate,
		logger:   logger,
		minOrder: minOrder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinOrderValue is the smallest subtotal that may be ordered.
func (s *OrderService) MinOrderValue() decimal.Decimal {
	return s.minOrder
}

// Quote prices cart for a destination.
func (s *OrderService) Quote(cart models.Cart, state, city string) pricing.Quote {
	return pricing.Compute(cart.Items, s.delivery.Table(), state, city)
}

// CheckoutAllowed reports whether the cart may proceed to checkout.
func (s *OrderService) CheckoutAllowed(cart models.Cart) error {
	if cart.Empty() {
		return ErrCartEmpty
	}
	q := s.Quote(cart, "", "")
	if !pricing.MeetsMinimum(q.Subtotal, s.minOrder) {
		return fmt.Errorf("%w: subtotal %s, minimum %s", ErrBelowMinimum, q.Subtotal.StringFixed(2), s.minOrder.StringFixed(2))
	}
	return nil
}

// Checkout prices the cart for the page, enforcing the minimum.
func (s *OrderService) Checkout(cart models.Cart, state, city string) (*CheckoutView, error) {
	if err := s.CheckoutAllowed(cart); err != nil {
		return nil, err
	}
	return &CheckoutView{
		Quote:         s.Quote(cart, state, city),
		State:         state,
		City:          city,
		MinOrderValue: s.minOrder,
		Delivery:      s.delivery.Rows(),
	}, nil
}

// PlaceOrder turns cart into a stored order and upserts the customer by phone.
// The user mutation and the order insert commit together or not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest, cart models.Cart) (*models.Order, *models.User, error) {
	if err := s.CheckoutAllowed(cart); err != nil {
		reason := "empty_cart"
		if errors.Is(err, ErrBelowMinimum) {
			reason = "below_minimum"
		}
		metrics.OrderPlacementFailures.WithLabelValues(reason).Inc()
		return nil, nil, err
	}
	req = trimRequest(req)
	if err := s.validate.Struct(req); err != nil {
		metrics.OrderPlacementFailures.WithLabelValues("validation").Inc()
		return nil, nil, invalid(err)
	}

	quote := s.Quote(cart, req.State, req.City)
	order := &models.Order{
		ID:             uuid.New().String(),
		OrderDate:      s.now().UTC().Truncate(time.Second),
		Name:           req.Name,
		Phone:          req.Phone,
		State:          req.State,
		City:           req.City,
		Address:        req.Address,
		TransactionID:  req.TransactionID,
		Subtotal:       quote.Subtotal,
		DeliveryCharge: quote.DeliveryCharge,
		TotalAmount:    quote.TotalAmount,
		AdvancePayment: quote.AdvancePayment,
		Status:         models.OrderStatusProcessing,
		CanCancel:      true,
		Items:          make([]models.OrderItem, 0, len(quote.Lines)),
	}
	for i, line := range quote.Lines {
		order.Items = append(order.Items, models.OrderItem{
			Position:        i + 1,
			ProductID:       line.ProductID,
			Title:           line.Title,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			Quantity:        line.Quantity,
			LineTotal:       line.LineTotal,
		})
	}
	customer := &models.User{
		ID:      uuid.New().String(),
		Phone:   req.Phone,
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		State:   req.State,
		City:    req.City,
	}

	if err := s.orders.PlaceOrder(ctx, customer, order); err != nil {
		metrics.OrderPlacementFailures.WithLabelValues("storage").Inc()
		return nil, nil, err
	}

	metrics.OrdersPlacedTotal.Inc()
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", customer.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	if s.audit != nil {
		s.audit.OrderPlaced(order)
	}
	s.publish(EventOrderPlaced, order)
	return order, customer, nil
}

// MyOrders lists a customer's orders, newest first, with eligibility evaluated now.
func (s *OrderService) MyOrders(ctx context.Context, userID string) ([]OrderView, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, OrderView{
			Order:        orders[i],
			ItemsSummary: orders[i].ItemsSummary(),
			Cancellable:  Cancellable(&orders[i], now),
		})
	}
	return views, nil
}

// Cancellable reports whether the owner may cancel o at now. The flag and the
// window gate independently; only Processing orders can be cancelled.
func Cancellable(o *models.Order, now time.Time) bool {
	return o.Status == models.OrderStatusProcessing &&
		o.CanCancel &&
		now.Sub(o.OrderDate) < CancellationWindow
}

// CancelOrder cancels an order on behalf of its owner.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	now := s.now().UTC()
	ok, err := s.orders.CancelIfAllowed(ctx, orderID, userID, now.Add(-CancellationWindow))
	if err != nil {
		return nil, err
	}

	order, getErr := s.orders.GetByID(ctx, orderID)
	if !ok {
		return nil, s.rejection(orderID, order, getErr, userID, now)
	}
	if getErr != nil {
		return nil, getErr
	}

	metrics.OrdersCancelledTotal.WithLabelValues("customer").Inc()
	s.logger.Info("order cancelled", zap.String("order_id", order.ID), zap.String("user_id", userID))
	if s.audit != nil {
		s.audit.OrderCancelled(order)
	}
	s.publish(EventOrderCancelled, order)
	return order, nil
}

// rejection explains why the conditional cancel matched no row.
func (s *OrderService) rejection(orderID string, order *models.Order, getErr error, userID string, now time.Time) error {
	var reason string
	var err error
	switch {
	case getErr != nil && !errors.Is(getErr, repositories.ErrNotFound):
		return getErr
	case getErr != nil || !order.OwnedBy(userID):
		// Someone else's order looks the same as a missing one.
		reason, err = "not_found", fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	case !order.CanCancel || order.Status != models.OrderStatusProcessing:
		reason, err = "forbidden", ErrCancellationForbidden
	case now.Sub(order.OrderDate) >= CancellationWindow:
		reason, err = "expired", ErrCancellationExpired
	default:
		reason, err = "forbidden", ErrCancellationForbidden
	}
	metrics.CancellationRejections.WithLabelValues(reason).Inc()
	return err
}

// ListOrders returns orders for the back office.
func (s *OrderService) ListOrders(ctx context.Context, query, status string) ([]models.Order, error) {
	filter := repositories.OrderFilter{Query: strings.TrimSpace(query)}
	if status != "" {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, invalidField("status", err.Error())
		}
		filter.Status = st
	}
	return s.orders.List(ctx, filter)
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order %s", id)
	}
	return order, nil
}

// UpdateOrder replaces the mutable fields of an order. Prices and items stay.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, upd OrderUpdate, admin string) (*models.Order, error) {
	if st, err := models.ParseOrderStatus(string(upd.Status)); err == nil {
		upd.Status = st
	}
	if err := s.validate.Struct(upd); err != nil {
		return nil, invalid(err)
	}
	if !upd.Status.Valid() {
		return nil, invalidField("status", fmt.Sprintf("invalid order status: %q", upd.Status))
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.warnOffGraph(order, upd.Status, admin)

	order.Name = upd.Name
	order.Phone = upd.Phone
	order.State = upd.State
	order.City = upd.City
	order.Address = upd.Address
	order.TransactionID = upd.TransactionID
	order.Status = upd.Status
	order.CanCancel = upd.CanCancel
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, notFound(err, "order %s", id)
	}
	return s.afterAdminEdit(ctx, id, admin)
}

// SetStatus sets any status. Admins may bypass the normal lifecycle.
func (s *OrderService) SetStatus(ctx context.Context, id, status, admin string) (*models.Order, error) {
	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, invalidField("status", err.Error())
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.warnOffGraph(order, st, admin)
	if err := s.orders.UpdateStatus(ctx, id, st); err != nil {
		return nil, notFound(err, "order %s", id)
	}
	return s.afterAdminEdit(ctx, id, admin)
}

// SetCancellable sets the flag that gates customer cancellation. It cannot
// extend the window.
func (s *OrderService) SetCancellable(ctx context.Context, id string, canCancel bool, admin string) (*models.Order, error) {
	if err := s.orders.SetCanCancel(ctx, id, canCancel); err != nil {
		return nil, notFound(err, "order %s", id)
	}
	return s.afterAdminEdit(ctx, id, admin)
}

func (s *OrderService) warnOffGraph(order *models.Order, next models.OrderStatus, admin string) {
	if order.Status == next || order.Status.CanTransitionTo(next) {
		return
	}
	s.logger.Warn("order status set outside the normal lifecycle",
		zap.String("order_id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)),
		zap.String("admin", admin))
}

func (s *OrderService) afterAdminEdit(ctx context.Context, id, admin string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		metrics.OrdersCancelledTotal.WithLabelValues("admin").Inc()
	}
	if s.audit != nil {
		s.audit.OrderUpdated(order, admin)
	}
	s.publish(EventOrderUpdated, order)
	return order, nil
}

func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(routingKey, orderEvent(order)); err != nil {
		// The order is already committed; a lost event is only logged.
		s.logger.Error("failed to publish order event",
			zap.String("event", routingKey),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

func trimRequest(req PlaceOrderRequest) PlaceOrderRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.State = strings.TrimSpace(req.State)
	req.City = strings.TrimSpace(req.City)
	req.Address = strings.TrimSpace(req.Address)
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	return req
}
