package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles checkout and the customer's own orders.
type OrderHandler struct {
	orders    *services.OrderService
	users     *services.UserService
	sessions  *middleware.Sessions
	paymentQR string
	logger    *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, users *services.UserService, sessions *middleware.Sessions, paymentQR string, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, users: users, sessions: sessions, paymentQR: paymentQR, logger: logger}
}

// RegisterRoutes registers the order routes. Each route runs behind customer.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, customer fiber.Handler) {
	router.Get("/checkout", customer, h.HandleCheckout)
	router.Post("/place_order", customer, h.HandlePlaceOrder)
	router.Get("/my_orders", customer, h.HandleMyOrders)
	router.Post("/cancel_order/:id", customer, h.HandleCancelOrder)
}

// redirectForPolicy sends an empty cart to the catalog and a small one back
// to the cart. It reports false for other errors.
func (h *OrderHandler) redirectForPolicy(c *fiber.Ctx, sess *middleware.Session, err error) (bool, error) {
	switch {
	case errors.Is(err, services.ErrCartEmpty):
		return true, c.Redirect("/", fiber.StatusSeeOther)
	case errors.Is(err, services.ErrBelowMinimum):
		sess.Flash("Minimum order value is " + h.orders.MinOrderValue().StringFixed(2) + ". Add more items to check out.")
		if serr := sess.Save(); serr != nil {
			return true, respondError(c, h.logger, serr, "Could not save session")
		}
		return true, c.Redirect("/cart", fiber.StatusSeeOther)
	}
	return false, nil
}

// HandleCheckout prices the cart for ?state and ?city, defaulting to the
// customer's saved address.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	user, err := h.users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not load profile")
	}

	state, city := c.Query("state", user.State), c.Query("city", user.City)
	view, err := h.orders.Checkout(sess.Cart(), state, city)
	if err != nil {
		if handled, rerr := h.redirectForPolicy(c, sess, err); handled {
			return rerr
		}
		return respondError(c, h.logger, err, "Could not prepare checkout")
	}
	return c.JSON(fiber.Map{
		"checkout":   view,
		"profile":    user,
		"payment_qr": h.paymentQR,
	})
}

// HandlePlaceOrder turns the session cart into an order. The minimum is
// checked again here, whatever the checkout page showed.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}

	cart := sess.Cart()
	order, user, err := h.orders.PlaceOrder(c.UserContext(), req, cart)
	if err != nil {
		if handled, rerr := h.redirectForPolicy(c, sess, err); handled {
			return rerr
		}
		return respondError(c, h.logger, err, "Could not place order, please try again")
	}

	cart.Clear()
	if err := sess.SetCart(cart); err != nil {
		return respondError(c, h.logger, err, "Could not save session")
	}
	sess.SetUserID(user.ID)
	if err := sess.Save(); err != nil {
		// The order exists; only the session lags behind.
		h.logger.Error("failed to save session after order", zap.String("order_id", order.ID), zap.Error(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed",
		"order":   order,
		"items":   order.ItemsSummary(),
	})
}

// HandleMyOrders lists the customer's orders with current cancellation eligibility.
func (h *OrderHandler) HandleMyOrders(c *fiber.Ctx) error {
	orders, err := h.orders.MyOrders(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// HandleCancelOrder cancels one of the customer's orders.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.orders.CancelOrder(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		msg := "Could not cancel order"
		if errors.Is(err, services.ErrCancellationExpired) {
			msg = "Orders can only be cancelled within 24 hours"
		}
		return respondError(c, h.logger, err, msg)
	}
	return c.JSON(fiber.Map{"message": "Order cancelled", "order": order})
}
