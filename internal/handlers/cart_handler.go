package handlers

import (
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler handles the session cart.
type CartHandler struct {
	carts    *services.CartService
	orders   *services.OrderService
	sessions *middleware.Sessions
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *services.CartService, orders *services.OrderService, sessions *middleware.Sessions, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, orders: orders, sessions: sessions, logger: logger}
}

// RegisterRoutes registers the cart routes. Each route runs behind customer.
func (h *CartHandler) RegisterRoutes(router fiber.Router, customer fiber.Handler) {
	router.Get("/cart", customer, h.HandleViewCart)
	router.Post("/add_to_cart/:id", customer, h.HandleAddToCart)
	router.Post("/update_cart/:id", customer, h.HandleUpdateCart)
	router.Post("/remove_from_cart/:id", customer, h.HandleRemoveFromCart)
}

type quantityRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

// HandleViewCart shows the cart priced without delivery.
func (h *CartHandler) HandleViewCart(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	cart := sess.Cart()
	flash := sess.TakeFlash()
	if err := sess.Save(); err != nil {
		return respondError(c, h.logger, err, "Could not save session")
	}

	quote := h.orders.Quote(cart, "", "")
	return c.JSON(fiber.Map{
		"items":            quote.Lines,
		"count":            cart.Count(),
		"subtotal":         quote.Subtotal,
		"min_order_value":  h.orders.MinOrderValue(),
		"checkout_allowed": pricing.MeetsMinimum(quote.Subtotal, h.orders.MinOrderValue()) && !cart.Empty(),
		"flash":            flash,
	})
}

// HandleAddToCart adds a product, defaulting to its minimum quantity.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req quantityRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	cart := sess.Cart()
	item, err := h.carts.Add(c.UserContext(), &cart, c.Params("id"), req.Quantity)
	if err != nil {
		return respondError(c, h.logger, err, "Could not add to cart")
	}
	if err := h.save(sess, cart); err != nil {
		return respondError(c, h.logger, err, "Could not save cart")
	}
	metrics.CartOperationsTotal.WithLabelValues("add").Inc()
	return c.JSON(fiber.Map{
		"message": "Added to cart",
		"item":    item,
		"count":   cart.Count(),
	})
}

// HandleUpdateCart sets a quantity; zero or less removes the entry.
func (h *CartHandler) HandleUpdateCart(c *fiber.Ctx) error {
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	cart := sess.Cart()
	if err := h.carts.Update(&cart, c.Params("id"), req.Quantity); err != nil {
		return respondError(c, h.logger, err, "Could not update cart")
	}
	if err := h.save(sess, cart); err != nil {
		return respondError(c, h.logger, err, "Could not save cart")
	}
	metrics.CartOperationsTotal.WithLabelValues("update").Inc()
	return c.JSON(fiber.Map{"message": "Cart updated", "count": cart.Count()})
}

// HandleRemoveFromCart drops an entry.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	cart := sess.Cart()
	if err := h.carts.Remove(&cart, c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not update cart")
	}
	if err := h.save(sess, cart); err != nil {
		return respondError(c, h.logger, err, "Could not save cart")
	}
	metrics.CartOperationsTotal.WithLabelValues("remove").Inc()
	return c.JSON(fiber.Map{"message": "Removed from cart", "count": cart.Count()})
}

func (h *CartHandler) save(sess *middleware.Session, cart models.Cart) error {
	if err := sess.SetCart(cart); err != nil {
		return err
	}
	return sess.Save()
}
