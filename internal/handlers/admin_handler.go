package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler serves the dashboard, order management and delivery settings.
type AdminHandler struct {
	dashboard *services.DashboardService
	orders    *services.OrderService
	delivery  *services.DeliveryService
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(dashboard *services.DashboardService, orders *services.OrderService, delivery *services.DeliveryService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, orders: orders, delivery: delivery, logger: logger}
}

// RegisterAdminRoutes registers the routes under an admin group.
func (h *AdminHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/dashboard", h.HandleDashboard)

	orders := router.Group("/orders")
	orders.Get("/", h.HandleListOrders)
	orders.Get("/export", h.HandleExportOrders)
	orders.Get("/:id", h.HandleGetOrder)
	orders.Put("/:id", h.HandleUpdateOrder)
	orders.Patch("/:id/status", h.HandleUpdateOrderStatus)
	orders.Patch("/:id/cancellable", h.HandleSetCancellable)

	router.Get("/delivery-charges", h.HandleListDeliveryCharges)
	router.Put("/delivery-charges", h.HandleSetDeliveryCharge)
	router.Delete("/delivery-charges", h.HandleDeleteDeliveryCharge)
}

func (h *AdminHandler) HandleDashboard(c *fiber.Ctx) error {
	d, err := h.dashboard.Summary(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not load dashboard")
	}
	return c.JSON(d)
}

// HandleListOrders lists orders filtered by ?q and ?status.
func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext(), c.Query("q"), c.Query("status"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *AdminHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve order")
	}
	return c.JSON(fiber.Map{"order": order, "items": order.ItemsSummary()})
}

func (h *AdminHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var upd services.OrderUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, err)
	}
	order, err := h.orders.UpdateOrder(c.UserContext(), c.Params("id"), upd, middleware.AdminName(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not update order")
	}
	return c.JSON(order)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateOrderStatus sets any status, outside the normal lifecycle if need be.
func (h *AdminHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	order, err := h.orders.SetStatus(c.UserContext(), c.Params("id"), req.Status, middleware.AdminName(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not update order status")
	}
	return c.JSON(order)
}

type cancellableRequest struct {
	CanCancel *bool `json:"can_cancel"`
}

func (h *AdminHandler) HandleSetCancellable(c *fiber.Ctx) error {
	var req cancellableRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if req.CanCancel == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"can_cancel": "can_cancel is required"},
		})
	}
	order, err := h.orders.SetCancellable(c.UserContext(), c.Params("id"), *req.CanCancel, middleware.AdminName(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not update order")
	}
	return c.JSON(order)
}

func (h *AdminHandler) HandleExportOrders(c *fiber.Ctx) error {
	data, err := h.orders.ExportOrders(c.UserContext(), c.Query("q"), c.Query("status"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not export orders")
	}
	return sendWorkbook(c, "orders.xlsx", data)
}

func (h *AdminHandler) HandleListDeliveryCharges(c *fiber.Ctx) error {
	return c.JSON(h.delivery.Rows())
}

// HandleSetDeliveryCharge creates or replaces one state/city fee.
func (h *AdminHandler) HandleSetDeliveryCharge(c *fiber.Ctx) error {
	var charge models.DeliveryCharge
	if err := c.BodyParser(&charge); err != nil {
		return badRequest(c, err)
	}
	if err := h.delivery.Set(c.UserContext(), charge); err != nil {
		return respondError(c, h.logger, err, "Could not save delivery charge")
	}
	h.logger.Info("delivery charge set",
		zap.String("state", charge.State),
		zap.String("city", charge.City),
		zap.String("amount", charge.Amount.String()),
		zap.String("admin", middleware.AdminName(c)))
	return c.JSON(h.delivery.Rows())
}

type deliveryKeyRequest struct {
	State string `query:"state"`
	City  string `query:"city"`
}

// HandleDeleteDeliveryCharge removes the fee named by ?state and ?city.
func (h *AdminHandler) HandleDeleteDeliveryCharge(c *fiber.Ctx) error {
	var req deliveryKeyRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.delivery.Delete(c.UserContext(), req.State, req.City); err != nil {
		return respondError(c, h.logger, err, "Could not delete delivery charge")
	}
	return c.JSON(h.delivery.Rows())
}
