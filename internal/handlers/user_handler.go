package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles the customer profile and the admin user screens.
type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes registers /profile. Each route runs behind customer.
func (h *UserHandler) RegisterRoutes(router fiber.Router, customer fiber.Handler) {
	router.Get("/profile", customer, h.HandleGetProfile)
	router.Post("/profile", customer, h.HandleUpdateProfile)
}

// RegisterAdminRoutes registers the user management routes under an admin group.
func (h *UserHandler) RegisterAdminRoutes(router fiber.Router) {
	users := router.Group("/users")
	users.Get("/", h.HandleListUsers)
	users.Get("/:id", h.HandleGetUser)
	users.Put("/:id", h.HandleUpdateUser)
	users.Delete("/:id", h.HandleDeleteUser)
}

func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not load profile")
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var upd services.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, err)
	}
	user, err := h.users.UpdateProfile(c.UserContext(), middleware.UserID(c), upd)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update profile")
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "user": user})
}

func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve users")
	}
	return c.JSON(users)
}

func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	detail, err := h.users.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve user")
	}
	return c.JSON(detail)
}

func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return badRequest(c, err)
	}
	updated, err := h.users.Update(c.UserContext(), c.Params("id"), user)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update user")
	}
	return c.JSON(updated)
}

// HandleDeleteUser deletes a user together with their orders.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err, "Could not delete user")
	}
	h.logger.Info("user deleted", zap.String("user_id", id), zap.String("admin", middleware.AdminName(c)))
	return c.SendStatus(fiber.StatusNoContent)
}
