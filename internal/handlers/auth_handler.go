package handlers

import (
	"errors"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles customer login by phone and back-office login.
type AuthHandler struct {
	users    *services.UserService
	auth     *services.AuthService
	sessions *middleware.Sessions
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *services.UserService, auth *services.AuthService, sessions *middleware.Sessions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, auth: auth, sessions: sessions, logger: logger}
}

// RegisterRoutes registers the login routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/login", h.HandleWhoAmI)
	router.Post("/login", h.HandleLogin)
	router.Post("/logout", h.HandleLogout)
	router.Post("/admin/login", h.HandleAdminLogin)
}

// HandleWhoAmI reports who the session belongs to.
func (h *AuthHandler) HandleWhoAmI(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	userID := sess.UserID()
	if userID == "" {
		return c.JSON(fiber.Map{"logged_in": false})
	}
	user, err := h.users.Get(c.UserContext(), userID)
	if errors.Is(err, services.ErrNotFound) {
		// The user was deleted by an admin.
		sess.SetUserID("")
		if err := sess.Save(); err != nil {
			return respondError(c, h.logger, err, "Could not save session")
		}
		return c.JSON(fiber.Map{"logged_in": false})
	}
	if err != nil {
		return respondError(c, h.logger, err, "Could not load user")
	}
	return c.JSON(fiber.Map{"logged_in": true, "user": user})
}

// HandleLogin logs a customer in by phone, registering unknown numbers.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	user, err := h.users.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "Could not log in")
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	if err := sess.Regenerate(); err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	sess.SetUserID(user.ID)
	if err := sess.Save(); err != nil {
		return respondError(c, h.logger, err, "Could not save session")
	}
	h.logger.Info("customer logged in", zap.String("user_id", user.ID))
	return c.JSON(fiber.Map{"message": "Logged in", "user": user})
}

// HandleLogout ends the session, cart included.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load session")
	}
	if err := sess.Destroy(); err != nil {
		return respondError(c, h.logger, err, "Could not end session")
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

type adminLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// HandleAdminLogin exchanges admin credentials for a token.
func (h *AuthHandler) HandleAdminLogin(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Username and password are required",
		})
	}

	token, err := h.auth.LoginAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Warn("admin login failed", zap.String("username", req.Username), zap.String("ip", c.IP()))
		}
		return respondError(c, h.logger, err, "Could not log in")
	}
	return c.JSON(fiber.Map{"message": "Login successful", "token": token})
}
