package middleware

import (
	"strings"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	adminIDLocal   = "admin_id"
	adminNameLocal = "admin"
)

// AdminRequired guards the back office. The request must carry
// "Authorization: Bearer <token>" issued by AuthService.LoginAdmin.
func AdminRequired(authService *services.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, msg := bearerToken(c.Get(fiber.HeaderAuthorization))
		if msg != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": msg})
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Info("admin token rejected", zap.String("path", c.Path()), zap.String("ip", c.IP()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(adminIDLocal, claims["admin_id"])
		c.Locals(adminNameLocal, claims["username"])
		return c.Next()
	}
}

// bearerToken extracts the token, or returns a message explaining why not.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Authorization header is required"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", "Authorization header format must be 'Bearer <token>'"
	}
	return strings.TrimSpace(token), ""
}

// AdminName returns the username stored by AdminRequired.
func AdminName(c *fiber.Ctx) string {
	name, _ := c.Locals(adminNameLocal).(string)
	return name
}
