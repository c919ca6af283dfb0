package middleware

import (
	"encoding/json"
	"time"

	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const (
	sessionUserKey  = "user_id"
	sessionCartKey  = "cart"
	sessionFlashKey = "flash"

	sessionLocal = "session"
)

// Sessions wraps the fiber session store. Values are kept as strings so the
// store needs no gob type registration.
type Sessions struct {
	store  *session.Store
	logger *zap.Logger
}

// NewSessions creates an in-process session store.
func NewSessions(ttl time.Duration, secure bool, logger *zap.Logger) *Sessions {
	return &Sessions{
		store: session.New(session.Config{
			Expiration:     ttl,
			KeyLookup:      "cookie:storefront_session",
			CookieHTTPOnly: true,
			CookieSecure:   secure,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
		logger: logger,
	}
}

// Session is one request's view of the session.
type Session struct {
	*session.Session
	logger *zap.Logger
}

// Get returns the request's session, reusing the one loaded by middleware.
func (s *Sessions) Get(c *fiber.Ctx) (*Session, error) {
	if sess, ok := c.Locals(sessionLocal).(*Session); ok {
		return sess, nil
	}
	raw, err := s.store.Get(c)
	if err != nil {
		return nil, err
	}
	sess := &Session{Session: raw, logger: s.logger}
	c.Locals(sessionLocal, sess)
	return sess, nil
}

// UserID is the logged-in customer, or "".
func (s *Session) UserID() string {
	id, _ := s.Get(sessionUserKey).(string)
	return id
}

// SetUserID binds the session to a customer.
func (s *Session) SetUserID(id string) {
	s.Set(sessionUserKey, id)
}

// Cart decodes the session cart. A missing or unreadable cart is empty.
func (s *Session) Cart() models.Cart {
	var cart models.Cart
	raw, _ := s.Get(sessionCartKey).(string)
	if raw == "" {
		return cart
	}
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		s.logger.Warn("discarding unreadable session cart", zap.Error(err))
		return models.Cart{}
	}
	return cart
}

// SetCart stores cart, dropping the key when it is empty.
func (s *Session) SetCart(cart models.Cart) error {
	if cart.Empty() {
		s.Delete(sessionCartKey)
		return nil
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	s.Set(sessionCartKey, string(raw))
	return nil
}

// Flash leaves a one-shot message for the next page.
func (s *Session) Flash(msg string) {
	s.Set(sessionFlashKey, msg)
}

// TakeFlash returns and clears the pending message.
func (s *Session) TakeFlash() string {
	msg, _ := s.Get(sessionFlashKey).(string)
	if msg != "" {
		s.Delete(sessionFlashKey)
	}
	return msg
}

// CustomerRequired rejects requests whose session has no customer.
func CustomerRequired(sessions *Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c)
		if err != nil {
			sessions.logger.Error("failed to load session", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not load session",
			})
		}
		userID := sess.UserID()
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Login required",
			})
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}

// UserID returns the customer stored by CustomerRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
