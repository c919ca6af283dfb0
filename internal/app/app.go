// Package app wires configuration, storage, services and HTTP routes into a
// ready-to-listen fiber application.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/validation"
	"storefront/pkg/auditlog"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the assembled storefront.
type App struct {
	Fiber *fiber.App
	DB    *gorm.DB

	logger *zap.Logger
	audit  *auditlog.Log
	mq     *rabbitmq.Client
}

// New opens the database, seeds it and registers every route.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	a := &App{DB: db, logger: logger}

	key, err := cookieKey(cfg.Session.Secret, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	deliveryRepo := repositories.NewGORMDeliveryChargeRepository(db)
	adminRepo := repositories.NewGORMAdminRepository(db)

	opts := []services.OrderOption{}
	if cfg.Business.OrderLogPath != "" {
		a.audit, err = auditlog.Open(cfg.Business.OrderLogPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open order log: %w", err)
		}
		opts = append(opts, services.WithAuditLog(a.audit))
	}
	if cfg.RabbitMQ.URL != "" {
		// Events are best effort; the shop runs without a broker.
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, logger)
		if err != nil {
			logger.Warn("order events disabled", zap.Error(err))
		} else {
			opts = append(opts, services.WithPublisher(a.mq))
		}
	}

	validate := validation.New()
	deliveryService := services.NewDeliveryService(deliveryRepo, validate, logger)
	if err := deliveryService.Load(ctx, cfg.DeliveryCharges); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Admin.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, admin tokens are signed with the development key")
	}
	authService := services.NewAuthService(adminRepo, cfg.Admin.JWTSecret, logger)
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}
	productService := services.NewProductService(productRepo, validate)
	cartService := services.NewCartService(productRepo)
	orderService := services.NewOrderService(orderRepo, deliveryService, validate, logger, cfg.Business.MinOrderValue, opts...)
	userService := services.NewUserService(userRepo, orderRepo, validate)
	dashboardService := services.NewDashboardService(productRepo, userRepo, orderRepo)

	sessions := middleware.NewSessions(cfg.Session.TTL, cfg.IsProduction(), logger)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: errorHandler(logger),
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(fiberlogger.New())
	app.Use(metrics.Middleware())
	app.Use(encryptcookie.New(encryptcookie.Config{Key: key}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public routes come first so the admin group middleware never sees them.
	handlers.NewAuthHandler(userService, authService, sessions, logger).RegisterRoutes(app)
	handlers.NewCatalogHandler(productService, logger).RegisterRoutes(app)

	admin := app.Group("/admin", middleware.AdminRequired(authService, logger))
	handlers.NewAdminHandler(dashboardService, orderService, deliveryService, logger).RegisterAdminRoutes(admin)
	handlers.NewProductHandler(productService, logger).RegisterAdminRoutes(admin)
	userHandler := handlers.NewUserHandler(userService, logger)
	userHandler.RegisterAdminRoutes(admin)

	// Customer routes are guarded one by one so unknown paths still 404.
	customer := middleware.CustomerRequired(sessions)
	handlers.NewCartHandler(cartService, orderService, sessions, logger).RegisterRoutes(app, customer)
	handlers.NewOrderHandler(orderService, userService, sessions, cfg.Business.PaymentQRImage, logger).RegisterRoutes(app, customer)
	userHandler.RegisterRoutes(app, customer)

	a.Fiber = app
	return a, nil
}

// Close releases the broker connection, the order log and the database.
func (a *App) Close() error {
	var err error
	if a.mq != nil {
		err = multierr.Append(err, a.mq.Close())
	}
	if a.audit != nil {
		err = multierr.Append(err, a.audit.Close())
	}
	if a.DB != nil {
		if sqlDB, dbErr := a.DB.DB(); dbErr == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
	}
	return err
}

// cookieKey validates SESSION_SECRET or generates a throwaway key.
func cookieKey(secret string, logger *zap.Logger) (string, error) {
	if secret == "" {
		logger.Warn("SESSION_SECRET is not set, sessions will not survive a restart")
		return encryptcookie.GenerateKey(), nil
	}
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", errors.New("SESSION_SECRET must be base64 encoded")
	}
	switch len(raw) {
	case 16, 24, 32:
		return secret, nil
	}
	return "", fmt.Errorf("SESSION_SECRET must decode to 16, 24 or 32 bytes, got %d", len(raw))
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"message": utils.StatusMessage(code)})
	}
}
