package handlers

import (
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CatalogHandler serves the public catalog.
type CatalogHandler struct {
	products *services.ProductService
	logger   *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(products *services.ProductService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, logger: logger}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleBrowse)
	router.Get("/product/:id", h.HandleProduct)
}

// HandleBrowse lists products, filtered by ?q, ?category and ?tag.
func (h *CatalogHandler) HandleBrowse(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
	}
	products, err := h.products.Browse(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve products")
	}
	categories, err := h.products.Categories(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve categories")
	}
	return c.JSON(fiber.Map{
		"products":   products,
		"categories": categories,
		"query":      filter.Query,
		"category":   filter.Category,
		"tag":        filter.Tag,
	})
}

// HandleProduct returns one product with related items.
func (h *CatalogHandler) HandleProduct(c *fiber.Ctx) error {
	detail, err := h.products.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve product")
	}
	return c.JSON(detail)
}
