package handlers

import (
	"io"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxImportSize bounds uploaded product workbooks.
const maxImportSize = 10 << 20

// ProductHandler handles the admin product screens.
type ProductHandler struct {
	service *services.ProductService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{service: service, logger: logger}
}

// RegisterAdminRoutes registers the product routes under an admin group.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleListProducts)
	products.Post("/", h.HandleCreateProduct)
	products.Get("/export", h.HandleExportProducts)
	products.Post("/import", h.HandleImportProducts)
	products.Get("/:id", h.HandleGetProduct)
	products.Put("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}

func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.Browse(c.UserContext(), repositories.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, err)
	}
	product.ID = ""
	if err := h.service.Create(c.UserContext(), &product); err != nil {
		return respondError(c, h.logger, err, "Could not create product")
	}
	h.logger.Info("product created", zap.String("product_id", product.ID), zap.String("admin", middleware.AdminName(c)))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces every mutable field of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, err)
	}
	if err := h.service.Update(c.UserContext(), c.Params("id"), &product); err != nil {
		return respondError(c, h.logger, err, "Could not update product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err, "Could not delete product")
	}
	h.logger.Info("product deleted", zap.String("product_id", id), zap.String("admin", middleware.AdminName(c)))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) HandleExportProducts(c *fiber.Ctx) error {
	data, err := h.service.ExportProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not export products")
	}
	return sendWorkbook(c, "products.xlsx", data)
}

// HandleImportProducts reads a multipart "file" in the export layout.
func (h *ProductHandler) HandleImportProducts(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Excel file is required"})
	}
	if fh.Size > maxImportSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"message": "Excel file is too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, h.logger, err, "Could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return respondError(c, h.logger, err, "Could not read upload")
	}

	res, err := h.service.ImportProducts(c.UserContext(), data)
	if err != nil {
		return respondError(c, h.logger, err, "Could not import products")
	}
	h.logger.Info("products imported",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.String("admin", middleware.AdminName(c)))
	return c.JSON(fiber.Map{"message": "Import completed", "result": res})
}

func sendWorkbook(c *fiber.Ctx, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, services.XLSXContentType)
	c.Attachment(filename)
	return c.Send(data)
}
