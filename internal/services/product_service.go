package services

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// RelatedLimit is how many related products a detail page shows.
const RelatedLimit = 4

// ProductDetail is a product with a few others from its category.
type ProductDetail struct {
	Product         *models.Product  `json:"product"`
	DiscountedPrice string           `json:"discounted_price"`
	Related         []models.Product `json:"related"`
}

// ProductService handles business logic for the catalog.
type ProductService struct {
	productRepo repositories.ProductRepository
	validate    *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository, validate *validator.Validate) *ProductService {
	return &ProductService{productRepo: productRepo, validate: validate}
}

// Browse lists products matching filter.
func (s *ProductService) Browse(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	return s.productRepo.List(ctx, filter)
}

// Categories lists the catalog's categories.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// Get retrieves a product by its ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product %s", id)
	}
	return product, nil
}

// Detail returns a product with related ones.
func (s *ProductService) Detail(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.productRepo.Related(ctx, product, RelatedLimit)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{
		Product:         product,
		DiscountedPrice: product.DiscountedPrice().StringFixed(2),
		Related:         related,
	}, nil
}

// Create validates and stores a new product.
func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	normalizeProduct(product)
	if err := s.validate.Struct(product); err != nil {
		return invalid(err)
	}
	return s.productRepo.Create(ctx, product)
}

// Update validates and replaces an existing product.
func (s *ProductService) Update(ctx context.Context, id string, product *models.Product) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	product.ID = id
	product.CreatedAt = existing.CreatedAt
	normalizeProduct(product)
	if err := s.validate.Struct(product); err != nil {
		return invalid(err)
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return notFound(err, "product %s", id)
	}
	return nil
}

// Delete removes a product. Past orders keep their snapshot.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return notFound(err, "product %s", id)
	}
	return nil
}

func normalizeProduct(p *models.Product) {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	if p.MinQuantity == 0 {
		p.MinQuantity = 1
	}
	p.Tags = p.Tags.NormalizeSet()
}
