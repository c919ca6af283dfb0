package services

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService applies cart mutations against the catalog. The cart itself
// lives in the caller's session; the service only edits the value passed in.
type CartService struct {
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(products repositories.ProductRepository) *CartService {
	return &CartService{products: products}
}

// Add puts quantity units of productID into cart. A zero quantity means the
// product's minimum. Adding a product already in the cart sums the quantities
// and keeps the original price snapshot.
func (s *CartService) Add(ctx context.Context, cart *models.Cart, productID string, quantity int) (*models.CartItem, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product %s", productID)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrQuantityOutOfRange)
	}
	if quantity == 0 {
		quantity = max(product.MinQuantity, 1)
	}

	item := models.CartItem{
		ProductID:       product.ID,
		Title:           product.Title,
		UnitPrice:       product.Price,
		Image:           product.Image,
		MinQuantity:     product.MinQuantity,
		MaxQuantity:     product.MaxQuantity,
		DiscountPercent: product.DiscountPercent,
	}
	if i := cart.Find(product.ID); i >= 0 {
		item = cart.Items[i]
		quantity += item.Quantity
	}
	if err := checkRange(quantity, item.MinQuantity, item.MaxQuantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	cart.Put(item)
	return &item, nil
}

// Update sets the quantity of an entry. Zero or less removes it.
func (s *CartService) Update(cart *models.Cart, productID string, quantity int) error {
	i := cart.Find(productID)
	if i < 0 {
		return fmt.Errorf("product %s in cart: %w", productID, ErrNotFound)
	}
	if quantity <= 0 {
		cart.Remove(productID)
		return nil
	}
	item := cart.Items[i]
	if err := checkRange(quantity, item.MinQuantity, item.MaxQuantity); err != nil {
		return err
	}
	cart.Items[i].Quantity = quantity
	return nil
}

// Remove drops an entry.
func (s *CartService) Remove(cart *models.Cart, productID string) error {
	if !cart.Remove(productID) {
		return fmt.Errorf("product %s in cart: %w", productID, ErrNotFound)
	}
	return nil
}

func checkRange(quantity, minQty, maxQty int) error {
	if minQty < 1 {
		minQty = 1
	}
	if quantity < minQty || (maxQty > 0 && quantity > maxQty) {
		return fmt.Errorf("%w: quantity must be between %d and %d", ErrQuantityOutOfRange, minQty, maxQty)
	}
	return nil
}
