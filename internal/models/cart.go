package models

import "github.com/shopspring/decimal"

// CartItem is one entry of the session cart. Price and discount are captured
// when the product is added.
type CartItem struct {
	ProductID       string          `json:"product_id"`
	Title           string          `json:"title"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	Image           string          `json:"image"`
	MinQuantity     int             `json:"min_quantity"`
	MaxQuantity     int             `json:"max_quantity"`
	DiscountPercent int             `json:"discount_percent"`
}

// LineTotal is unit_price * quantity less the discount, rounded to 2 places.
func (i CartItem) LineTotal() decimal.Decimal {
	gross := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return ApplyDiscount(gross, i.DiscountPercent).Round(2)
}

// Cart keeps entries in the order they were added.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Empty reports whether the cart has no entries.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Find returns the index of productID, or -1.
func (c *Cart) Find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Put appends item or replaces the entry with the same product.
func (c *Cart) Put(item CartItem) {
	if i := c.Find(item.ProductID); i >= 0 {
		c.Items[i] = item
		return
	}
	c.Items = append(c.Items, item)
}

// Remove drops productID. It reports whether an entry was removed.
func (c *Cart) Remove(productID string) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}
