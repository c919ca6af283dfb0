package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store.
type Product struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title           string          `json:"title" gorm:"type:varchar(200);not null" validate:"required,min=2,max=200"`
	Description     string          `json:"description" validate:"omitempty,max=5000"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(14,4);not null" validate:"gte=0"`
	Image           string          `json:"image"`
	MinQuantity     int             `json:"min_quantity" gorm:"not null;default:1" validate:"gte=1,ltefield=MaxQuantity"`
	MaxQuantity     int             `json:"max_quantity" gorm:"not null" validate:"gte=1"`
	DiscountPercent int             `json:"discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`
	Rating          float64         `json:"rating" validate:"gte=0,lte=5"`
	Stock           int             `json:"stock" validate:"gte=0"`
	Images          StringList      `json:"images" gorm:"type:text"`
	YoutubeURL      string          `json:"youtube_url" validate:"omitempty,url"`
	Category        string          `json:"category" gorm:"type:varchar(100);index"`
	Tags            StringList      `json:"tags" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DiscountedPrice is the unit price after the product's discount.
func (p *Product) DiscountedPrice() decimal.Decimal {
	return ApplyDiscount(p.Price, p.DiscountPercent)
}

// ApplyDiscount reduces amount by percent (0-100).
func ApplyDiscount(amount decimal.Decimal, percent int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return amount.Mul(factor)
}
