package models

import "github.com/shopspring/decimal"

// DeliveryCharge is a flat delivery fee for one city of a state.
type DeliveryCharge struct {
	State  string          `json:"state" gorm:"primaryKey;type:varchar(100)" validate:"required,max=100"`
	City   string          `json:"city" gorm:"primaryKey;type:varchar(100)" validate:"required,max=100"`
	Amount decimal.Decimal `json:"amount" gorm:"type:decimal(14,4);not null" validate:"gte=0"`
}
