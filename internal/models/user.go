package models

import "time"

// User is a customer, keyed by phone number.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Phone     string    `json:"phone" gorm:"uniqueIndex;type:varchar(20);not null" validate:"required,numeric,min=10,max=15"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	Email     string    `json:"email" gorm:"type:varchar(255)" validate:"omitempty,email"`
	Address   string    `json:"address" validate:"omitempty,max=500"`
	State     string    `json:"state" gorm:"type:varchar(100)"`
	City      string    `json:"city" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Admin is a back-office account.
type Admin struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
}
