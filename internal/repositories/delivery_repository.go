package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryChargeRepository defines the interface for delivery charge data access.
type DeliveryChargeRepository interface {
	List(ctx context.Context) ([]models.DeliveryCharge, error)
	Upsert(ctx context.Context, charge *models.DeliveryCharge) error
	Delete(ctx context.Context, state, city string) error
	Seed(ctx context.Context, charges []models.DeliveryCharge) (bool, error)
}

// GORMDeliveryChargeRepository is a GORM implementation of DeliveryChargeRepository.
type GORMDeliveryChargeRepository struct {
	db *gorm.DB
}

// NewGORMDeliveryChargeRepository creates a new instance of GORMDeliveryChargeRepository.
func NewGORMDeliveryChargeRepository(db *gorm.DB) *GORMDeliveryChargeRepository {
	return &GORMDeliveryChargeRepository{db: db}
}

// List returns every charge ordered by state and city.
func (r *GORMDeliveryChargeRepository) List(ctx context.Context) ([]models.DeliveryCharge, error) {
	var charges []models.DeliveryCharge
	if err := r.db.WithContext(ctx).Order("state").Order("city").Find(&charges).Error; err != nil {
		return nil, fmt.Errorf("failed to list delivery charges: %w", err)
	}
	return charges, nil
}

// Upsert inserts the charge or replaces the amount of an existing state/city.
func (r *GORMDeliveryChargeRepository) Upsert(ctx context.Context, charge *models.DeliveryCharge) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state"}, {Name: "city"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(charge).Error
	if err != nil {
		return fmt.Errorf("failed to save delivery charge %s/%s: %w", charge.State, charge.City, err)
	}
	return nil
}

// Delete removes one state/city charge.
func (r *GORMDeliveryChargeRepository) Delete(ctx context.Context, state, city string) error {
	res := r.db.WithContext(ctx).Delete(&models.DeliveryCharge{}, "state = ? AND city = ?", state, city)
	if res.Error != nil {
		return fmt.Errorf("failed to delete delivery charge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delivery charge %s/%s: %w", state, city, ErrNotFound)
	}
	return nil
}

// Seed stores charges only when the table has no rows, so deletions made
// since the first start are not undone. It reports whether it wrote.
func (r *GORMDeliveryChargeRepository) Seed(ctx context.Context, charges []models.DeliveryCharge) (bool, error) {
	if len(charges) == 0 {
		return false, nil
	}
	seeded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.DeliveryCharge{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := tx.Create(&charges).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed delivery charges: %w", err)
	}
	return seeded, nil
}
