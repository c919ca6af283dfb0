package services

import (
	"context"
	"sync"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DeliveryService keeps the delivery table in memory and writes edits
// through to the store before they become visible.
type DeliveryService struct {
	repo     repositories.DeliveryChargeRepository
	validate *validator.Validate
	logger   *zap.Logger

	mu    sync.RWMutex
	table pricing.DeliveryTable
}

// NewDeliveryService creates a DeliveryService with an empty table. Call Load before serving.
func NewDeliveryService(repo repositories.DeliveryChargeRepository, validate *validator.Validate, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		repo:     repo,
		validate: validate,
		logger:   logger,
		table:    make(pricing.DeliveryTable),
	}
}

// Load seeds an empty store from seed and reads the stored table.
func (s *DeliveryService) Load(ctx context.Context, seed map[string]map[string]float64) error {
	rows := make([]models.DeliveryCharge, 0)
	for state, cities := range seed {
		for city, amount := range cities {
			rows = append(rows, models.DeliveryCharge{State: state, City: city, Amount: decimal.NewFromFloat(amount)})
		}
	}
	seeded, err := s.repo.Seed(ctx, rows)
	if err != nil {
		return err
	}
	stored, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.table = pricing.TableFromRows(stored)
	s.mu.Unlock()
	s.logger.Info("delivery table loaded", zap.Int("rows", len(stored)), zap.Bool("seeded", seeded))
	return nil
}

// Table returns a copy of the current table.
func (s *DeliveryService) Table() pricing.DeliveryTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

// Lookup returns the fee for state/city, zero when none is configured.
func (s *DeliveryService) Lookup(state, city string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Lookup(state, city)
}

// Rows lists the table sorted by state and city.
func (s *DeliveryService) Rows() []models.DeliveryCharge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Rows()
}

// Set creates or replaces one fee.
func (s *DeliveryService) Set(ctx context.Context, charge models.DeliveryCharge) error {
	if err := s.validate.Struct(charge); err != nil {
		return invalid(err)
	}
	if err := s.repo.Upsert(ctx, &charge); err != nil {
		return err
	}
	s.mu.Lock()
	s.table.Set(charge.State, charge.City, charge.Amount)
	s.mu.Unlock()
	return nil
}

// Delete removes one fee. Orders to that city then pay no delivery.
func (s *DeliveryService) Delete(ctx context.Context, state, city string) error {
	if err := s.repo.Delete(ctx, state, city); err != nil {
		return notFound(err, "delivery charge %s/%s", state, city)
	}
	s.mu.Lock()
	s.table.Delete(state, city)
	s.mu.Unlock()
	return nil
}
