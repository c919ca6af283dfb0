package services

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardRecent = 5
	dashboardTop    = 5
)

// Dashboard summarizes the store for the back office.
type Dashboard struct {
	Products       int64                        `json:"products"`
	Users          int64                        `json:"users"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal              `json:"revenue"`
	RecentOrders   []models.Order               `json:"recent_orders"`
	TopProducts    []repositories.ProductSales  `json:"top_products"`
}

// DashboardService aggregates counts across repositories.
type DashboardService struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	orders   repositories.OrderRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(products repositories.ProductRepository, users repositories.UserRepository, orders repositories.OrderRepository) *DashboardService {
	return &DashboardService{products: products, users: users, orders: orders}
}

// Summary runs the dashboard queries concurrently.
func (s *DashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Products, err = s.products.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Users, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.OrdersByStatus, err = s.orders.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Revenue, err = s.orders.Revenue(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.orders.Recent(ctx, dashboardRecent)
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = s.orders.TopProducts(ctx, dashboardTop)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
