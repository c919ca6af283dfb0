package services_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(routingKey string, payload map[string]interface{}) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

// MockAuditLog is a mock implementation of services.AuditLog
type MockAuditLog struct {
	mock.Mock
}

func (m *MockAuditLog) OrderPlaced(o *models.Order) { m.Called(o) }
func (m *MockAuditLog) OrderCancelled(o *models.Order) { m.Called(o) }
func (m *MockAuditLog) OrderUpdated(o *models.Order, admin string) { m.Called(o, admin) }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }
func (c *clock) Set(t time.Time) { c.t = t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var placedAt = time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

type fixture struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	orders   repositories.OrderRepository

	productSvc  *services.ProductService
	cartSvc     *services.CartService
	deliverySvc *services.DeliveryService
	orderSvc    *services.OrderService
	userSvc     *services.UserService

	publisher *MockPublisher
	audit     *MockAuditLog
	clock     *clock

	chair *models.Product
	sofa  *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	v := validation.New()
	log := zap.NewNop()
	f := &fixture{
		products:  repositories.NewGORMProductRepository(db),
		users:     repositories.NewGORMUserRepository(db),
		orders:    repositories.NewGORMOrderRepository(db),
		publisher: new(MockPublisher),
		audit:     new(MockAuditLog),
		clock:     &clock{t: placedAt},
	}
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.audit.On("OrderPlaced", mock.Anything).Maybe()
	f.audit.On("OrderCancelled", mock.Anything).Maybe()
	f.audit.On("OrderUpdated", mock.Anything, mock.Anything).Maybe()

	f.productSvc = services.NewProductService(f.products, v)
	f.cartSvc = services.NewCartService(f.products)
	f.deliverySvc = services.NewDeliveryService(repositories.NewGORMDeliveryChargeRepository(db), v, log)
	require.NoError(t, f.deliverySvc.Load(ctx, map[string]map[string]float64{
		"Madhya Pradesh": {"Bhopal": 200, "Indore": 250},
	}))
	f.orderSvc = services.NewOrderService(f.orders, f.deliverySvc, v, log, decimal.NewFromInt(25000),
		services.WithClock(f.clock.Now),
		services.WithPublisher(f.publisher),
		services.WithAuditLog(f.audit),
	)
	f.userSvc = services.NewUserService(f.users, f.orders, v)

	f.chair = &models.Product{Title: "Teak Chair", Price: decimal.NewFromInt(10000), DiscountPercent: 10, MinQuantity: 1, MaxQuantity: 10, Category: "Furniture", Rating: 4}
	f.sofa = &models.Product{Title: "Linen Sofa", Price: decimal.NewFromInt(8000), MinQuantity: 1, MaxQuantity: 5, Category: "Furniture", Rating: 5}
	require.NoError(t, f.productSvc.Create(ctx, f.chair))
	require.NoError(t, f.productSvc.Create(ctx, f.sofa))
	return f
}

// cart builds a cart through the cart service, as a session would.
func (f *fixture) cart(t *testing.T, lines map[*models.Product]int) models.Cart {
	t.Helper()
	var cart models.Cart
	for _, p := range []*models.Product{f.chair, f.sofa} {
		if qty, ok := lines[p]; ok {
			_, err := f.cartSvc.Add(context.Background(), &cart, p.ID, qty)
			require.NoError(t, err)
		}
	}
	return cart
}

func shippingForm(phone string) services.PlaceOrderRequest {
	return services.PlaceOrderRequest{
		Name:          "Asha Verma",
		Phone:         phone,
		State:         "Madhya Pradesh",
		City:          "Bhopal",
		Address:       "12 Lake Road",
		TransactionID: "UPI-778812",
	}
}
