package repositories_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func sampleOrder(at time.Time) *models.Order {
	return &models.Order{
		OrderDate:      at,
		Name:           "Asha",
		Phone:          "9876543210",
		State:          "Madhya Pradesh",
		City:           "Bhopal",
		Address:        "12 Lake Road",
		TransactionID:  "UPI-1",
		Subtotal:       decimal.NewFromInt(18000),
		DeliveryCharge: decimal.NewFromInt(200),
		TotalAmount:    decimal.NewFromInt(18200),
		AdvancePayment: decimal.NewFromInt(9100),
		Status:         models.OrderStatusProcessing,
		CanCancel:      true,
		Items: []models.OrderItem{
			{Position: 0, ProductID: "p1", Title: "Chair", UnitPrice: decimal.NewFromInt(10000), DiscountPercent: 10, Quantity: 2, LineTotal: decimal.NewFromInt(18000)},
			{Position: 1, ProductID: "p2", Title: "Lamp", UnitPrice: decimal.NewFromInt(100), Quantity: 1, LineTotal: decimal.NewFromInt(100)},
		},
	}
}

func TestProductRepository_CRUDAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(newDB(t))

	chair := &models.Product{Title: "Teak Chair", Description: "Solid wood", Price: decimal.NewFromInt(10000), MinQuantity: 1, MaxQuantity: 10, Category: "Furniture", Tags: models.StringList{"wood", "indoor"}, Rating: 4.5}
	table := &models.Product{Title: "Dining Table", Price: decimal.NewFromInt(30000), MinQuantity: 1, MaxQuantity: 2, Category: "Furniture", Rating: 3}
	lamp := &models.Product{Title: "Brass Lamp", Price: decimal.NewFromInt(1500), MinQuantity: 1, MaxQuantity: 5, Category: "Lighting", Tags: models.StringList{"brass"}}
	for _, p := range []*models.Product{chair, table, lamp} {
		require.NoError(t, repo.Create(ctx, p))
		assert.NotEmpty(t, p.ID)
	}

	got, err := repo.GetByID(ctx, chair.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teak Chair", got.Title)
	assert.True(t, decimal.NewFromInt(10000).Equal(got.Price))
	assert.Equal(t, models.StringList{"wood", "indoor"}, got.Tags)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	list, err := repo.List(ctx, repositories.ProductFilter{Query: "WOOD"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, chair.ID, list[0].ID)

	list, err = repo.List(ctx, repositories.ProductFilter{Category: "Furniture"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.List(ctx, repositories.ProductFilter{Tag: "Brass"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, lamp.ID, list[0].ID)

	related, err := repo.Related(ctx, chair, 4)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, table.ID, related[0].ID)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Furniture", "Lighting"}, categories)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	chair.Title = "Teak Armchair"
	chair.DiscountPercent = 0
	chair.Stock = 0
	require.NoError(t, repo.Update(ctx, chair))
	got, err = repo.GetByID(ctx, chair.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teak Armchair", got.Title)

	assert.ErrorIs(t, repo.Update(ctx, &models.Product{ID: "missing", Title: "x"}), repositories.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, lamp.ID))
	assert.ErrorIs(t, repo.Delete(ctx, lamp.ID), repositories.ErrNotFound)
}

func TestOrderRepository_PlaceOrderUpsertsCustomer(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	orders := repositories.NewGORMOrderRepository(db)
	users := repositories.NewGORMUserRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	first := &models.User{Phone: "9876543210", Name: "Asha", Address: "12 Lake Road", State: "Madhya Pradesh", City: "Bhopal"}
	o1 := sampleOrder(now)
	require.NoError(t, orders.PlaceOrder(ctx, first, o1))
	require.NotNil(t, o1.UserID)
	assert.Equal(t, first.ID, *o1.UserID)

	second := &models.User{Phone: "9876543210", Name: "Asha K", Address: "7 Hill Street", State: "Madhya Pradesh", City: "Indore"}
	o2 := sampleOrder(now.Add(time.Minute))
	require.NoError(t, orders.PlaceOrder(ctx, second, o2))
	assert.Equal(t, first.ID, second.ID, "same phone resolves to the same user")

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := users.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Asha K", stored.Name)
	assert.Equal(t, "7 Hill Street", stored.Address)
	assert.Equal(t, "Indore", stored.City)

	got, err := orders.GetByID(ctx, o1.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Chair", got.Items[0].Title)
	assert.Equal(t, "Lamp", got.Items[1].Title)
	assert.True(t, decimal.NewFromInt(9100).Equal(got.AdvancePayment))
	assert.True(t, got.CanCancel)

	mine, err := orders.ListByUser(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, o2.ID, mine[0].ID, "newest first")
}

func TestOrderRepository_PlaceOrderRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	orders := repositories.NewGORMOrderRepository(db)
	users := repositories.NewGORMUserRepository(db)

	existing := sampleOrder(time.Now().UTC())
	require.NoError(t, orders.PlaceOrder(ctx, &models.User{Phone: "9000000001", Name: "A"}, existing))

	// Reusing the order ID violates the primary key after the user insert.
	dup := sampleOrder(time.Now().UTC())
	dup.ID = existing.ID
	err := orders.PlaceOrder(ctx, &models.User{Phone: "9000000002", Name: "B"}, dup)
	require.Error(t, err)

	_, err = users.GetByPhone(ctx, "9000000002")
	assert.ErrorIs(t, err, repositories.ErrNotFound, "user insert is rolled back with the order")
}

func TestOrderRepository_CancelIfAllowed(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	orders := repositories.NewGORMOrderRepository(db)
	placed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	customer := &models.User{Phone: "9000000001", Name: "A"}
	order := sampleOrder(placed)
	require.NoError(t, orders.PlaceOrder(ctx, customer, order))

	ok, err := orders.CancelIfAllowed(ctx, order.ID, "someone-else", placed.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "not the owner")

	ok, err = orders.CancelIfAllowed(ctx, order.ID, customer.ID, placed.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "placed before the window start")

	require.NoError(t, orders.SetCanCancel(ctx, order.ID, false))
	ok, err = orders.CancelIfAllowed(ctx, order.ID, customer.ID, placed.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "flag revoked")

	require.NoError(t, orders.SetCanCancel(ctx, order.ID, true))
	ok, err = orders.CancelIfAllowed(ctx, order.ID, customer.ID, placed.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.False(t, got.CanCancel)

	ok, err = orders.CancelIfAllowed(ctx, order.ID, customer.ID, placed.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "already cancelled")
}

func TestOrderRepository_AdminQueries(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	orders := repositories.NewGORMOrderRepository(db)
	now := time.Now().UTC()

	a := sampleOrder(now)
	require.NoError(t, orders.PlaceOrder(ctx, &models.User{Phone: "9000000001", Name: "Asha"}, a))
	b := sampleOrder(now.Add(time.Minute))
	b.Name = "Ravi"
	b.TransactionID = "UPI-RAVI"
	require.NoError(t, orders.PlaceOrder(ctx, &models.User{Phone: "9000000002", Name: "Ravi"}, b))

	require.NoError(t, orders.UpdateStatus(ctx, b.ID, models.OrderStatusCancelled))
	assert.ErrorIs(t, orders.UpdateStatus(ctx, "missing", models.OrderStatusShipped), repositories.ErrNotFound)

	list, err := orders.List(ctx, repositories.OrderFilter{Query: "upi-ravi"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	list, err = orders.List(ctx, repositories.OrderFilter{Status: models.OrderStatusProcessing})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	counts, err := orders.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.OrderStatusProcessing])
	assert.Equal(t, int64(1), counts[models.OrderStatusCancelled])
	assert.Equal(t, int64(0), counts[models.OrderStatusShipped])

	revenue, err := orders.Revenue(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(18200).Equal(revenue), "cancelled orders are excluded, got %s", revenue)

	top, err := orders.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "p1", top[0].ProductID)
	assert.Equal(t, int64(2), top[0].Quantity)

	recent, err := orders.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, b.ID, recent[0].ID)

	a.Address = "New address"
	a.Status = models.OrderStatusShipped
	a.CanCancel = false
	require.NoError(t, orders.Update(ctx, a))
	got, err := orders.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "New address", got.Address)
	assert.Equal(t, models.OrderStatusShipped, got.Status)
	assert.False(t, got.CanCancel)
	assert.True(t, decimal.NewFromInt(18200).Equal(got.TotalAmount), "totals are not editable")
}

func TestUserRepository_DeleteCascadesOrders(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	orders := repositories.NewGORMOrderRepository(db)
	users := repositories.NewGORMUserRepository(db)

	customer := &models.User{Phone: "9000000001", Name: "A"}
	order := sampleOrder(time.Now().UTC())
	require.NoError(t, orders.PlaceOrder(ctx, customer, order))
	other := sampleOrder(time.Now().UTC())
	require.NoError(t, orders.PlaceOrder(ctx, &models.User{Phone: "9000000002", Name: "B"}, other))

	require.NoError(t, users.Delete(ctx, customer.ID))

	_, err := orders.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	assert.Zero(t, items)

	_, err = orders.GetByID(ctx, other.ID)
	assert.NoError(t, err, "other customers keep their orders")

	assert.ErrorIs(t, users.Delete(ctx, customer.ID), repositories.ErrNotFound)
}

func TestUserRepository_FirstOrCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewGORMUserRepository(newDB(t))

	u, err := users.FirstOrCreateByPhone(ctx, "9000000001", models.User{Name: "First"})
	require.NoError(t, err)
	again, err := users.FirstOrCreateByPhone(ctx, "9000000001", models.User{Name: "Second"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "First", again.Name)

	u.Email = "first@example.com"
	u.City = "Bhopal"
	require.NoError(t, users.Update(ctx, u))
	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", got.Email)

	list, err := users.List(ctx, "first@")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeliveryChargeRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMDeliveryChargeRepository(newDB(t))

	seeded, err := repo.Seed(ctx, []models.DeliveryCharge{
		{State: "Madhya Pradesh", City: "Bhopal", Amount: decimal.NewFromInt(200)},
		{State: "Delhi", City: "New Delhi", Amount: decimal.NewFromInt(350)},
	})
	require.NoError(t, err)
	assert.True(t, seeded)
	// A table with rows is never seeded again, even with new entries.
	seeded, err = repo.Seed(ctx, []models.DeliveryCharge{
		{State: "Madhya Pradesh", City: "Bhopal", Amount: decimal.NewFromInt(999)},
		{State: "Kerala", City: "Kochi", Amount: decimal.NewFromInt(500)},
	})
	require.NoError(t, err)
	assert.False(t, seeded)

	require.NoError(t, repo.Upsert(ctx, &models.DeliveryCharge{State: "Delhi", City: "New Delhi", Amount: decimal.NewFromInt(375)}))

	charges, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, charges, 2)
	assert.Equal(t, "Delhi", charges[0].State)
	assert.True(t, decimal.NewFromInt(375).Equal(charges[0].Amount))
	assert.True(t, decimal.NewFromInt(200).Equal(charges[1].Amount))

	require.NoError(t, repo.Delete(ctx, "Delhi", "New Delhi"))
	assert.ErrorIs(t, repo.Delete(ctx, "Delhi", "New Delhi"), repositories.ErrNotFound)
}

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMAdminRepository(newDB(t))

	admin := &models.Admin{Username: "root", Password: "hash"}
	require.NoError(t, repo.Create(ctx, admin))
	require.NoError(t, repo.UpdatePassword(ctx, admin.ID, "hash2"))

	got, err := repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "hash2", got.Password)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
