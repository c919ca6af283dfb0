package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestProductService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		product models.Product
		field   string
	}{
		{"missing title", models.Product{Price: decimal.NewFromInt(1), MinQuantity: 1, MaxQuantity: 1}, "Title"},
		{"negative price", models.Product{Title: "Stool", Price: decimal.NewFromInt(-5), MinQuantity: 1, MaxQuantity: 1}, "Price"},
		{"discount over 100", models.Product{Title: "Stool", Price: decimal.NewFromInt(5), MinQuantity: 1, MaxQuantity: 1, DiscountPercent: 150}, "DiscountPercent"},
		{"min above max", models.Product{Title: "Stool", Price: decimal.NewFromInt(5), MinQuantity: 4, MaxQuantity: 2}, "MinQuantity"},
		{"rating above 5", models.Product{Title: "Stool", Price: decimal.NewFromInt(5), MinQuantity: 1, MaxQuantity: 2, Rating: 7}, "Rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.product
			err := f.productSvc.Create(ctx, &p)
			require.ErrorIs(t, err, services.ErrValidation)
			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestProductService_CreateNormalizesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lamp := &models.Product{
		Title:       "  Brass Lamp ",
		Price:       decimal.NewFromInt(1500),
		MaxQuantity: 5,
		Tags:        models.StringList{"Brass", " lighting", "brass", ""},
	}
	require.NoError(t, f.productSvc.Create(ctx, lamp))
	assert.NotEmpty(t, lamp.ID)
	assert.Equal(t, 1, lamp.MinQuantity)

	got, err := f.productSvc.Get(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brass Lamp", got.Title)
	assert.Equal(t, models.StringList{"brass", "lighting"}, got.Tags)

	found, err := f.productSvc.Browse(ctx, repositories.ProductFilter{Tag: "BRASS"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, lamp.ID, found[0].ID)
}

func TestProductService_Detail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.productSvc.Detail(ctx, f.chair.ID)
	require.NoError(t, err)
	assert.Equal(t, "9000.00", detail.DiscountedPrice)
	require.Len(t, detail.Related, 1)
	assert.Equal(t, f.sofa.ID, detail.Related[0].ID)

	_, err = f.productSvc.Detail(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	upd := *f.sofa
	upd.Stock = 3
	upd.DiscountPercent = 5
	require.NoError(t, f.productSvc.Update(ctx, f.sofa.ID, &upd))
	got, err := f.productSvc.Get(ctx, f.sofa.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 5, got.DiscountPercent)

	assert.ErrorIs(t, f.productSvc.Update(ctx, "missing", &upd), services.ErrNotFound)

	require.NoError(t, f.productSvc.Delete(ctx, f.sofa.ID))
	assert.ErrorIs(t, f.productSvc.Delete(ctx, f.sofa.ID), services.ErrNotFound)
}

func TestProductService_ExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withMedia := *f.chair
	withMedia.Images = models.StringList{"a.jpg", "b.jpg"}
	withMedia.YoutubeURL = "https://youtu.be/teak-chair"
	require.NoError(t, f.productSvc.Update(ctx, f.chair.ID, &withMedia))

	data, err := f.productSvc.ExportProducts(ctx)
	require.NoError(t, err)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	fresh := services.NewProductService(repositories.NewGORMProductRepository(db), validation.New())

	res, err := fresh.ImportProducts(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Skipped)

	chair, err := fresh.Get(ctx, f.chair.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teak Chair", chair.Title)
	assert.True(t, decimal.NewFromInt(10000).Equal(chair.Price))
	assert.Equal(t, 10, chair.DiscountPercent)
	assert.Equal(t, 10, chair.MaxQuantity)
	assert.Equal(t, models.StringList{"a.jpg", "b.jpg"}, chair.Images)
	assert.Equal(t, "https://youtu.be/teak-chair", chair.YoutubeURL)

	// Importing again updates in place.
	res, err = fresh.ImportProducts(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Zero(t, res.Created)
	chair, err = fresh.Get(ctx, f.chair.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"a.jpg", "b.jpg"}, chair.Images)
	assert.Equal(t, "https://youtu.be/teak-chair", chair.YoutubeURL)

	_, err = fresh.ImportProducts(ctx, []byte("not a workbook"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestProductService_ImportShortSheetKeepsMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withMedia := *f.chair
	withMedia.Images = models.StringList{"a.jpg"}
	withMedia.YoutubeURL = "https://youtu.be/teak-chair"
	require.NoError(t, f.productSvc.Update(ctx, f.chair.ID, &withMedia))

	// Layout of exports made before the media columns existed.
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	require.NoError(t, err)
	header := sheet.AddRow()
	for _, c := range []string{"ID", "Title", "Description", "Price", "Min Quantity", "Max Quantity",
		"Discount Percent", "Rating", "Stock", "Category", "Tags", "Image"} {
		header.AddCell().SetString(c)
	}
	row := sheet.AddRow()
	for _, v := range []string{f.chair.ID, "Teak Chair II", "", "12000", "1", "10", "0", "4", "5", "Furniture", "", ""} {
		row.AddCell().SetString(v)
	}
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))

	res, err := f.productSvc.ImportProducts(ctx, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	chair, err := f.productSvc.Get(ctx, f.chair.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teak Chair II", chair.Title)
	assert.Equal(t, models.StringList{"a.jpg"}, chair.Images)
	assert.Equal(t, "https://youtu.be/teak-chair", chair.YoutubeURL)
}
