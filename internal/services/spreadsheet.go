package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderColumns = []string{
	"ID", "Order Date", "Name", "Phone", "State", "City", "Address", "Transaction ID",
	"Items", "Subtotal", "Delivery Charge", "Total Amount", "Advance Payment", "Status", "Can Cancel",
}

var productColumns = []string{
	"ID", "Title", "Description", "Price", "Min Quantity", "Max Quantity",
	"Discount Percent", "Rating", "Stock", "Category", "Tags", "Image",
	"Images", "YouTube URL",
}

const (
	imagesColumn  = 12
	youtubeColumn = 13
)

// ImportResult counts what a product import did, by row.
type ImportResult struct {
	Created int               `json:"created_count"`
	Updated int               `json:"updated_count"`
	Skipped int               `json:"skipped_count"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ExportOrders renders orders matching the filter as an xlsx workbook.
func (s *OrderService) ExportOrders(ctx context.Context, query, status string) ([]byte, error) {
	orders, err := s.ListOrders(ctx, query, status)
	if err != nil {
		return nil, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	addHeader(sheet, orderColumns)
	for i := range orders {
		o := &orders[i]
		row := sheet.AddRow()
		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.FormattedDate())
		row.AddCell().SetString(o.Name)
		row.AddCell().SetString(o.Phone)
		row.AddCell().SetString(o.State)
		row.AddCell().SetString(o.City)
		row.AddCell().SetString(o.Address)
		row.AddCell().SetString(o.TransactionID)
		row.AddCell().SetString(o.ItemsSummary())
		addMoney(row, o.Subtotal)
		addMoney(row, o.DeliveryCharge)
		addMoney(row, o.TotalAmount)
		addMoney(row, o.AdvancePayment)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetBool(o.CanCancel)
	}
	return writeFile(file)
}

// ExportProducts renders the catalog in the layout ImportProducts reads.
func (s *ProductService) ExportProducts(ctx context.Context) ([]byte, error) {
	products, err := s.productRepo.List(ctx, repositories.ProductFilter{})
	if err != nil {
		return nil, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	addHeader(sheet, productColumns)
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Title)
		row.AddCell().SetString(p.Description)
		addMoney(row, p.Price)
		row.AddCell().SetInt(p.MinQuantity)
		row.AddCell().SetInt(p.MaxQuantity)
		row.AddCell().SetInt(p.DiscountPercent)
		row.AddCell().SetFloat(p.Rating)
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(strings.Join(p.Tags, ","))
		row.AddCell().SetString(p.Image)
		row.AddCell().SetString(strings.Join(p.Images, ","))
		row.AddCell().SetString(p.YoutubeURL)
	}
	return writeFile(file)
}

// ImportProducts creates or updates products from the first sheet of an xlsx
// workbook. Rows with an ID that exists update that product; others are created.
// Invalid rows are skipped and reported by row number.
func (s *ProductService) ImportProducts(ctx context.Context, data []byte) (*ImportResult, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, invalidField("file", "not a readable xlsx workbook")
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return nil, invalidField("file", "workbook is empty or has only a header row")
	}

	// Sheets from older exports lack trailing columns; updates keep those values.
	header := file.Sheets[0].Rows[0]
	carriesImages := len(header.Cells) > imagesColumn
	carriesYoutube := len(header.Cells) > youtubeColumn

	res := &ImportResult{Errors: make(map[string]string)}
	for i, row := range file.Sheets[0].Rows[1:] {
		if blankRow(row) {
			continue
		}
		rowNum := strconv.Itoa(i + 2)
		product, err := productFromRow(row)
		if err != nil {
			res.Skipped++
			res.Errors[rowNum] = err.Error()
			continue
		}

		if product.ID != "" {
			if existing, getErr := s.productRepo.GetByID(ctx, product.ID); getErr == nil {
				if !carriesImages {
					product.Images = existing.Images
				}
				if !carriesYoutube {
					product.YoutubeURL = existing.YoutubeURL
				}
				if err := s.Update(ctx, product.ID, product); err != nil {
					res.Skipped++
					res.Errors[rowNum] = err.Error()
					continue
				}
				res.Updated++
				continue
			}
		}
		if err := s.Create(ctx, product); err != nil {
			res.Skipped++
			res.Errors[rowNum] = err.Error()
			continue
		}
		res.Created++
	}
	return res, nil
}

func productFromRow(row *xlsx.Row) (*models.Product, error) {
	get := func(i int) string {
		if i < len(row.Cells) {
			return strings.TrimSpace(row.Cells[i].String())
		}
		return ""
	}
	atoi := func(i int, name string) (int, error) {
		raw := get(i)
		if raw == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%s is not a number: %q", name, raw)
		}
		return int(f), nil
	}

	price, err := decimal.NewFromString(get(3))
	if err != nil {
		return nil, fmt.Errorf("price is not a number: %q", get(3))
	}
	p := &models.Product{
		ID:          get(0),
		Title:       get(1),
		Description: get(2),
		Price:       price,
		Category:    get(9),
		Image:       get(11),
	}
	if p.MinQuantity, err = atoi(4, "min quantity"); err != nil {
		return nil, err
	}
	if p.MaxQuantity, err = atoi(5, "max quantity"); err != nil {
		return nil, err
	}
	if p.DiscountPercent, err = atoi(6, "discount percent"); err != nil {
		return nil, err
	}
	if p.Stock, err = atoi(8, "stock"); err != nil {
		return nil, err
	}
	if raw := get(7); raw != "" {
		if p.Rating, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("rating is not a number: %q", raw)
		}
	}
	if raw := get(10); raw != "" {
		p.Tags = models.StringList(strings.Split(raw, ","))
	}
	if raw := get(imagesColumn); raw != "" {
		for _, img := range strings.Split(raw, ",") {
			if img = strings.TrimSpace(img); img != "" {
				p.Images = append(p.Images, img)
			}
		}
	}
	p.YoutubeURL = get(youtubeColumn)
	return p, nil
}

func blankRow(row *xlsx.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}

func addHeader(sheet *xlsx.Sheet, columns []string) {
	row := sheet.AddRow()
	for _, c := range columns {
		row.AddCell().SetString(c)
	}
}

func addMoney(row *xlsx.Row, amount decimal.Decimal) {
	f, _ := amount.Round(2).Float64()
	row.AddCell().SetFloat(f)
}

func writeFile(file *xlsx.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
