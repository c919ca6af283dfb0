// Package pricing computes cart totals, delivery charges and the advance payment.
package pricing

import (
	"sort"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// AdvanceRate is the share of the total paid up front.
var AdvanceRate = decimal.RequireFromString("0.5")

// DeliveryTable maps state -> city -> flat delivery fee.
type DeliveryTable map[string]map[string]decimal.Decimal

// Lookup returns the fee for state/city. Unknown states and cities cost nothing.
func (t DeliveryTable) Lookup(state, city string) decimal.Decimal {
	cities, ok := t[state]
	if !ok {
		return decimal.Zero
	}
	amount, ok := cities[city]
	if !ok {
		return decimal.Zero
	}
	return amount
}

// Set stores a fee, creating the state entry if needed.
func (t DeliveryTable) Set(state, city string, amount decimal.Decimal) {
	if t[state] == nil {
		t[state] = make(map[string]decimal.Decimal)
	}
	t[state][city] = amount
}

// Delete removes a fee and drops the state when it has no cities left.
func (t DeliveryTable) Delete(state, city string) {
	cities, ok := t[state]
	if !ok {
		return
	}
	delete(cities, city)
	if len(cities) == 0 {
		delete(t, state)
	}
}

// Clone returns a deep copy.
func (t DeliveryTable) Clone() DeliveryTable {
	out := make(DeliveryTable, len(t))
	for state, cities := range t {
		for city, amount := range cities {
			out.Set(state, city, amount)
		}
	}
	return out
}

// Rows flattens the table, sorted by state then city.
func (t DeliveryTable) Rows() []models.DeliveryCharge {
	rows := make([]models.DeliveryCharge, 0)
	for state, cities := range t {
		for city, amount := range cities {
			rows = append(rows, models.DeliveryCharge{State: state, City: city, Amount: amount})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		return rows[i].City < rows[j].City
	})
	return rows
}

// TableFromRows builds a table from stored charges.
func TableFromRows(rows []models.DeliveryCharge) DeliveryTable {
	t := make(DeliveryTable)
	for _, r := range rows {
		t.Set(r.State, r.City, r.Amount)
	}
	return t
}

// Line is a priced cart entry.
type Line struct {
	models.CartItem
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
}

// Quote is the full price breakdown of a cart for one destination.
type Quote struct {
	Lines          []Line          `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
}

// Compute prices items for the given destination. It has no side effects.
func Compute(items []models.CartItem, table DeliveryTable, state, city string) Quote {
	q := Quote{
		Lines:    make([]Line, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	for _, it := range items {
		line := Line{
			CartItem:            it,
			DiscountedUnitPrice: models.ApplyDiscount(it.UnitPrice, it.DiscountPercent),
			LineTotal:           it.LineTotal(),
		}
		q.Lines = append(q.Lines, line)
		q.Subtotal = q.Subtotal.Add(line.LineTotal)
	}
	q.DeliveryCharge = table.Lookup(state, city)
	q.TotalAmount = q.Subtotal.Add(q.DeliveryCharge)
	q.AdvancePayment = q.TotalAmount.Mul(AdvanceRate)
	return q
}

// MeetsMinimum reports whether subtotal reaches the minimum order value.
func MeetsMinimum(subtotal, minimum decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(minimum)
}
