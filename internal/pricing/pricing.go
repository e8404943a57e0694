// Package pricing derives cart and order totals from line items.
//
// The same Rules value is used by the shop client when it recomputes the cart
// and by the API when it checks the totals attached to a new order, so both
// sides always agree to the cent.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegative   = errors.New("pricing: rates and fees must not be negative")
	ErrTaxTooHigh = errors.New("pricing: tax rate must be below 1")
)

type Rules struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
	// Subtotals strictly above the threshold ship for free.
	FreeShippingThreshold decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		TaxRate:               decimal.RequireFromString("0.15"),
		ShippingFee:           decimal.NewFromInt(10),
		FreeShippingThreshold: decimal.NewFromInt(100),
	}
}

func (r Rules) Validate() error {
	if r.TaxRate.IsNegative() || r.ShippingFee.IsNegative() || r.FreeShippingThreshold.IsNegative() {
		return ErrNegative
	}
	if r.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrTaxTooHigh
	}
	return nil
}

type Line struct {
	Price decimal.Decimal
	Qty   int
}

type Totals struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// Compute is a pure function of lines. An empty cart costs nothing, shipping
// included.
func (r Rules) Compute(lines []Line) Totals {
	if len(lines) == 0 {
		return Zero()
	}

	items := decimal.Zero
	for _, l := range lines {
		items = items.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	items = Round(items)

	shipping := Round(r.ShippingFee)
	if items.GreaterThan(r.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := Round(items.Mul(r.TaxRate))

	return Totals{
		ItemsPrice:    items,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    items.Add(shipping).Add(tax),
	}
}

func Zero() Totals {
	return Totals{
		ItemsPrice:    decimal.Zero,
		ShippingPrice: decimal.Zero,
		TaxPrice:      decimal.Zero,
		TotalPrice:    decimal.Zero,
	}
}

// Equal compares numerically so 56 and 56.00 match.
func (t Totals) Equal(o Totals) bool {
	return t.ItemsPrice.Equal(o.ItemsPrice) &&
		t.ShippingPrice.Equal(o.ShippingPrice) &&
		t.TaxPrice.Equal(o.TaxPrice) &&
		t.TotalPrice.Equal(o.TotalPrice)
}

// Round rounds half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
