package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TaxRate is applied to the subtotal only; discounts never reduce the taxable base.
var TaxRate = decimal.RequireFromString("0.07")

// Item is a priced line: unit price times quantity.
type Item struct {
	UnitPrice decimal.Decimal
	Qty       int
}

// Summary aggregates the computed totals for a set of items.
type Summary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal sums unitPrice*qty across items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return sum
}

// Compute derives totals with a discount of subtotal*fraction. A zero fraction
// means no coupon is applied.
func Compute(items []Item, fraction decimal.Decimal) Summary {
	subtotal := Subtotal(items)
	return summarize(subtotal, subtotal.Mul(clampFraction(fraction)))
}

// Summarize derives totals using an already fixed discount amount.
func Summarize(items []Item, discount decimal.Decimal) Summary {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return summarize(Subtotal(items), discount)
}

func summarize(subtotal, discount decimal.Decimal) Summary {
	tax := subtotal.Mul(TaxRate)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

func clampFraction(f decimal.Decimal) decimal.Decimal {
	if f.IsNegative() {
		return decimal.Zero
	}
	if f.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return f
}

// MarshalJSON renders amounts as numbers rounded to cents.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.Number{
		"subtotal": Display(s.Subtotal),
		"tax":      Display(s.Tax),
		"discount": Display(s.Discount),
		"total":    Display(s.Total),
	})
}

// Display rounds an amount to two decimals for presentation.
func Display(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
