package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleItems() []Item {
	return []Item{
		{UnitPrice: dec("1299"), Qty: 1},
		{UnitPrice: dec("1499"), Qty: 1},
	}
}

func TestComputeWithoutCoupon(t *testing.T) {
	s := Compute(sampleItems(), decimal.Zero)
	if !s.Subtotal.Equal(dec("2798")) {
		t.Fatalf("unexpected subtotal %s", s.Subtotal)
	}
	if !s.Tax.Equal(dec("195.86")) {
		t.Fatalf("unexpected tax %s", s.Tax)
	}
	if !s.Discount.IsZero() {
		t.Fatalf("expected no discount, got %s", s.Discount)
	}
	if !s.Total.Equal(dec("2993.86")) {
		t.Fatalf("unexpected total %s", s.Total)
	}
}

func TestComputeWithCoupon(t *testing.T) {
	s := Compute(sampleItems(), dec("0.20"))
	if !s.Discount.Equal(dec("559.6")) {
		t.Fatalf("unexpected discount %s", s.Discount)
	}
	if !s.Total.Equal(dec("2434.26")) {
		t.Fatalf("unexpected total %s", s.Total)
	}
	if !s.Total.Equal(s.Subtotal.Add(s.Tax).Sub(s.Discount)) {
		t.Fatalf("total identity broken")
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, dec("0.2"))
	for name, v := range map[string]decimal.Decimal{"subtotal": s.Subtotal, "tax": s.Tax, "discount": s.Discount, "total": s.Total} {
		if !v.IsZero() {
			t.Fatalf("expected zero %s, got %s", name, v)
		}
	}
}

func TestComputeFractionalPricesAreExact(t *testing.T) {
	s := Compute([]Item{{UnitPrice: dec("0.10"), Qty: 3}}, decimal.Zero)
	if !s.Subtotal.Equal(dec("0.3")) {
		t.Fatalf("expected exact 0.3 got %s", s.Subtotal)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	items := sampleItems()
	a := Compute(items, dec("0.2"))
	b := Compute(items, dec("0.2"))
	if !a.Total.Equal(b.Total) || !a.Tax.Equal(b.Tax) {
		t.Fatalf("expected identical results")
	}
}

func TestSummarizeUsesFixedDiscount(t *testing.T) {
	s := Summarize([]Item{{UnitPrice: dec("899"), Qty: 1}}, dec("100"))
	if !s.Total.Equal(dec("861.93")) {
		t.Fatalf("unexpected total %s", s.Total)
	}
}

func TestSummaryJSONRoundsToCents(t *testing.T) {
	raw, err := json.Marshal(Compute(sampleItems(), dec("0.2")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]json.Number
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["discount"] != "559.60" || out["total"] != "2434.26" {
		t.Fatalf("unexpected rendering %s", raw)
	}
}
