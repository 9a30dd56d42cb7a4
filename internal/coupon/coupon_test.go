package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	reg := Default()
	for _, code := range []string{"WELCOME20", "welcome20", "Welcome20"} {
		c, err := reg.Lookup(code)
		if err != nil {
			t.Fatalf("lookup %q: %v", code, err)
		}
		if !c.DiscountFraction.Equal(decimal.RequireFromString("0.2")) {
			t.Fatalf("unexpected fraction %s", c.DiscountFraction)
		}
	}
}

func TestLookupRejectsUnknown(t *testing.T) {
	reg := Default()
	for _, code := range []string{"", "WELCOME", "WELCOME200", "SAVE10", " WELCOME20", "welcome20 "} {
		if _, err := reg.Lookup(code); !errors.Is(err, ErrInvalidCoupon) {
			t.Fatalf("expected invalid coupon for %q, got %v", code, err)
		}
	}
}

func TestLookupHonoursWindow(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	from := now.Add(24 * time.Hour)
	to := now.Add(-24 * time.Hour)
	reg := NewRegistry(
		Coupon{Code: "LATER", DiscountFraction: decimal.RequireFromString("0.1"), ValidFrom: &from},
		Coupon{Code: "GONE", DiscountFraction: decimal.RequireFromString("0.1"), ValidTo: &to},
	)
	reg.Now = func() time.Time { return now }

	if _, err := reg.Lookup("later"); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
	if _, err := reg.Lookup("gone"); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestDiscount(t *testing.T) {
	c, _ := Default().Lookup(Welcome20)
	got := c.Discount(decimal.RequireFromString("2798"))
	if !got.Equal(decimal.RequireFromString("559.6")) {
		t.Fatalf("unexpected discount %s", got)
	}
}
