package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when the code does not match any known coupon.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponInactive is returned when a coupon is used outside its active window.
	ErrCouponInactive = errors.New("coupon not active")
	// ErrCouponExpired is returned when the coupon has already expired.
	ErrCouponExpired = errors.New("coupon expired")
)

// Welcome20 is the storefront's introductory coupon.
const Welcome20 = "WELCOME20"

// Coupon is a code granting a fractional discount on the cart subtotal.
type Coupon struct {
	Code             string          `json:"code"`
	DiscountFraction decimal.Decimal `json:"discountFraction"`
	ValidFrom        *time.Time      `json:"validFrom,omitempty"`
	ValidTo          *time.Time      `json:"validTo,omitempty"`
}

// Validate ensures the coupon can be redeemed at the provided instant.
func (c Coupon) Validate(now time.Time) error {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrCouponInactive
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return ErrCouponExpired
	}
	return nil
}

// Discount returns subtotal*fraction.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.DiscountFraction)
}

// Registry resolves coupon codes. Lookups are case-insensitive exact matches.
type Registry struct {
	coupons map[string]Coupon
	Now     func() time.Time
}

// NewRegistry builds a registry from the provided coupons.
func NewRegistry(coupons ...Coupon) *Registry {
	r := &Registry{coupons: make(map[string]Coupon, len(coupons))}
	for _, c := range coupons {
		r.coupons[normalize(c.Code)] = c
	}
	return r
}

// Default returns the registry holding only WELCOME20 (20% off).
func Default() *Registry {
	return NewRegistry(Coupon{Code: Welcome20, DiscountFraction: decimal.RequireFromString("0.20")})
}

// Lookup resolves code to an active coupon.
func (r *Registry) Lookup(code string) (Coupon, error) {
	if r == nil {
		return Coupon{}, ErrInvalidCoupon
	}
	c, ok := r.coupons[normalize(code)]
	if !ok {
		return Coupon{}, ErrInvalidCoupon
	}
	if err := c.Validate(r.now()); err != nil {
		return Coupon{}, err
	}
	return c, nil
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func normalize(code string) string {
	return strings.ToUpper(code)
}
