package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ceitcs/buildbook/internal/coupon"
	"github.com/ceitcs/buildbook/internal/pricing"
)

var (
	// ErrNotFound indicates the requested cart could not be located.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound indicates no line in the cart carries the given id.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrCouponActive is returned when a coupon is applied on top of another one.
	ErrCouponActive = errors.New("a coupon is already applied")
	// ErrInvalidTier is returned for an unknown license tier.
	ErrInvalidTier = errors.New("unknown license tier")
)

// License tiers a line can be sold under.
const (
	TierStandard     = "Standard"
	TierProfessional = "Professional"
	TierBusiness     = "Business"
	TierEnterprise   = "Enterprise"
)

var tiers = map[string]string{
	"standard":     TierStandard,
	"professional": TierProfessional,
	"business":     TierBusiness,
	"enterprise":   TierEnterprise,
}

// NormalizeTier resolves a tier case-insensitively. An empty value means Standard.
func NormalizeTier(tier string) (string, error) {
	tier = strings.TrimSpace(tier)
	if tier == "" {
		return TierStandard, nil
	}
	canonical, ok := tiers[strings.ToLower(tier)]
	if !ok {
		return "", ErrInvalidTier
	}
	return canonical, nil
}

// LineItem is one purchasable line. Adding the same product twice yields two lines.
type LineItem struct {
	ID          string          `json:"id"`
	ProductID   int             `json:"productId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LicenseTier string          `json:"licenseTier"`
}

// AppliedCoupon records the coupon and the discount frozen when it was applied.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Fraction decimal.Decimal `json:"fraction"`
	Discount decimal.Decimal `json:"discount"`
}

// Cart is a visitor's ordered list of lines plus an optional coupon.
type Cart struct {
	ID        string         `json:"id"`
	Items     []LineItem     `json:"items"`
	Coupon    *AppliedCoupon `json:"coupon,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// New returns an empty cart with a fresh id.
func New(now time.Time) *Cart {
	return &Cart{ID: uuid.NewString(), Items: []LineItem{}, CreatedAt: now, UpdatedAt: now}
}

// Add appends item as a new line and returns the stored copy.
func (c *Cart) Add(item LineItem) LineItem {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.LicenseTier == "" {
		item.LicenseTier = TierStandard
	}
	item.ID = uuid.NewString()
	c.Items = append(c.Items, item)
	return item
}

// SetQuantity replaces the quantity of the line with the given id. A quantity
// below one leaves the cart untouched.
func (c *Cart) SetQuantity(id string, qty int) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	if qty < 1 {
		return nil
	}
	c.Items[idx].Quantity = qty
	return nil
}

// Remove drops the line with the given id.
func (c *Cart) Remove(id string) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return nil
}

// Clear empties the cart. An applied coupon stays applied.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// ApplyCoupon resolves code against reg and freezes the discount against the
// current subtotal. On failure the cart is unchanged.
func (c *Cart) ApplyCoupon(reg *coupon.Registry, code string) error {
	if c.Coupon != nil {
		return ErrCouponActive
	}
	cp, err := reg.Lookup(code)
	if err != nil {
		return err
	}
	c.Coupon = &AppliedCoupon{
		Code:     cp.Code,
		Fraction: cp.DiscountFraction,
		Discount: cp.Discount(pricing.Subtotal(c.pricingItems())),
	}
	return nil
}

// ClearCoupon deactivates the coupon.
func (c *Cart) ClearCoupon() {
	c.Coupon = nil
}

// DiscountPolicy decides how an applied coupon prices a cart that changed
// after the coupon was applied. The zero value keeps the frozen discount as
// is, so removing lines can take the total below zero.
type DiscountPolicy struct {
	// Recompute applies the coupon fraction to the live subtotal.
	Recompute bool
	// CapAtSubtotal keeps a frozen discount from exceeding the subtotal.
	CapAtSubtotal bool
}

// Totals prices the cart under policy.
func (c *Cart) Totals(policy DiscountPolicy) pricing.Summary {
	items := c.pricingItems()
	if c.Coupon == nil {
		return pricing.Summarize(items, decimal.Zero)
	}
	if policy.Recompute {
		return pricing.Compute(items, c.Coupon.Fraction)
	}
	discount := c.Coupon.Discount
	if subtotal := pricing.Subtotal(items); policy.CapAtSubtotal && discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return pricing.Summarize(items, discount)
}

// ItemCount sums line quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(id string) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) pricingItems() []pricing.Item {
	out := make([]pricing.Item, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, pricing.Item{UnitPrice: it.UnitPrice, Qty: it.Quantity})
	}
	return out
}
