package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ceitcs/buildbook/internal/coupon"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddNeverMerges(t *testing.T) {
	c := New(time.Now())
	first := c.Add(LineItem{ProductID: 1, UnitPrice: dec("1299"), Quantity: 1})
	second := c.Add(LineItem{ProductID: 1, UnitPrice: dec("1299"), Quantity: 0})

	require.Len(t, c.Items, 2)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 1, second.Quantity)
	require.Equal(t, TierStandard, second.LicenseTier)
	require.Equal(t, 2, c.ItemCount())
}

func TestSetQuantity(t *testing.T) {
	c := New(time.Now())
	line := c.Add(LineItem{ProductID: 2, UnitPrice: dec("899"), Quantity: 2})

	require.NoError(t, c.SetQuantity(line.ID, 0))
	require.Equal(t, 2, c.Items[0].Quantity)

	require.NoError(t, c.SetQuantity(line.ID, 5))
	require.Equal(t, 5, c.Items[0].Quantity)

	require.ErrorIs(t, c.SetQuantity("missing", 3), ErrItemNotFound)
}

func TestRemoveAndClear(t *testing.T) {
	c := New(time.Now())
	a := c.Add(LineItem{ProductID: 1, UnitPrice: dec("1299")})
	c.Add(LineItem{ProductID: 3, UnitPrice: dec("1499")})

	require.NoError(t, c.Remove(a.ID))
	require.Len(t, c.Items, 1)
	require.Equal(t, 3, c.Items[0].ProductID)
	require.ErrorIs(t, c.Remove(a.ID), ErrItemNotFound)

	require.NoError(t, c.ApplyCoupon(coupon.Default(), "WELCOME20"))
	c.Clear()
	require.True(t, c.Empty())
	require.NotNil(t, c.Coupon)
}

func TestApplyCouponFreezesDiscount(t *testing.T) {
	c := New(time.Now())
	c.Add(LineItem{ProductID: 1, UnitPrice: dec("1299"), Quantity: 1})
	c.Add(LineItem{ProductID: 3, UnitPrice: dec("1499"), Quantity: 1})

	require.NoError(t, c.ApplyCoupon(coupon.Default(), "welcome20"))
	require.Equal(t, coupon.Welcome20, c.Coupon.Code)
	require.True(t, dec("559.6").Equal(c.Coupon.Discount))

	totals := c.Totals(DiscountPolicy{})
	require.True(t, dec("2798").Equal(totals.Subtotal))
	require.True(t, dec("195.86").Equal(totals.Tax))
	require.True(t, dec("2434.26").Equal(totals.Total))

	c.Add(LineItem{ProductID: 2, UnitPrice: dec("899"), Quantity: 1})
	frozen := c.Totals(DiscountPolicy{})
	require.True(t, dec("559.6").Equal(frozen.Discount))
	require.True(t, dec("3396.19").Equal(frozen.Total))

	live := c.Totals(DiscountPolicy{Recompute: true})
	require.True(t, dec("739.4").Equal(live.Discount))
	require.True(t, dec("3216.39").Equal(live.Total))
}

func TestApplyCouponRejections(t *testing.T) {
	c := New(time.Now())
	c.Add(LineItem{ProductID: 1, UnitPrice: dec("1299")})

	require.ErrorIs(t, c.ApplyCoupon(coupon.Default(), "SAVE50"), coupon.ErrInvalidCoupon)
	require.Nil(t, c.Coupon)

	require.NoError(t, c.ApplyCoupon(coupon.Default(), "WELCOME20"))
	require.ErrorIs(t, c.ApplyCoupon(coupon.Default(), "WELCOME20"), ErrCouponActive)

	c.ClearCoupon()
	require.Nil(t, c.Coupon)
	require.True(t, c.Totals(DiscountPolicy{}).Discount.IsZero())
}

func TestFrozenDiscountSurvivesEmptiedCart(t *testing.T) {
	c := New(time.Now())
	line := c.Add(LineItem{ProductID: 1, UnitPrice: dec("1299")})
	require.NoError(t, c.ApplyCoupon(coupon.Default(), "WELCOME20"))
	require.NoError(t, c.Remove(line.ID))

	totals := c.Totals(DiscountPolicy{})
	require.True(t, dec("259.8").Equal(totals.Discount))
	require.True(t, dec("-259.8").Equal(totals.Total))

	capped := c.Totals(DiscountPolicy{CapAtSubtotal: true})
	require.True(t, capped.Discount.IsZero())
	require.True(t, capped.Total.IsZero())
}

func TestNormalizeTier(t *testing.T) {
	tier, err := NormalizeTier("")
	require.NoError(t, err)
	require.Equal(t, TierStandard, tier)

	tier, err = NormalizeTier("enterprise")
	require.NoError(t, err)
	require.Equal(t, TierEnterprise, tier)

	_, err = NormalizeTier("platinum")
	require.ErrorIs(t, err, ErrInvalidTier)
}
