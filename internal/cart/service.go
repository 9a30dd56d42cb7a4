package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ceitcs/buildbook/internal/catalog"
	"github.com/ceitcs/buildbook/internal/coupon"
	"github.com/ceitcs/buildbook/internal/lock"
	"github.com/ceitcs/buildbook/internal/obs"
	"github.com/ceitcs/buildbook/internal/pricing"
)

// ErrUnknownProduct is returned when adding a product id missing from the catalog.
var ErrUnknownProduct = errors.New("product not found")

// ProductLookup resolves catalog entries by id.
type ProductLookup interface {
	Product(id int) (catalog.Product, bool)
}

// Service encapsulates cart domain operations.
type Service struct {
	Store    Store
	Products ProductLookup
	Coupons  *coupon.Registry
	Locker   lock.Runner
	TTL      time.Duration
	Discount DiscountPolicy
	Now      func() time.Time
}

// View is the cart as presented to clients.
type View struct {
	ID        string          `json:"id"`
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Coupon    *CouponView     `json:"coupon"`
	Pricing   pricing.Summary `json:"pricing"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CouponView describes the applied coupon.
type CouponView struct {
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create stores a new empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	c := New(s.now())
	if err := s.Store.Save(ctx, c, s.ttl()); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Get loads a cart by id.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	return s.Store.Get(ctx, id)
}

// AddItem appends a line for productID at its catalog price.
func (s *Service) AddItem(ctx context.Context, cartID string, productID, qty int, tier string) (*Cart, LineItem, error) {
	product, ok := s.Products.Product(productID)
	if !ok {
		return nil, LineItem{}, ErrUnknownProduct
	}
	tier, err := NormalizeTier(tier)
	if err != nil {
		return nil, LineItem{}, err
	}
	var added LineItem
	c, err := s.mutate(ctx, cartID, "add", func(c *Cart) error {
		added = c.Add(LineItem{
			ProductID:   product.ID,
			Name:        product.Name,
			UnitPrice:   product.Price,
			Quantity:    qty,
			LicenseTier: tier,
		})
		return nil
	})
	return c, added, err
}

// UpdateQuantity sets the quantity of a line. Quantities below one are ignored.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID string, qty int) (*Cart, error) {
	return s.mutate(ctx, cartID, "set_quantity", func(c *Cart) error {
		return c.SetQuantity(itemID, qty)
	})
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	return s.mutate(ctx, cartID, "remove", func(c *Cart) error {
		return c.Remove(itemID)
	})
}

// Clear removes every line.
func (s *Service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	return s.mutate(ctx, cartID, "clear", func(c *Cart) error {
		c.Clear()
		return nil
	})
}

// ApplyCoupon applies code to the cart.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (*Cart, error) {
	c, err := s.mutate(ctx, cartID, "apply_coupon", func(c *Cart) error {
		return c.ApplyCoupon(s.Coupons, code)
	})
	switch {
	case err == nil:
		obs.Inc(obs.CouponApplyTotal, "accepted")
	case errors.Is(err, ErrNotFound):
	default:
		obs.Inc(obs.CouponApplyTotal, "rejected")
	}
	return c, err
}

// RemoveCoupon clears the applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) (*Cart, error) {
	return s.mutate(ctx, cartID, "remove_coupon", func(c *Cart) error {
		c.ClearCoupon()
		return nil
	})
}

// Totals prices c using the service's coupon policy.
func (s *Service) Totals(c *Cart) pricing.Summary {
	return c.Totals(s.Discount)
}

// View builds the client representation of c.
func (s *Service) View(c *Cart) View {
	v := View{
		ID:        c.ID,
		Items:     c.Items,
		ItemCount: c.ItemCount(),
		Pricing:   s.Totals(c),
		UpdatedAt: c.UpdatedAt,
	}
	if c.Coupon != nil {
		v.Coupon = &CouponView{Code: c.Coupon.Code, Active: true}
	}
	return v
}

// mutate loads, changes and stores a cart under its lock. A failing fn leaves
// the stored cart unchanged.
func (s *Service) mutate(ctx context.Context, cartID, op string, fn func(*Cart) error) (*Cart, error) {
	var out *Cart
	run := func(ctx context.Context) error {
		c, err := s.Store.Get(ctx, cartID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		if err := s.Store.Save(ctx, c, s.ttl()); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = c
		return nil
	}
	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, "cart:"+cartID, 5*time.Second, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, err
	}
	obs.Inc(obs.CartMutationsTotal, op)
	return out, nil
}
