package checkout

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/cart"
	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/events"
	"github.com/ceitcs/buildbook/internal/order"
	"github.com/ceitcs/buildbook/internal/pricing"
)

// Submitter places the order for a completed form.
type Submitter interface {
	Submit(ctx context.Context, form Form, c *cart.Cart) (string, error)
}

// OrderCreator persists placed orders.
type OrderCreator interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
}

// Pricer prices a cart under the storefront's coupon policy.
type Pricer interface {
	Totals(c *cart.Cart) pricing.Summary
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID string, payload any) (events.Event, error)
}

// OrderSubmitter simulates a payment round-trip by waiting Delay, then records
// the order and emits order.created.
type OrderSubmitter struct {
	Delay  time.Duration
	Orders OrderCreator
	Pricer Pricer
	Events Emitter
	Logger zerolog.Logger
}

// Submit implements Submitter. The buyer is taken from the context principal.
func (s OrderSubmitter) Submit(ctx context.Context, form Form, c *cart.Cart) (string, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	licenseCompany, licenseEmail := form.LicenseHolder()
	o := order.Order{
		UserID: common.PrincipalFrom(ctx).UserID,
		Customer: order.Customer{
			FullName:       form.FullName,
			Email:          form.Email,
			CompanyName:    form.CompanyName,
			PhoneNumber:    form.PhoneNumber,
			Address:        form.Address,
			City:           form.City,
			Country:        form.Country,
			PostalCode:     form.PostalCode,
			LicenseCompany: licenseCompany,
			LicenseEmail:   licenseEmail,
		},
		PaymentMethod:       form.PaymentMethod,
		PurchaseOrderNumber: form.PurchaseOrderNumber,
		Items:               make([]order.Line, 0, len(c.Items)),
		Pricing:             s.totals(c),
	}
	if c.Coupon != nil {
		o.CouponCode = c.Coupon.Code
	}
	for _, it := range c.Items {
		o.Items = append(o.Items, order.Line{
			ProductID:   it.ProductID,
			Name:        it.Name,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LicenseTier: it.LicenseTier,
		})
	}
	placed, err := s.Orders.Create(ctx, o)
	if err != nil {
		return "", err
	}
	if s.Events != nil {
		payload := map[string]any{
			"orderId":       placed.ID,
			"email":         placed.Customer.Email,
			"fullName":      placed.Customer.FullName,
			"paymentMethod": placed.PaymentMethod,
			"total":         pricing.Display(placed.Pricing.Total),
			"items":         len(placed.Items),
		}
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, placed.ID, payload); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", placed.ID).Msg("order.created notification failed")
		}
	}
	return placed.ID, nil
}

func (s OrderSubmitter) totals(c *cart.Cart) pricing.Summary {
	if s.Pricer != nil {
		return s.Pricer.Totals(c)
	}
	return c.Totals(cart.DiscountPolicy{})
}
