package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ceitcs/buildbook/internal/pricing"
)

var (
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrIDExhausted is returned when no free order id was found after retrying.
	ErrIDExhausted = errors.New("order: could not allocate order id")
)

// StatusCompleted is the status of a successfully placed order.
const StatusCompleted = "Completed"

const idAttempts = 10

// Customer is the billing snapshot taken at submission.
type Customer struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	CompanyName    string `json:"companyName"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	Address        string `json:"address"`
	City           string `json:"city"`
	Country        string `json:"country"`
	PostalCode     string `json:"postalCode"`
	LicenseCompany string `json:"licenseCompany,omitempty"`
	LicenseEmail   string `json:"licenseEmail,omitempty"`
}

// Line is a purchased cart line.
type Line struct {
	ProductID   int             `json:"productId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LicenseTier string          `json:"licenseTier"`
}

// Order is a placed order.
type Order struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	Status              string          `json:"status"`
	Customer            Customer        `json:"customer"`
	PaymentMethod       string          `json:"paymentMethod"`
	PurchaseOrderNumber string          `json:"purchaseOrderNumber,omitempty"`
	CouponCode          string          `json:"couponCode,omitempty"`
	Items               []Line          `json:"items"`
	Pricing             pricing.Summary `json:"pricing"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// NewID returns "ORD-" followed by an integer in [100000, 999999].
func NewID(intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return fmt.Sprintf("ORD-%d", 100000+intn(900000))
}

// Repository holds orders in process memory.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]Order
	// Intn overrides the id source in tests.
	Intn func(int) int
	Now  func() time.Time
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[string]Order)}
}

// Create assigns an id and creation time to o and stores it.
func (r *Repository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for attempt := 0; attempt < idAttempts; attempt++ {
		id := NewID(r.Intn)
		if _, taken := r.orders[id]; taken {
			continue
		}
		o.ID = id
		if o.Status == "" {
			o.Status = StatusCompleted
		}
		o.CreatedAt = r.now()
		r.orders[id] = o
		return o, nil
	}
	return Order{}, ErrIDExhausted
}

// Get returns the order by id.
func (r *Repository) Get(_ context.Context, id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(_ context.Context, userID string) []Order {
	return r.filter(func(o Order) bool { return o.UserID == userID })
}

// List returns all orders, newest first.
func (r *Repository) List(_ context.Context) []Order {
	return r.filter(func(Order) bool { return true })
}

func (r *Repository) filter(keep func(Order) bool) []Order {
	r.mu.RLock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Repository) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
