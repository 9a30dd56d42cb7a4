// Package dashboard serves the read-only client and admin dashboards. Sample
// data comes from embedded fixtures; orders placed through checkout are merged
// in ahead of the samples.
package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/order"
)

//go:embed fixtures.json
var fixturesJSON []byte

const dateLayout = "2006-01-02"

// Profile is the account card shown on the client dashboard.
type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	AccountType string `json:"accountType"`
	JoinDate    string `json:"joinDate"`
}

// Purchase is a bought product with its licence period.
type Purchase struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	ExpiryDate string `json:"expiryDate"`
	Version    string `json:"version,omitempty"`
	Price      string `json:"price"`
}

// Download is an installer available to the client.
type Download struct {
	ID          int    `json:"id"`
	Product     string `json:"product"`
	Version     string `json:"version"`
	Size        string `json:"size"`
	LastUpdated string `json:"lastUpdated"`
	Platform    string `json:"platform"`
	DownloadURL string `json:"downloadUrl"`
}

// License is an issued licence key.
type License struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	Type       string `json:"type"`
	MaxUsers   int    `json:"maxUsers"`
	IssuedDate string `json:"issuedDate"`
	ExpiryDate string `json:"expiryDate"`
	Status     string `json:"status"`
}

// Notification is an inbox entry.
type Notification struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Date    string `json:"date"`
	IsRead  bool   `json:"isRead"`
	Type    string `json:"type"`
}

// Notifications is the inbox with its unread badge count.
type Notifications struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unreadCount"`
}

// Stat is an admin summary card.
type Stat struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

// ProductRow is a line of the admin products table.
type ProductRow struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Version  string `json:"version"`
	Price    string `json:"price"`
	Sales    int    `json:"sales"`
	Status   string `json:"status"`
}

// OrderRow is a line of the admin recent-orders table.
type OrderRow struct {
	ID      string `json:"id"`
	Client  string `json:"client"`
	Product string `json:"product"`
	Date    string `json:"date"`
	Total   string `json:"total"`
	Status  string `json:"status"`
}

// Overview bundles the client landing page.
type Overview struct {
	Profile       Profile    `json:"profile"`
	Purchases     []Purchase `json:"purchases"`
	LicenseCount  int        `json:"licenseCount"`
	DownloadCount int        `json:"downloadCount"`
	UnreadCount   int        `json:"unreadCount"`
}

type fixtures struct {
	Profile       Profile        `json:"profile"`
	Purchases     []Purchase     `json:"purchases"`
	Downloads     []Download     `json:"downloads"`
	Licenses      []License      `json:"licenses"`
	Notifications []Notification `json:"notifications"`
	Stats         []Stat         `json:"stats"`
	Products      []ProductRow   `json:"products"`
	RecentOrders  []OrderRow     `json:"recentOrders"`
}

// OrderLister reads placed orders.
type OrderLister interface {
	ListByUser(ctx context.Context, userID string) []order.Order
	List(ctx context.Context) []order.Order
}

// Service assembles dashboard views.
type Service struct {
	orders OrderLister
	data   fixtures
}

// NewService loads the embedded fixtures. orders may be nil.
func NewService(orders OrderLister) (*Service, error) {
	var data fixtures
	if err := json.Unmarshal(fixturesJSON, &data); err != nil {
		return nil, fmt.Errorf("decode dashboard fixtures: %w", err)
	}
	return &Service{orders: orders, data: data}, nil
}

// Profile returns the signed-in client's profile. Fields known from the
// principal override the sample profile.
func (s *Service) Profile(ctx context.Context) Profile {
	p := s.data.Profile
	if email := common.PrincipalFrom(ctx).Email; email != "" {
		p.Email = email
	}
	return p
}

// Purchases lists the caller's placed orders, newest first, then the samples.
func (s *Service) Purchases(ctx context.Context) []Purchase {
	var out []Purchase
	for _, o := range s.ownOrders(ctx) {
		for _, line := range o.Items {
			out = append(out, Purchase{
				ID:         o.ID,
				Product:    line.Name,
				Date:       o.CreatedAt.Format(dateLayout),
				Status:     "Active",
				ExpiryDate: o.CreatedAt.AddDate(1, 0, 0).Format(dateLayout),
				Price:      FormatUSD(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))),
			})
		}
	}
	return append(out, s.data.Purchases...)
}

// Downloads lists available installers.
func (s *Service) Downloads(context.Context) []Download {
	return append([]Download(nil), s.data.Downloads...)
}

// Licenses lists issued licences.
func (s *Service) Licenses(context.Context) []License {
	return append([]License(nil), s.data.Licenses...)
}

// Notifications returns the inbox. Each placed order adds an unread
// confirmation ahead of the samples.
func (s *Service) Notifications(ctx context.Context) Notifications {
	var items []Notification
	for _, o := range s.ownOrders(ctx) {
		items = append(items, Notification{
			ID:      "order-" + o.ID,
			Title:   "Purchase Confirmed",
			Message: fmt.Sprintf("Your order %s has been confirmed.", o.ID),
			Date:    o.CreatedAt.Format(dateLayout),
			Type:    "success",
		})
	}
	items = append(items, s.data.Notifications...)
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	return Notifications{Items: items, UnreadCount: unread}
}

// Overview returns the client landing page.
func (s *Service) Overview(ctx context.Context) Overview {
	purchases := s.Purchases(ctx)
	if len(purchases) > 3 {
		purchases = purchases[:3]
	}
	return Overview{
		Profile:       s.Profile(ctx),
		Purchases:     purchases,
		LicenseCount:  len(s.data.Licenses),
		DownloadCount: len(s.data.Downloads),
		UnreadCount:   s.Notifications(ctx).UnreadCount,
	}
}

// Stats returns the admin summary cards.
func (s *Service) Stats(context.Context) []Stat {
	return append([]Stat(nil), s.data.Stats...)
}

// Products returns the admin products table.
func (s *Service) Products(context.Context) []ProductRow {
	return append([]ProductRow(nil), s.data.Products...)
}

// RecentOrders lists every placed order, newest first, followed by the samples.
func (s *Service) RecentOrders(ctx context.Context) []OrderRow {
	var out []OrderRow
	if s.orders != nil {
		for _, o := range s.orders.List(ctx) {
			client := o.Customer.CompanyName
			if client == "" {
				client = o.Customer.FullName
			}
			out = append(out, OrderRow{
				ID:      o.ID,
				Client:  client,
				Product: productLabel(o.Items),
				Date:    o.CreatedAt.Format(dateLayout),
				Total:   FormatUSD(o.Pricing.Total),
				Status:  o.Status,
			})
		}
	}
	return append(out, s.data.RecentOrders...)
}

func (s *Service) ownOrders(ctx context.Context) []order.Order {
	p := common.PrincipalFrom(ctx)
	if s.orders == nil || !p.Authenticated {
		return nil
	}
	return s.orders.ListByUser(ctx, p.UserID)
}

func productLabel(lines []order.Line) string {
	switch len(lines) {
	case 0:
		return ""
	case 1:
		return lines[0].Name
	default:
		return fmt.Sprintf("%s +%d more", lines[0].Name, len(lines)-1)
	}
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders d as dollars with thousands separators. Whole amounts
// drop the cents: 1299 -> "$1,299", 2434.26 -> "$2,434.26".
func FormatUSD(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := usd.Sprintf("%d", d.IntPart())
	if d.Equal(d.Truncate(0)) {
		return sign + "$" + whole
	}
	fixed := d.StringFixed(2)
	return sign + "$" + whole + fixed[strings.IndexByte(fixed, '.'):]
}
