package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/events"
)

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	TopicToggles map[string]bool
}

// payload is the union of fields carried by notification-worthy events.
type payload struct {
	OrderID       string      `json:"orderId"`
	Email         string      `json:"email"`
	FullName      string      `json:"fullName"`
	Name          string      `json:"name"`
	PaymentMethod string      `json:"paymentMethod"`
	Total         json.Number `json:"total"`
	Items         int         `json:"items"`
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event events.Event) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	var p payload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := strings.TrimSpace(p.Email)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic, p), bodyFor(event.Topic, p, event.OccurredAt))
}

func subjectFor(topic string, p payload) string {
	switch topic {
	case events.TopicOrderCreated:
		return fmt.Sprintf("Order %s confirmed", p.OrderID)
	case events.TopicUserRegistered:
		return "Welcome to CeiTCS BuildBook"
	default:
		return fmt.Sprintf("Notification: %s", topic)
	}
}

func bodyFor(topic string, p payload, occurred time.Time) string {
	var b strings.Builder
	name := p.FullName
	if name == "" {
		name = p.Name
	}
	if name != "" {
		fmt.Fprintf(&b, "<p>Hi %s,</p>\n", html.EscapeString(name))
	}
	switch topic {
	case events.TopicOrderCreated:
		fmt.Fprintf(&b, "<p>Thank you for your purchase. Your order <strong>%s</strong> has been placed.</p>\n", html.EscapeString(p.OrderID))
		fmt.Fprintf(&b, "<p>Items: %d<br>Total: $%s<br>Payment method: %s</p>\n", p.Items, p.Total, html.EscapeString(p.PaymentMethod))
		b.WriteString("<p>Your license keys and download links are available in your dashboard.</p>\n")
	case events.TopicUserRegistered:
		b.WriteString("<p>Your account is ready. Browse the catalog to find your next business system.</p>\n")
	default:
		fmt.Fprintf(&b, "<p>Event %s occurred.</p>\n", html.EscapeString(topic))
	}
	fmt.Fprintf(&b, "<p><small>%s</small></p>", occurred.UTC().Format(time.RFC1123))
	return b.String()
}
