package resilience

import (
	"fmt"
	"time"

	"github.com/ceitcs/buildbook/internal/common"
)

// Mailer retries a flaky EmailSender with backoff and stops calling it while
// its breaker is open.
type Mailer struct {
	Sender      common.EmailSender
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64

	sleep func(time.Duration)
}

// Send implements common.EmailSender.
func (m *Mailer) Send(to, subject, html string) error {
	attempts := m.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := m.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if m.Breaker != nil && !m.Breaker.Allow() {
			countMail("rejected")
			return ErrOpenCircuit
		}
		err = m.Sender.Send(to, subject, html)
		if m.Breaker != nil {
			m.Breaker.Report(err == nil)
		}
		if err == nil {
			countMail("sent")
			return nil
		}
		if attempt < attempts {
			sleep(Backoff(m.BaseBackoff, attempt, m.Jitter))
		}
	}
	countMail("failed")
	return fmt.Errorf("send mail after %d attempts: %w", attempts, err)
}

func countMail(result string) {
	if MailDeliveriesTotal != nil {
		MailDeliveriesTotal.WithLabelValues(result).Inc()
	}
}
