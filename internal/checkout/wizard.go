package checkout

import (
	"errors"
	"time"

	"github.com/ceitcs/buildbook/internal/common"
)

// Step is a position in the checkout wizard.
type Step int

// Wizard steps in order.
const (
	StepBilling Step = iota + 1
	StepPayment
	StepReview
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepBilling:
		return "billing"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Status tracks the submission lifecycle of a session.
type Status string

// Session statuses.
const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
)

var (
	// ErrNotFound indicates the checkout session does not exist.
	ErrNotFound = errors.New("checkout session not found")
	// ErrSubmissionPending is returned while an order submission is in flight.
	ErrSubmissionPending = errors.New("order submission already in progress")
	// ErrCompleted is returned for changes to a session that already placed its order.
	ErrCompleted = errors.New("checkout already completed")
	// ErrInvalidTransition is returned for moves the wizard does not allow.
	ErrInvalidTransition = errors.New("invalid checkout step transition")
	// ErrCartEmpty is returned when checking out or submitting an empty cart.
	ErrCartEmpty = errors.New("cart is empty")
)

// Session is one visitor's pass through the wizard.
type Session struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cartId"`
	UserID    string    `json:"userId"`
	Step      Step      `json:"step"`
	Status    Status    `json:"status"`
	Form      Form      `json:"form"`
	OrderID   string    `json:"orderId,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) editable() error {
	switch s.Status {
	case StatusSubmitting:
		return ErrSubmissionPending
	case StatusCompleted:
		return ErrCompleted
	}
	return nil
}

// Next validates the current step, and every step before it, then advances.
// Review only advances through submission.
func (s *Session) Next(v *Validator) error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Step != StepBilling && s.Step != StepPayment {
		return ErrInvalidTransition
	}
	if err := s.validateThrough(v, s.Step); err != nil {
		return err
	}
	s.Step++
	return nil
}

// validateThrough checks the form against every step from Billing up to and
// including last.
func (s *Session) validateThrough(v *Validator, last Step) error {
	fields := common.FieldErrors{}
	for step := StepBilling; step <= last && step <= StepPayment; step++ {
		var (
			got common.FieldErrors
			err error
		)
		switch step {
		case StepBilling:
			got, err = v.Billing(s.Form)
		case StepPayment:
			got, err = v.Payment(s.Form)
		}
		if err != nil {
			return err
		}
		for field, msg := range got {
			fields[field] = msg
		}
	}
	if len(fields) > 0 {
		return common.ValidationError("Please correct the highlighted fields", fields, nil)
	}
	return nil
}

// Back returns to the previous step. Fields are retained.
func (s *Session) Back() error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Step != StepPayment && s.Step != StepReview {
		return ErrInvalidTransition
	}
	s.Step--
	return nil
}

// Update merges a form patch.
func (s *Session) Update(p FormPatch) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.Form.Apply(p)
	return nil
}

// beginSubmit re-validates the whole form and flips the session into the
// submitting state. Patches made at Review are held to the same rules.
func (s *Session) beginSubmit(v *Validator) error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Step != StepReview {
		return ErrInvalidTransition
	}
	if err := s.validateThrough(v, StepPayment); err != nil {
		return err
	}
	s.Status = StatusSubmitting
	s.LastError = ""
	return nil
}

func (s *Session) finishSubmit(orderID string, err error) {
	if err != nil {
		s.Status = StatusEditing
		s.LastError = "We could not place your order. Please try again."
		return
	}
	s.Status = StatusCompleted
	s.Step = StepConfirmation
	s.OrderID = orderID
}
