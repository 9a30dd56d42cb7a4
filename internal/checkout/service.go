package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/cart"
	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/lock"
	"github.com/ceitcs/buildbook/internal/obs"
	"github.com/ceitcs/buildbook/internal/pricing"
)

// CartSource loads and prices carts.
type CartSource interface {
	Get(ctx context.Context, id string) (*cart.Cart, error)
	Totals(c *cart.Cart) pricing.Summary
}

// Config groups Service dependencies.
type Config struct {
	Carts     CartSource
	Submitter Submitter
	// Locker guards submission across instances. Nil runs unguarded.
	Locker  lock.Runner
	LockTTL time.Duration
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Service owns checkout sessions.
type Service struct {
	carts     CartSource
	submitter Submitter
	locker    lock.Runner
	lockTTL   time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	validator *Validator

	mu       sync.Mutex
	sessions map[string]*Session
	inflight sync.WaitGroup
}

// View is a session as returned to clients.
type View struct {
	ID        string          `json:"id"`
	CartID    string          `json:"cartId"`
	Step      Step            `json:"step"`
	StepName  string          `json:"stepName"`
	Status    Status          `json:"status"`
	Form      Form            `json:"form"`
	OrderID   string          `json:"orderId,omitempty"`
	Error     string          `json:"error,omitempty"`
	Items     []cart.LineItem `json:"items"`
	Pricing   pricing.Summary `json:"pricing"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		carts:     cfg.Carts,
		submitter: cfg.Submitter,
		locker:    cfg.Locker,
		lockTTL:   ttl,
		logger:    cfg.Logger,
		now:       now,
		validator: NewValidator(),
		sessions:  make(map[string]*Session),
	}
}

// Start opens a session at the billing step for a non-empty cart. The email
// field is prefilled from the principal.
func (s *Service) Start(ctx context.Context, cartID string) (Session, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return Session{}, err
	}
	if c.Empty() {
		return Session{}, ErrCartEmpty
	}
	p := common.PrincipalFrom(ctx)
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CartID:    c.ID,
		UserID:    p.UserID,
		Step:      StepBilling,
		Status:    StatusEditing,
		Form:      DefaultForm(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.Form.Email = p.Email
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return *sess, nil
}

// Get returns the caller's session.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	var out Session
	err := s.withSession(ctx, id, func(sess *Session) error {
		out = *sess
		return nil
	})
	return out, err
}

// UpdateForm merges patch into the session form.
func (s *Service) UpdateForm(ctx context.Context, id string, patch FormPatch) (Session, error) {
	return s.modify(ctx, id, func(sess *Session) error {
		return sess.Update(patch)
	})
}

// Next validates the current step and advances.
func (s *Service) Next(ctx context.Context, id string) (Session, error) {
	var from Step
	sess, err := s.modify(ctx, id, func(sess *Session) error {
		from = sess.Step
		return sess.Next(s.validator)
	})
	if !errors.Is(err, ErrNotFound) {
		obs.Inc(obs.CheckoutStepTransitionsTotal, from.String(), "next", transitionResult(err))
	}
	return sess, err
}

// Back returns to the previous step.
func (s *Service) Back(ctx context.Context, id string) (Session, error) {
	var from Step
	sess, err := s.modify(ctx, id, func(sess *Session) error {
		from = sess.Step
		return sess.Back()
	})
	if !errors.Is(err, ErrNotFound) {
		obs.Inc(obs.CheckoutStepTransitionsTotal, from.String(), "back", transitionResult(err))
	}
	return sess, err
}

// Submit starts placing the order in the background and returns the session
// in the submitting state. The submission outlives the request.
func (s *Service) Submit(ctx context.Context, id string) (Session, error) {
	var (
		form Form
		snap *cart.Cart
	)
	sess, err := s.modify(ctx, id, func(sess *Session) error {
		if err := sess.editable(); err != nil {
			return err
		}
		c, err := s.carts.Get(ctx, sess.CartID)
		if err != nil {
			return err
		}
		if c.Empty() {
			return ErrCartEmpty
		}
		if err := sess.beginSubmit(s.validator); err != nil {
			return err
		}
		form, snap = sess.Form, c
		return nil
	})
	if err != nil {
		return sess, err
	}
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.runSubmission(detached, sess.ID, form, snap)
	}()
	return sess, nil
}

// Wait blocks until in-flight submissions finish.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// View builds the client representation of sess with live cart pricing.
func (s *Service) View(ctx context.Context, sess Session) View {
	v := View{
		ID:        sess.ID,
		CartID:    sess.CartID,
		Step:      sess.Step,
		StepName:  sess.Step.String(),
		Status:    sess.Status,
		Form:      sess.Form.Redacted(),
		OrderID:   sess.OrderID,
		Error:     sess.LastError,
		Items:     []cart.LineItem{},
		UpdatedAt: sess.UpdatedAt,
	}
	if c, err := s.carts.Get(ctx, sess.CartID); err == nil {
		v.Items = c.Items
		v.Pricing = s.carts.Totals(c)
	}
	return v
}

func (s *Service) runSubmission(ctx context.Context, id string, form Form, c *cart.Cart) {
	started := s.now()
	var orderID string
	submit := func(ctx context.Context) error {
		var err error
		orderID, err = s.submitter.Submit(ctx, form, c)
		return err
	}
	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, "checkout:submit:"+id, s.lockTTL, submit)
	} else {
		err = submit(ctx)
	}
	if obs.CheckoutSubmitLatency != nil {
		obs.CheckoutSubmitLatency.Observe(float64(s.now().Sub(started).Milliseconds()))
	}
	result := "success"
	if err != nil {
		result = "failure"
		s.logger.Error().Err(err).Str("checkout_id", id).Msg("order submission failed")
	} else {
		s.logger.Info().Str("checkout_id", id).Str("order_id", orderID).Str("payment_method", form.PaymentMethod).Msg("order placed")
	}
	obs.Inc(obs.CheckoutOrdersTotal, form.PaymentMethod, result)

	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.finishSubmit(orderID, err)
		sess.UpdatedAt = s.now()
	}
	s.mu.Unlock()
}

func (s *Service) modify(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	var out Session
	err := s.withSession(ctx, id, func(sess *Session) error {
		if err := fn(sess); err != nil {
			out = *sess
			return err
		}
		sess.UpdatedAt = s.now()
		out = *sess
		return nil
	})
	return out, err
}

// withSession runs fn under the service mutex. Sessions owned by another user
// are reported as missing unless the caller is an admin.
func (s *Service) withSession(ctx context.Context, id string, fn func(*Session) error) error {
	p := common.PrincipalFrom(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || (sess.UserID != p.UserID && !p.HasRole(common.RoleAdmin)) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fn(sess)
}

func transitionResult(err error) string {
	if err == nil {
		return "ok"
	}
	if common.IsAppError(err) {
		return "invalid"
	}
	return "rejected"
}
