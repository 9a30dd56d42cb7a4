package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/auth"
	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/events"
	"github.com/ceitcs/buildbook/internal/obs"
)

// ErrInvalidCredentials is returned when an email/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Store persists users.
type Store interface {
	Create(ctx context.Context, u User) error
	ByID(ctx context.Context, id string) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
}

// Emitter records domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email_loose"`
	Password        string `json:"password" validate:"required,strong_password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	CompanyName     string `json:"companyName" validate:"required"`
	JobTitle        string `json:"jobTitle"`
	AgreeToTerms    bool   `json:"agreeToTerms" validate:"required"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email_loose"`
	Password string `json:"password" validate:"required"`
}

// Session is returned after a successful registration or login.
type Session struct {
	User        User      `json:"user"`
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

var registerMessages = common.Messages{
	"firstName":       {"required": "First name is required"},
	"lastName":        {"required": "Last name is required"},
	"email":           {"required": "Email is required", "email_loose": "Invalid email format"},
	"password":        {"required": "Password is required", "strong_password": "Password is too weak"},
	"confirmPassword": {"eqfield": "Passwords do not match"},
	"companyName":     {"required": "Company name is required"},
	"agreeToTerms":    {"required": "You must agree to the terms"},
}

var loginMessages = common.Messages{
	"email":    {"required": "Email is required", "email_loose": "Invalid email format"},
	"password": {"required": "Password is required"},
}

// Service implements registration, login and profile lookup.
type Service struct {
	Users  Store
	Tokens *auth.Tokens
	Events Emitter
	Logger zerolog.Logger
	// Params overrides the argon2id cost; nil uses argon2id.DefaultParams.
	Params *argon2id.Params
	Now    func() time.Time

	validate *validator.Validate
}

// NewService wires a Service with its validator.
func NewService(users Store, tokens *auth.Tokens, emitter Emitter, logger zerolog.Logger) *Service {
	return &Service{Users: users, Tokens: tokens, Events: emitter, Logger: logger, validate: newValidator()}
}

func newValidator() *validator.Validate {
	v := common.NewValidator()
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return PasswordStrength(fl.Field().String()).Accepted
	})
	return v
}

func (s *Service) validator() *validator.Validate {
	if s.validate == nil {
		s.validate = newValidator()
	}
	return s.validate
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) params() *argon2id.Params {
	if s.Params != nil {
		return s.Params
	}
	return argon2id.DefaultParams
}

// Register creates a client account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in, registerMessages); err != nil {
		obs.Inc(obs.AccountRegistrationsTotal, "invalid")
		return Session{}, err
	}
	hash, err := argon2id.CreateHash(in.Password, s.params())
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		CompanyName:  strings.TrimSpace(in.CompanyName),
		JobTitle:     strings.TrimSpace(in.JobTitle),
		Role:         common.RoleClient,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			obs.Inc(obs.AccountRegistrationsTotal, "duplicate")
			return Session{}, common.NewAppError("EMAIL_TAKEN", "An account with this email already exists", http.StatusConflict, err)
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	obs.Inc(obs.AccountRegistrationsTotal, "created")

	if s.Events != nil {
		payload := map[string]any{"userId": u.ID, "email": u.Email, "name": u.Name(), "companyName": u.CompanyName}
		if _, err := s.Events.Emit(ctx, events.TopicUserRegistered, u.ID, payload); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", u.ID).Msg("emit user.registered failed")
		}
	}
	return s.issue(u)
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := s.check(in, loginMessages); err != nil {
		return Session{}, err
	}
	u, err := s.Users.ByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	match, err := argon2id.ComparePasswordAndHash(in.Password, u.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Me returns the signed-in user's profile.
func (s *Service) Me(ctx context.Context) (User, error) {
	p := common.PrincipalFrom(ctx)
	if !p.Authenticated {
		return User{}, ErrUserNotFound
	}
	return s.Users.ByID(ctx, p.UserID)
}

// SeedDemoUsers creates the demo client and admin accounts with password.
// Accounts that already exist are left alone.
func (s *Service) SeedDemoUsers(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return nil
	}
	hash, err := argon2id.CreateHash(password, s.params())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	client := auth.MockPrincipal(common.RoleClient)
	admin := auth.MockPrincipal(common.RoleAdmin)
	seeds := []User{
		{ID: client.UserID, FirstName: "John", LastName: "Anderson", Email: client.Email, CompanyName: "TechCorp Solutions", JobTitle: "IT Director", Role: common.RoleClient},
		{ID: admin.UserID, FirstName: "Admin", LastName: "User", Email: admin.Email, CompanyName: "CeiTCS", Role: common.RoleAdmin},
	}
	for _, u := range seeds {
		u.PasswordHash = hash
		u.CreatedAt = s.now()
		if err := s.Users.Create(ctx, u); err != nil && !errors.Is(err, ErrEmailTaken) {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return nil
}

func (s *Service) check(in any, messages common.Messages) error {
	fields, err := common.FieldErrorsFrom(s.validator().Struct(in), messages)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return common.ValidationError("Please correct the highlighted fields", fields, nil)
	}
	return nil
}

func (s *Service) issue(u User) (Session, error) {
	if s.Tokens == nil {
		return Session{}, errors.New("account: tokens not configured")
	}
	token, exp, err := s.Tokens.Issue(common.Principal{Authenticated: true, UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}
