package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/ceitcs/buildbook/internal/common"
)

const (
	defaultAccessTTL = time.Hour

	claimRole  = "role"
	claimEmail = "email"
)

// Tokens issues and verifies HS256 access tokens carrying the principal.
type Tokens struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
}

// TokensConfig configures Tokens.
type TokensConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// NewTokens constructs a Tokens instance with sane defaults.
func NewTokens(cfg TokensConfig) (*Tokens, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "buildbook-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "buildbook-storefront"
	}
	clockSkew := max(cfg.ClockSkew, 0)
	return &Tokens{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:         issuer,
			Audience:       audience,
			ClockSkew:      clockSkew,
			Algorithm:      jwa.HS256,
			RequiredClaims: []string{claimRole},
			Roles:          []string{common.RoleClient, common.RoleAdmin},
		},
	}, nil
}

// WithNow allows tests to override the time provider.
func (t *Tokens) WithNow(now func() time.Time) {
	if now != nil {
		t.now = now
	}
}

// Issue signs an access token for p.
func (t *Tokens) Issue(p common.Principal) (string, time.Time, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return "", time.Time{}, errors.New("auth: principal has no user id")
	}
	now := t.now()
	expiresAt := now.Add(t.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(p.UserID).
		Issuer(t.issuer).
		Audience([]string{t.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-t.clockSkew)).
		Expiration(expiresAt).
		Claim(claimRole, p.Role).
		Claim(claimEmail, p.Email).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(t.signer, t.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// Parse validates an access token and returns the authenticated principal.
func (t *Tokens) Parse(token string) (common.Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Principal{}, unauthorized("missing token", nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Principal{}, unauthorized("invalid token", err)
	}
	if t.validator.Algorithm != "" && algorithm != t.validator.Algorithm {
		return common.Principal{}, unauthorized("invalid token", fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, t.secret), jwt.WithValidate(false))
	if err != nil {
		return common.Principal{}, unauthorized("invalid token", err)
	}
	if err := t.validator.Validate(parsed, algorithm, t.now()); err != nil {
		return common.Principal{}, unauthorized("invalid token", err)
	}
	role, _ := stringClaim(parsed, claimRole)
	email, _ := stringClaim(parsed, claimEmail)
	return common.Principal{
		Authenticated: true,
		UserID:        parsed.Subject(),
		Email:         email,
		Role:          role,
	}, nil
}

func stringClaim(tok jwt.Token, name string) (string, bool) {
	raw, ok := tok.Get(name)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func unauthorized(message string, err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, err)
}
