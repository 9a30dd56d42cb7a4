package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ceitcs/buildbook/internal/common"
)

// ErrNoCredentials is returned when a request carries no credentials at all.
var ErrNoCredentials = errors.New("auth: credentials missing")

// Authenticator resolves the principal behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (common.Principal, error)
}

// BearerAuthenticator reads an access token from the Authorization header or
// a cookie.
type BearerAuthenticator struct {
	Tokens       *Tokens
	AccessCookie string
}

// Authenticate implements Authenticator.
func (b BearerAuthenticator) Authenticate(r *http.Request) (common.Principal, error) {
	if b.Tokens == nil {
		return common.Principal{}, errors.New("auth: tokens not configured")
	}
	token := b.extractToken(r)
	if token == "" {
		return common.Principal{}, ErrNoCredentials
	}
	return b.Tokens.Parse(token)
}

func (b BearerAuthenticator) extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if b.AccessCookie != "" {
		if cookie, err := r.Cookie(b.AccessCookie); err == nil {
			if value := strings.TrimSpace(cookie.Value); value != "" {
				return value
			}
		}
	}
	return ""
}

// StaticAuthenticator authenticates every request as the same principal. It
// backs AUTH_MOCK_ROLE in development.
type StaticAuthenticator struct {
	Principal common.Principal
}

// Authenticate implements Authenticator.
func (s StaticAuthenticator) Authenticate(*http.Request) (common.Principal, error) {
	if !s.Principal.Authenticated {
		return common.Principal{}, ErrNoCredentials
	}
	return s.Principal, nil
}

// MockPrincipal returns the development principal for role, or an
// unauthenticated principal when role is empty.
func MockPrincipal(role string) common.Principal {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case common.RoleAdmin:
		return common.Principal{Authenticated: true, UserID: "mock-admin", Email: "admin@ceitcs.example", Role: common.RoleAdmin}
	case common.RoleClient:
		return common.Principal{Authenticated: true, UserID: "mock-client", Email: "john.anderson@example.com", Role: common.RoleClient}
	default:
		return common.Principal{}
	}
}

// Chain tries each authenticator in order. Explicit credentials win: a bad
// token is reported rather than falling through to the next authenticator.
type Chain []Authenticator

// Authenticate implements Authenticator.
func (c Chain) Authenticate(r *http.Request) (common.Principal, error) {
	for _, a := range c {
		if a == nil {
			continue
		}
		p, err := a.Authenticate(r)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return p, err
	}
	return common.Principal{}, ErrNoCredentials
}
