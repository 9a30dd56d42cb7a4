package common

import (
	"context"
	"slices"
	"strings"
)

type ctxKey string

const principalKey ctxKey = "auth/principal"

// Roles recognised by the storefront.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Principal describes who is making the request.
type Principal struct {
	Authenticated bool   `json:"isAuthenticated"`
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
}

// HasRole reports whether the principal holds one of the supplied roles.
func (p Principal) HasRole(roles ...string) bool {
	role := strings.ToLower(strings.TrimSpace(p.Role))
	if role == "" {
		return false
	}
	return slices.Contains(roles, role)
}

// WithPrincipal stores the request principal on the provided context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the request principal. Anonymous when absent.
func PrincipalFrom(ctx context.Context) Principal {
	if ctx == nil {
		return Principal{}
	}
	p, _ := ctx.Value(principalKey).(Principal)
	return p
}

// WithUserID stores an authenticated principal carrying only a user identifier.
func WithUserID(ctx context.Context, id string) context.Context {
	p := PrincipalFrom(ctx)
	p.Authenticated = true
	p.UserID = id
	return WithPrincipal(ctx, p)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	p := PrincipalFrom(ctx)
	if !p.Authenticated || p.UserID == "" {
		return "", false
	}
	return p.UserID, true
}
