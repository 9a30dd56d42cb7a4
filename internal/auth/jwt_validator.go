package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	errNilToken     = errors.New("auth: token is nil")
	errNoAlgorithm  = errors.New("auth: token missing algorithm")
	errNoExpiry     = errors.New("auth: token has no expiry")
	errUnknownRole  = errors.New("auth: token role is not recognised")
	errEmptySubject = errors.New("auth: token has no subject")
)

// TokenValidator checks the claims of a parsed access token.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	// RequiredClaims must be present in addition to the registered ones.
	RequiredClaims []string
	// Roles restricts the role claim when non-empty.
	Roles []string
}

// Validate checks algorithm, expiry, issuer, audience, required claims and
// the role claim as of now.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	switch {
	case tok == nil:
		return errNilToken
	case algorithm == "":
		return errNoAlgorithm
	case v.Algorithm != "" && algorithm != v.Algorithm:
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	case tok.Expiration().IsZero():
		return errNoExpiry
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	for _, claim := range v.RequiredClaims {
		options = append(options, jwt.WithRequiredClaim(claim))
	}
	if len(v.Roles) > 0 {
		options = append(options, jwt.WithValidator(jwt.ValidatorFunc(v.checkPrincipal)))
	}
	return jwt.Validate(tok, options...)
}

func (v TokenValidator) checkPrincipal(_ context.Context, tok jwt.Token) jwt.ValidationError {
	if tok.Subject() == "" {
		return jwt.NewValidationError(errEmptySubject)
	}
	raw, _ := tok.Get(claimRole)
	role, _ := raw.(string)
	if !slices.Contains(v.Roles, role) {
		return jwt.NewValidationError(errUnknownRole)
	}
	return nil
}
