package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/ceitcs/buildbook/internal/common"
)

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(TokensConfig{Secret: "super-secret-key", AccessTokenTTL: time.Minute})
	require.NoError(t, err)
	return tokens
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := newTestTokens(t)
	fixed := time.Now()
	tokens.WithNow(func() time.Time { return fixed })

	in := common.Principal{Authenticated: true, UserID: "user-1", Email: "ada@example.com", Role: common.RoleAdmin}
	signed, expires, err := tokens.Issue(in)
	require.NoError(t, err)
	require.Equal(t, fixed.Add(time.Minute), expires)

	out, err := tokens.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestTokensRejectExpired(t *testing.T) {
	tokens := newTestTokens(t)
	now := time.Now()
	tokens.WithNow(func() time.Time { return now })
	signed, _, err := tokens.Issue(common.Principal{UserID: "user-1", Role: common.RoleClient})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tokens.Parse(signed)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestTokensRejectAlgorithmMismatch(t *testing.T) {
	tokens := newTestTokens(t)
	fixed := time.Now()
	built, err := jwt.NewBuilder().
		Subject("user-1").
		Issuer(tokens.issuer).
		Audience([]string{tokens.audience}).
		IssuedAt(fixed).
		Expiration(fixed.Add(time.Minute)).
		Claim(claimRole, common.RoleAdmin).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS384, tokens.secret))
	require.NoError(t, err)

	_, err = tokens.Parse(string(signed))
	require.Error(t, err)
}

func TestTokensRejectForeignSecret(t *testing.T) {
	tokens := newTestTokens(t)
	other, err := NewTokens(TokensConfig{Secret: "another-secret"})
	require.NoError(t, err)
	signed, _, err := other.Issue(common.Principal{UserID: "user-1", Role: common.RoleAdmin})
	require.NoError(t, err)

	_, err = tokens.Parse(signed)
	require.Error(t, err)

	_, _, err = tokens.Issue(common.Principal{})
	require.Error(t, err)

	_, err = NewTokens(TokensConfig{Secret: "  "})
	require.Error(t, err)
}
