package account_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ceitcs/buildbook/internal/account"
	"github.com/ceitcs/buildbook/internal/auth"
	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/events"
)

var fastParams = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newService(t *testing.T) (*account.Service, *events.MemoryStore, *auth.Tokens) {
	t.Helper()
	tokens, err := auth.NewTokens(auth.TokensConfig{Secret: "test-secret"})
	require.NoError(t, err)
	store := events.NewMemoryStore(0)
	bus := &events.Bus{Store: store}
	svc := account.NewService(account.NewMemoryStore(), tokens, bus, zerolog.Nop())
	svc.Params = fastParams
	return svc, store, tokens
}

func validInput() account.RegisterInput {
	return account.RegisterInput{
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           "jane@example.com",
		Password:        "Sup3rSecret!",
		ConfirmPassword: "Sup3rSecret!",
		CompanyName:     "Acme",
		AgreeToTerms:    true,
	}
}

func fieldsOf(t *testing.T, err error) common.FieldErrors {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	fields, ok := details["fields"].(common.FieldErrors)
	require.True(t, ok)
	return fields
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, tokens := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, common.RoleClient, sess.User.Role)
	require.NotEmpty(t, sess.AccessToken)

	p, err := tokens.Parse(sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, p.UserID)
	require.Equal(t, "jane@example.com", p.Email)

	recent := store.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, events.TopicUserRegistered, recent[0].Topic)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(recent[0].Payload, &payload))
	require.Equal(t, "Jane Doe", payload["name"])

	_, err = svc.Login(ctx, account.LoginInput{Email: "JANE@example.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, account.LoginInput{Email: "jane@example.com", Password: "wrong"})
	require.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.Login(ctx, account.LoginInput{Email: "nobody@example.com", Password: "x"})
	require.ErrorIs(t, err, account.ErrInvalidCredentials)

	me, err := svc.Me(common.WithPrincipal(ctx, p))
	require.NoError(t, err)
	require.Equal(t, "Acme", me.CompanyName)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, account.RegisterInput{})
	fields := fieldsOf(t, err)
	require.Equal(t, "First name is required", fields["firstName"])
	require.Equal(t, "Last name is required", fields["lastName"])
	require.Equal(t, "Email is required", fields["email"])
	require.Equal(t, "Password is required", fields["password"])
	require.Equal(t, "Company name is required", fields["companyName"])
	require.Equal(t, "You must agree to the terms", fields["agreeToTerms"])

	in := validInput()
	in.Email = "not-an-email"
	in.Password = "abc"
	in.ConfirmPassword = "abd"
	_, err = svc.Register(ctx, in)
	fields = fieldsOf(t, err)
	require.Equal(t, "Invalid email format", fields["email"])
	require.Equal(t, "Password is too weak", fields["password"])
	require.Equal(t, "Passwords do not match", fields["confirmPassword"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "Jane@Example.com"
	_, err = svc.Register(ctx, in)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMAIL_TAKEN", appErr.Code)
}

func TestSeedDemoUsers(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedDemoUsers(ctx, "Demo1234!"))
	require.NoError(t, svc.SeedDemoUsers(ctx, "Demo1234!"))

	sess, err := svc.Login(ctx, account.LoginInput{Email: "john.anderson@example.com", Password: "Demo1234!"})
	require.NoError(t, err)
	require.Equal(t, auth.MockPrincipal(common.RoleClient).UserID, sess.User.ID)
	require.Equal(t, "TechCorp Solutions", sess.User.CompanyName)

	sess, err = svc.Login(ctx, account.LoginInput{Email: "admin@ceitcs.example", Password: "Demo1234!"})
	require.NoError(t, err)
	require.Equal(t, common.RoleAdmin, sess.User.Role)
}
