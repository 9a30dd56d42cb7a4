package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                "test",
		JWTSecret:             "test-secret",
		CartTTL:               time.Hour,
		CheckoutSubmitDelay:   time.Millisecond,
		AccessTokenTTL:        time.Hour,
		AccessCookieName:      "access_token",
		RateLimitCouponPerMin: 100,
		RateLimitLoginPerMin:  100,
		BodyLimitBytes:        1 << 20,
		LockTTL:               time.Second,
		NotifyEmailEnabled:    true,
		SecurityHeaders:       true,
	}
}

type harness struct {
	t      *testing.T
	router http.Handler
	app    *app
	mail   *common.InMemoryEmail
	token  string
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	mail := &common.InMemoryEmail{}
	a, err := newApp(context.Background(), cfg, zerolog.Nop(), deps{Mail: mail})
	require.NoError(t, err)
	t.Cleanup(a.checkoutSvc.Wait)
	return &harness{t: t, router: a.routes(routerOptions{}), app: a, mail: mail}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func data[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out.Data
}

func TestRoleGatedRoutes(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	for _, path := range []string{"/api/v1/checkout/abc", "/api/v1/dashboard/", "/api/v1/admin/stats", "/api/v1/orders/"} {
		rec = h.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec = h.do(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com",
		"password": "C0bol!rocks", "confirmPassword": "C0bol!rocks",
		"companyName": "Navy", "agreeToTerms": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	h.token = data[struct {
		AccessToken string `json:"accessToken"`
	}](t, rec).AccessToken

	rec = h.do(http.MethodGet, "/api/v1/dashboard/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/admin/stats", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	h.token = "not-a-token"
	rec = h.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMockAdminRole(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMockRole = "admin"
	h := newHarness(t, cfg)

	rec := h.do(http.MethodGet, "/api/v1/admin/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "5", rec.Header().Get("X-Total-Count"))
}

type session struct {
	ID       string                 `json:"id"`
	Step     int                    `json:"step"`
	Status   string                 `json:"status"`
	OrderID  string                 `json:"orderId"`
	Pricing  map[string]json.Number `json:"pricing"`
	StepName string                 `json:"stepName"`
}

func TestPurchaseFlow(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMockRole = "client"
	h := newHarness(t, cfg)

	rec := h.do(http.MethodPost, "/api/v1/carts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cartID := data[struct {
		ID string `json:"id"`
	}](t, rec).ID

	for _, id := range []int{1, 3} {
		rec = h.do(http.MethodPost, "/api/v1/carts/"+cartID+"/items", map[string]any{"productId": id, "quantity": 1})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = h.do(http.MethodPost, "/api/v1/carts/"+cartID+"/coupon", map[string]string{"code": "WELCOME20"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = h.do(http.MethodPost, "/api/v1/checkout", map[string]string{"cartId": cartID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	base := "/api/v1/checkout/" + data[session](t, rec).ID

	rec = h.do(http.MethodPatch, base+"/form", map[string]any{
		"fullName": "John Anderson", "companyName": "TechCorp Solutions",
		"address": "123 Business St", "city": "Tech City", "country": "US", "postalCode": "12345",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPatch, base+"/form", map[string]any{
		"cardName": "John Anderson", "cardNumber": "4242 4242 4242 4242",
		"expiryDate": "12/29", "cvv": "321", "agreeToTerms": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, json.Number("2434.26"), data[session](t, rec).Pricing["total"])

	rec = h.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	h.app.checkoutSvc.Wait()
	rec = h.do(http.MethodGet, base, nil)
	done := data[session](t, rec)
	require.Equal(t, "completed", done.Status)
	require.Equal(t, "confirmation", done.StepName)
	require.Regexp(t, regexp.MustCompile(`^ORD-\d{6}$`), done.OrderID)

	rec = h.do(http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), done.OrderID)

	rec = h.do(http.MethodGet, "/api/v1/dashboard/purchases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	purchases := data[[]struct {
		ID string `json:"id"`
	}](t, rec)
	require.Equal(t, done.OrderID, purchases[0].ID)

	sent := h.mail.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "john.anderson@example.com", sent[0].To)
	require.Equal(t, "Order "+done.OrderID+" confirmed", sent[0].Subject)
}
