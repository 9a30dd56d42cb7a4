package common_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ceitcs/buildbook/internal/common"
)

func TestRenderAppErrorWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	err := common.ValidationError("", common.FieldErrors{"email": "Email is required"}, nil)
	require.True(t, common.RenderAppError(rec, err))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields map[string]string `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Equal(t, "Email is required", body.Error.Details.Fields["email"])

	require.False(t, common.RenderAppError(httptest.NewRecorder(), errors.New("plain")))
}

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := common.WithPrincipal(context.Background(), common.Principal{Authenticated: true, UserID: "u1", Role: "admin"})
	p := common.PrincipalFrom(ctx)
	require.True(t, p.HasRole(common.RoleAdmin))
	require.False(t, p.HasRole(common.RoleClient))

	id, ok := common.UserID(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", id)

	_, ok = common.UserID(context.Background())
	require.False(t, ok)
}

func TestClientKeyPrefersUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "ip:203.0.113.9", common.ClientKey(req))

	req = req.WithContext(common.WithUserID(req.Context(), "u42"))
	require.Equal(t, "user:u42", common.ClientKey(req))
}

func TestIdemRejectsReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/abc/submit", nil)
		req.Header.Set("Idempotency-Key", "k-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusAccepted, send().Code)
	require.Equal(t, http.StatusConflict, send().Code)
	require.Equal(t, 1, calls)
}
