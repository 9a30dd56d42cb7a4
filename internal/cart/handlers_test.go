package cart_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ceitcs/buildbook/internal/cart"
	"github.com/ceitcs/buildbook/internal/catalog"
	"github.com/ceitcs/buildbook/internal/coupon"
	"github.com/ceitcs/buildbook/internal/lock"
)

type cartResponse struct {
	Data struct {
		ID        string          `json:"id"`
		ItemCount int             `json:"itemCount"`
		Items     []cart.LineItem `json:"items"`
		Coupon    *struct {
			Code   string `json:"code"`
			Active bool   `json:"active"`
		} `json:"coupon"`
		Pricing map[string]json.Number `json:"pricing"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	products, err := catalog.NewService(catalog.ServiceConfig{})
	require.NoError(t, err)
	h := &cart.Handler{Svc: &cart.Service{
		Store:    cart.NewMemoryStore(),
		Products: products,
		Coupons:  coupon.Default(),
		Locker:   lock.NewLocal(),
	}}
	r := chi.NewRouter()
	r.Post("/carts", h.Create)
	r.Get("/carts/{id}", h.Get)
	r.Post("/carts/{id}/items", h.AddItem)
	r.Delete("/carts/{id}/items", h.Clear)
	r.Patch("/carts/{id}/items/{itemId}", h.UpdateItem)
	r.Delete("/carts/{id}/items/{itemId}", h.RemoveItem)
	r.Post("/carts/{id}/coupon", h.ApplyCoupon)
	r.Delete("/carts/{id}/coupon", h.RemoveCoupon)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var out cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCartFlow(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/carts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeCart(t, rec).Data.ID
	require.NotEmpty(t, id)

	rec = do(t, router, http.MethodPost, "/carts/"+id+"/items", map[string]any{"productId": 1, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, router, http.MethodPost, "/carts/"+id+"/items", map[string]any{"productId": 3, "quantity": 1, "licenseTier": "professional"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/carts/"+id+"/coupon", map[string]any{"code": "welcome20"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeCart(t, rec)
	require.NotNil(t, body.Data.Coupon)
	require.True(t, body.Data.Coupon.Active)
	require.Equal(t, json.Number("2798.00"), body.Data.Pricing["subtotal"])
	require.Equal(t, json.Number("195.86"), body.Data.Pricing["tax"])
	require.Equal(t, json.Number("559.60"), body.Data.Pricing["discount"])
	require.Equal(t, json.Number("2434.26"), body.Data.Pricing["total"])
	require.Equal(t, cart.TierProfessional, body.Data.Items[1].LicenseTier)

	rec = do(t, router, http.MethodPost, "/carts/"+id+"/coupon", map[string]any{"code": "WELCOME20"})
	require.Equal(t, http.StatusConflict, rec.Code)

	itemID := body.Data.Items[0].ID
	rec = do(t, router, http.MethodPatch, "/carts/"+id+"/items/"+itemID, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 4, decodeCart(t, rec).Data.ItemCount)

	rec = do(t, router, http.MethodDelete, "/carts/"+id+"/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeCart(t, rec).Data.Items, 1)

	rec = do(t, router, http.MethodDelete, "/carts/"+id+"/coupon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, decodeCart(t, rec).Data.Coupon)

	rec = do(t, router, http.MethodDelete, "/carts/"+id+"/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeCart(t, rec).Data.Items)
}

func TestCartErrors(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/carts/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/carts", nil)
	id := decodeCart(t, rec).Data.ID

	rec = do(t, router, http.MethodPost, "/carts/"+id+"/items", map[string]any{"productId": 99})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/carts/"+id+"/items", map[string]any{"productId": 1, "licenseTier": "gold"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/carts/"+id+"/coupon", map[string]any{"code": "FREESTUFF"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	require.Equal(t, "INVALID_COUPON", errBody.Error.Code)
	require.Equal(t, "Invalid coupon code", errBody.Error.Message)

	rec = do(t, router, http.MethodPatch, "/carts/"+id+"/items/nope", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
