package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/coupon"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

// Create creates a new cart and returns its identifier.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	c, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/carts/"+c.ID)
	common.Data(w, http.StatusCreated, h.Svc.View(c))
}

// Get returns cart contents and pricing.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(c))
}

// AddItem appends a line to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID   int    `json:"productId"`
		Quantity    int    `json:"quantity"`
		LicenseTier string `json:"licenseTier"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	if payload.ProductID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	c, item, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "id"), payload.ProductID, payload.Quantity, payload.LicenseTier)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{
		"item": item,
		"cart": h.Svc.View(c),
	})
}

// UpdateItem changes a line's quantity.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.Svc.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(c))
}

// RemoveItem deletes a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(c))
}

// Clear removes every line from the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(c))
}

// ApplyCoupon applies a coupon code.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.Svc.ApplyCoupon(r.Context(), chi.URLParam(r, "id"), payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(c))
}

// RemoveCoupon clears the applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.RemoveCoupon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(c))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.RenderAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
	case errors.Is(err, ErrUnknownProduct):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Product Not Found", nil)
	case errors.Is(err, ErrInvalidTier):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown license tier", map[string]any{"field": "licenseTier"})
	case errors.Is(err, ErrCouponActive):
		common.JSONError(w, http.StatusConflict, "COUPON_ACTIVE", "remove the current coupon before applying another", nil)
	case errors.Is(err, coupon.ErrInvalidCoupon):
		common.JSONError(w, http.StatusBadRequest, "INVALID_COUPON", "Invalid coupon code", nil)
	case errors.Is(err, coupon.ErrCouponInactive), errors.Is(err, coupon.ErrCouponExpired):
		common.JSONError(w, http.StatusBadRequest, "INVALID_COUPON", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
