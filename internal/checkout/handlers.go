package checkout

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ceitcs/buildbook/internal/cart"
	"github.com/ceitcs/buildbook/internal/common"
)

// Handler exposes the checkout wizard over HTTP.
type Handler struct {
	Svc *Service
}

// Start opens a checkout session for a cart.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CartID string `json:"cartId"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(payload.CartID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartId is required", nil)
		return
	}
	sess, err := h.Svc.Start(r.Context(), payload.CartID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/checkout/"+sess.ID)
	common.Data(w, http.StatusCreated, h.Svc.View(r.Context(), sess))
}

// Get returns the session.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(r.Context(), sess))
}

// UpdateForm merges submitted fields into the form.
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var patch FormPatch
	if err := common.DecodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.Svc.UpdateForm(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(r.Context(), sess))
}

// Next advances the wizard after validating the current step.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(r.Context(), sess))
}

// Back returns to the previous step.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.View(r.Context(), sess))
}

// Submit places the order. The response is sent before the order exists;
// clients poll Get until the status is completed.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusAccepted, h.Svc.View(r.Context(), sess))
}

func writeError(w http.ResponseWriter, err error) {
	if common.RenderAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "checkout session not found", nil)
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrCartEmpty):
		common.JSONError(w, http.StatusBadRequest, "CART_EMPTY", "Your cart is empty", nil)
	case errors.Is(err, ErrSubmissionPending):
		common.JSONError(w, http.StatusConflict, "SUBMISSION_PENDING", "order submission already in progress", nil)
	case errors.Is(err, ErrCompleted):
		common.JSONError(w, http.StatusConflict, "CHECKOUT_COMPLETED", "checkout already completed", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", "this step cannot be left that way", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
