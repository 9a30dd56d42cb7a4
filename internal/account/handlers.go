package account

import (
	"errors"
	"net/http"

	"github.com/ceitcs/buildbook/internal/common"
)

// Handler exposes account endpoints.
type Handler struct {
	Service *Service
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := common.DecodeJSON(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	sess, err := h.Service.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, sess)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := common.DecodeJSON(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	sess, err := h.Service.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, sess)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, u)
}

// PasswordStrength handles POST /auth/password-strength so the registration
// form can render the meter without submitting.
func (h *Handler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := common.DecodeJSON(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, PasswordStrength(in.Password))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.RenderAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		common.JSONError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	case errors.Is(err, ErrUserNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
