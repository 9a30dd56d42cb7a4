package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ceitcs/buildbook/internal/common"
)

// Handler exposes the caller's orders.
type Handler struct {
	Repo *Repository
}

// List returns the authenticated user's orders. Admins may pass ?all=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := common.PrincipalFrom(r.Context())
	if !p.Authenticated {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orders := h.Repo.ListByUser(r.Context(), p.UserID)
	if p.HasRole(common.RoleAdmin) && r.URL.Query().Get("all") == "true" {
		orders = h.Repo.List(r.Context())
	}
	writePage(w, r, orders)
}

// Get returns one order. Clients only see their own orders.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p := common.PrincipalFrom(r.Context())
	o, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && o.UserID != p.UserID && !p.HasRole(common.RoleAdmin) {
		err = ErrNotFound
	}
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

func writePage(w http.ResponseWriter, r *http.Request, orders []Order) {
	page, perPage := common.ParsePagination(r, 20, 100)
	meta := common.Pagination{Page: page, PerPage: perPage, TotalItems: len(orders)}
	start, end := meta.Window()
	w.Header().Set("X-Total-Count", strconv.Itoa(len(orders)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders[start:end],
		"pagination": meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	if common.RenderAppError(w, err) {
		return
	}
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
