package dashboard

import (
	"net/http"
	"strconv"

	"github.com/ceitcs/buildbook/internal/common"
)

// Handler exposes the dashboards over HTTP. Role gating happens in the router.
type Handler struct {
	Svc *Service
}

// Overview handles GET /dashboard.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Overview(r.Context()))
}

// Profile handles GET /dashboard/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Profile(r.Context()))
}

// Purchases handles GET /dashboard/purchases.
func (h *Handler) Purchases(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Purchases(r.Context()))
}

// Downloads handles GET /dashboard/downloads.
func (h *Handler) Downloads(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Downloads(r.Context()))
}

// Licenses handles GET /dashboard/licenses.
func (h *Handler) Licenses(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Licenses(r.Context()))
}

// Notifications handles GET /dashboard/notifications.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Notifications(r.Context()))
}

// Stats handles GET /admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Stats(r.Context()))
}

// Products handles GET /admin/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Svc.Products(r.Context()))
}

// RecentOrders handles GET /admin/orders.
func (h *Handler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	rows := h.Svc.RecentOrders(r.Context())
	page, perPage := common.ParsePagination(r, 10, 100)
	meta := common.Pagination{Page: page, PerPage: perPage, TotalItems: len(rows)}
	start, end := meta.Window()
	w.Header().Set("X-Total-Count", strconv.Itoa(len(rows)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows[start:end],
		"pagination": meta,
	})
}
