package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ceitcs/buildbook/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// catalogMaxAge is how long browsers may reuse public catalog responses. The
// catalog only changes on deploy.
const catalogMaxAge = "public, max-age=300"

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", catalogMaxAge)
	common.Data(w, http.StatusOK, Categories)
}

// PriceRanges handles GET /api/v1/price-ranges.
func (h *Handler) PriceRanges(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", catalogMaxAge)
	common.Data(w, http.StatusOK, PriceRanges)
}

// Products handles GET /api/v1/products with search, filters and sorting.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	result := h.service.ListProducts(r.Context(), params)
	meta := map[string]any{
		"total":      result.Total,
		"empty":      result.Total == 0,
		"category":   params.Category,
		"priceRange": params.PriceRange,
		"sort":       params.Sort,
	}
	if result.Total == 0 {
		meta["message"] = "No products found"
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	w.Header().Set("Cache-Control", catalogMaxAge)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": result.Items,
		"meta": meta,
	})
}

// ProductDetail handles GET /api/v1/products/{slug}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	detail, err := h.service.GetProductDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Cache-Control", catalogMaxAge)
	common.Data(w, http.StatusOK, detail)
}

// Related handles GET /api/v1/products/{slug}/related.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items, err := h.service.ListRelatedProducts(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service != nil {
		return true
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.RenderAppError(w, err) {
		return
	}
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Product Not Found", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
