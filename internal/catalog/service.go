package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/pricing"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// Service answers catalog queries over an in-memory product list.
type Service struct {
	products     []Product
	bySlug       map[string]int
	byID         map[int]int
	relatedLimit int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	// Products overrides the bundled catalog.
	Products     []Product
	RelatedLimit int
}

// ProductListItem represents an entry in list/related responses.
type ProductListItem struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	Version       string      `json:"version"`
	Price         json.Number `json:"price"`
	Rating        float64     `json:"rating"`
	Reviews       int         `json:"reviews"`
	Description   string      `json:"description"`
	Tags          []string    `json:"tags"`
	DemoAvailable bool        `json:"demoAvailable"`
}

// ProductDetail aggregates the full detail payload.
type ProductDetail struct {
	ProductListItem
	LongDescription string    `json:"longDescription"`
	Features        []string  `json:"features"`
	Benefits        []string  `json:"benefits"`
	FAQ             []FAQ     `json:"faq"`
	DemoURL         string    `json:"demoUrl,omitempty"`
	TechSpecs       TechSpecs `json:"techSpecs"`
}

// ProductListResult contains listing data.
type ProductListResult struct {
	Items []ProductListItem
	Total int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	products := cfg.Products
	if products == nil {
		var err error
		products, err = DefaultProducts()
		if err != nil {
			return nil, err
		}
	}
	relatedLimit := cfg.RelatedLimit
	if relatedLimit < 1 {
		relatedLimit = 4
	}
	s := &Service{
		products:     products,
		bySlug:       make(map[string]int, len(products)),
		byID:         make(map[int]int, len(products)),
		relatedLimit: relatedLimit,
	}
	for i, p := range products {
		if _, dup := s.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate slug %q", p.Slug)
		}
		s.bySlug[p.Slug] = i
		s.byID[p.ID] = i
	}
	return s, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Query:      values.Get("q"),
		Category:   strings.TrimSpace(values.Get("category")),
		PriceRange: strings.TrimSpace(values.Get("priceRange")),
		Sort:       strings.TrimSpace(values.Get("sort")),
	}
	if params.Category == "" {
		params.Category = CategoryAll
	}
	if params.PriceRange == "" {
		params.PriceRange = PriceAll
	}
	if params.Sort == "" {
		params.Sort = SortName
	}
	if !validPriceRange(params.PriceRange) {
		return params, badRequest("priceRange", "unknown price range", nil)
	}
	if !validSort(params.Sort) {
		return params, badRequest("sort", "unknown sort key", nil)
	}
	return params, nil
}

// ListProducts runs the filter/sort pipeline.
func (s *Service) ListProducts(_ context.Context, params ListParams) ProductListResult {
	matched := FilterAndSort(s.products, params)
	items := make([]ProductListItem, 0, len(matched))
	for _, p := range matched {
		items = append(items, toListItem(p))
	}
	return ProductListResult{Items: items, Total: len(items)}
}

// Product returns the catalog entry with the given id.
func (s *Service) Product(id int) (Product, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Product{}, false
	}
	return s.products[idx], true
}

// GetProductDetail resolves the product by slug.
func (s *Service) GetProductDetail(_ context.Context, slug string) (ProductDetail, error) {
	idx, ok := s.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return ProductDetail{}, ErrNotFound
	}
	p := s.products[idx]
	return ProductDetail{
		ProductListItem: toListItem(p),
		LongDescription: p.LongDescription,
		Features:        p.Features,
		Benefits:        p.Benefits,
		FAQ:             p.FAQ,
		DemoURL:         p.DemoURL,
		TechSpecs:       p.TechSpecs,
	}, nil
}

// ListRelatedProducts returns other products in the same category.
func (s *Service) ListRelatedProducts(_ context.Context, slug string) ([]ProductListItem, error) {
	idx, ok := s.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return nil, ErrNotFound
	}
	current := s.products[idx]
	out := make([]ProductListItem, 0, s.relatedLimit)
	for _, p := range s.products {
		if p.ID == current.ID || p.Category != current.Category {
			continue
		}
		out = append(out, toListItem(p))
		if len(out) == s.relatedLimit {
			break
		}
	}
	return out, nil
}

func toListItem(p Product) ProductListItem {
	return ProductListItem{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Category:      p.Category,
		Version:       p.Version,
		Price:         pricing.Display(p.Price),
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Description:   p.Description,
		Tags:          p.Tags,
		DemoAvailable: p.DemoAvailable,
	}
}

func badRequest(field, message string, err error) *common.AppError {
	appErr := common.NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
	appErr.Details = map[string]any{"field": field}
	return appErr
}
