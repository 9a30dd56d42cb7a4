package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter sentinels and accepted values.
const (
	CategoryAll = "all"

	PriceAll        = "all"
	PriceUnder1000  = "under-1000"
	Price1000To1500 = "1000-1500"
	PriceOver1500   = "over-1500"

	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
)

var (
	price1000 = decimal.NewFromInt(1000)
	price1500 = decimal.NewFromInt(1500)
)

// ListParams captures filters for product listing.
type ListParams struct {
	Query      string
	Category   string
	PriceRange string
	Sort       string
}

// FilterAndSort applies the text, category and price filters (ANDed) and then
// stable-sorts the survivors. The input slice is not modified.
func FilterAndSort(products []Product, params ListParams) []Product {
	query := strings.ToLower(params.Query)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !matchesQuery(p, query) || !matchesCategory(p, params.Category) || !matchesPrice(p, params.PriceRange) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, params.Sort)
	return out
}

func matchesQuery(p Product, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	return slices.ContainsFunc(p.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), query)
	})
}

func matchesCategory(p Product, category string) bool {
	if category == "" || category == CategoryAll {
		return true
	}
	return p.Category == category
}

func matchesPrice(p Product, priceRange string) bool {
	switch priceRange {
	case PriceUnder1000:
		return p.Price.LessThan(price1000)
	case Price1000To1500:
		return p.Price.GreaterThanOrEqual(price1000) && p.Price.LessThanOrEqual(price1500)
	case PriceOver1500:
		return p.Price.GreaterThan(price1500)
	default:
		return true
	}
}

func sortProducts(products []Product, key string) {
	switch key {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(products, func(a, b Product) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			default:
				return 0
			}
		})
	default:
		c := collate.New(language.English)
		slices.SortStableFunc(products, func(a, b Product) int { return c.CompareString(a.Name, b.Name) })
	}
}

func validPriceRange(v string) bool {
	switch v {
	case PriceAll, PriceUnder1000, Price1000To1500, PriceOver1500:
		return true
	}
	return false
}

func validSort(v string) bool {
	switch v {
	case SortName, SortPriceLow, SortPriceHigh, SortRating:
		return true
	}
	return false
}
