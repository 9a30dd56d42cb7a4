package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

//go:embed products.json
var productsJSON []byte

// Product is an immutable catalog entry.
type Product struct {
	ID              int             `json:"id"`
	Slug            string          `json:"slug"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Version         string          `json:"version"`
	Price           decimal.Decimal `json:"price"`
	Rating          float64         `json:"rating"`
	Reviews         int             `json:"reviews"`
	Description     string          `json:"description"`
	LongDescription string          `json:"longDescription"`
	Features        []string        `json:"features"`
	Tags            []string        `json:"tags"`
	Benefits        []string        `json:"benefits"`
	FAQ             []FAQ           `json:"faq"`
	DemoAvailable   bool            `json:"demoAvailable"`
	DemoURL         string          `json:"demoUrl"`
	TechSpecs       TechSpecs       `json:"techSpecs"`
}

// FAQ is a question/answer pair shown on the detail page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TechSpecs lists deployment requirements.
type TechSpecs struct {
	Deployment string `json:"deployment"`
	Resources  string `json:"resources"`
	Database   string `json:"database"`
	OS         string `json:"os"`
	Browsers   string `json:"browsers"`
}

// Option is a selectable filter value.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Categories available for filtering, including the "all" sentinel.
var Categories = []Option{
	{Name: "All Categories", Value: CategoryAll},
	{Name: "HR", Value: "HR"},
	{Name: "Finance", Value: "Finance"},
	{Name: "Inventory", Value: "Inventory"},
	{Name: "Development", Value: "Development"},
}

// PriceRanges available for filtering.
var PriceRanges = []Option{
	{Name: "All Prices", Value: PriceAll},
	{Name: "Under $1,000", Value: PriceUnder1000},
	{Name: "$1,000 - $1,500", Value: Price1000To1500},
	{Name: "Over $1,500", Value: PriceOver1500},
}

// DefaultProducts decodes the bundled product catalog.
func DefaultProducts() ([]Product, error) {
	var out []Product
	if err := json.Unmarshal(productsJSON, &out); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	return out, nil
}
