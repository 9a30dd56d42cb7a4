package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func defaultProducts(t *testing.T) []Product {
	t.Helper()
	products, err := DefaultProducts()
	require.NoError(t, err)
	require.Len(t, products, 6)
	return products
}

func ids(products []Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterAndSortUnder1000PriceHigh(t *testing.T) {
	got := FilterAndSort(defaultProducts(t), ListParams{Category: CategoryAll, PriceRange: PriceUnder1000, Sort: SortPriceHigh})
	require.Equal(t, []int{2}, ids(got))
	require.Equal(t, "Attendance Management System", got[0].Name)
}

func TestFilterAndSortDefaultsToName(t *testing.T) {
	got := FilterAndSort(defaultProducts(t), ListParams{})
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{
		"Attendance Management System",
		"Data/Code Bridge",
		"Employee Management System",
		"Material Management System",
		"Payment Gateway",
		"Payroll Management System",
	}, names)
}

func TestFilterAndSortRatingIsStable(t *testing.T) {
	got := FilterAndSort(defaultProducts(t), ListParams{Sort: SortRating})
	require.Equal(t, []int{3, 6, 1, 5, 4, 2}, ids(got))
}

func TestFilterAndSortPriceLow(t *testing.T) {
	got := FilterAndSort(defaultProducts(t), ListParams{Sort: SortPriceLow})
	require.Equal(t, []int{2, 5, 4, 1, 6, 3}, ids(got))
}

func TestFilterAndSortQueryMatchesTagsCaseInsensitive(t *testing.T) {
	got := FilterAndSort(defaultProducts(t), ListParams{Query: "PAYROLL"})
	require.Equal(t, []int{3}, ids(got))

	got = FilterAndSort(defaultProducts(t), ListParams{Query: "code conversion", Sort: SortName})
	require.Equal(t, []int{6}, ids(got))
}

func TestFilterAndSortQueryIsNotTrimmed(t *testing.T) {
	require.Len(t, FilterAndSort(defaultProducts(t), ListParams{Query: " "}), 6)
	require.Empty(t, FilterAndSort(defaultProducts(t), ListParams{Query: "  "}))
	require.Empty(t, FilterAndSort(defaultProducts(t), ListParams{Query: "  payroll"}))
}

func TestFilterAndSortCategoryAndQueryAreANDed(t *testing.T) {
	got := FilterAndSort(defaultProducts(t), ListParams{Query: "finance", Category: "Finance", Sort: SortPriceLow})
	require.Equal(t, []int{5, 3}, ids(got))

	got = FilterAndSort(defaultProducts(t), ListParams{Query: "payroll", Category: "HR"})
	require.Empty(t, got)
}

func TestPriceRangeBoundsInclusive(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "A", Price: decimal.NewFromInt(999)},
		{ID: 2, Name: "B", Price: decimal.NewFromInt(1000)},
		{ID: 3, Name: "C", Price: decimal.NewFromInt(1500)},
		{ID: 4, Name: "D", Price: decimal.RequireFromString("1500.01")},
	}
	require.Equal(t, []int{1}, ids(FilterAndSort(products, ListParams{PriceRange: PriceUnder1000})))
	require.Equal(t, []int{2, 3}, ids(FilterAndSort(products, ListParams{PriceRange: Price1000To1500})))
	require.Equal(t, []int{4}, ids(FilterAndSort(products, ListParams{PriceRange: PriceOver1500})))
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	products := defaultProducts(t)
	_ = FilterAndSort(products, ListParams{Sort: SortPriceHigh})
	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(products))
}
