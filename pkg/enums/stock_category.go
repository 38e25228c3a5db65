package enums

import "fmt"

// StockCategory maps to the stock_category enum in Postgres.
type StockCategory string

const (
	StockCategoryIngredient StockCategory = "ingredient"
	StockCategoryPackaging  StockCategory = "packaging"
	StockCategoryFlavor     StockCategory = "flavor"
)

var validStockCategories = []StockCategory{
	StockCategoryIngredient,
	StockCategoryPackaging,
	StockCategoryFlavor,
}

// IsValid reports whether the value matches the canonical stock_category enum.
func (c StockCategory) IsValid() bool {
	for _, candidate := range validStockCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseStockCategory converts raw input into StockCategory.
func ParseStockCategory(value string) (StockCategory, error) {
	for _, candidate := range validStockCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock category %q", value)
}

func (c StockCategory) String() string {
	return string(c)
}
