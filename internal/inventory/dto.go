package inventory

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// IngredientDTO is the ingredient payload returned to clients.
type IngredientDTO struct {
	ID                 int64               `json:"id"`
	Name               string              `json:"name"`
	CurrentQuantity    float64             `json:"current_quantity"`
	MinimumQuantity    float64             `json:"minimum_quantity"`
	Category           enums.StockCategory `json:"category"`
	Unit               enums.UnitType      `json:"unit"`
	IsAvailable        bool                `json:"is_available"`
	IsLowStock         bool                `json:"is_low_stock"`
	PurchasePriceTotal decimal.Decimal     `json:"purchase_price_total"`
	PurchaseQuantity   float64             `json:"purchase_quantity"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// NewIngredientDTO builds a DTO from the persisted model.
func NewIngredientDTO(row *models.Ingredient) *IngredientDTO {
	return &IngredientDTO{
		ID:                 row.ID,
		Name:               row.Name,
		CurrentQuantity:    row.CurrentQuantity,
		MinimumQuantity:    row.MinimumQuantity,
		Category:           row.Category,
		Unit:               row.Unit,
		IsAvailable:        row.IsAvailable,
		IsLowStock:         row.CurrentQuantity < row.MinimumQuantity,
		PurchasePriceTotal: row.PurchasePriceTotal,
		PurchaseQuantity:   row.PurchaseQuantity,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

// CreateIngredientInput holds the validated payload to create an ingredient.
type CreateIngredientInput struct {
	Name               string
	CurrentQuantity    float64
	MinimumQuantity    float64
	Category           enums.StockCategory
	Unit               enums.UnitType
	PurchasePriceTotal decimal.Decimal
	PurchaseQuantity   float64
}

// UpdateIngredientInput holds optional mutation values. Each set field writes
// its own audit action.
type UpdateIngredientInput struct {
	Name               *string
	CurrentQuantity    *float64
	MinimumQuantity    *float64
	Category           *enums.StockCategory
	Unit               *enums.UnitType
	IsAvailable        *bool
	PurchasePriceTotal *decimal.Decimal
	PurchaseQuantity   *float64
}

// RestockInput adds stock on top of the current quantity.
type RestockInput struct {
	Quantity float64
	Notes    string
}

// ListIngredientsInput filters the ingredient listing.
type ListIngredientsInput struct {
	Category           *enums.StockCategory
	IncludeUnavailable bool
	LowStockOnly       bool
	Search             string
	Limit              int
	Cursor             string
}

// IngredientListResult is one page of ingredients.
type IngredientListResult struct {
	Items      []IngredientDTO `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// FlavorMappingDTO is the flavor mapping payload returned to clients.
type FlavorMappingDTO struct {
	ID                 int64          `json:"id"`
	FlavorName         string         `json:"flavor_name"`
	IngredientID       int64          `json:"ingredient_id"`
	IngredientName     string         `json:"ingredient_name,omitempty"`
	QuantityPerServing float64        `json:"quantity_per_serving"`
	Unit               enums.UnitType `json:"unit"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// CreateFlavorMappingInput holds the payload to map a flavor to an ingredient.
type CreateFlavorMappingInput struct {
	FlavorName         string
	IngredientID       int64
	QuantityPerServing float64
	Unit               enums.UnitType
}

// UpdateFlavorMappingInput holds optional mapping mutations.
type UpdateFlavorMappingInput struct {
	IngredientID       *int64
	QuantityPerServing *float64
	Unit               *enums.UnitType
}

// StockHistoryDTO is one audit trail row.
type StockHistoryDTO struct {
	ID              int64             `json:"id"`
	IngredientID    int64             `json:"ingredient_id"`
	Action          enums.StockAction `json:"action"`
	QuantityBefore  float64           `json:"quantity_before"`
	QuantityAfter   float64           `json:"quantity_after"`
	QuantityChanged float64           `json:"quantity_changed"`
	Actor           string            `json:"actor"`
	Notes           string            `json:"notes,omitempty"`
	OrderID         *string           `json:"order_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ListStockHistoryInput filters the audit listing.
type ListStockHistoryInput struct {
	IngredientID *int64
	Action       *enums.StockAction
	Limit        int
	Cursor       string
}

// StockHistoryListResult is one page of audit rows.
type StockHistoryListResult struct {
	Items      []StockHistoryDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ConsumptionLogDTO is a ledger header with its detail rows.
type ConsumptionLogDTO struct {
	ID           int64                   `json:"id"`
	OrderID      string                  `json:"order_id"`
	Status       enums.ConsumptionStatus `json:"status"`
	MenuSummary  json.RawMessage         `json:"menu_summary,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	ConsumedAt   *time.Time              `json:"consumed_at,omitempty"`
	RolledBackAt *time.Time              `json:"rolled_back_at,omitempty"`
	Details      []ConsumptionDetailDTO  `json:"details,omitempty"`
}

// ConsumptionDetailDTO is one ledger line item.
type ConsumptionDetailDTO struct {
	ID             int64          `json:"id"`
	IngredientID   int64          `json:"ingredient_id"`
	IngredientName string         `json:"ingredient_name"`
	Quantity       float64        `json:"quantity"`
	Unit           enums.UnitType `json:"unit"`
	StockBefore    float64        `json:"stock_before"`
	StockAfter     float64        `json:"stock_after"`
	MenuName       string         `json:"menu_name,omitempty"`
	Preference     string         `json:"preference,omitempty"`
}
