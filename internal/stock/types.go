package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// RecipeLine is one ingredient requirement per unit of a menu item, as
// returned by the menu service.
type RecipeLine struct {
	IngredientID int64          `json:"ingredient_id"`
	Quantity     float64        `json:"quantity"`
	Unit         enums.UnitType `json:"unit"`
}

// RecipeSource fetches recipes for a batch of menu names in one round trip.
// Every requested name must appear as a key in the result, even when the
// recipe is empty.
type RecipeSource interface {
	FetchRecipes(ctx context.Context, menuNames []string) (map[string][]RecipeLine, error)
}

// OrderLine is one menu line of the order being checked or consumed.
type OrderLine struct {
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	MenuName   string     `json:"menu_name"`
	Quantity   int        `json:"quantity"`
	Preference string     `json:"preference,omitempty"`
}

// CheckAndConsumeInput is the entry point payload for the engine.
type CheckAndConsumeInput struct {
	OrderID string
	Items   []OrderLine
	Consume bool
	Actor   string
}

// Shortage reports an ingredient with insufficient (but positive) stock, or
// a batch-level problem such as a missing recipe or a recipe fetch failure.
type Shortage struct {
	IngredientID   int64          `json:"ingredient_id,omitempty"`
	IngredientName string         `json:"ingredient_name,omitempty"`
	MenuName       string         `json:"menu_name,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Required       float64        `json:"required,omitempty"`
	Available      float64        `json:"available,omitempty"`
	Unit           enums.UnitType `json:"unit,omitempty"`
	Menus          []string       `json:"menus,omitempty"`
}

// OutOfStockItem reports an ingredient that blocks fulfillment outright:
// referenced but missing, soft-deleted, or at zero.
type OutOfStockItem struct {
	IngredientID int64    `json:"ingredient_id"`
	Name         string   `json:"name,omitempty"`
	Reason       string   `json:"reason"`
	Menus        []string `json:"menus,omitempty"`
}

// PartialSuggestion is the maximum makeable quantity for a menu line given
// current stock.
type PartialSuggestion struct {
	MenuName  string `json:"menu_name"`
	Requested int    `json:"requested"`
	CanMake   int    `json:"can_make"`
}

// MenuDetail summarizes one order line for the ledger header.
type MenuDetail struct {
	MenuName     string `json:"menu_name"`
	RecipeCount  int    `json:"recipe_count"`
	RequestedQty int    `json:"requested_qty"`
}

// CheckAndConsumeResult is the structured outcome of a check or consume run.
type CheckAndConsumeResult struct {
	CanFulfill         bool                `json:"can_fulfill"`
	OutOfStock         []OutOfStockItem    `json:"out_of_stock"`
	Shortages          []Shortage          `json:"shortages"`
	PartialSuggestions []PartialSuggestion `json:"partial_suggestions"`
	Details            []MenuDetail        `json:"details"`
	Notes              []string            `json:"notes,omitempty"`
}

// RollbackResult reports the outcome of a full rollback.
type RollbackResult struct {
	Success       bool   `json:"success"`
	RestoredCount int    `json:"restored_count"`
	Message       string `json:"message,omitempty"`
}

// PartialRollbackItem selects order lines to reverse, either by the exact
// order item id or by descriptor. Quantity caps the servings reversed;
// zero reverses every matching serving.
type PartialRollbackItem struct {
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	MenuName   string     `json:"menu_name,omitempty"`
	Quantity   int        `json:"quantity,omitempty"`
	Preference string     `json:"preference,omitempty"`
}

// RestoredIngredient reports one ingredient restored by a partial rollback.
type RestoredIngredient struct {
	IngredientID int64          `json:"ingredient_id"`
	Name         string         `json:"name"`
	Quantity     float64        `json:"quantity"`
	Unit         enums.UnitType `json:"unit"`
}

// PartialRollbackResult reports the outcome of a partial rollback.
type PartialRollbackResult struct {
	Success  bool                 `json:"success"`
	Restored []RestoredIngredient `json:"restored"`
	Message  string               `json:"message,omitempty"`
}

// need accumulates the total requirement for one ingredient across the batch.
type need struct {
	Needed float64
	Unit   enums.UnitType
	Menus  []string
}

func (n *need) addMenu(menu string) {
	for _, existing := range n.Menus {
		if existing == menu {
			return
		}
	}
	n.Menus = append(n.Menus, menu)
}

// contribution attributes part of an ingredient requirement to one order
// line, so ledger detail rows can be written (and reversed) per line item.
// LineNo and Servings let a partial rollback reverse some servings of a
// line without touching its siblings.
type contribution struct {
	ItemID       *uuid.UUID
	MenuName     string
	Preference   string
	LineNo       int
	Servings     int
	IngredientID int64
	Quantity     float64
	Unit         enums.UnitType
}

// resolution is the output of the requirement resolver.
type resolution struct {
	needs         map[int64]*need
	contributions []contribution
	details       []MenuDetail
	shortages     []Shortage
	notes         []string
	recipes       map[string][]RecipeLine
}
