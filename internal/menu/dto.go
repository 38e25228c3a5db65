package menu

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// MenuItemDTO is the menu item payload returned to clients.
type MenuItemDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
	Recipe      []RecipeLineDTO `json:"recipe,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecipeLineDTO is one recipe line of a menu item.
type RecipeLineDTO struct {
	IngredientID   int64          `json:"ingredient_id"`
	IngredientName string         `json:"ingredient_name,omitempty"`
	Quantity       float64        `json:"quantity"`
	Unit           enums.UnitType `json:"unit"`
}

// NewMenuItemDTO builds a DTO from the persisted model.
func NewMenuItemDTO(row *models.MenuItem, names map[int64]string) *MenuItemDTO {
	dto := &MenuItemDTO{
		ID:          row.ID,
		Name:        row.Name,
		Price:       row.Price,
		IsAvailable: row.IsAvailable,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, line := range row.Ingredients {
		dto.Recipe = append(dto.Recipe, RecipeLineDTO{
			IngredientID:   line.IngredientID,
			IngredientName: names[line.IngredientID],
			Quantity:       line.Quantity,
			Unit:           line.Unit,
		})
	}
	return dto
}

// CreateMenuItemInput holds the payload to create a menu item with its recipe.
type CreateMenuItemInput struct {
	Name   string
	Price  decimal.Decimal
	Recipe []RecipeLineInput
}

// RecipeLineInput is one recipe line submitted by an admin.
type RecipeLineInput struct {
	IngredientID int64
	Quantity     float64
	Unit         enums.UnitType
}

// UpdateMenuItemInput holds optional menu item mutations. A non-nil Recipe
// replaces the stored recipe wholesale.
type UpdateMenuItemInput struct {
	Name        *string
	Price       *decimal.Decimal
	IsAvailable *bool
	Recipe      *[]RecipeLineInput
}

// FlavorDTO is the flavor option payload returned to clients.
type FlavorDTO struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	IsAvailable     bool            `json:"is_available"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateFlavorInput holds the payload to create a flavor option.
type CreateFlavorInput struct {
	Name            string
	AdditionalPrice decimal.Decimal
}

// UpdateFlavorInput holds optional flavor mutations.
type UpdateFlavorInput struct {
	Name            *string
	AdditionalPrice *decimal.Decimal
	IsAvailable     *bool
}

// BatchRecipesInput is the recipe provider request payload.
type BatchRecipesInput struct {
	MenuNames []string `json:"menu_names"`
}

// BatchRecipesResult maps every requested menu name to its recipe lines.
// Names without a recipe (or unknown names) map to an empty slice.
type BatchRecipesResult struct {
	Recipes map[string][]RecipeLineDTO `json:"recipes"`
}
