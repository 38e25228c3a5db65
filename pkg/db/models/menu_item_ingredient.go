package models

import (
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// MenuItemIngredient is one recipe line: the quantity of an ingredient
// needed per unit of the menu item sold.
type MenuItemIngredient struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	MenuItemID   int64          `gorm:"column:menu_item_id;not null;index"`
	IngredientID int64          `gorm:"column:ingredient_id;not null;index"`
	Quantity     float64        `gorm:"column:quantity;not null"`
	Unit         enums.UnitType `gorm:"column:unit;type:text;not null"`
}
