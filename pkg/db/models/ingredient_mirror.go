package models

import (
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// IngredientMirror is the menu service's copy of inventory ingredients,
// kept in sync by outbox events. The id is the inventory-side ingredient id.
type IngredientMirror struct {
	ID          int64               `gorm:"column:id;primaryKey"`
	Name        string              `gorm:"column:name;not null;index"`
	Category    enums.StockCategory `gorm:"column:category;type:text;not null"`
	Unit        enums.UnitType      `gorm:"column:unit;type:text;not null"`
	IsAvailable bool                `gorm:"column:is_available;not null"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
