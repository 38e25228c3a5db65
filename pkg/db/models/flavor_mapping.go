package models

import (
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// FlavorMapping resolves a flavor name to the ingredient deducted when an
// order item carries that preference. A flavor name maps to exactly one
// ingredient; an ingredient may back several flavor names.
type FlavorMapping struct {
	ID                 int64          `gorm:"column:id;primaryKey;autoIncrement"`
	FlavorName         string         `gorm:"column:flavor_name;not null;uniqueIndex"`
	IngredientID       int64          `gorm:"column:ingredient_id;not null;index"`
	QuantityPerServing float64        `gorm:"column:quantity_per_serving;not null"`
	Unit               enums.UnitType `gorm:"column:unit;type:text;not null"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
