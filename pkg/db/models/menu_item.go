package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a sellable menu entry with its recipe lines.
type MenuItem struct {
	ID          int64                `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string               `gorm:"column:name;not null;uniqueIndex"`
	Price       decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	IsAvailable bool                 `gorm:"column:is_available;not null"`
	Ingredients []MenuItemIngredient `gorm:"foreignKey:MenuItemID"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
