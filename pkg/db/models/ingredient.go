package models

import (
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Ingredient is a stock-keeping row. Rows are never hard-deleted; the
// availability flag hides them from resolution and listing instead.
type Ingredient struct {
	ID                 int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Name               string              `gorm:"column:name;not null;uniqueIndex"`
	CurrentQuantity    float64             `gorm:"column:current_quantity;not null;default:0"`
	MinimumQuantity    float64             `gorm:"column:minimum_quantity;not null;default:0"`
	Category           enums.StockCategory `gorm:"column:category;type:text;not null"`
	Unit               enums.UnitType      `gorm:"column:unit;type:text;not null"`
	IsAvailable        bool                `gorm:"column:is_available;not null"`
	PurchasePriceTotal decimal.Decimal     `gorm:"column:purchase_price_total;type:numeric(14,2);not null;default:0"`
	PurchaseQuantity   float64             `gorm:"column:purchase_quantity;not null;default:0"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
