package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flavor is a menu-side preference option customers can attach to an item.
type Flavor struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string          `gorm:"column:name;not null;uniqueIndex"`
	AdditionalPrice decimal.Decimal `gorm:"column:additional_price;type:numeric(12,2);not null;default:0"`
	IsAvailable     bool            `gorm:"column:is_available;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
