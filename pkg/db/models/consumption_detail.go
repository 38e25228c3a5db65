package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// ConsumptionDetail is a ledger line item: the exact quantity deducted from
// one ingredient for one order line. Rollback restores precisely what these
// rows record, never more.
type ConsumptionDetail struct {
	ID               int64          `gorm:"column:id;primaryKey;autoIncrement"`
	ConsumptionLogID int64          `gorm:"column:consumption_log_id;not null;index"`
	OrderID          string         `gorm:"column:order_id;not null;index"`
	IngredientID     int64          `gorm:"column:ingredient_id;not null;index"`
	IngredientName   string         `gorm:"column:ingredient_name;not null"`
	Quantity         float64        `gorm:"column:quantity;not null"`
	Unit             enums.UnitType `gorm:"column:unit;type:text;not null"`
	StockBefore      float64        `gorm:"column:stock_before;not null"`
	StockAfter       float64        `gorm:"column:stock_after;not null"`
	OrderItemID      *uuid.UUID     `gorm:"column:order_item_id;type:uuid;index"`
	MenuName         string         `gorm:"column:menu_name"`
	Preference       string         `gorm:"column:preference"`
	LineNo           int            `gorm:"column:line_no;not null"`
	Servings         int            `gorm:"column:servings;not null"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
}
