package models

import (
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// StockHistory is the append-only audit trail for ingredient mutations.
// Rows are never updated after insertion and are not consulted for rollback
// math; the consumption ledger is authoritative there.
type StockHistory struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	IngredientID    int64             `gorm:"column:ingredient_id;not null;index"`
	Action          enums.StockAction `gorm:"column:action;type:text;not null"`
	QuantityBefore  float64           `gorm:"column:quantity_before;not null"`
	QuantityAfter   float64           `gorm:"column:quantity_after;not null"`
	QuantityChanged float64           `gorm:"column:quantity_changed;not null"`
	Actor           string            `gorm:"column:actor;not null"`
	Notes           string            `gorm:"column:notes"`
	OrderID         *string           `gorm:"column:order_id;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}
