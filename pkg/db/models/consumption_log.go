package models

import (
	"encoding/json"
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// ConsumptionLog is the ledger header: one row per order id. At most one
// non-rolled-back consumed state may exist for an order.
type ConsumptionLog struct {
	ID           int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      string                  `gorm:"column:order_id;not null;uniqueIndex"`
	Status       enums.ConsumptionStatus `gorm:"column:status;type:text;not null;default:pending"`
	MenuSummary  json.RawMessage         `gorm:"column:menu_summary;type:jsonb"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	ConsumedAt   *time.Time              `gorm:"column:consumed_at"`
	RolledBackAt *time.Time              `gorm:"column:rolled_back_at"`
}
