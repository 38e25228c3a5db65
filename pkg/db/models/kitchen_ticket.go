package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// KitchenTicket tracks a single order through the kitchen display flow.
// Status values follow the same lifecycle as the owning order.
type KitchenTicket struct {
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;primaryKey"`
	QueueNumber int               `gorm:"column:queue_number;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:receive"`
	ReceivedAt  time.Time         `gorm:"column:received_at;autoCreateTime"`
	StartedAt   *time.Time        `gorm:"column:started_at"`
	DeliveredAt *time.Time        `gorm:"column:delivered_at"`
	FinishedAt  *time.Time        `gorm:"column:finished_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
