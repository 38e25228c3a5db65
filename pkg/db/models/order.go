package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// Order is a customer order as taken at the counter or via QR cart.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	QueueNumber  int               `gorm:"column:queue_number;not null"`
	CustomerName string            `gorm:"column:customer_name;not null"`
	RoomName     string            `gorm:"column:room_name"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:receive"`
	CancelReason *string           `gorm:"column:cancel_reason"`
	Items        []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one menu line on an order.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	MenuName   string    `gorm:"column:menu_name;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	Preference string    `gorm:"column:preference"`
	Notes      string    `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
