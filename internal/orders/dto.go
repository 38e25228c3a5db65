package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/infinity-cafe/cafe-backend/internal/stock"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	QueueNumber  int               `json:"queue_number"`
	CustomerName string            `json:"customer_name"`
	RoomName     string            `json:"room_name,omitempty"`
	Status       enums.OrderStatus `json:"status"`
	CancelReason *string           `json:"cancel_reason,omitempty"`
	Items        []OrderItemDTO    `json:"items"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// OrderItemDTO is one menu line on an order.
type OrderItemDTO struct {
	ID         uuid.UUID `json:"id"`
	MenuName   string    `json:"menu_name"`
	Quantity   int       `json:"quantity"`
	Preference string    `json:"preference,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// NewOrderDTO builds a DTO from the persisted model.
func NewOrderDTO(row *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:           row.ID,
		QueueNumber:  row.QueueNumber,
		CustomerName: row.CustomerName,
		RoomName:     row.RoomName,
		Status:       row.Status,
		CancelReason: row.CancelReason,
		Items:        make([]OrderItemDTO, 0, len(row.Items)),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	for _, item := range row.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:         item.ID,
			MenuName:   item.MenuName,
			Quantity:   item.Quantity,
			Preference: item.Preference,
			Notes:      item.Notes,
		})
	}
	return dto
}

// CreateOrderInput holds the payload to place an order.
type CreateOrderInput struct {
	CustomerName string
	RoomName     string
	Items        []CreateOrderItemInput
}

// CreateOrderItemInput is one requested menu line.
type CreateOrderItemInput struct {
	MenuName   string
	Quantity   int
	Preference string
	Notes      string
}

// CreateOrderResult pairs the stored order with the stock engine outcome.
type CreateOrderResult struct {
	Order *OrderDTO                    `json:"order"`
	Stock *stock.CheckAndConsumeResult `json:"stock,omitempty"`
}

// ListOrdersInput filters the order listing.
type ListOrdersInput struct {
	Status *enums.OrderStatus
	Date   *time.Time
	Limit  int
}
