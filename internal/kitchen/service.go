package kitchen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

// TicketDTO is the kitchen display payload for one order.
type TicketDTO struct {
	OrderID      uuid.UUID         `json:"order_id"`
	QueueNumber  int               `json:"queue_number"`
	Status       enums.OrderStatus `json:"status"`
	CustomerName string            `json:"customer_name,omitempty"`
	RoomName     string            `json:"room_name,omitempty"`
	Items        []TicketItemDTO   `json:"items,omitempty"`
	ReceivedAt   time.Time         `json:"received_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	DeliveredAt  *time.Time        `json:"delivered_at,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
}

// TicketItemDTO is one line the kitchen has to prepare.
type TicketItemDTO struct {
	MenuName   string `json:"menu_name"`
	Quantity   int    `json:"quantity"`
	Preference string `json:"preference,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// statusUpdater is the order-side transition surface the kitchen drives.
type statusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) error
}

// UpdaterFunc adapts a closure to the statusUpdater interface.
type UpdaterFunc func(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) error

func (f UpdaterFunc) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) error {
	return f(ctx, id, next, actor)
}

// Service exposes the kitchen display operations.
type Service interface {
	ListActiveTickets(ctx context.Context) ([]TicketDTO, error)
	GetTicket(ctx context.Context, orderID uuid.UUID) (*TicketDTO, error)
	AdvanceTicket(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actor string) (*TicketDTO, error)
}

type service struct {
	db      *gorm.DB
	updater statusUpdater
	logg    *logger.Logger
}

// NewService constructs the kitchen service.
func NewService(db *gorm.DB, updater statusUpdater, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if updater == nil {
		return nil, fmt.Errorf("status updater required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{db: db, updater: updater, logg: logg}, nil
}

// ListActiveTickets returns tickets still moving through the flow, oldest
// queue number first so the display matches preparation order.
func (s *service) ListActiveTickets(ctx context.Context) ([]TicketDTO, error) {
	var tickets []models.KitchenTicket
	err := s.db.WithContext(ctx).
		Where("status IN ?", []enums.OrderStatus{enums.OrderReceive, enums.OrderMaking, enums.OrderDeliver}).
		Order("queue_number ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	out := make([]TicketDTO, 0, len(tickets))
	for i := range tickets {
		dto, err := s.hydrate(ctx, &tickets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *service) GetTicket(ctx context.Context, orderID uuid.UUID) (*TicketDTO, error) {
	var ticket models.KitchenTicket
	err := s.db.WithContext(ctx).First(&ticket, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	}
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, &ticket)
}

// AdvanceTicket moves the owning order forward; the order service mirrors
// the step back onto the ticket with its timestamps.
func (s *service) AdvanceTicket(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actor string) (*TicketDTO, error) {
	if err := s.updater.UpdateStatus(ctx, orderID, next, actor); err != nil {
		return nil, err
	}
	return s.GetTicket(ctx, orderID)
}

func (s *service) hydrate(ctx context.Context, ticket *models.KitchenTicket) (*TicketDTO, error) {
	dto := &TicketDTO{
		OrderID:     ticket.OrderID,
		QueueNumber: ticket.QueueNumber,
		Status:      ticket.Status,
		ReceivedAt:  ticket.ReceivedAt,
		StartedAt:   ticket.StartedAt,
		DeliveredAt: ticket.DeliveredAt,
		FinishedAt:  ticket.FinishedAt,
	}

	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", ticket.OrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto, nil
	}
	if err != nil {
		return nil, err
	}

	dto.CustomerName = order.CustomerName
	dto.RoomName = order.RoomName
	for _, item := range order.Items {
		dto.Items = append(dto.Items, TicketItemDTO{
			MenuName:   item.MenuName,
			Quantity:   item.Quantity,
			Preference: item.Preference,
			Notes:      item.Notes,
		})
	}
	return dto, nil
}
