package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/internal/stock"
	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

const queueCounterTTL = 26 * time.Hour

// StockEngine is the in-process surface of the stock engine the order flow
// depends on.
type StockEngine interface {
	CheckAndConsume(ctx context.Context, input stock.CheckAndConsumeInput) (*stock.CheckAndConsumeResult, error)
	Rollback(ctx context.Context, orderID, actor string) (*stock.RollbackResult, error)
	RollbackPartial(ctx context.Context, orderID string, items []stock.PartialRollbackItem, actor string) (*stock.PartialRollbackResult, error)
}

// queueCounter is the redis surface used for daily queue numbers. A nil
// counter falls back to the database.
type queueCounter interface {
	CounterKey(scope, id string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Service exposes order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput, actor string) (*CreateOrderResult, error)
	CancelOrder(ctx context.Context, id uuid.UUID, reason, actor string) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) ([]OrderDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	engine   StockEngine
	counter  queueCounter
	logg     *logger.Logger
}

// NewService constructs the order service. counter may be nil; queue numbers
// then come from the database.
func NewService(repo *Repository, dbClient *db.Client, engine StockEngine, counter queueCounter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if engine == nil {
		return nil, fmt.Errorf("stock engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, engine: engine, counter: counter, logg: logg}, nil
}

// CreateOrder reserves stock first, then persists the order and its kitchen
// ticket. A rejection from the stock engine surfaces as a typed error
// carrying the full check result so clients can render shortages and partial
// suggestions.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput, actor string) (*CreateOrderResult, error) {
	if input.CustomerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(input.Items))
	stockLines := make([]stock.OrderLine, 0, len(input.Items))
	for _, item := range input.Items {
		if item.MenuName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name is required on every item")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity for %q must be positive", item.MenuName))
		}
		itemID := uuid.New()
		items = append(items, models.OrderItem{
			ID:         itemID,
			OrderID:    orderID,
			MenuName:   item.MenuName,
			Quantity:   item.Quantity,
			Preference: item.Preference,
			Notes:      item.Notes,
		})
		stockLines = append(stockLines, stock.OrderLine{
			ItemID:     &items[len(items)-1].ID,
			MenuName:   item.MenuName,
			Quantity:   item.Quantity,
			Preference: item.Preference,
		})
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())

	checkResult, err := s.engine.CheckAndConsume(ctx, stock.CheckAndConsumeInput{
		OrderID: orderID.String(),
		Items:   stockLines,
		Consume: true,
		Actor:   actor,
	})
	if err != nil {
		return nil, err
	}
	if !checkResult.CanFulfill {
		code := pkgerrors.CodeShortage
		if len(checkResult.OutOfStock) > 0 {
			code = pkgerrors.CodeOutOfStock
		}
		return nil, pkgerrors.New(code, "order cannot be fulfilled").WithDetails(checkResult)
	}

	queueNumber, err := s.nextQueueNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		ID:           orderID,
		QueueNumber:  queueNumber,
		CustomerName: input.CustomerName,
		RoomName:     input.RoomName,
		Status:       enums.OrderReceive,
		Items:        items,
	}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateOrder(tx, &order); err != nil {
			return err
		}
		ticket := models.KitchenTicket{
			OrderID:     orderID,
			QueueNumber: queueNumber,
			Status:      enums.OrderReceive,
		}
		return s.repo.CreateKitchenTicket(tx, &ticket)
	})
	if err != nil {
		// Stock already deducted; credit it back rather than stranding it.
		if _, rbErr := s.engine.Rollback(ctx, orderID.String(), actor); rbErr != nil {
			s.logg.Error(ctx, "rollback after failed order insert", rbErr)
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "queue_number", queueNumber), "order created")
	return &CreateOrderResult{Order: NewOrderDTO(&order), Stock: checkResult}, nil
}

// nextQueueNumber hands out the next daily queue number from redis, falling
// back to the database when the counter is unavailable.
func (s *service) nextQueueNumber(ctx context.Context) (int, error) {
	today := time.Now().Format("2006-01-02")
	if s.counter != nil {
		key := s.counter.CounterKey("queue", today)
		n, err := s.counter.IncrWithTTL(ctx, key, queueCounterTTL)
		if err == nil {
			return int(n), nil
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "queue counter unavailable, using db fallback")
	}

	startOfDay, _ := time.Parse("2006-01-02", today)
	max, err := s.repo.MaxQueueNumberSince(ctx, nil, startOfDay)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CancelOrder flips the order and its ticket to cancel and returns the
// consumed stock to inventory.
func (s *service) CancelOrder(ctx context.Context, id uuid.UUID, reason, actor string) (*OrderDTO, error) {
	ctx = s.logg.WithOrderID(ctx, id.String())

	var cancelled *models.Order
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.FindOrderByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if row.Status == enums.OrderCancel {
			cancelled = row
			return nil
		}
		if !row.Status.CanTransitionTo(enums.OrderCancel) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", row.Status))
		}

		updates := map[string]any{"status": enums.OrderCancel}
		if reason != "" {
			updates["cancel_reason"] = reason
		}
		if err := s.repo.UpdateOrder(tx, id, updates); err != nil {
			return err
		}
		if err := s.repo.UpdateKitchenTicket(tx, id, map[string]any{
			"status":      enums.OrderCancel,
			"finished_at": time.Now(),
		}); err != nil {
			return err
		}

		row.Status = enums.OrderCancel
		if reason != "" {
			row.CancelReason = &reason
		}
		cancelled = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.engine.Rollback(ctx, id.String(), actor); err != nil {
		// The order is already cancelled; stock restoration failing needs
		// eyes, not a failed cancellation.
		s.logg.Error(ctx, "stock rollback on cancel failed", err)
	}

	s.logg.Info(ctx, "order cancelled")
	return NewOrderDTO(cancelled), nil
}

// UpdateStatus advances the order along receive → making → deliver → done
// and mirrors the step onto the kitchen ticket.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if next == enums.OrderCancel {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel an order")
	}
	ctx = s.logg.WithOrderID(ctx, id.String())

	var updated *models.Order
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.FindOrderByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !row.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("cannot transition from %s to %s", row.Status, next))
		}

		if err := s.repo.UpdateOrder(tx, id, map[string]any{"status": next}); err != nil {
			return err
		}

		ticketUpdates := map[string]any{"status": next}
		now := time.Now()
		switch next {
		case enums.OrderMaking:
			ticketUpdates["started_at"] = now
		case enums.OrderDeliver:
			ticketUpdates["delivered_at"] = now
		case enums.OrderDone:
			ticketUpdates["finished_at"] = now
		}
		if err := s.repo.UpdateKitchenTicket(tx, id, ticketUpdates); err != nil {
			return err
		}

		row.Status = next
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "status", next), "order status updated")
	return NewOrderDTO(updated), nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	row, err := s.repo.FindOrderByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(row), nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) ([]OrderDTO, error) {
	rows, err := s.repo.ListOrders(ctx, input)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewOrderDTO(&rows[i]))
	}
	return out, nil
}
