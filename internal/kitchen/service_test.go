package kitchen

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

func newTestService(t *testing.T, updater statusUpdater) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:kitchen_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.KitchenTicket{},
	))

	if updater == nil {
		updater = UpdaterFunc(func(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) error {
			return conn.Model(&models.KitchenTicket{}).
				Where("order_id = ?", id).
				Update("status", next).Error
		})
	}

	logg := logger.New(logger.Options{ServiceName: "kitchen-test", Output: io.Discard})
	svc, err := NewService(conn, updater, logg)
	require.NoError(t, err)
	return svc, conn
}

func seedTicket(t *testing.T, conn *gorm.DB, queue int, status enums.OrderStatus) uuid.UUID {
	t.Helper()
	orderID := uuid.New()
	require.NoError(t, conn.Create(&models.Order{
		ID:           orderID,
		QueueNumber:  queue,
		CustomerName: "Guest",
		RoomName:     "Counter",
		Status:       status,
		Items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, MenuName: "Latte", Quantity: 1, Preference: "Vanilla"},
		},
	}).Error)
	require.NoError(t, conn.Create(&models.KitchenTicket{
		OrderID:     orderID,
		QueueNumber: queue,
		Status:      status,
		ReceivedAt:  time.Now(),
	}).Error)
	return orderID
}

func TestListActiveTicketsOrdersByQueue(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t, nil)
	ctx := context.Background()

	seedTicket(t, conn, 3, enums.OrderMaking)
	seedTicket(t, conn, 1, enums.OrderReceive)
	seedTicket(t, conn, 2, enums.OrderDone)
	seedTicket(t, conn, 4, enums.OrderCancel)

	tickets, err := svc.ListActiveTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, 1, tickets[0].QueueNumber)
	assert.Equal(t, 3, tickets[1].QueueNumber)

	require.Len(t, tickets[0].Items, 1)
	assert.Equal(t, "Latte", tickets[0].Items[0].MenuName)
	assert.Equal(t, "Guest", tickets[0].CustomerName)
}

func TestGetTicketNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)

	_, err := svc.GetTicket(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdvanceTicketDelegatesToOrderService(t *testing.T) {
	t.Parallel()

	var calls []enums.OrderStatus
	var conn *gorm.DB
	updater := UpdaterFunc(func(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) error {
		calls = append(calls, next)
		return conn.Model(&models.KitchenTicket{}).
			Where("order_id = ?", id).
			Updates(map[string]any{"status": next, "started_at": time.Now()}).Error
	})
	svc, c := newTestService(t, updater)
	conn = c
	ctx := context.Background()

	orderID := seedTicket(t, conn, 1, enums.OrderReceive)

	ticket, err := svc.AdvanceTicket(ctx, orderID, enums.OrderMaking, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderMaking, ticket.Status)
	assert.Equal(t, []enums.OrderStatus{enums.OrderMaking}, calls)
}
