package reports

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.MenuItem{},
		&models.Flavor{},
		&models.Ingredient{},
		&models.StockHistory{},
	))

	logg := logger.New(logger.Options{ServiceName: "reports-test", Output: io.Discard})
	svc, err := NewService(conn, logg)
	require.NoError(t, err)
	return svc, conn
}

func seedDoneOrder(t *testing.T, conn *gorm.DB, menu string, qty int, preference string) {
	t.Helper()
	orderID := uuid.New()
	require.NoError(t, conn.Create(&models.Order{
		ID:           orderID,
		QueueNumber:  1,
		CustomerName: "Guest",
		Status:       enums.OrderDone,
		Items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, MenuName: menu, Quantity: qty, Preference: preference},
		},
	}).Error)
}

func TestSalesSummaryPricesItemsAndFlavors(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	require.NoError(t, conn.Create(&models.MenuItem{
		Name: "Latte", Price: decimal.NewFromInt(25000), IsAvailable: true,
	}).Error)
	require.NoError(t, conn.Create(&models.Flavor{
		Name: "Vanilla", AdditionalPrice: decimal.NewFromInt(5000), IsAvailable: true,
	}).Error)

	seedDoneOrder(t, conn, "Latte", 2, "Vanilla")
	seedDoneOrder(t, conn, "Latte", 1, "")

	// Cancelled orders stay out of the totals.
	orderID := uuid.New()
	require.NoError(t, conn.Create(&models.Order{
		ID: orderID, QueueNumber: 9, CustomerName: "Gone", Status: enums.OrderCancel,
		Items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, MenuName: "Latte", Quantity: 5},
		},
	}).Error)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	summary, err := svc.SalesSummary(ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.OrderCount)
	assert.Equal(t, 3, summary.ItemCount)
	// 2×(25000+5000) + 1×25000
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(85000)),
		"revenue = %s", summary.Revenue)
	require.Len(t, summary.PerMenu, 1)
	assert.Equal(t, 3, summary.PerMenu[0].Quantity)
}

func TestSalesSummaryRejectsEmptyRange(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	now := time.Now()

	_, err := svc.SalesSummary(context.Background(), now, now)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestIngredientUsageAggregatesConsumeRows(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	milk := models.Ingredient{
		Name: "Milk", CurrentQuantity: 500, Category: enums.StockCategoryIngredient,
		Unit: enums.UnitMilliliter, IsAvailable: true,
	}
	require.NoError(t, conn.Create(&milk).Error)

	mkHistory := func(action enums.StockAction, changed float64) {
		require.NoError(t, conn.Create(&models.StockHistory{
			IngredientID:    milk.ID,
			Action:          action,
			QuantityBefore:  100,
			QuantityAfter:   100 + changed,
			QuantityChanged: changed,
			Actor:           "test",
		}).Error)
	}
	mkHistory(enums.StockActionConsume, -80)
	mkHistory(enums.StockActionConsume, -120)
	mkHistory(enums.StockActionRestock, 500)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	usage, err := svc.IngredientUsage(ctx, from, to)
	require.NoError(t, err)

	require.Len(t, usage, 1)
	assert.Equal(t, milk.ID, usage[0].IngredientID)
	assert.Equal(t, "Milk", usage[0].Name)
	assert.Equal(t, 200.0, usage[0].Consumed)
	assert.Equal(t, "milliliter", usage[0].Unit)
}

func TestLowStockListsOnlyAvailableUnderMinimum(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	mk := func(name string, current, minimum float64, available bool) {
		require.NoError(t, conn.Create(&models.Ingredient{
			Name: name, CurrentQuantity: current, MinimumQuantity: minimum,
			Category: enums.StockCategoryIngredient, Unit: enums.UnitGram,
			IsAvailable: available,
		}).Error)
	}
	mk("Cocoa", 50, 100, true)
	mk("Flour", 500, 100, true)
	mk("Retired", 0, 100, false)

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Cocoa", low[0].Name)
}
