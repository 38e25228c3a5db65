package stock

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type stubRecipes struct {
	recipes map[string][]RecipeLine
	err     error
	calls   int
}

func (s *stubRecipes) FetchRecipes(_ context.Context, _ []string) (map[string][]RecipeLine, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.recipes, nil
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *stubRecipes) {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Ingredient{},
		&models.FlavorMapping{},
		&models.ConsumptionLog{},
		&models.ConsumptionDetail{},
		&models.StockHistory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	recipes := &stubRecipes{recipes: map[string][]RecipeLine{}}
	logg := logger.New(logger.Options{ServiceName: "stock-test", Output: io.Discard})
	engine := NewEngine(db.FromConn(conn), recipes, logg)
	return engine, conn, recipes
}

func seedIngredient(t *testing.T, conn *gorm.DB, row models.Ingredient) models.Ingredient {
	t.Helper()
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return row
}

func TestCheckDryRunLeavesStockUntouched(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 100,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-1",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1}},
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.CanFulfill {
		t.Fatalf("expected fulfillable result: %+v", result)
	}

	var after models.Ingredient
	if err := conn.First(&after, milk.ID).Error; err != nil {
		t.Fatalf("load ingredient: %v", err)
	}
	if after.CurrentQuantity != 100 {
		t.Fatalf("dry run must not deduct stock, got %v", after.CurrentQuantity)
	}

	var header models.ConsumptionLog
	if err := conn.First(&header, "order_id = ?", "order-1").Error; err != nil {
		t.Fatalf("load header: %v", err)
	}
	if header.Status != enums.ConsumptionPending {
		t.Fatalf("expected pending header, got %s", header.Status)
	}
}

func TestConsumeDeductsAndWritesLedger(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 100,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	beans := seedIngredient(t, conn, models.Ingredient{
		Name: "Beans", CurrentQuantity: 50,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitGram, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{
		{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter},
		{IngredientID: beans.ID, Quantity: 18, Unit: enums.UnitGram},
	}

	itemID := uuid.New()
	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-2",
		Items:   []OrderLine{{ItemID: &itemID, MenuName: "Latte", Quantity: 1}},
		Consume: true,
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !result.CanFulfill {
		t.Fatalf("expected fulfillable result: %+v", result)
	}

	var after models.Ingredient
	if err := conn.First(&after, milk.ID).Error; err != nil {
		t.Fatalf("load milk: %v", err)
	}
	if after.CurrentQuantity != 20 {
		t.Fatalf("expected 20 ml milk remaining, got %v", after.CurrentQuantity)
	}

	var header models.ConsumptionLog
	if err := conn.First(&header, "order_id = ?", "order-2").Error; err != nil {
		t.Fatalf("load header: %v", err)
	}
	if header.Status != enums.ConsumptionConsumed || header.ConsumedAt == nil {
		t.Fatalf("unexpected header state: %+v", header)
	}

	var details []models.ConsumptionDetail
	if err := conn.Where("order_id = ?", "order-2").Find(&details).Error; err != nil {
		t.Fatalf("load details: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 detail rows, got %d", len(details))
	}
	for _, d := range details {
		if d.OrderItemID == nil || *d.OrderItemID != itemID {
			t.Fatalf("detail not attributed to order item: %+v", d)
		}
	}

	var histories []models.StockHistory
	if err := conn.Where("order_id = ?", "order-2").Find(&histories).Error; err != nil {
		t.Fatalf("load histories: %v", err)
	}
	if len(histories) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(histories))
	}
	for _, h := range histories {
		if h.Action != enums.StockActionConsume {
			t.Fatalf("unexpected history action %s", h.Action)
		}
	}
}

func TestConsumeIsIdempotentPerOrder(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 200,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	input := CheckAndConsumeInput{
		OrderID: "order-3",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1}},
		Consume: true,
		Actor:   "barista",
	}
	if _, err := engine.CheckAndConsume(ctx, input); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	second, err := engine.CheckAndConsume(ctx, input)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if !second.CanFulfill {
		t.Fatalf("replay must report success: %+v", second)
	}

	var after models.Ingredient
	if err := conn.First(&after, milk.ID).Error; err != nil {
		t.Fatalf("load milk: %v", err)
	}
	if after.CurrentQuantity != 120 {
		t.Fatalf("stock deducted twice: %v", after.CurrentQuantity)
	}
}

func TestOutOfStockBlocksWithoutSuggestions(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 0,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-4",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1}},
		Consume: true,
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if result.CanFulfill {
		t.Fatal("expected rejection")
	}
	if len(result.OutOfStock) != 1 || result.OutOfStock[0].IngredientID != milk.ID {
		t.Fatalf("unexpected out-of-stock report: %+v", result.OutOfStock)
	}
	if len(result.PartialSuggestions) != 0 {
		t.Fatalf("out-of-stock must not suggest partials: %+v", result.PartialSuggestions)
	}

	var count int64
	if err := conn.Model(&models.StockHistory{}).Count(&count).Error; err != nil {
		t.Fatalf("count histories: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejection must not write history, got %d rows", count)
	}
}

func TestUnavailableIngredientIsOutOfStock(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	syrup := seedIngredient(t, conn, models.Ingredient{
		Name: "Caramel Syrup", CurrentQuantity: 500,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: false,
	})
	recipes.recipes["Caramel Latte"] = []RecipeLine{{IngredientID: syrup.ID, Quantity: 20, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-5",
		Items:   []OrderLine{{MenuName: "Caramel Latte", Quantity: 1}},
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.CanFulfill || len(result.OutOfStock) != 1 {
		t.Fatalf("unavailable ingredient must block: %+v", result)
	}
}

func TestShortageReportsPartialSuggestions(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 170,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-6",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 3}},
		Consume: true,
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if result.CanFulfill {
		t.Fatal("expected shortage rejection")
	}
	if len(result.Shortages) != 1 {
		t.Fatalf("expected 1 shortage, got %+v", result.Shortages)
	}
	s := result.Shortages[0]
	if s.Required != 240 || s.Available != 170 || s.Unit != enums.UnitMilliliter {
		t.Fatalf("unexpected shortage: %+v", s)
	}
	if len(result.PartialSuggestions) != 1 {
		t.Fatalf("expected 1 partial suggestion, got %+v", result.PartialSuggestions)
	}
	p := result.PartialSuggestions[0]
	if p.Requested != 3 || p.CanMake != 2 {
		t.Fatalf("unexpected suggestion: %+v", p)
	}

	var after models.Ingredient
	if err := conn.First(&after, milk.ID).Error; err != nil {
		t.Fatalf("load milk: %v", err)
	}
	if after.CurrentQuantity != 170 {
		t.Fatalf("shortage must not deduct stock, got %v", after.CurrentQuantity)
	}
}

func TestSequentialOrdersCannotOversell(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 100,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	first, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-10",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1}},
		Consume: true,
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if !first.CanFulfill {
		t.Fatalf("first order must succeed: %+v", first)
	}

	var after models.Ingredient
	if err := conn.First(&after, milk.ID).Error; err != nil {
		t.Fatalf("load milk: %v", err)
	}
	if after.CurrentQuantity != 20 {
		t.Fatalf("expected 20 ml milk remaining, got %v", after.CurrentQuantity)
	}

	// A second order for the same recipe sees the deducted balance and is
	// rejected with the exact gap.
	second, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-11",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1}},
		Consume: true,
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if second.CanFulfill {
		t.Fatal("second order must be rejected")
	}
	if len(second.Shortages) != 1 {
		t.Fatalf("expected 1 shortage, got %+v", second.Shortages)
	}
	s := second.Shortages[0]
	if s.IngredientID != milk.ID || s.Required != 80 || s.Available != 20 {
		t.Fatalf("unexpected shortage: %+v", s)
	}
	if len(second.PartialSuggestions) != 1 || second.PartialSuggestions[0].CanMake != 0 {
		t.Fatalf("unexpected suggestions: %+v", second.PartialSuggestions)
	}

	if err := conn.First(&after, milk.ID).Error; err != nil {
		t.Fatalf("reload milk: %v", err)
	}
	if after.CurrentQuantity != 20 {
		t.Fatalf("rejected order must not deduct stock, got %v", after.CurrentQuantity)
	}
}

func TestRecipeFetchFailureBecomesShortage(t *testing.T) {
	t.Parallel()

	engine, _, recipes := newTestEngine(t)
	recipes.err = errors.New("connection refused")

	result, err := engine.CheckAndConsume(context.Background(), CheckAndConsumeInput{
		OrderID: "order-7",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1}},
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.CanFulfill {
		t.Fatal("expected rejection")
	}
	if len(result.Shortages) != 1 || result.Shortages[0].Reason == "" {
		t.Fatalf("expected synthetic shortage, got %+v", result.Shortages)
	}
}

func TestMenuWithoutRecipeIsShortage(t *testing.T) {
	t.Parallel()

	engine, _, recipes := newTestEngine(t)
	recipes.recipes["Mystery Drink"] = nil

	result, err := engine.CheckAndConsume(context.Background(), CheckAndConsumeInput{
		OrderID: "order-8",
		Items:   []OrderLine{{MenuName: "Mystery Drink", Quantity: 1}},
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.CanFulfill {
		t.Fatal("expected rejection for recipe-less menu")
	}
	if len(result.Shortages) != 1 || result.Shortages[0].MenuName != "Mystery Drink" {
		t.Fatalf("unexpected shortages: %+v", result.Shortages)
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []CheckAndConsumeInput{
		{OrderID: "", Items: []OrderLine{{MenuName: "Latte", Quantity: 1}}},
		{OrderID: "order-9", Items: nil},
		{OrderID: "order-9", Items: []OrderLine{{MenuName: "", Quantity: 1}}},
		{OrderID: "order-9", Items: []OrderLine{{MenuName: "Latte", Quantity: 0}}},
	}
	for _, input := range cases {
		_, err := engine.CheckAndConsume(ctx, input)
		if err == nil {
			t.Fatalf("expected validation error for %+v", input)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
