package menu

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:menu_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.MenuItem{},
		&models.MenuItemIngredient{},
		&models.Flavor{},
		&models.IngredientMirror{},
	))

	logg := logger.New(logger.Options{ServiceName: "menu-test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), db.FromConn(conn), logg)
	require.NoError(t, err)
	return svc, conn
}

func TestCreateMenuItemWithRecipe(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	require.NoError(t, conn.Create(&models.IngredientMirror{
		ID: 1, Name: "Milk", Category: enums.StockCategoryIngredient,
		Unit: enums.UnitMilliliter, IsAvailable: true,
	}).Error)

	dto, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name:  "Latte",
		Price: decimal.NewFromInt(25000),
		Recipe: []RecipeLineInput{
			{IngredientID: 1, Quantity: 80, Unit: enums.UnitMilliliter},
		},
	})
	require.NoError(t, err)
	assert.True(t, dto.IsAvailable)
	require.Len(t, dto.Recipe, 1)
	assert.Equal(t, "Milk", dto.Recipe[0].IngredientName)

	_, err = svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name: "Latte", Price: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestUpdateMenuItemReplacesRecipe(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	dto, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name:  "Mocha",
		Price: decimal.NewFromInt(30000),
		Recipe: []RecipeLineInput{
			{IngredientID: 1, Quantity: 80, Unit: enums.UnitMilliliter},
			{IngredientID: 2, Quantity: 20, Unit: enums.UnitGram},
		},
	})
	require.NoError(t, err)

	recipe := []RecipeLineInput{{IngredientID: 3, Quantity: 50, Unit: enums.UnitMilliliter}}
	updated, err := svc.UpdateMenuItem(ctx, dto.ID, UpdateMenuItemInput{Recipe: &recipe})
	require.NoError(t, err)
	require.Len(t, updated.Recipe, 1)
	assert.Equal(t, int64(3), updated.Recipe[0].IngredientID)

	var count int64
	require.NoError(t, conn.Model(&models.MenuItemIngredient{}).
		Where("menu_item_id = ?", dto.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBatchRecipesIncludesEveryRequestedName(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name:  "Latte",
		Price: decimal.NewFromInt(25000),
		Recipe: []RecipeLineInput{
			{IngredientID: 1, Quantity: 80, Unit: enums.UnitMilliliter},
		},
	})
	require.NoError(t, err)

	result, err := svc.BatchRecipes(ctx, BatchRecipesInput{
		MenuNames: []string{"Latte", "Ghost Drink"},
	})
	require.NoError(t, err)

	require.Contains(t, result.Recipes, "Latte")
	require.Contains(t, result.Recipes, "Ghost Drink")
	assert.Len(t, result.Recipes["Latte"], 1)
	assert.Empty(t, result.Recipes["Ghost Drink"])
}

func TestBatchRecipesSkipsUnavailableItems(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	dto, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name:  "Seasonal Special",
		Price: decimal.NewFromInt(40000),
		Recipe: []RecipeLineInput{
			{IngredientID: 9, Quantity: 10, Unit: enums.UnitGram},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMenuItem(ctx, dto.ID))

	result, err := svc.BatchRecipes(ctx, BatchRecipesInput{MenuNames: []string{"Seasonal Special"}})
	require.NoError(t, err)
	assert.Empty(t, result.Recipes["Seasonal Special"])
}

func TestApplyIngredientEventUpsertsMirror(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	payload := outbox.IngredientPayload{
		ID: 7, Name: "Vanilla Syrup",
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter,
		IsAvailable: true,
	}
	require.NoError(t, svc.ApplyIngredientEvent(ctx, "ingredient_added", payload))

	var mirror models.IngredientMirror
	require.NoError(t, conn.First(&mirror, "id = ?", int64(7)).Error)
	assert.Equal(t, "Vanilla Syrup", mirror.Name)

	payload.Name = "Vanilla Syrup Premium"
	require.NoError(t, svc.ApplyIngredientEvent(ctx, "ingredient_updated", payload))
	require.NoError(t, conn.First(&mirror, "id = ?", int64(7)).Error)
	assert.Equal(t, "Vanilla Syrup Premium", mirror.Name)

	err := svc.ApplyIngredientEvent(ctx, "ingredient_exploded", payload)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestIngredientDeletedDisablesDependentMenus(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	payload := outbox.IngredientPayload{
		ID: 5, Name: "Matcha Powder",
		Category: enums.StockCategoryIngredient, Unit: enums.UnitGram,
		IsAvailable: true,
	}
	require.NoError(t, svc.ApplyIngredientEvent(ctx, "ingredient_added", payload))

	affected, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name:  "Matcha Latte",
		Price: decimal.NewFromInt(32000),
		Recipe: []RecipeLineInput{
			{IngredientID: 5, Quantity: 15, Unit: enums.UnitGram},
		},
	})
	require.NoError(t, err)

	unaffected, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{
		Name:  "Americano",
		Price: decimal.NewFromInt(18000),
		Recipe: []RecipeLineInput{
			{IngredientID: 6, Quantity: 18, Unit: enums.UnitGram},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApplyIngredientEvent(ctx, "ingredient_deleted", payload))

	got, err := svc.GetMenuItem(ctx, affected.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	got, err = svc.GetMenuItem(ctx, unaffected.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)
}

func TestFlavorCRUD(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateFlavor(ctx, CreateFlavorInput{
		Name:            "Hazelnut",
		AdditionalPrice: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	off := false
	_, err = svc.UpdateFlavor(ctx, created.ID, UpdateFlavorInput{IsAvailable: &off})
	require.NoError(t, err)

	visible, err := svc.ListFlavors(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := svc.ListFlavors(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
