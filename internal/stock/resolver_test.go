package stock

import (
	"context"
	"testing"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

func TestFlavorPreferenceDeductsMappedIngredient(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 500,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	vanilla := seedIngredient(t, conn, models.Ingredient{
		Name: "Vanilla Syrup", CurrentQuantity: 100,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	if err := conn.Create(&models.FlavorMapping{
		FlavorName: "Vanilla", IngredientID: vanilla.ID,
		QuantityPerServing: 25, Unit: enums.UnitMilliliter,
	}).Error; err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-f1",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 2, Preference: "Vanilla"}},
		Consume: true,
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !result.CanFulfill {
		t.Fatalf("expected success: %+v", result)
	}

	var after models.Ingredient
	if err := conn.First(&after, vanilla.ID).Error; err != nil {
		t.Fatalf("load syrup: %v", err)
	}
	if after.CurrentQuantity != 50 {
		t.Fatalf("expected 50 ml syrup remaining, got %v", after.CurrentQuantity)
	}
}

func TestMissingFlavorMappingAddsNoteAndProceeds(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 500,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	recipes.recipes["Latte"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 80, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-f2",
		Items:   []OrderLine{{MenuName: "Latte", Quantity: 1, Preference: "Unicorn Dust"}},
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.CanFulfill {
		t.Fatalf("unmapped flavor must not block the order: %+v", result)
	}
	if len(result.Notes) != 1 {
		t.Fatalf("expected a skip note, got %+v", result.Notes)
	}
}

func TestFlavorQuantityHeuristics(t *testing.T) {
	t.Parallel()

	gram := func(qty float64) models.FlavorMapping {
		return models.FlavorMapping{QuantityPerServing: qty, Unit: enums.UnitGram}
	}
	ml := func(qty float64) models.FlavorMapping {
		return models.FlavorMapping{QuantityPerServing: qty, Unit: enums.UnitMilliliter}
	}

	cases := []struct {
		name    string
		menu    string
		mapping models.FlavorMapping
		want    float64
	}{
		{"milkshake raises low gram serving", "Vanilla Milkshake", gram(20), 30},
		{"milkshake keeps generous serving", "Vanilla Milkshake", gram(40), 40},
		{"milkshake ignores ml mappings", "Vanilla Milkshake", ml(20), 20},
		{"squash caps syrup pour", "Orange Squash", ml(25), 20},
		{"squash keeps small pour", "Orange Squash", ml(15), 15},
		{"premium pours richer", "Premium Latte", ml(20), 28},
		{"special pours richer", "Special Mocha", gram(10), 14},
		{"custom pours richer", "Custom Blend", ml(25), 35},
		{"plain menu unchanged", "Latte", ml(25), 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := flavorQuantityFor(tc.menu, tc.mapping)
			if got != tc.want {
				t.Fatalf("flavorQuantityFor(%q) = %v, want %v", tc.menu, got, tc.want)
			}
		})
	}
}

func TestMappingUnitStaysAuthoritative(t *testing.T) {
	t.Parallel()

	engine, conn, recipes := newTestEngine(t)
	ctx := context.Background()

	milk := seedIngredient(t, conn, models.Ingredient{
		Name: "Milk", CurrentQuantity: 500,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	// Powder stocked in grams even though the ingredient row says ml; the
	// mapping's unit wins for requirement math and reporting.
	powder := seedIngredient(t, conn, models.Ingredient{
		Name: "Vanilla Powder", CurrentQuantity: 10,
		Category: enums.StockCategoryIngredient, Unit: enums.UnitMilliliter, IsAvailable: true,
	})
	if err := conn.Create(&models.FlavorMapping{
		FlavorName: "Vanilla", IngredientID: powder.ID,
		QuantityPerServing: 30, Unit: enums.UnitGram,
	}).Error; err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	recipes.recipes["Milkshake"] = []RecipeLine{{IngredientID: milk.ID, Quantity: 200, Unit: enums.UnitMilliliter}}

	result, err := engine.CheckAndConsume(ctx, CheckAndConsumeInput{
		OrderID: "order-f3",
		Items:   []OrderLine{{MenuName: "Milkshake", Quantity: 1, Preference: "Vanilla"}},
		Actor:   "barista",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.CanFulfill {
		t.Fatal("expected shortage: 10 available vs 30 required")
	}
	if len(result.Shortages) != 1 {
		t.Fatalf("expected 1 shortage, got %+v", result.Shortages)
	}
	s := result.Shortages[0]
	if s.IngredientID != powder.ID || s.Required != 30 || s.Available != 10 || s.Unit != enums.UnitGram {
		t.Fatalf("shortage must be reported in the mapping's unit: %+v", s)
	}
}
