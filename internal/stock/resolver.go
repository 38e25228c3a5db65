package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

const (
	milkshakeFlavorMinGram = 30.0
	squashFlavorMaxMl      = 20.0
	richFlavorMultiplier   = 1.4
)

// resolveRequirements expands the order lines into a per-ingredient need map
// using the batch recipe fetch plus flavor mappings. Recipe fetch failures
// and recipe-less menus surface as shortages so callers get a structured
// rejection rather than an opaque error.
func (e *Engine) resolveRequirements(ctx context.Context, tx *gorm.DB, items []OrderLine) (*resolution, error) {
	res := &resolution{needs: map[int64]*need{}}

	seen := map[string]struct{}{}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.MenuName]; ok {
			continue
		}
		seen[item.MenuName] = struct{}{}
		names = append(names, item.MenuName)
	}

	recipes, err := e.recipes.FetchRecipes(ctx, names)
	if err != nil {
		e.logg.Error(ctx, "recipe batch fetch failed", err)
		res.shortages = append(res.shortages, Shortage{
			Reason: fmt.Sprintf("failed to fetch recipes: %v", err),
		})
		return res, nil
	}
	res.recipes = recipes

	for lineNo, item := range items {
		lines := recipes[item.MenuName]
		res.details = append(res.details, MenuDetail{
			MenuName:     item.MenuName,
			RecipeCount:  len(lines),
			RequestedQty: item.Quantity,
		})
		if len(lines) == 0 {
			res.shortages = append(res.shortages, Shortage{
				MenuName: item.MenuName,
				Reason:   "menu has no recipe",
			})
			continue
		}

		for _, line := range lines {
			qty := line.Quantity * float64(item.Quantity)
			res.addNeed(line.IngredientID, qty, line.Unit, item.MenuName)
			res.contributions = append(res.contributions, contribution{
				ItemID:       item.ItemID,
				MenuName:     item.MenuName,
				Preference:   item.Preference,
				LineNo:       lineNo,
				Servings:     item.Quantity,
				IngredientID: line.IngredientID,
				Quantity:     qty,
				Unit:         line.Unit,
			})
		}

		if item.Preference == "" {
			continue
		}
		mapping, err := e.flavorMapping(tx, item.Preference)
		if err != nil {
			return nil, err
		}
		if mapping == nil {
			res.notes = append(res.notes, fmt.Sprintf(
				"flavor %q has no ingredient mapping; skipped for %s", item.Preference, item.MenuName))
			continue
		}

		perServing := flavorQuantityFor(item.MenuName, *mapping)
		qty := perServing * float64(item.Quantity)
		tag := fmt.Sprintf("%s (%s)", item.MenuName, item.Preference)
		res.addNeed(mapping.IngredientID, qty, mapping.Unit, tag)
		res.contributions = append(res.contributions, contribution{
			ItemID:       item.ItemID,
			MenuName:     item.MenuName,
			Preference:   item.Preference,
			LineNo:       lineNo,
			Servings:     item.Quantity,
			IngredientID: mapping.IngredientID,
			Quantity:     qty,
			Unit:         mapping.Unit,
		})
	}

	return res, nil
}

func (r *resolution) addNeed(ingredientID int64, qty float64, unit enums.UnitType, menu string) {
	entry, ok := r.needs[ingredientID]
	if !ok {
		entry = &need{Unit: unit}
		r.needs[ingredientID] = entry
	}
	entry.Needed += qty
	entry.addMenu(menu)
}

func (r *resolution) ingredientIDs() []int64 {
	ids := make([]int64, 0, len(r.needs))
	for id := range r.needs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) flavorMapping(tx *gorm.DB, flavorName string) (*models.FlavorMapping, error) {
	var mapping models.FlavorMapping
	err := tx.Where("flavor_name = ?", flavorName).First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// flavorQuantityFor adjusts the mapped per-serving quantity by the menu the
// flavor lands in. Milkshakes use powder-heavy servings, squash drinks cap
// the syrup pour, and the premium lines pour richer. The mapping's stored
// unit stays authoritative throughout.
func flavorQuantityFor(menuName string, mapping models.FlavorMapping) float64 {
	qty := mapping.QuantityPerServing
	lower := strings.ToLower(menuName)

	if strings.Contains(lower, "milkshake") && mapping.Unit == enums.UnitGram && qty < milkshakeFlavorMinGram {
		qty = milkshakeFlavorMinGram
	}
	if strings.Contains(lower, "squash") && mapping.Unit == enums.UnitMilliliter && qty > squashFlavorMaxMl {
		qty = squashFlavorMaxMl
	}
	for _, marker := range []string{"custom", "special", "premium"} {
		if strings.Contains(lower, marker) {
			qty *= richFlavorMultiplier
			break
		}
	}
	return qty
}
