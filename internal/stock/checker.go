package stock

import (
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
)

// forUpdate applies SELECT ... FOR UPDATE on dialects that support it. The
// in-memory sqlite used by unit tests serializes writers anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockIngredients loads and row-locks every ingredient the batch touches.
// The returned map only contains rows that exist; missing ids are resolved
// by the caller into out-of-stock entries.
func lockIngredients(tx *gorm.DB, ids []int64) (map[int64]*models.Ingredient, error) {
	if len(ids) == 0 {
		return map[int64]*models.Ingredient{}, nil
	}
	var rows []models.Ingredient
	if err := forUpdate(tx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Ingredient, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return byID, nil
}

// classifyAvailability splits the need map into terminal out-of-stock items
// (missing, unavailable, or empty) and soft shortages (positive stock that
// does not cover the requirement).
func classifyAvailability(res *resolution, inventory map[int64]*models.Ingredient) (outOfStock []OutOfStockItem, shortages []Shortage) {
	for _, id := range res.ingredientIDs() {
		data := res.needs[id]
		row, ok := inventory[id]
		if !ok || !row.IsAvailable {
			item := OutOfStockItem{
				IngredientID: id,
				Reason:       "ingredient not found or unavailable",
				Menus:        data.Menus,
			}
			if ok {
				item.Name = row.Name
			}
			outOfStock = append(outOfStock, item)
			continue
		}
		if row.CurrentQuantity <= 0 {
			outOfStock = append(outOfStock, OutOfStockItem{
				IngredientID: id,
				Name:         row.Name,
				Reason:       "out of stock",
				Menus:        data.Menus,
			})
			continue
		}
		if row.CurrentQuantity < data.Needed {
			shortages = append(shortages, Shortage{
				IngredientID:   id,
				IngredientName: row.Name,
				Reason:         "insufficient stock",
				Required:       data.Needed,
				Available:      row.CurrentQuantity,
				Unit:           data.Unit,
				Menus:          data.Menus,
			})
		}
	}
	return outOfStock, shortages
}

// partialSuggestions computes, per order line, how many servings current
// stock can still cover. Only lines whose makeable count falls below the
// request are reported. Lines whose recipe references absent stock report
// zero.
func partialSuggestions(items []OrderLine, recipes map[string][]RecipeLine, inventory map[int64]*models.Ingredient) []PartialSuggestion {
	var suggestions []PartialSuggestion
	for _, item := range items {
		lines := recipes[item.MenuName]
		if len(lines) == 0 {
			continue
		}
		canMake := math.MaxInt32
		for _, line := range lines {
			if line.Quantity <= 0 {
				continue
			}
			row, ok := inventory[line.IngredientID]
			if !ok || !row.IsAvailable || row.CurrentQuantity <= 0 {
				canMake = 0
				break
			}
			possible := int(math.Floor(row.CurrentQuantity / line.Quantity))
			if possible < canMake {
				canMake = possible
			}
		}
		if canMake == math.MaxInt32 {
			continue
		}
		if canMake < item.Quantity {
			suggestions = append(suggestions, PartialSuggestion{
				MenuName:  item.MenuName,
				Requested: item.Quantity,
				CanMake:   canMake,
			})
		}
	}
	return suggestions
}
