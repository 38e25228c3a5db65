package stock

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
)

// Rollback reverses the full recorded consumption for an order. The restore
// amounts come from the ledger detail rows, never from re-resolving recipes,
// so recipe edits after the fact cannot inflate the refund. Calling it twice
// is a no-op.
func (e *Engine) Rollback(ctx context.Context, orderID, actor string) (*RollbackResult, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ctx = e.logg.WithOrderID(ctx, orderID)

	var result *RollbackResult
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		header, err := e.findLog(tx, orderID)
		if err != nil {
			return err
		}
		if header == nil || header.Status == enums.ConsumptionPending {
			result = &RollbackResult{Success: false, Message: "no consumption recorded for order"}
			return nil
		}
		if header.Status == enums.ConsumptionRolledBack {
			result = &RollbackResult{Success: true, Message: "already rolled back"}
			return nil
		}

		details, err := e.detailsForLog(tx, header.ID)
		if err != nil {
			return err
		}

		restored, err := e.restore(ctx, tx, details, orderID, actor, "rollback for order")
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.ConsumptionLog{}).
			Where("id = ?", header.ID).
			Updates(map[string]any{
				"status":         enums.ConsumptionRolledBack,
				"rolled_back_at": now,
			}).Error; err != nil {
			return err
		}

		result = &RollbackResult{Success: true, RestoredCount: len(restored)}
		e.logg.Info(e.logg.WithField(ctx, "restored", len(restored)), "stock rolled back")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RollbackPartial reverses only the detail rows matching the given order
// lines, leaving the rest of the consumption in place. Each item's serving
// count caps how much is reversed; the restore is the lesser of what was
// requested and what the ledger records, and rows only partially reversed
// are decremented rather than deleted. The header flips to rolled back only
// once no detail rows remain.
func (e *Engine) RollbackPartial(ctx context.Context, orderID string, items []PartialRollbackItem, actor string) (*PartialRollbackResult, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item to roll back is required")
	}
	ctx = e.logg.WithOrderID(ctx, orderID)

	var result *PartialRollbackResult
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		header, err := e.findLog(tx, orderID)
		if err != nil {
			return err
		}
		if header == nil || header.Status != enums.ConsumptionConsumed {
			result = &PartialRollbackResult{Success: false, Message: "no active consumption for order"}
			return nil
		}

		details, err := e.detailsForLog(tx, header.ID)
		if err != nil {
			return err
		}

		reversals, err := planReversals(details, items)
		if err != nil {
			return err
		}

		portions := make([]models.ConsumptionDetail, 0, len(reversals))
		for _, rev := range reversals {
			portion := rev.detail
			portion.Quantity = rev.quantity
			portions = append(portions, portion)
		}

		restored, err := e.restore(ctx, tx, portions, orderID, actor, "partial rollback for order")
		if err != nil {
			return err
		}

		for _, rev := range reversals {
			if rev.servings >= rev.detail.Servings {
				if err := tx.Where("id = ?", rev.detail.ID).
					Delete(&models.ConsumptionDetail{}).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&models.ConsumptionDetail{}).
				Where("id = ?", rev.detail.ID).
				Updates(map[string]any{
					"quantity": rev.detail.Quantity - rev.quantity,
					"servings": rev.detail.Servings - rev.servings,
				}).Error; err != nil {
				return err
			}
		}

		var remaining int64
		if err := tx.Model(&models.ConsumptionDetail{}).
			Where("consumption_log_id = ?", header.ID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			now := time.Now()
			if err := tx.Model(&models.ConsumptionLog{}).
				Where("id = ?", header.ID).
				Updates(map[string]any{
					"status":         enums.ConsumptionRolledBack,
					"rolled_back_at": now,
				}).Error; err != nil {
				return err
			}
		}

		result = &PartialRollbackResult{Success: true, Restored: restored}
		e.logg.Info(e.logg.WithField(ctx, "restored", len(restored)), "stock partially rolled back")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) detailsForLog(tx *gorm.DB, logID int64) ([]models.ConsumptionDetail, error) {
	var rows []models.ConsumptionDetail
	err := tx.Where("consumption_log_id = ?", logID).Order("id ASC").Find(&rows).Error
	return rows, err
}

// restore adds the recorded quantities back onto the locked ingredient rows
// and writes the audit trail. Amounts restored are exactly what the detail
// rows record.
func (e *Engine) restore(ctx context.Context, tx *gorm.DB, details []models.ConsumptionDetail, orderID, actor, note string) ([]RestoredIngredient, error) {
	totals := map[int64]float64{}
	units := map[int64]enums.UnitType{}
	names := map[int64]string{}
	order := make([]int64, 0, len(details))
	for _, d := range details {
		if _, seen := totals[d.IngredientID]; !seen {
			order = append(order, d.IngredientID)
		}
		totals[d.IngredientID] += d.Quantity
		units[d.IngredientID] = d.Unit
		names[d.IngredientID] = d.IngredientName
	}

	inventory, err := lockIngredients(tx, order)
	if err != nil {
		return nil, err
	}

	restored := make([]RestoredIngredient, 0, len(order))
	for _, id := range order {
		qty := totals[id]
		row, ok := inventory[id]
		if !ok {
			// Ingredient row vanished since consumption; nothing to credit.
			e.logg.Warn(e.logg.WithField(ctx, "ingredient_id", id), "rollback target ingredient missing")
			continue
		}
		before := row.CurrentQuantity
		after := before + qty
		if err := tx.Model(&models.Ingredient{}).
			Where("id = ?", id).
			Update("current_quantity", after).Error; err != nil {
			return nil, err
		}

		history := models.StockHistory{
			IngredientID:    id,
			Action:          enums.StockActionRollback,
			QuantityBefore:  before,
			QuantityAfter:   after,
			QuantityChanged: qty,
			Actor:           actor,
			Notes:           fmt.Sprintf("%s %s", note, orderID),
			OrderID:         &orderID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return nil, err
		}

		restored = append(restored, RestoredIngredient{
			IngredientID: id,
			Name:         names[id],
			Quantity:     qty,
			Unit:         units[id],
		})
	}
	return restored, nil
}

// reversal is the slice of one ledger row a partial rollback takes back:
// how many servings come off the row and the quantity they represent.
type reversal struct {
	detail   models.ConsumptionDetail
	servings int
	quantity float64
}

// planReversals picks, per rollback item, which ledger rows to reverse and
// how much of each. The item's serving count caps the reversal; zero means
// everything the item matches. Rows claimed by an earlier item stay
// untouched for later ones.
func planReversals(details []models.ConsumptionDetail, items []PartialRollbackItem) ([]reversal, error) {
	claimed := map[int64]struct{}{}
	var out []reversal
	for _, item := range items {
		selected := matchDetails(details, item, claimed)
		if len(selected) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("no consumption recorded for item %q", item.MenuName))
		}

		remaining := item.Quantity
		for _, group := range groupByLine(selected) {
			if item.Quantity > 0 && remaining <= 0 {
				break
			}
			take := group.servings
			if item.Quantity > 0 && remaining < take {
				take = remaining
			}
			fraction := float64(take) / float64(group.servings)
			for _, d := range group.rows {
				claimed[d.ID] = struct{}{}
				out = append(out, reversal{
					detail:   d,
					servings: take,
					quantity: d.Quantity * fraction,
				})
			}
			remaining -= take
		}
	}
	return out, nil
}

// matchDetails selects the unclaimed detail rows belonging to one rollback
// item, preferring the exact order item id when given.
func matchDetails(details []models.ConsumptionDetail, item PartialRollbackItem, claimed map[int64]struct{}) []models.ConsumptionDetail {
	var out []models.ConsumptionDetail
	for _, d := range details {
		if _, taken := claimed[d.ID]; taken {
			continue
		}
		if item.ItemID != nil {
			if d.OrderItemID != nil && *d.OrderItemID == *item.ItemID {
				out = append(out, d)
			}
			continue
		}
		if d.MenuName == item.MenuName && d.Preference == item.Preference {
			out = append(out, d)
		}
	}
	return out
}

// lineGroup bundles the ledger rows written for one order line.
type lineGroup struct {
	servings int
	rows     []models.ConsumptionDetail
}

// groupByLine partitions detail rows by the order line that produced them,
// preserving ledger order. Rows written before line tracking count as one
// serving each.
func groupByLine(details []models.ConsumptionDetail) []lineGroup {
	index := map[int]int{}
	var groups []lineGroup
	for _, d := range details {
		if d.Servings <= 0 {
			d.Servings = 1
		}
		i, ok := index[d.LineNo]
		if !ok {
			i = len(groups)
			index[d.LineNo] = i
			groups = append(groups, lineGroup{servings: d.Servings})
		}
		groups[i].rows = append(groups[i].rows, d)
	}
	return groups
}
