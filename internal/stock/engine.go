package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

// Engine runs availability checks and atomic consumption for order batches.
// All stock math happens inside one transaction with the touched ingredient
// rows locked, so concurrent orders serialize on the rows they share.
type Engine struct {
	db      *db.Client
	recipes RecipeSource
	logg    *logger.Logger
}

func NewEngine(dbClient *db.Client, recipes RecipeSource, logg *logger.Logger) *Engine {
	return &Engine{db: dbClient, recipes: recipes, logg: logg}
}

// CheckAndConsume validates the batch against current stock and, when
// Consume is set, deducts it and writes the ledger. Dry runs leave stock
// untouched but upsert a pending ledger header so a later consume can be
// correlated to the earlier check.
func (e *Engine) CheckAndConsume(ctx context.Context, input CheckAndConsumeInput) (*CheckAndConsumeResult, error) {
	if input.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order item is required")
	}
	for _, item := range input.Items {
		if item.MenuName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name is required on every item")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity for %q must be positive", item.MenuName))
		}
	}

	ctx = e.logg.WithOrderID(ctx, input.OrderID)

	var result *CheckAndConsumeResult
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := e.findLog(tx, input.OrderID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == enums.ConsumptionConsumed {
			e.logg.Info(ctx, "stock already consumed for order, returning recorded result")
			result = replayResult(existing)
			return nil
		}

		res, err := e.resolveRequirements(ctx, tx, input.Items)
		if err != nil {
			return err
		}
		if len(res.shortages) > 0 && len(res.needs) == 0 {
			// Recipe fetch failed or nothing resolved; reject without
			// touching stock.
			result = &CheckAndConsumeResult{
				CanFulfill: false,
				Shortages:  res.shortages,
				Details:    res.details,
				Notes:      res.notes,
			}
			return nil
		}

		inventory, err := lockIngredients(tx, res.ingredientIDs())
		if err != nil {
			return err
		}
		outOfStock, stockShortages := classifyAvailability(res, inventory)
		shortages := append(res.shortages, stockShortages...)

		result = &CheckAndConsumeResult{
			OutOfStock: outOfStock,
			Shortages:  shortages,
			Details:    res.details,
			Notes:      res.notes,
		}

		switch {
		case len(outOfStock) > 0:
			// Terminal: no partial suggestions when an ingredient is gone
			// outright.
			result.CanFulfill = false
			return nil
		case len(shortages) > 0:
			result.CanFulfill = false
			result.PartialSuggestions = partialSuggestions(input.Items, res.recipes, inventory)
			return nil
		}

		result.CanFulfill = true
		if !input.Consume {
			return e.upsertPendingLog(tx, input, existing, res)
		}
		return e.consume(ctx, tx, input, existing, res, inventory)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) findLog(tx *gorm.DB, orderID string) (*models.ConsumptionLog, error) {
	var row models.ConsumptionLog
	err := tx.Where("order_id = ?", orderID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// replayResult rebuilds a success response from the recorded ledger header
// so repeated consume calls stay idempotent.
func replayResult(log *models.ConsumptionLog) *CheckAndConsumeResult {
	result := &CheckAndConsumeResult{CanFulfill: true}
	if len(log.MenuSummary) > 0 {
		_ = json.Unmarshal(log.MenuSummary, &result.Details)
	}
	return result
}

// upsertPendingLog records a dry-run check. A later consume for the same
// order flips this header to consumed.
func (e *Engine) upsertPendingLog(tx *gorm.DB, input CheckAndConsumeInput, existing *models.ConsumptionLog, res *resolution) error {
	summary, err := json.Marshal(res.details)
	if err != nil {
		return err
	}
	if existing != nil {
		return tx.Model(&models.ConsumptionLog{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"status":       enums.ConsumptionPending,
				"menu_summary": json.RawMessage(summary),
			}).Error
	}
	row := models.ConsumptionLog{
		OrderID:     input.OrderID,
		Status:      enums.ConsumptionPending,
		MenuSummary: json.RawMessage(summary),
	}
	return tx.Create(&row).Error
}

// consume deducts the resolved requirements from the locked rows and writes
// the ledger header, per-line detail rows, and audit history in the same
// transaction. The deduction loop re-validates each row so a quantity can
// never go negative even if classification and deduction ever drift apart.
func (e *Engine) consume(ctx context.Context, tx *gorm.DB, input CheckAndConsumeInput, existing *models.ConsumptionLog, res *resolution, inventory map[int64]*models.Ingredient) error {
	now := time.Now()
	summary, err := json.Marshal(res.details)
	if err != nil {
		return err
	}

	header := existing
	if header == nil {
		header = &models.ConsumptionLog{OrderID: input.OrderID}
		header.Status = enums.ConsumptionConsumed
		header.MenuSummary = json.RawMessage(summary)
		header.ConsumedAt = &now
		if err := tx.Create(header).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Model(&models.ConsumptionLog{}).
			Where("id = ?", header.ID).
			Updates(map[string]any{
				"status":         enums.ConsumptionConsumed,
				"menu_summary":   json.RawMessage(summary),
				"consumed_at":    now,
				"rolled_back_at": nil,
			}).Error; err != nil {
			return err
		}
		// A header reused after a rollback may still carry stale detail
		// rows; the new consumption replaces them wholesale.
		if err := tx.Where("consumption_log_id = ?", header.ID).
			Delete(&models.ConsumptionDetail{}).Error; err != nil {
			return err
		}
	}

	// Running stock per ingredient, so detail rows attributed to different
	// order lines carry a consistent before/after chain.
	running := map[int64]float64{}
	for _, id := range res.ingredientIDs() {
		data := res.needs[id]
		row, ok := inventory[id]
		if !ok || !row.IsAvailable || row.CurrentQuantity <= 0 || row.CurrentQuantity < data.Needed {
			name := fmt.Sprintf("ingredient %d", id)
			if ok {
				name = row.Name
			}
			return pkgerrors.New(pkgerrors.CodeShortage,
				fmt.Sprintf("failed to consume stock: %s", name))
		}

		before := row.CurrentQuantity
		after := before - data.Needed
		if err := tx.Model(&models.Ingredient{}).
			Where("id = ?", id).
			Update("current_quantity", after).Error; err != nil {
			return err
		}
		running[id] = before

		history := models.StockHistory{
			IngredientID:    id,
			Action:          enums.StockActionConsume,
			QuantityBefore:  before,
			QuantityAfter:   after,
			QuantityChanged: -data.Needed,
			Actor:           input.Actor,
			Notes:           fmt.Sprintf("consumed for order %s", input.OrderID),
			OrderID:         &input.OrderID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
	}

	for _, contrib := range res.contributions {
		row := inventory[contrib.IngredientID]
		before := running[contrib.IngredientID]
		after := before - contrib.Quantity
		running[contrib.IngredientID] = after

		detail := models.ConsumptionDetail{
			ConsumptionLogID: header.ID,
			OrderID:          input.OrderID,
			IngredientID:     contrib.IngredientID,
			IngredientName:   row.Name,
			Quantity:         contrib.Quantity,
			Unit:             contrib.Unit,
			StockBefore:      before,
			StockAfter:       after,
			OrderItemID:      contrib.ItemID,
			MenuName:         contrib.MenuName,
			Preference:       contrib.Preference,
			LineNo:           contrib.LineNo,
			Servings:         contrib.Servings,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}
	}

	e.logg.Info(e.logg.WithField(ctx, "ingredients", len(res.needs)), "stock consumed")
	return nil
}
