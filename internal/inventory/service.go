package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/outbox"
	"github.com/infinity-cafe/cafe-backend/pkg/pagination"
)

const (
	defaultFlavorServingMl   = 25.0
	defaultFlavorServingGram = 30.0
)

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Service exposes ingredient, flavor mapping, and audit operations.
type Service interface {
	CreateIngredient(ctx context.Context, input CreateIngredientInput, actor string) (*IngredientDTO, error)
	UpdateIngredient(ctx context.Context, id int64, input UpdateIngredientInput, actor string) (*IngredientDTO, error)
	Restock(ctx context.Context, id int64, input RestockInput, actor string) (*IngredientDTO, error)
	DeleteIngredient(ctx context.Context, id int64, actor string) error
	GetIngredient(ctx context.Context, id int64) (*IngredientDTO, error)
	ListIngredients(ctx context.Context, input ListIngredientsInput) (*IngredientListResult, error)

	CreateFlavorMapping(ctx context.Context, input CreateFlavorMappingInput) (*FlavorMappingDTO, error)
	UpdateFlavorMapping(ctx context.Context, id int64, input UpdateFlavorMappingInput) (*FlavorMappingDTO, error)
	DeleteFlavorMapping(ctx context.Context, id int64) error
	ListFlavorMappings(ctx context.Context) ([]FlavorMappingDTO, error)

	ListStockHistory(ctx context.Context, input ListStockHistoryInput) (*StockHistoryListResult, error)
	GetConsumptionLog(ctx context.Context, orderID string) (*ConsumptionLogDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	events   *outbox.Service
	logg     *logger.Logger
}

// NewService constructs the inventory service.
func NewService(repo *Repository, dbClient *db.Client, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, events: events, logg: logg}, nil
}

func (s *service) CreateIngredient(ctx context.Context, input CreateIngredientInput, actor string) (*IngredientDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	if input.CurrentQuantity < 0 || input.MinimumQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantities must be non-negative")
	}

	row := models.Ingredient{
		Name:               input.Name,
		CurrentQuantity:    input.CurrentQuantity,
		MinimumQuantity:    input.MinimumQuantity,
		Category:           input.Category,
		Unit:               input.Unit,
		IsAvailable:        true,
		PurchasePriceTotal: input.PurchasePriceTotal,
		PurchaseQuantity:   input.PurchaseQuantity,
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateIngredient(tx, &row); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("ingredient %q already exists", input.Name))
			}
			return err
		}

		if row.CurrentQuantity > 0 {
			history := models.StockHistory{
				IngredientID:    row.ID,
				Action:          enums.StockActionRestock,
				QuantityBefore:  0,
				QuantityAfter:   row.CurrentQuantity,
				QuantityChanged: row.CurrentQuantity,
				Actor:           actor,
				Notes:           "initial stock",
			}
			if err := s.repo.CreateStockHistory(tx, &history); err != nil {
				return err
			}
		}

		if err := s.autoCreateFlavorMapping(ctx, tx, &row); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, enums.EventIngredientAdded, actor, ingredientPayload(&row))
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "ingredient_id", row.ID), "ingredient created")
	return NewIngredientDTO(&row), nil
}

// autoCreateFlavorMapping registers a newly stocked syrup/powder as an
// orderable preference under its own name. Only plain ingredients measured
// in ml or grams qualify, and an existing mapping with the same name wins.
func (s *service) autoCreateFlavorMapping(ctx context.Context, tx *gorm.DB, row *models.Ingredient) error {
	if row.Category != enums.StockCategoryIngredient {
		return nil
	}
	if row.Unit != enums.UnitMilliliter && row.Unit != enums.UnitGram {
		return nil
	}
	existing, err := s.repo.FindFlavorMappingByName(ctx, tx, row.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	serving := defaultFlavorServingMl
	if row.Unit == enums.UnitGram {
		serving = defaultFlavorServingGram
	}
	mapping := models.FlavorMapping{
		FlavorName:         row.Name,
		IngredientID:       row.ID,
		QuantityPerServing: serving,
		Unit:               row.Unit,
	}
	if err := s.repo.CreateFlavorMapping(tx, &mapping); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "flavor_name", row.Name), "flavor mapping auto-created")
	return nil
}

func (s *service) UpdateIngredient(ctx context.Context, id int64, input UpdateIngredientInput, actor string) (*IngredientDTO, error) {
	var updated *models.Ingredient
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.FindIngredientByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}

		updates := map[string]any{}
		var audits []models.StockHistory
		audit := func(action enums.StockAction, before, after float64, notes string) {
			audits = append(audits, models.StockHistory{
				IngredientID:    row.ID,
				Action:          action,
				QuantityBefore:  before,
				QuantityAfter:   after,
				QuantityChanged: after - before,
				Actor:           actor,
				Notes:           notes,
			})
		}

		if input.Name != nil && *input.Name != row.Name {
			if *input.Name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "ingredient name cannot be empty")
			}
			audit(enums.StockActionEditItemName, row.CurrentQuantity, row.CurrentQuantity,
				fmt.Sprintf("renamed %q to %q", row.Name, *input.Name))
			updates["name"] = *input.Name
			row.Name = *input.Name
		}
		if input.CurrentQuantity != nil && *input.CurrentQuantity != row.CurrentQuantity {
			if *input.CurrentQuantity < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "current quantity must be non-negative")
			}
			audit(enums.StockActionEditStock, row.CurrentQuantity, *input.CurrentQuantity, "manual stock edit")
			updates["current_quantity"] = *input.CurrentQuantity
			row.CurrentQuantity = *input.CurrentQuantity
		}
		if input.MinimumQuantity != nil && *input.MinimumQuantity != row.MinimumQuantity {
			if *input.MinimumQuantity < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "minimum quantity must be non-negative")
			}
			audit(enums.StockActionEditMinimum, row.CurrentQuantity, row.CurrentQuantity,
				fmt.Sprintf("minimum %v to %v", row.MinimumQuantity, *input.MinimumQuantity))
			updates["minimum_quantity"] = *input.MinimumQuantity
			row.MinimumQuantity = *input.MinimumQuantity
		}
		if input.Category != nil && *input.Category != row.Category {
			if !input.Category.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
			}
			audit(enums.StockActionEditCategory, row.CurrentQuantity, row.CurrentQuantity,
				fmt.Sprintf("category %s to %s", row.Category, *input.Category))
			updates["category"] = *input.Category
			row.Category = *input.Category
		}
		if input.Unit != nil && *input.Unit != row.Unit {
			if !input.Unit.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
			}
			audit(enums.StockActionEditUnit, row.CurrentQuantity, row.CurrentQuantity,
				fmt.Sprintf("unit %s to %s", row.Unit, *input.Unit))
			updates["unit"] = *input.Unit
			row.Unit = *input.Unit
		}
		if input.IsAvailable != nil && *input.IsAvailable != row.IsAvailable {
			action := enums.StockActionMakeUnavailable
			if *input.IsAvailable {
				action = enums.StockActionMakeAvailable
			}
			audit(action, row.CurrentQuantity, row.CurrentQuantity, "availability toggled")
			updates["is_available"] = *input.IsAvailable
			row.IsAvailable = *input.IsAvailable
		}
		if input.PurchasePriceTotal != nil && !input.PurchasePriceTotal.Equal(row.PurchasePriceTotal) {
			audit(enums.StockActionEditPurchasePriceTotal, row.CurrentQuantity, row.CurrentQuantity,
				fmt.Sprintf("purchase price %s to %s", row.PurchasePriceTotal, *input.PurchasePriceTotal))
			updates["purchase_price_total"] = *input.PurchasePriceTotal
			row.PurchasePriceTotal = *input.PurchasePriceTotal
		}
		if input.PurchaseQuantity != nil && *input.PurchaseQuantity != row.PurchaseQuantity {
			audit(enums.StockActionEditPurchaseQuantity, row.CurrentQuantity, row.CurrentQuantity,
				fmt.Sprintf("purchase quantity %v to %v", row.PurchaseQuantity, *input.PurchaseQuantity))
			updates["purchase_quantity"] = *input.PurchaseQuantity
			row.PurchaseQuantity = *input.PurchaseQuantity
		}

		if len(updates) == 0 {
			updated = row
			return nil
		}

		if err := s.repo.UpdateIngredient(tx, row.ID, updates); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "ingredient name already in use")
			}
			return err
		}
		for i := range audits {
			if err := s.repo.CreateStockHistory(tx, &audits[i]); err != nil {
				return err
			}
		}

		eventType := enums.EventIngredientUpdated
		if input.IsAvailable != nil && !*input.IsAvailable {
			eventType = enums.EventIngredientDeleted
		}
		if err := s.events.Emit(ctx, tx, eventType, actor, ingredientPayload(row)); err != nil {
			return err
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewIngredientDTO(updated), nil
}

func (s *service) Restock(ctx context.Context, id int64, input RestockInput, actor string) (*IngredientDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}

	var updated *models.Ingredient
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.FindIngredientByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}

		before := row.CurrentQuantity
		after := before + input.Quantity
		if err := s.repo.UpdateIngredient(tx, row.ID, map[string]any{"current_quantity": after}); err != nil {
			return err
		}
		row.CurrentQuantity = after

		history := models.StockHistory{
			IngredientID:    row.ID,
			Action:          enums.StockActionRestock,
			QuantityBefore:  before,
			QuantityAfter:   after,
			QuantityChanged: input.Quantity,
			Actor:           actor,
			Notes:           input.Notes,
		}
		if err := s.repo.CreateStockHistory(tx, &history); err != nil {
			return err
		}

		if err := s.events.Emit(ctx, tx, enums.EventIngredientUpdated, actor, ingredientPayload(row)); err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "ingredient_id", id), "ingredient restocked")
	return NewIngredientDTO(updated), nil
}

// DeleteIngredient marks the row unavailable. Rows are never hard-deleted so
// ledger and audit references stay resolvable.
func (s *service) DeleteIngredient(ctx context.Context, id int64, actor string) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.FindIngredientByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		if !row.IsAvailable {
			return nil
		}

		if err := s.repo.UpdateIngredient(tx, row.ID, map[string]any{"is_available": false}); err != nil {
			return err
		}
		row.IsAvailable = false

		history := models.StockHistory{
			IngredientID:    row.ID,
			Action:          enums.StockActionMakeUnavailable,
			QuantityBefore:  row.CurrentQuantity,
			QuantityAfter:   row.CurrentQuantity,
			Actor:           actor,
			Notes:           "ingredient removed from stock",
		}
		if err := s.repo.CreateStockHistory(tx, &history); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, enums.EventIngredientDeleted, actor, ingredientPayload(row))
	})
}

func (s *service) GetIngredient(ctx context.Context, id int64) (*IngredientDTO, error) {
	row, err := s.repo.FindIngredientByID(ctx, nil, id, false)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
	}
	return NewIngredientDTO(row), nil
}

func (s *service) ListIngredients(ctx context.Context, input ListIngredientsInput) (*IngredientListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Limit)

	rows, err := s.repo.ListIngredients(ctx, input, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	result := &IngredientListResult{Items: make([]IngredientDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewIngredientDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) CreateFlavorMapping(ctx context.Context, input CreateFlavorMappingInput) (*FlavorMappingDTO, error) {
	if input.FlavorName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor name is required")
	}
	if input.QuantityPerServing <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity per serving must be positive")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}

	ingredient, err := s.repo.FindIngredientByID(ctx, nil, input.IngredientID, false)
	if err != nil {
		return nil, err
	}
	if ingredient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
	}

	row := models.FlavorMapping{
		FlavorName:         input.FlavorName,
		IngredientID:       input.IngredientID,
		QuantityPerServing: input.QuantityPerServing,
		Unit:               input.Unit,
	}
	if err := s.repo.CreateFlavorMapping(nil, &row); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("flavor %q already mapped", input.FlavorName))
		}
		return nil, err
	}
	return newFlavorMappingDTO(&row, ingredient.Name), nil
}

func (s *service) UpdateFlavorMapping(ctx context.Context, id int64, input UpdateFlavorMappingInput) (*FlavorMappingDTO, error) {
	row, err := s.repo.FindFlavorMappingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavor mapping not found")
	}

	updates := map[string]any{}
	if input.IngredientID != nil {
		ingredient, err := s.repo.FindIngredientByID(ctx, nil, *input.IngredientID, false)
		if err != nil {
			return nil, err
		}
		if ingredient == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		updates["ingredient_id"] = *input.IngredientID
		row.IngredientID = *input.IngredientID
	}
	if input.QuantityPerServing != nil {
		if *input.QuantityPerServing <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity per serving must be positive")
		}
		updates["quantity_per_serving"] = *input.QuantityPerServing
		row.QuantityPerServing = *input.QuantityPerServing
	}
	if input.Unit != nil {
		if !input.Unit.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
		}
		updates["unit"] = *input.Unit
		row.Unit = *input.Unit
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateFlavorMapping(nil, row.ID, updates); err != nil {
			return nil, err
		}
	}
	return newFlavorMappingDTO(row, ""), nil
}

func (s *service) DeleteFlavorMapping(ctx context.Context, id int64) error {
	row, err := s.repo.FindFlavorMappingByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "flavor mapping not found")
	}
	return s.repo.DeleteFlavorMapping(ctx, id)
}

func (s *service) ListFlavorMappings(ctx context.Context) ([]FlavorMappingDTO, error) {
	rows, err := s.repo.ListFlavorMappings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]FlavorMappingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newFlavorMappingDTO(&rows[i], ""))
	}
	return out, nil
}

func (s *service) ListStockHistory(ctx context.Context, input ListStockHistoryInput) (*StockHistoryListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Limit)

	rows, err := s.repo.ListStockHistory(ctx, input, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	result := &StockHistoryListResult{Items: make([]StockHistoryDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for _, row := range rows {
		result.Items = append(result.Items, StockHistoryDTO{
			ID:              row.ID,
			IngredientID:    row.IngredientID,
			Action:          row.Action,
			QuantityBefore:  row.QuantityBefore,
			QuantityAfter:   row.QuantityAfter,
			QuantityChanged: row.QuantityChanged,
			Actor:           row.Actor,
			Notes:           row.Notes,
			OrderID:         row.OrderID,
			CreatedAt:       row.CreatedAt,
		})
	}
	return result, nil
}

func (s *service) GetConsumptionLog(ctx context.Context, orderID string) (*ConsumptionLogDTO, error) {
	header, details, err := s.repo.FindConsumptionLog(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no consumption recorded for order")
	}

	dto := &ConsumptionLogDTO{
		ID:           header.ID,
		OrderID:      header.OrderID,
		Status:       header.Status,
		MenuSummary:  header.MenuSummary,
		CreatedAt:    header.CreatedAt,
		ConsumedAt:   header.ConsumedAt,
		RolledBackAt: header.RolledBackAt,
	}
	for _, d := range details {
		dto.Details = append(dto.Details, ConsumptionDetailDTO{
			ID:             d.ID,
			IngredientID:   d.IngredientID,
			IngredientName: d.IngredientName,
			Quantity:       d.Quantity,
			Unit:           d.Unit,
			StockBefore:    d.StockBefore,
			StockAfter:     d.StockAfter,
			MenuName:       d.MenuName,
			Preference:     d.Preference,
		})
	}
	return dto, nil
}

func newFlavorMappingDTO(row *models.FlavorMapping, ingredientName string) *FlavorMappingDTO {
	return &FlavorMappingDTO{
		ID:                 row.ID,
		FlavorName:         row.FlavorName,
		IngredientID:       row.IngredientID,
		IngredientName:     ingredientName,
		QuantityPerServing: row.QuantityPerServing,
		Unit:               row.Unit,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func ingredientPayload(row *models.Ingredient) outbox.IngredientPayload {
	return outbox.IngredientPayload{
		ID:              row.ID,
		Name:            row.Name,
		CurrentQuantity: row.CurrentQuantity,
		MinimumQuantity: row.MinimumQuantity,
		Category:        row.Category,
		Unit:            row.Unit,
		IsAvailable:     row.IsAvailable,
	}
}
