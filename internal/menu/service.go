package menu

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/outbox"
)

// Service exposes menu item, flavor, and recipe provider operations.
type Service interface {
	CreateMenuItem(ctx context.Context, input CreateMenuItemInput) (*MenuItemDTO, error)
	UpdateMenuItem(ctx context.Context, id int64, input UpdateMenuItemInput) (*MenuItemDTO, error)
	DeleteMenuItem(ctx context.Context, id int64) error
	GetMenuItem(ctx context.Context, id int64) (*MenuItemDTO, error)
	ListMenuItems(ctx context.Context, includeUnavailable bool) ([]MenuItemDTO, error)

	CreateFlavor(ctx context.Context, input CreateFlavorInput) (*FlavorDTO, error)
	UpdateFlavor(ctx context.Context, id int64, input UpdateFlavorInput) (*FlavorDTO, error)
	ListFlavors(ctx context.Context, includeUnavailable bool) ([]FlavorDTO, error)

	BatchRecipes(ctx context.Context, input BatchRecipesInput) (*BatchRecipesResult, error)
	ApplyIngredientEvent(ctx context.Context, eventType string, payload outbox.IngredientPayload) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs the menu service.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

func (s *service) CreateMenuItem(ctx context.Context, input CreateMenuItemInput) (*MenuItemDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if err := validateRecipe(input.Recipe); err != nil {
		return nil, err
	}

	row := models.MenuItem{
		Name:        input.Name,
		Price:       input.Price,
		IsAvailable: true,
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateMenuItem(tx, &row); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("menu item %q already exists", input.Name))
			}
			return err
		}
		return s.repo.ReplaceRecipe(tx, row.ID, recipeModels(row.ID, input.Recipe))
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.FindMenuItemByID(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, created), nil
}

func (s *service) UpdateMenuItem(ctx context.Context, id int64, input UpdateMenuItemInput) (*MenuItemDTO, error) {
	row, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}

	updates := map[string]any{}
	if input.Name != nil && *input.Name != row.Name {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		updates["price"] = *input.Price
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}
	if input.Recipe != nil {
		if err := validateRecipe(*input.Recipe); err != nil {
			return nil, err
		}
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := s.repo.UpdateMenuItem(tx, id, updates); err != nil {
				if db.IsUniqueViolation(err) {
					return pkgerrors.New(pkgerrors.CodeConflict, "menu name already in use")
				}
				return err
			}
		}
		if input.Recipe != nil {
			return s.repo.ReplaceRecipe(tx, id, recipeModels(id, *input.Recipe))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, updated), nil
}

// DeleteMenuItem marks the item unavailable so order history keeps resolving.
func (s *service) DeleteMenuItem(ctx context.Context, id int64) error {
	row, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return s.repo.UpdateMenuItem(nil, id, map[string]any{"is_available": false})
}

func (s *service) GetMenuItem(ctx context.Context, id int64) (*MenuItemDTO, error) {
	row, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return s.toDTO(ctx, row), nil
}

func (s *service) ListMenuItems(ctx context.Context, includeUnavailable bool) ([]MenuItemDTO, error) {
	rows, err := s.repo.ListMenuItems(ctx, includeUnavailable)
	if err != nil {
		return nil, err
	}
	names, err := s.mirrorNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MenuItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewMenuItemDTO(&rows[i], names))
	}
	return out, nil
}

func (s *service) CreateFlavor(ctx context.Context, input CreateFlavorInput) (*FlavorDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor name is required")
	}
	if input.AdditionalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "additional price must be non-negative")
	}

	row := models.Flavor{
		Name:            input.Name,
		AdditionalPrice: input.AdditionalPrice,
		IsAvailable:     true,
	}
	if err := s.repo.CreateFlavor(nil, &row); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("flavor %q already exists", input.Name))
		}
		return nil, err
	}
	return newFlavorDTO(&row), nil
}

func (s *service) UpdateFlavor(ctx context.Context, id int64, input UpdateFlavorInput) (*FlavorDTO, error) {
	row, err := s.repo.FindFlavorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavor not found")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor name cannot be empty")
		}
		updates["name"] = *input.Name
		row.Name = *input.Name
	}
	if input.AdditionalPrice != nil {
		if input.AdditionalPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "additional price must be non-negative")
		}
		updates["additional_price"] = *input.AdditionalPrice
		row.AdditionalPrice = *input.AdditionalPrice
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
		row.IsAvailable = *input.IsAvailable
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateFlavor(nil, id, updates); err != nil {
			if db.IsUniqueViolation(err) {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "flavor name already in use")
			}
			return nil, err
		}
	}
	return newFlavorDTO(row), nil
}

func (s *service) ListFlavors(ctx context.Context, includeUnavailable bool) ([]FlavorDTO, error) {
	rows, err := s.repo.ListFlavors(ctx, includeUnavailable)
	if err != nil {
		return nil, err
	}
	out := make([]FlavorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newFlavorDTO(&rows[i]))
	}
	return out, nil
}

// BatchRecipes serves the recipe provider contract: every requested name is
// present in the result, mapped to an empty slice when the item is unknown,
// unavailable, or has no recipe.
func (s *service) BatchRecipes(ctx context.Context, input BatchRecipesInput) (*BatchRecipesResult, error) {
	result := &BatchRecipesResult{Recipes: map[string][]RecipeLineDTO{}}
	for _, name := range input.MenuNames {
		result.Recipes[name] = []RecipeLineDTO{}
	}
	if len(input.MenuNames) == 0 {
		return result, nil
	}

	rows, err := s.repo.ListMenuItemsByNames(ctx, input.MenuNames)
	if err != nil {
		return nil, err
	}
	names, err := s.mirrorNames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if !rows[i].IsAvailable {
			continue
		}
		lines := make([]RecipeLineDTO, 0, len(rows[i].Ingredients))
		for _, line := range rows[i].Ingredients {
			lines = append(lines, RecipeLineDTO{
				IngredientID:   line.IngredientID,
				IngredientName: names[line.IngredientID],
				Quantity:       line.Quantity,
				Unit:           line.Unit,
			})
		}
		result.Recipes[rows[i].Name] = lines
	}
	return result, nil
}

// ApplyIngredientEvent is the receiving side of the inventory outbox. Add
// and update events upsert the mirror row; delete events mark the mirror
// unavailable and pull every menu item whose recipe uses the ingredient off
// the menu.
func (s *service) ApplyIngredientEvent(ctx context.Context, eventType string, payload outbox.IngredientPayload) error {
	if payload.ID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ingredient id is required")
	}

	mirror := models.IngredientMirror{
		ID:          payload.ID,
		Name:        payload.Name,
		Category:    payload.Category,
		Unit:        payload.Unit,
		IsAvailable: payload.IsAvailable,
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		switch eventType {
		case "ingredient_added", "ingredient_updated":
			return s.repo.UpsertMirror(tx, &mirror)
		case "ingredient_deleted":
			mirror.IsAvailable = false
			if err := s.repo.UpsertMirror(tx, &mirror); err != nil {
				return err
			}
			affected, err := s.repo.MenuItemsUsingIngredient(ctx, tx, payload.ID)
			if err != nil {
				return err
			}
			for i := range affected {
				if !affected[i].IsAvailable {
					continue
				}
				if err := s.repo.UpdateMenuItem(tx, affected[i].ID, map[string]any{"is_available": false}); err != nil {
					return err
				}
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"menu_item_id":  affected[i].ID,
					"ingredient_id": payload.ID,
				}), "menu item disabled: recipe ingredient removed")
			}
			return nil
		default:
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown ingredient event type %q", eventType))
		}
	})
}

func (s *service) toDTO(ctx context.Context, row *models.MenuItem) *MenuItemDTO {
	names, err := s.mirrorNames(ctx)
	if err != nil {
		names = nil
	}
	return NewMenuItemDTO(row, names)
}

func (s *service) mirrorNames(ctx context.Context) (map[int64]string, error) {
	mirrors, err := s.repo.ListMirrors(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(mirrors))
	for _, m := range mirrors {
		names[m.ID] = m.Name
	}
	return names, nil
}

func validateRecipe(lines []RecipeLineInput) error {
	for _, line := range lines {
		if line.IngredientID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "recipe line needs an ingredient id")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "recipe quantities must be positive")
		}
		if !line.Unit.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid recipe unit")
		}
	}
	return nil
}

func recipeModels(menuItemID int64, lines []RecipeLineInput) []models.MenuItemIngredient {
	out := make([]models.MenuItemIngredient, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.MenuItemIngredient{
			MenuItemID:   menuItemID,
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}
	return out
}

func newFlavorDTO(row *models.Flavor) *FlavorDTO {
	return &FlavorDTO{
		ID:              row.ID,
		Name:            row.Name,
		AdditionalPrice: row.AdditionalPrice,
		IsAvailable:     row.IsAvailable,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
