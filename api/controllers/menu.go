package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/infinity-cafe/cafe-backend/api/responses"
	"github.com/infinity-cafe/cafe-backend/api/validators"
	"github.com/infinity-cafe/cafe-backend/internal/menu"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type recipeLineRequest struct {
	IngredientID int64   `json:"ingredient_id" validate:"required,gt=0"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	Unit         string  `json:"unit" validate:"required,oneof=gram milliliter piece"`
}

type createMenuItemRequest struct {
	Name   string              `json:"name" validate:"required,min=1,max=128"`
	Price  decimal.Decimal     `json:"price"`
	Recipe []recipeLineRequest `json:"recipe,omitempty" validate:"omitempty,dive"`
}

type updateMenuItemRequest struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Price       *decimal.Decimal     `json:"price,omitempty"`
	IsAvailable *bool                `json:"is_available,omitempty"`
	Recipe      *[]recipeLineRequest `json:"recipe,omitempty" validate:"omitempty,dive"`
}

type createFlavorRequest struct {
	Name            string          `json:"name" validate:"required,min=1,max=128"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

type updateFlavorRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	AdditionalPrice *decimal.Decimal `json:"additional_price,omitempty"`
	IsAvailable     *bool            `json:"is_available,omitempty"`
}

type batchRecipesRequest struct {
	MenuNames []string `json:"menu_names" validate:"required,min=1"`
}

func recipeLines(reqs []recipeLineRequest) ([]menu.RecipeLineInput, error) {
	lines := make([]menu.RecipeLineInput, 0, len(reqs))
	for _, req := range reqs {
		unit, err := enums.ParseUnitType(req.Unit)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid recipe unit")
		}
		lines = append(lines, menu.RecipeLineInput{
			IngredientID: req.IngredientID,
			Quantity:     req.Quantity,
			Unit:         unit,
		})
	}
	return lines, nil
}

func MenuItemCreate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createMenuItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipe, err := recipeLines(body.Recipe)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateMenuItem(r.Context(), menu.CreateMenuItemInput{
			Name:   strings.TrimSpace(body.Name),
			Price:  body.Price,
			Recipe: recipe,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func MenuItemUpdate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "menuItemId"), "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMenuItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := menu.UpdateMenuItemInput{
			Name:        body.Name,
			Price:       body.Price,
			IsAvailable: body.IsAvailable,
		}
		if body.Recipe != nil {
			recipe, err := recipeLines(*body.Recipe)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Recipe = &recipe
		}

		dto, err := svc.UpdateMenuItem(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func MenuItemDelete(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "menuItemId"), "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMenuItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func MenuItemGet(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "menuItemId"), "menuItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetMenuItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func MenuItemList(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeUnavailable, err := validators.ParseQueryBool(r, "include_unavailable", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listed, err := svc.ListMenuItems(r.Context(), includeUnavailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listed)
	}
}

func FlavorCreate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createFlavorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateFlavor(r.Context(), menu.CreateFlavorInput{
			Name:            strings.TrimSpace(body.Name),
			AdditionalPrice: body.AdditionalPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func FlavorUpdate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "flavorId"), "flavorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateFlavorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateFlavor(r.Context(), id, menu.UpdateFlavorInput{
			Name:            body.Name,
			AdditionalPrice: body.AdditionalPrice,
			IsAvailable:     body.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func FlavorList(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeUnavailable, err := validators.ParseQueryBool(r, "include_unavailable", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listed, err := svc.ListFlavors(r.Context(), includeUnavailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listed)
	}
}

// BatchRecipes serves the recipe provider contract consumed by the stock
// engine's resolver.
func BatchRecipes(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body batchRecipesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BatchRecipes(r.Context(), menu.BatchRecipesInput{MenuNames: body.MenuNames})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The resolver on the inventory side decodes this payload directly,
		// so it goes out without the success envelope.
		responses.WriteJSONRaw(w, http.StatusOK, result)
	}
}
