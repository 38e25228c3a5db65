package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/infinity-cafe/cafe-backend/api/middleware"
	"github.com/infinity-cafe/cafe-backend/api/responses"
	"github.com/infinity-cafe/cafe-backend/api/validators"
	"github.com/infinity-cafe/cafe-backend/internal/inventory"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type createIngredientRequest struct {
	Name               string          `json:"name" validate:"required,min=1,max=128"`
	CurrentQuantity    float64         `json:"current_quantity" validate:"gte=0"`
	MinimumQuantity    float64         `json:"minimum_quantity" validate:"gte=0"`
	Category           string          `json:"category" validate:"required,oneof=ingredient packaging flavor"`
	Unit               string          `json:"unit" validate:"required,oneof=gram milliliter piece"`
	PurchasePriceTotal decimal.Decimal `json:"purchase_price_total"`
	PurchaseQuantity   float64         `json:"purchase_quantity" validate:"gte=0"`
}

type updateIngredientRequest struct {
	Name               *string          `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	CurrentQuantity    *float64         `json:"current_quantity,omitempty" validate:"omitempty,gte=0"`
	MinimumQuantity    *float64         `json:"minimum_quantity,omitempty" validate:"omitempty,gte=0"`
	Category           *string          `json:"category,omitempty" validate:"omitempty,oneof=ingredient packaging flavor"`
	Unit               *string          `json:"unit,omitempty" validate:"omitempty,oneof=gram milliliter piece"`
	IsAvailable        *bool            `json:"is_available,omitempty"`
	PurchasePriceTotal *decimal.Decimal `json:"purchase_price_total,omitempty"`
	PurchaseQuantity   *float64         `json:"purchase_quantity,omitempty" validate:"omitempty,gte=0"`
}

type restockRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Notes    string  `json:"notes,omitempty" validate:"max=500"`
}

func IngredientCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createIngredientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseStockCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category"))
			return
		}
		unit, err := enums.ParseUnitType(body.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit"))
			return
		}

		dto, err := svc.CreateIngredient(r.Context(), inventory.CreateIngredientInput{
			Name:               strings.TrimSpace(body.Name),
			CurrentQuantity:    body.CurrentQuantity,
			MinimumQuantity:    body.MinimumQuantity,
			Category:           category,
			Unit:               unit,
			PurchasePriceTotal: body.PurchasePriceTotal,
			PurchaseQuantity:   body.PurchaseQuantity,
		}, middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func IngredientUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "ingredientId"), "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateIngredientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdateIngredientInput{
			Name:               body.Name,
			CurrentQuantity:    body.CurrentQuantity,
			MinimumQuantity:    body.MinimumQuantity,
			IsAvailable:        body.IsAvailable,
			PurchasePriceTotal: body.PurchasePriceTotal,
			PurchaseQuantity:   body.PurchaseQuantity,
		}
		if body.Category != nil {
			category, err := enums.ParseStockCategory(*body.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category"))
				return
			}
			input.Category = &category
		}
		if body.Unit != nil {
			unit, err := enums.ParseUnitType(*body.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit"))
				return
			}
			input.Unit = &unit
		}

		dto, err := svc.UpdateIngredient(r.Context(), id, input, middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func IngredientRestock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "ingredientId"), "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body restockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Restock(r.Context(), id, inventory.RestockInput{
			Quantity: body.Quantity,
			Notes:    body.Notes,
		}, middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func IngredientDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "ingredientId"), "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteIngredient(r.Context(), id, middleware.UsernameFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func IngredientGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "ingredientId"), "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetIngredient(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func IngredientList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeUnavailable, err := validators.ParseQueryBool(r, "include_unavailable", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStockOnly, err := validators.ParseQueryBool(r, "low_stock", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.ListIngredientsInput{
			IncludeUnavailable: includeUnavailable,
			LowStockOnly:       lowStockOnly,
			Search:             strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:              limit,
			Cursor:             r.URL.Query().Get("cursor"),
		}
		if raw := r.URL.Query().Get("category"); raw != "" {
			category, err := enums.ParseStockCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category"))
				return
			}
			input.Category = &category
		}

		result, err := svc.ListIngredients(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func StockHistoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.ListStockHistoryInput{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}
		if raw := r.URL.Query().Get("ingredient_id"); raw != "" {
			id, err := validators.ParsePathInt64(raw, "ingredient_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.IngredientID = &id
		}
		if raw := r.URL.Query().Get("action"); raw != "" {
			action, err := enums.ParseStockAction(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid action"))
				return
			}
			input.Action = &action
		}

		result, err := svc.ListStockHistory(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func ConsumptionLogGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		dto, err := svc.GetConsumptionLog(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
