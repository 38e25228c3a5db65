package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/infinity-cafe/cafe-backend/api/responses"
	"github.com/infinity-cafe/cafe-backend/api/validators"
	"github.com/infinity-cafe/cafe-backend/internal/inventory"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type createFlavorMappingRequest struct {
	FlavorName         string  `json:"flavor_name" validate:"required,min=1,max=128"`
	IngredientID       int64   `json:"ingredient_id" validate:"required,gt=0"`
	QuantityPerServing float64 `json:"quantity_per_serving" validate:"required,gt=0"`
	Unit               string  `json:"unit" validate:"required,oneof=gram milliliter piece"`
}

type updateFlavorMappingRequest struct {
	IngredientID       *int64   `json:"ingredient_id,omitempty" validate:"omitempty,gt=0"`
	QuantityPerServing *float64 `json:"quantity_per_serving,omitempty" validate:"omitempty,gt=0"`
	Unit               *string  `json:"unit,omitempty" validate:"omitempty,oneof=gram milliliter piece"`
}

func FlavorMappingCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createFlavorMappingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := enums.ParseUnitType(body.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit"))
			return
		}

		dto, err := svc.CreateFlavorMapping(r.Context(), inventory.CreateFlavorMappingInput{
			FlavorName:         strings.TrimSpace(body.FlavorName),
			IngredientID:       body.IngredientID,
			QuantityPerServing: body.QuantityPerServing,
			Unit:               unit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func FlavorMappingUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "mappingId"), "mappingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateFlavorMappingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdateFlavorMappingInput{
			IngredientID:       body.IngredientID,
			QuantityPerServing: body.QuantityPerServing,
		}
		if body.Unit != nil {
			unit, err := enums.ParseUnitType(*body.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit"))
				return
			}
			input.Unit = &unit
		}

		dto, err := svc.UpdateFlavorMapping(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func FlavorMappingDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt64(chi.URLParam(r, "mappingId"), "mappingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteFlavorMapping(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func FlavorMappingList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listed, err := svc.ListFlavorMappings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}
