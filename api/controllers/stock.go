package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/infinity-cafe/cafe-backend/api/middleware"
	"github.com/infinity-cafe/cafe-backend/api/responses"
	"github.com/infinity-cafe/cafe-backend/api/validators"
	"github.com/infinity-cafe/cafe-backend/internal/stock"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type checkAndConsumeRequest struct {
	OrderID string                `json:"order_id" validate:"required,max=64"`
	Items   []checkAndConsumeItem `json:"items" validate:"required,min=1,dive"`
}

type checkAndConsumeItem struct {
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	MenuName   string     `json:"menu_name" validate:"required"`
	Quantity   int        `json:"quantity" validate:"required,gt=0"`
	Preference string     `json:"preference,omitempty"`
}

type partialRollbackRequest struct {
	Items []partialRollbackItem `json:"items" validate:"required,min=1,dive"`
}

type partialRollbackItem struct {
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	MenuName   string     `json:"menu_name,omitempty"`
	Quantity   int        `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Preference string     `json:"preference,omitempty"`
}

// StockCheckAndConsume runs the availability check; with ?consume=true it
// also deducts stock and writes the consumption ledger.
func StockCheckAndConsume(engine *stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		consume, err := validators.ParseQueryBool(r, "consume", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkAndConsumeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]stock.OrderLine, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, stock.OrderLine{
				ItemID:     item.ItemID,
				MenuName:   item.MenuName,
				Quantity:   item.Quantity,
				Preference: item.Preference,
			})
		}

		result, err := engine.CheckAndConsume(r.Context(), stock.CheckAndConsumeInput{
			OrderID: body.OrderID,
			Items:   items,
			Consume: consume,
			Actor:   middleware.UsernameFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// StockRollback restores everything a consumed order deducted.
func StockRollback(engine *stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		result, err := engine.Rollback(r.Context(), orderID, middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// StockRollbackPartial restores only the selected order lines.
func StockRollbackPartial(engine *stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		var body partialRollbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]stock.PartialRollbackItem, 0, len(body.Items))
		for _, item := range body.Items {
			if item.ItemID == nil && item.MenuName == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "each item needs an item_id or a menu_name"))
				return
			}
			items = append(items, stock.PartialRollbackItem{
				ItemID:     item.ItemID,
				MenuName:   item.MenuName,
				Quantity:   item.Quantity,
				Preference: item.Preference,
			})
		}

		result, err := engine.RollbackPartial(r.Context(), orderID, items, middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
