package controllers

import (
	"net/http"
	"time"

	"github.com/infinity-cafe/cafe-backend/api/responses"
	"github.com/infinity-cafe/cafe-backend/api/validators"
	"github.com/infinity-cafe/cafe-backend/internal/menu"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/outbox"
)

type ingredientEventRequest struct {
	EventType  string                   `json:"event_type" validate:"required,oneof=ingredient_added ingredient_updated ingredient_deleted"`
	EventID    string                   `json:"event_id" validate:"required"`
	OccurredAt time.Time                `json:"occurred_at"`
	Actor      string                   `json:"actor,omitempty"`
	Data       outbox.IngredientPayload `json:"data" validate:"required"`
}

// IngredientEventReceive applies an ingredient event delivered by the outbox
// publisher to the menu side's ingredient mirror. Replays are safe: applying
// the same snapshot twice is a no-op upsert.
func IngredientEventReceive(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ingredientEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"event_id":   body.EventID,
				"event_type": body.EventType,
			})
		}

		if err := svc.ApplyIngredientEvent(ctx, body.EventType, body.Data); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"applied": true})
	}
}
