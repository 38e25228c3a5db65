package outbox

import (
	"time"

	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// IngredientPayload is the ingredient snapshot delivered to the menu service.
type IngredientPayload struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	CurrentQuantity float64             `json:"current_quantity"`
	MinimumQuantity float64             `json:"minimum_quantity"`
	Category        enums.StockCategory `json:"category"`
	Unit            enums.UnitType      `json:"unit"`
	IsAvailable     bool                `json:"is_available"`
}

// Envelope wraps a payload with delivery metadata.
type Envelope struct {
	EventID    string            `json:"event_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Actor      string            `json:"actor,omitempty"`
	Data       IngredientPayload `json:"data"`
}

// Message is the wire format the publisher delivers to the menu service:
// the stored envelope plus the event type from the outbox row.
type Message struct {
	EventType  string            `json:"event_type"`
	EventID    string            `json:"event_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Actor      string            `json:"actor,omitempty"`
	Data       IngredientPayload `json:"data"`
}
