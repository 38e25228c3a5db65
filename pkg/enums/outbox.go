package enums

import "fmt"

// OutboxEventType maps to the outbox_event_type enum in Postgres. Each event
// mirrors an ingredient mutation to the menu service.
type OutboxEventType string

const (
	EventIngredientAdded   OutboxEventType = "ingredient_added"
	EventIngredientUpdated OutboxEventType = "ingredient_updated"
	EventIngredientDeleted OutboxEventType = "ingredient_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventIngredientAdded,
	EventIngredientUpdated,
	EventIngredientDeleted,
}

// IsValid reports whether the value matches the canonical outbox_event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
