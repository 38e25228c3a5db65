package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
)

// OutboxEvent is a pending ingredient notification for the menu service.
// Inserted in the same transaction as the ingredient mutation, drained by
// the outbox publisher.
type OutboxEvent struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	EventType    enums.OutboxEventType `gorm:"column:event_type;type:text;not null;index"`
	IngredientID int64                 `gorm:"column:ingredient_id;not null;index"`
	Payload      json.RawMessage       `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount int                   `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string               `gorm:"column:last_error"`
	PublishedAt  *time.Time            `gorm:"column:published_at;index"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
