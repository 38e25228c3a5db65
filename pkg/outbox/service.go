package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

// Service enqueues ingredient events inside the caller's transaction so the
// event commits or rolls back together with the mutation that produced it.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, actor string, payload IngredientPayload) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !eventType.IsValid() {
		return errors.New("invalid outbox event type")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	envelope := Envelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Actor:      actor,
		Data:       payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	row := models.OutboxEvent{
		EventType:    eventType,
		IngredientID: payload.ID,
		Payload:      json.RawMessage(payloadJSON),
	}
	if err := s.repo.Insert(tx, &row); err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":      envelope.EventID,
			"event_type":    eventType,
			"ingredient_id": payload.ID,
		})
		s.logg.Info(logCtx, "outbox event queued")
	}
	return nil
}
