package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/infinity-cafe/cafe-backend/pkg/config"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/outbox"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, cause error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeDoer struct {
	responses []*http.Response
	errs      []error
	calls     int
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i < len(d.responses) && d.responses[i] != nil {
		return d.responses[i], nil
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func newTestService(t *testing.T, repo outboxRepository, client httpDoer) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Menu.ServiceURL = "http://menu_service:8003"
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.MaxAttempts = 3
	cfg.Outbox.PollInterval = time.Millisecond
	cfg.Outbox.PublishTimeout = time.Second

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test"}),
		DB:         fakePinger{},
		Repository: repo,
		HTTPClient: client,
	})
	if err != nil {
		t.Fatalf("new service returned error: %v", err)
	}
	return service
}

func storedEnvelope(t *testing.T, eventID string) []byte {
	t.Helper()
	payload, err := json.Marshal(outbox.Envelope{
		EventID:    eventID,
		OccurredAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		Actor:      "amir",
		Data: outbox.IngredientPayload{
			ID:              7,
			Name:            "oat milk",
			CurrentQuantity: 4000,
			Unit:            enums.UnitMilliliter,
			Category:        enums.StockCategoryIngredient,
			IsAvailable:     true,
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:           uuid.New(),
				EventType:    enums.EventIngredientUpdated,
				IngredientID: 7,
				Payload:      storedEnvelope(t, "event-one"),
			},
			{
				ID:           uuid.New(),
				EventType:    enums.EventIngredientUpdated,
				IngredientID: 8,
				Payload:      storedEnvelope(t, "event-two"),
			},
		},
	}
	client := &fakeDoer{errs: []error{errors.New("transient"), nil}}
	service := newTestService(t, repo, client)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestProcessBatchTreatsNon2xxAsFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{{
			ID:        uuid.New(),
			EventType: enums.EventIngredientDeleted,
			Payload:   storedEnvelope(t, "event-one"),
		}},
	}
	client := &fakeDoer{responses: []*http.Response{{StatusCode: http.StatusBadGateway, Body: http.NoBody}}}
	service := newTestService(t, repo, client)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || len(repo.published) != 0 {
		t.Fatalf("expected one failed row, got failed=%d published=%d", len(repo.failed), len(repo.published))
	}
}

func TestProcessBatchSkipsSleepWhenEmpty(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeDoer{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("empty batch must not report processed")
	}
}

func TestPublishEventDeliversMessageWireFormat(t *testing.T) {
	var received outbox.Message
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode delivered message: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &fakeRepo{}
	service := newTestService(t, repo, server.Client())
	service.endpoint = server.URL + ingredientEventsPath

	event := models.OutboxEvent{
		ID:           uuid.New(),
		EventType:    enums.EventIngredientAdded,
		IngredientID: 7,
		Payload:      storedEnvelope(t, "event-wire"),
	}
	if err := service.publishEvent(context.Background(), event); err != nil {
		t.Fatalf("publish event returned error: %v", err)
	}

	if path != ingredientEventsPath {
		t.Fatalf("unexpected delivery path %q", path)
	}
	if received.EventType != string(enums.EventIngredientAdded) {
		t.Fatalf("unexpected event type %q", received.EventType)
	}
	if received.EventID != "event-wire" {
		t.Fatalf("unexpected event id %q", received.EventID)
	}
	if received.Data.Name != "oat milk" {
		t.Fatalf("payload did not survive the round trip: %+v", received.Data)
	}
}

func TestPublishEventRejectsMalformedStoredPayload(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakeDoer{})
	event := models.OutboxEvent{
		ID:      uuid.New(),
		Payload: []byte("{not json"),
	}
	if err := service.publishEvent(context.Background(), event); err == nil {
		t.Fatalf("expected decode error for malformed payload")
	}
}
