package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/models"
	"github.com/rynno/rynno-backend-go/internal/repository"
)

// FeedbackService logs product-feedback and pipeline-outcome events
type FeedbackService struct {
	events *repository.FeedbackRepository
	log    *zap.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(events *repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{events: events, log: zap.L().Named("feedback")}
}

// Log validates, stamps and persists one event.
func (s *FeedbackService) Log(event models.FeedbackEvent) (*models.FeedbackEvent, error) {
	if event.EventType == "" {
		return nil, eris.New("feedback: event type is required")
	}

	event.FeedbackEventID = "evt-" + uuid.NewString()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	event.CreatedAt = time.Now().UTC()

	if err := s.events.Create(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Record is the fire-and-forget variant used by the pipeline itself; a
// failed insert is logged but never fails the calling operation.
func (s *FeedbackService) Record(event models.FeedbackEvent) {
	if _, err := s.Log(event); err != nil {
		s.log.Warn("failed to record feedback event",
			zap.String("event_type", event.EventType), zap.Error(err))
	}
}

// Summary aggregates stored events, optionally filtered by type and trip.
func (s *FeedbackService) Summary(eventType, tripID string) (*models.FeedbackSummary, error) {
	events, err := s.events.List(eventType, tripID, 0)
	if err != nil {
		return nil, err
	}
	summary := models.Summarize(events)
	return &summary, nil
}
