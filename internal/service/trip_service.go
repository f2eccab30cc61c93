package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/models"
	"github.com/rynno/rynno-backend-go/internal/normalizer"
	"github.com/rynno/rynno-backend-go/internal/repository"
)

// ErrTripNotFound is returned when a trip id has no stored entry.
var ErrTripNotFound = eris.New("trip not found")

// TripService normalizes, stores and refreshes trips
type TripService struct {
	normalizer *normalizer.Normalizer
	trips      *repository.TripRepository
	feedback   *FeedbackService
	log        *zap.Logger
}

// NewTripService creates a new trip service.
func NewTripService(n *normalizer.Normalizer, trips *repository.TripRepository, feedback *FeedbackService) *TripService {
	return &TripService{
		normalizer: n,
		trips:      trips,
		feedback:   feedback,
		log:        zap.L().Named("trips"),
	}
}

// Ingest normalizes a raw payload into a canonical trip and stores the
// entry. Normalization failures are stored as error entries so the status
// endpoint can report them.
func (s *TripService) Ingest(ctx context.Context, source models.TripSource, payload *models.TripPayload, hints models.IngestHints) (*models.TripEntry, error) {
	tripID := "trip-" + uuid.NewString()
	return s.normalizeAndStore(ctx, tripID, source, payload, hints)
}

// Status returns the stored entry for a trip.
func (s *TripService) Status(tripID string) (*models.TripEntry, error) {
	entry, err := s.trips.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrTripNotFound
	}
	return entry, nil
}

// Refresh re-runs normalization from the stored raw payload, producing a
// brand-new canonical trip under the same id.
func (s *TripService) Refresh(ctx context.Context, tripID string) (*models.TripEntry, error) {
	existing, err := s.trips.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTripNotFound
	}
	if existing.RawPayload == nil {
		return nil, eris.Errorf("trip %s has no stored payload to refresh from", tripID)
	}

	return s.normalizeAndStore(ctx, tripID, existing.Source, existing.RawPayload, existing.Hints)
}

// ListUpcoming exposes trips departing within the horizon for the delay
// refresh loop.
func (s *TripService) ListUpcoming(horizon time.Duration, limit int) ([]models.TripEntry, error) {
	return s.trips.ListUpcoming(time.Now(), horizon, limit)
}

func (s *TripService) normalizeAndStore(ctx context.Context, tripID string, source models.TripSource, payload *models.TripPayload, hints models.IngestHints) (*models.TripEntry, error) {
	canonical, err := s.normalizer.Normalize(ctx, tripID, source, payload, hints)
	if err != nil {
		entry := &models.TripEntry{
			TripID:      tripID,
			Status:      models.TripStatusError,
			RawPayload:  payload,
			Source:      source,
			Hints:       hints,
			LastUpdated: time.Now().UTC(),
			Errors:      []string{err.Error()},
		}
		if saveErr := s.trips.Save(entry); saveErr != nil {
			s.log.Error("failed to store error entry", zap.String("trip_id", tripID), zap.Error(saveErr))
		}
		s.feedback.Record(models.FeedbackEvent{
			EventType: models.EventParseFailure,
			TripID:    tripID,
			UserID:    hints.UserID,
			Outcome:   err.Error(),
		})
		return entry, err
	}

	entry := &models.TripEntry{
		TripID:      tripID,
		Status:      models.TripStatusComplete,
		Canonical:   canonical,
		RawPayload:  payload,
		Source:      canonical.Source,
		Hints:       hints,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.trips.Save(entry); err != nil {
		return nil, err
	}

	s.feedback.Record(models.FeedbackEvent{
		EventType: models.EventParseSuccess,
		TripID:    tripID,
		UserID:    hints.UserID,
		Context: map[string]any{
			"source":            string(canonical.Source),
			"confidenceScore":   canonical.ConfidenceScore,
			"needsManualReview": canonical.Validation.NeedsManualReview,
		},
	})

	s.log.Info("trip normalized",
		zap.String("trip_id", tripID),
		zap.String("source", string(canonical.Source)),
		zap.Int("confidence", canonical.ConfidenceScore),
		zap.Bool("needs_review", canonical.Validation.NeedsManualReview))

	return entry, nil
}
