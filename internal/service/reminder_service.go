package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/models"
	"github.com/rynno/rynno-backend-go/internal/repository"
)

// Notifier delivers one due reminder to its channel.
type Notifier func(ctx context.Context, reminder models.Reminder, trip *models.CanonicalTrip) error

// Regenerator rebuilds the playlist for a trip whose departure shifted.
type Regenerator func(ctx context.Context, tripID, userID string) error

// ReminderService schedules pre-departure reminders and runs the delay
// refresh loop.
type ReminderService struct {
	reminders  *repository.ReminderRepository
	trips      *TripService
	feedback   *FeedbackService
	notify     Notifier
	regenerate Regenerator

	leadMinutes      int
	refreshHorizon   time.Duration
	delayThreshold   time.Duration
	dispatchBatch    int
	refreshBatchSize int

	log *zap.Logger
}

// ReminderConfig holds the scheduling knobs
type ReminderConfig struct {
	LeadMinutes           int
	RefreshHorizonMinutes int
	DelayThresholdSeconds int
}

// NewReminderService creates a new reminder service. A nil notifier falls
// back to logging the delivery, which is what the in_app channel amounts to.
func NewReminderService(reminders *repository.ReminderRepository, trips *TripService, feedback *FeedbackService, notify Notifier, cfg ReminderConfig) *ReminderService {
	s := &ReminderService{
		reminders:        reminders,
		trips:            trips,
		feedback:         feedback,
		notify:           notify,
		leadMinutes:      cfg.LeadMinutes,
		refreshHorizon:   time.Duration(cfg.RefreshHorizonMinutes) * time.Minute,
		delayThreshold:   time.Duration(cfg.DelayThresholdSeconds) * time.Second,
		dispatchBatch:    25,
		refreshBatchSize: 20,
		log:              zap.L().Named("reminders"),
	}
	if s.leadMinutes <= 0 {
		s.leadMinutes = 20
	}
	if s.refreshHorizon <= 0 {
		s.refreshHorizon = 2 * time.Hour
	}
	if s.delayThreshold <= 0 {
		s.delayThreshold = 5 * time.Minute
	}
	if s.notify == nil {
		s.notify = s.logNotifier
	}
	return s
}

// SetRegenerator installs the playlist-regeneration hook used by the refresh
// cycle. Wired after construction to break the service dependency cycle.
func (s *ReminderService) SetRegenerator(fn Regenerator) {
	s.regenerate = fn
}

// ScheduleTime computes when a reminder for the trip should fire, or nil
// when the trip has no departure timestamp.
func (s *ReminderService) ScheduleTime(trip *models.CanonicalTrip, leadMinutes int) *time.Time {
	if trip == nil || trip.FirstDeparture == nil {
		return nil
	}
	if leadMinutes <= 0 {
		leadMinutes = s.leadMinutes
	}
	at := trip.FirstDeparture.Add(-time.Duration(leadMinutes) * time.Minute)
	return &at
}

// Schedule creates a reminder for a stored trip.
func (s *ReminderService) Schedule(tripID, channel string, leadMinutes int, autoRefresh bool) (*models.Reminder, error) {
	entry, err := s.trips.Status(tripID)
	if err != nil {
		return nil, err
	}
	if entry.Canonical == nil {
		return nil, eris.Errorf("trip %s has no canonical data to schedule against", tripID)
	}

	at := s.ScheduleTime(entry.Canonical, leadMinutes)
	if at == nil {
		return nil, eris.Errorf("trip %s has no departure time to schedule a reminder for", tripID)
	}
	if channel == "" {
		channel = "in_app"
	}
	if leadMinutes <= 0 {
		leadMinutes = s.leadMinutes
	}

	reminder := &models.Reminder{
		ReminderID:   "rem-" + uuid.NewString(),
		TripID:       tripID,
		UserID:       entry.Hints.UserID,
		Channel:      channel,
		Status:       models.ReminderStatusScheduled,
		ScheduledFor: at.UTC(),
		Metadata: models.ReminderMetadata{
			LeadMinutes:         leadMinutes,
			AutoRefreshPlaylist: autoRefresh,
		},
	}
	if err := s.reminders.Create(reminder); err != nil {
		return nil, err
	}

	s.log.Info("reminder scheduled",
		zap.String("reminder_id", reminder.ReminderID),
		zap.String("trip_id", tripID),
		zap.Time("scheduled_for", reminder.ScheduledFor))
	return reminder, nil
}

// ListForTrip returns the reminders attached to one trip.
func (s *ReminderService) ListForTrip(tripID string) ([]models.Reminder, error) {
	return s.reminders.ListByTrip(tripID)
}

// DispatchResult summarizes one dispatch pass
type DispatchResult struct {
	Processed int               `json:"processed"`
	SentCount int               `json:"sentCount"`
	Failed    []DispatchFailure `json:"failed,omitempty"`
	Sent      []models.Reminder `json:"sent,omitempty"`
}

// DispatchFailure names one reminder that could not be delivered
type DispatchFailure struct {
	ReminderID string `json:"reminderId"`
	Error      string `json:"error"`
}

// DispatchDue delivers every due reminder, marking each sent or failed. One
// failing reminder never blocks the rest of the batch.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (*DispatchResult, error) {
	due, err := s.reminders.ListDue(now, s.dispatchBatch)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{Processed: len(due)}
	for _, reminder := range due {
		var trip *models.CanonicalTrip
		entry, err := s.trips.Status(reminder.TripID)
		if err == nil && entry != nil {
			trip = entry.Canonical
		}

		if err := s.notify(ctx, reminder, trip); err != nil {
			nowStamp := time.Now().UTC().Format(time.RFC3339)
			s.reminders.MarkStatus(reminder.ReminderID, models.ReminderStatusFailed, err.Error(), nil, models.ReminderMetadata{FailedAt: nowStamp})
			s.feedback.Record(models.FeedbackEvent{
				EventType:  models.EventReminderFailed,
				TripID:     reminder.TripID,
				ReminderID: reminder.ReminderID,
				UserID:     reminder.UserID,
				Outcome:    err.Error(),
			})
			result.Failed = append(result.Failed, DispatchFailure{ReminderID: reminder.ReminderID, Error: err.Error()})
			continue
		}

		sentAt := time.Now().UTC()
		if err := s.reminders.MarkStatus(reminder.ReminderID, models.ReminderStatusSent, "", &sentAt, models.ReminderMetadata{DispatchedAt: sentAt.Format(time.RFC3339)}); err != nil {
			s.log.Warn("failed to mark reminder sent", zap.String("reminder_id", reminder.ReminderID), zap.Error(err))
		}
		s.feedback.Record(models.FeedbackEvent{
			EventType:  models.EventReminderSent,
			TripID:     reminder.TripID,
			ReminderID: reminder.ReminderID,
			UserID:     reminder.UserID,
		})

		reminder.Status = models.ReminderStatusSent
		reminder.SentAt = &sentAt
		result.Sent = append(result.Sent, reminder)
		result.SentCount++
	}

	return result, nil
}

// DetectTimingShift compares departures before and after a refresh.
func (s *ReminderService) DetectTimingShift(before, after *models.CanonicalTrip) models.TimingShift {
	if before == nil || after == nil || before.FirstDeparture == nil || after.FirstDeparture == nil {
		return models.TimingShift{Reason: "missing_departure"}
	}

	delta := int64(after.FirstDeparture.Sub(*before.FirstDeparture) / time.Second)
	changed := delta >= int64(s.delayThreshold/time.Second) || -delta >= int64(s.delayThreshold/time.Second)

	reason := "within_threshold"
	if changed {
		reason = "departure_shift"
	}
	return models.TimingShift{Changed: changed, DeltaSeconds: delta, Reason: reason}
}

// RefreshedTrip is one trip handled by a refresh cycle
type RefreshedTrip struct {
	TripID      string             `json:"tripId"`
	TimingShift models.TimingShift `json:"timingShift"`
	Rescheduled int64              `json:"rescheduledReminders"`
}

// RefreshCycleResult summarizes one delay-refresh pass
type RefreshCycleResult struct {
	Scanned   int             `json:"scanned"`
	Refreshed []RefreshedTrip `json:"refreshedTrips"`
}

// RunRefreshCycle re-normalizes upcoming trips and, when a departure moved
// beyond the threshold, shifts their pending reminders accordingly.
func (s *ReminderService) RunRefreshCycle(ctx context.Context) (*RefreshCycleResult, error) {
	candidates, err := s.trips.ListUpcoming(s.refreshHorizon, s.refreshBatchSize)
	if err != nil {
		return nil, err
	}

	result := &RefreshCycleResult{Scanned: len(candidates)}
	for _, candidate := range candidates {
		before := candidate.Canonical

		refreshed, err := s.trips.Refresh(ctx, candidate.TripID)
		if err != nil {
			s.log.Warn("trip refresh failed during cycle", zap.String("trip_id", candidate.TripID), zap.Error(err))
			continue
		}

		shift := s.DetectTimingShift(before, refreshed.Canonical)
		var rescheduled int64
		if shift.Changed {
			if at := s.ScheduleTime(refreshed.Canonical, 0); at != nil {
				rescheduled, err = s.reminders.RescheduleForTrip(candidate.TripID, *at)
				if err != nil {
					s.log.Warn("failed to reschedule reminders", zap.String("trip_id", candidate.TripID), zap.Error(err))
				}
			}
			s.maybeRegenerate(ctx, candidate.TripID)
			s.log.Info("departure shifted",
				zap.String("trip_id", candidate.TripID),
				zap.Int64("delta_seconds", shift.DeltaSeconds),
				zap.Int64("rescheduled", rescheduled))
		}

		result.Refreshed = append(result.Refreshed, RefreshedTrip{
			TripID:      candidate.TripID,
			TimingShift: shift,
			Rescheduled: rescheduled,
		})
	}

	return result, nil
}

// maybeRegenerate rebuilds the playlist when any pending reminder on the
// trip opted into automatic refresh. Failures are logged, never fatal to the
// cycle.
func (s *ReminderService) maybeRegenerate(ctx context.Context, tripID string) {
	if s.regenerate == nil {
		return
	}

	reminders, err := s.reminders.ListByTrip(tripID)
	if err != nil {
		s.log.Warn("failed to load reminders for regeneration", zap.String("trip_id", tripID), zap.Error(err))
		return
	}
	for _, reminder := range reminders {
		if reminder.Status != models.ReminderStatusScheduled || !reminder.Metadata.AutoRefreshPlaylist {
			continue
		}
		if err := s.regenerate(ctx, tripID, reminder.UserID); err != nil {
			s.log.Warn("playlist regeneration after shift failed",
				zap.String("trip_id", tripID), zap.Error(err))
		}
		return
	}
}

func (s *ReminderService) logNotifier(_ context.Context, reminder models.Reminder, trip *models.CanonicalTrip) error {
	fields := []zap.Field{
		zap.String("reminder_id", reminder.ReminderID),
		zap.String("trip_id", reminder.TripID),
		zap.String("channel", reminder.Channel),
	}
	if trip != nil && trip.FirstDeparture != nil {
		fields = append(fields, zap.Time("departure", *trip.FirstDeparture))
	}
	s.log.Info("reminder delivered", fields...)
	return nil
}
