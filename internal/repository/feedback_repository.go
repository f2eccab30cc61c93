package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rynno/rynno-backend-go/internal/models"
)

// FeedbackRepository handles database operations for feedback events
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts one feedback event.
func (r *FeedbackRepository) Create(event *models.FeedbackEvent) error {
	context, err := marshalNullable(event.Context)
	if err != nil {
		return eris.Wrap(err, "encode feedback context")
	}

	query := `INSERT INTO feedback_events
		(feedback_event_id, event_type, user_id, trip_id, reminder_id, playlist_id, rating, feedback_text, outcome, context_json, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		event.FeedbackEventID, event.EventType, event.UserID, event.TripID,
		event.ReminderID, event.PlaylistID, event.Rating, event.FeedbackText,
		event.Outcome, context, event.OccurredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return eris.Wrap(err, "create feedback event")
	}
	return nil
}

// List returns events filtered by type and/or trip, newest first.
func (r *FeedbackRepository) List(eventType, tripID string, limit int) ([]models.FeedbackEvent, error) {
	if limit < 1 {
		limit = 200
	}

	query := `SELECT feedback_event_id, event_type, user_id, trip_id, reminder_id, playlist_id, rating, feedback_text, outcome, context_json, occurred_at
		FROM feedback_events`
	var conditions []string
	var args []interface{}

	if eventType != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, eventType)
	}
	if tripID != "" {
		conditions = append(conditions, "trip_id = ?")
		args = append(args, tripID)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "list feedback events")
	}
	defer rows.Close()

	var events []models.FeedbackEvent
	for rows.Next() {
		var event models.FeedbackEvent
		var userID, tripID, reminderID, playlistID, text, outcome, context sql.NullString
		var rating sql.NullInt64
		var occurredAt string

		err := rows.Scan(&event.FeedbackEventID, &event.EventType, &userID, &tripID,
			&reminderID, &playlistID, &rating, &text, &outcome, &context, &occurredAt)
		if err != nil {
			return nil, eris.Wrap(err, "scan feedback event")
		}

		event.UserID = userID.String
		event.TripID = tripID.String
		event.ReminderID = reminderID.String
		event.PlaylistID = playlistID.String
		event.Rating = int(rating.Int64)
		event.FeedbackText = text.String
		event.Outcome = outcome.String
		if parsed, err := time.Parse(time.RFC3339, occurredAt); err == nil {
			event.OccurredAt = parsed
		}
		if context.Valid && context.String != "" {
			if err := json.Unmarshal([]byte(context.String), &event.Context); err != nil {
				return nil, eris.Wrap(err, "decode feedback context")
			}
		}
		events = append(events, event)
	}
	return events, nil
}
