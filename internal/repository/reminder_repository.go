package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rynno/rynno-backend-go/internal/models"
)

// ReminderRepository handles database operations for reminders
type ReminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sql.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a new scheduled reminder.
func (r *ReminderRepository) Create(reminder *models.Reminder) error {
	metadata, err := json.Marshal(reminder.Metadata)
	if err != nil {
		return eris.Wrap(err, "encode reminder metadata")
	}

	query := `INSERT INTO reminders
		(reminder_id, trip_id, user_id, channel, status, scheduled_for, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		reminder.ReminderID, reminder.TripID, reminder.UserID, reminder.Channel,
		reminder.Status, reminder.ScheduledFor.UTC().Format(time.RFC3339), string(metadata))
	if err != nil {
		return eris.Wrap(err, "create reminder")
	}
	return nil
}

// ListDue returns scheduled reminders whose time has come, oldest first.
func (r *ReminderRepository) ListDue(now time.Time, limit int) ([]models.Reminder, error) {
	if limit < 1 {
		limit = 25
	}

	query := `SELECT reminder_id, trip_id, user_id, channel, status, scheduled_for, sent_at, failure_reason, metadata_json
		FROM reminders
		WHERE status = ? AND scheduled_for <= ?
		ORDER BY scheduled_for ASC LIMIT ?`

	rows, err := r.db.Query(query, models.ReminderStatusScheduled, now.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, eris.Wrap(err, "list due reminders")
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

// ListByTrip returns all reminders for one trip.
func (r *ReminderRepository) ListByTrip(tripID string) ([]models.Reminder, error) {
	query := `SELECT reminder_id, trip_id, user_id, channel, status, scheduled_for, sent_at, failure_reason, metadata_json
		FROM reminders WHERE trip_id = ? ORDER BY scheduled_for ASC`

	rows, err := r.db.Query(query, tripID)
	if err != nil {
		return nil, eris.Wrap(err, "list reminders by trip")
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

// MarkStatus transitions a reminder and patches its metadata.
func (r *ReminderRepository) MarkStatus(reminderID, status, failureReason string, sentAt *time.Time, patch models.ReminderMetadata) error {
	current, err := r.getMetadata(reminderID)
	if err != nil {
		return err
	}
	if patch.DispatchedAt != "" {
		current.DispatchedAt = patch.DispatchedAt
	}
	if patch.FailedAt != "" {
		current.FailedAt = patch.FailedAt
	}
	metadata, err := json.Marshal(current)
	if err != nil {
		return eris.Wrap(err, "encode reminder metadata")
	}

	var sent sql.NullString
	if sentAt != nil {
		sent = sql.NullString{String: sentAt.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `UPDATE reminders
		SET status = ?, failure_reason = ?, sent_at = ?, metadata_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE reminder_id = ?`

	if _, err := r.db.Exec(query, status, failureReason, sent, string(metadata), reminderID); err != nil {
		return eris.Wrap(err, "mark reminder status")
	}
	return nil
}

// RescheduleForTrip moves all still-scheduled reminders of a trip to a new
// time after a departure shift.
func (r *ReminderRepository) RescheduleForTrip(tripID string, scheduledFor time.Time) (int64, error) {
	query := `UPDATE reminders
		SET scheduled_for = ?, updated_at = CURRENT_TIMESTAMP
		WHERE trip_id = ? AND status = ?`

	result, err := r.db.Exec(query, scheduledFor.UTC().Format(time.RFC3339), tripID, models.ReminderStatusScheduled)
	if err != nil {
		return 0, eris.Wrap(err, "reschedule reminders")
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

func (r *ReminderRepository) getMetadata(reminderID string) (models.ReminderMetadata, error) {
	var raw sql.NullString
	err := r.db.QueryRow("SELECT metadata_json FROM reminders WHERE reminder_id = ?", reminderID).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.ReminderMetadata{}, nil
	}
	if err != nil {
		return models.ReminderMetadata{}, eris.Wrap(err, "get reminder metadata")
	}

	var metadata models.ReminderMetadata
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &metadata); err != nil {
			return models.ReminderMetadata{}, eris.Wrap(err, "decode reminder metadata")
		}
	}
	return metadata, nil
}

func scanReminder(rows *sql.Rows) (models.Reminder, error) {
	var reminder models.Reminder
	var userID, sentAt, failureReason, metadata sql.NullString
	var scheduledFor string

	err := rows.Scan(&reminder.ReminderID, &reminder.TripID, &userID, &reminder.Channel,
		&reminder.Status, &scheduledFor, &sentAt, &failureReason, &metadata)
	if err != nil {
		return models.Reminder{}, eris.Wrap(err, "scan reminder")
	}

	reminder.UserID = userID.String
	reminder.FailureReason = failureReason.String
	if parsed, err := time.Parse(time.RFC3339, scheduledFor); err == nil {
		reminder.ScheduledFor = parsed
	}
	if sentAt.Valid {
		if parsed, err := time.Parse(time.RFC3339, sentAt.String); err == nil {
			reminder.SentAt = &parsed
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &reminder.Metadata); err != nil {
			return models.Reminder{}, eris.Wrap(err, "decode reminder metadata")
		}
	}
	return reminder, nil
}
