package models

import "time"

// Reminder status constants
const (
	ReminderStatusScheduled = "scheduled"
	ReminderStatusSent      = "sent"
	ReminderStatusFailed    = "failed"
)

// Reminder is a scheduled pre-departure notification for a trip
type Reminder struct {
	ReminderID    string            `json:"reminderId"`
	TripID        string            `json:"tripId"`
	UserID        string            `json:"userId,omitempty"`
	Channel       string            `json:"channel"` // in_app, email, ...
	Status        string            `json:"status"`
	ScheduledFor  time.Time         `json:"scheduledFor"`
	SentAt        *time.Time        `json:"sentAt,omitempty"`
	FailureReason string            `json:"failureReason,omitempty"`
	Metadata      ReminderMetadata  `json:"metadata"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ReminderMetadata carries scheduling context alongside a reminder
type ReminderMetadata struct {
	LeadMinutes         int    `json:"leadMinutes,omitempty"`
	PlaylistURL         string `json:"playlistUrl,omitempty"`
	AutoRefreshPlaylist bool   `json:"autoRefreshPlaylist"`
	DispatchedAt        string `json:"dispatchedAt,omitempty"`
	FailedAt            string `json:"failedAt,omitempty"`
}

// TimingShift describes how a refreshed trip's departure moved
type TimingShift struct {
	Changed      bool   `json:"changed"`
	DeltaSeconds int64  `json:"deltaSeconds"`
	Reason       string `json:"reason"` // departure_shift, within_threshold, missing_departure
}
