package models

import (
	"time"

	"github.com/rynno/rynno-backend-go/internal/stats"
)

// Feedback event type constants
const (
	EventParseSuccess        = "parse_success"
	EventParseFailure        = "parse_failure"
	EventGuardrailFailure    = "guardrail_failure"
	EventPlaylistRegenerated = "playlist_regenerated"
	EventThumbsUp            = "thumbs_up"
	EventThumbsDown          = "thumbs_down"
	EventReminderSent        = "reminder_sent"
	EventReminderFailed      = "reminder_failed"
)

// FeedbackEvent is one logged product-feedback or pipeline-outcome event
type FeedbackEvent struct {
	FeedbackEventID string         `json:"feedbackEventId"`
	EventType       string         `json:"eventType"`
	UserID          string         `json:"userId,omitempty"`
	TripID          string         `json:"tripId,omitempty"`
	ReminderID      string         `json:"reminderId,omitempty"`
	PlaylistID      string         `json:"playlistId,omitempty"`
	Rating          int            `json:"rating,omitempty"`
	FeedbackText    string         `json:"feedbackText,omitempty"`
	Outcome         string         `json:"outcome,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	OccurredAt      time.Time      `json:"occurredAt"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// FeedbackSummary aggregates logged events by type
type FeedbackSummary struct {
	TotalEvents       int            `json:"totalEvents"`
	ByEventType       map[string]int `json:"byEventType"`
	ThumbsUp          int            `json:"thumbsUp"`
	ThumbsDown        int            `json:"thumbsDown"`
	ParseSuccess      int            `json:"parseSuccess"`
	ParseFailure      int            `json:"parseFailure"`
	RemindersSent     int            `json:"remindersSent"`
	RemindersFailed   int            `json:"remindersFailed"`
	GuardrailFailures int            `json:"guardrailFailures"`
	Regenerations     int            `json:"regenerations"`
	RatedEvents       int            `json:"ratedEvents"`
	AverageRating     float64        `json:"averageRating,omitempty"`
	MedianRating      float64        `json:"medianRating,omitempty"`
}

// Summarize builds a FeedbackSummary over a list of events
func Summarize(events []FeedbackEvent) FeedbackSummary {
	summary := FeedbackSummary{
		TotalEvents: len(events),
		ByEventType: make(map[string]int),
	}

	var ratings []float64
	for _, event := range events {
		summary.ByEventType[event.EventType]++
		if event.Rating != 0 {
			ratings = append(ratings, float64(event.Rating))
		}
		switch event.EventType {
		case EventThumbsUp:
			summary.ThumbsUp++
		case EventThumbsDown:
			summary.ThumbsDown++
		case EventParseSuccess:
			summary.ParseSuccess++
		case EventParseFailure:
			summary.ParseFailure++
		case EventReminderSent:
			summary.RemindersSent++
		case EventReminderFailed:
			summary.RemindersFailed++
		case EventGuardrailFailure:
			summary.GuardrailFailures++
		case EventPlaylistRegenerated:
			summary.Regenerations++
		}
	}

	summary.RatedEvents = len(ratings)
	if len(ratings) > 0 {
		summary.AverageRating = stats.Mean(ratings)
		summary.MedianRating = stats.Median(ratings)
	}

	return summary
}
