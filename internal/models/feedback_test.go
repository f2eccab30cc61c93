package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeCountsByType(t *testing.T) {
	events := []FeedbackEvent{
		{EventType: EventParseSuccess},
		{EventType: EventParseSuccess},
		{EventType: EventParseFailure},
		{EventType: EventThumbsUp, Rating: 5},
		{EventType: EventThumbsDown, Rating: 1},
		{EventType: EventReminderSent},
		{EventType: EventGuardrailFailure},
		{EventType: EventPlaylistRegenerated},
	}

	summary := Summarize(events)

	assert.Equal(t, 8, summary.TotalEvents)
	assert.Equal(t, 2, summary.ParseSuccess)
	assert.Equal(t, 1, summary.ParseFailure)
	assert.Equal(t, 1, summary.ThumbsUp)
	assert.Equal(t, 1, summary.ThumbsDown)
	assert.Equal(t, 1, summary.RemindersSent)
	assert.Equal(t, 1, summary.GuardrailFailures)
	assert.Equal(t, 1, summary.Regenerations)
	assert.Equal(t, 2, summary.ByEventType[EventParseSuccess])
}

func TestSummarizeRatings(t *testing.T) {
	events := []FeedbackEvent{
		{EventType: EventThumbsUp, Rating: 5},
		{EventType: EventThumbsUp, Rating: 4},
		{EventType: EventThumbsDown, Rating: 1},
		{EventType: EventReminderSent},
	}

	summary := Summarize(events)

	assert.Equal(t, 3, summary.RatedEvents)
	assert.InDelta(t, 10.0/3.0, summary.AverageRating, 1e-9)
	assert.InDelta(t, 4.0, summary.MedianRating, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalEvents)
	assert.Equal(t, 0, summary.RatedEvents)
	assert.Zero(t, summary.AverageRating)
	assert.NotNil(t, summary.ByEventType)
}
