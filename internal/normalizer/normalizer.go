// Package normalizer turns heterogeneous trip inputs (rail share links,
// mapping-service share links, manual entry) into canonical trips with a
// machine-checkable confidence score.
package normalizer

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/clients/transport"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const parserVersion = "v2-adapters-validation"

// Starting confidences per adapter, before validation deductions.
const (
	defaultConfidence = 60
	railConfidence    = defaultConfidence + 20
	mapConfidence     = defaultConfidence + 8
	manualConfidence  = 70
)

var urlPattern = regexp.MustCompile(`(?i)https?://\S+`)

// Normalizer parses raw trip payloads into canonical trips
type Normalizer struct {
	journeys transport.Client
}

// New creates a normalizer backed by the given journey-lookup client.
func New(journeys transport.Client) *Normalizer {
	return &Normalizer{journeys: journeys}
}

// Normalize runs the adapter for the (possibly re-classified) source and
// returns a validated canonical trip.
func (n *Normalizer) Normalize(ctx context.Context, tripID string, source models.TripSource, payload *models.TripPayload, hints models.IngestHints) (*models.CanonicalTrip, error) {
	resolved := resolveSource(source, payload)

	switch resolved {
	case models.SourceRail:
		return n.runRailAdapter(ctx, tripID, payload, hints)
	case models.SourceMap:
		return runMapAdapter(tripID, payload, hints)
	case models.SourceManual:
		return runManualAdapter(tripID, payload, hints)
	default:
		return nil, &UnsupportedSourceError{Source: string(resolved)}
	}
}

// resolveSource trusts declared adapter identifiers as-is and only
// re-classifies the generic shared source by URL host.
func resolveSource(source models.TripSource, payload *models.TripPayload) models.TripSource {
	declared := strings.ToLower(string(source))
	if declared == "" && payload != nil {
		declared = strings.ToLower(payload.Source)
	}
	if declared == "" {
		declared = string(models.SourceManual)
	}
	if declared != string(models.SourceShared) && declared != "share_target" {
		return models.TripSource(declared)
	}
	return detectSourceFromPayload(payload)
}

// detectSourceFromPayload classifies a shared payload by the host of its
// embedded URL. The explicit url field wins over a URL inside sharedText.
func detectSourceFromPayload(payload *models.TripPayload) models.TripSource {
	raw := sharedURL(payload)
	if raw == "" {
		return models.SourceManual
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return models.SourceManual
	}
	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.Contains(host, "sbb.ch"):
		return models.SourceRail
	case strings.Contains(host, "google.") || strings.Contains(host, "goo.gl"):
		return models.SourceMap
	default:
		return models.SourceManual
	}
}

// sharedURL extracts the share link from a payload, preferring the explicit
// url field, then sharedUrl, then the first URL found in free text.
func sharedURL(payload *models.TripPayload) string {
	if payload == nil {
		return ""
	}
	if payload.URL != "" {
		return payload.URL
	}
	if payload.SharedURL != "" {
		return payload.SharedURL
	}
	text := payload.SharedText
	if text == "" {
		text = payload.Text
	}
	return urlPattern.FindString(text)
}

// firstQueryValue returns the first non-empty query parameter among keys.
func firstQueryValue(query url.Values, keys ...string) string {
	for _, key := range keys {
		if value := query.Get(key); value != "" {
			return value
		}
	}
	return ""
}

// normalizeDateTime parses the loose date/time formats carried by share
// links: dates as YYYY-MM-DD or YYYYMMDD, times as "18:15", "1815", "815"
// or a bare hour. Returns nil when the date cannot be interpreted.
func normalizeDateTime(dateParam, timeParam string) *time.Time {
	if dateParam == "" {
		return nil
	}

	digits := strings.ReplaceAll(dateParam, "-", "")
	if len(digits) != 8 {
		return nil
	}

	clock := strings.TrimSpace(timeParam)
	if clock == "" {
		clock = "00:00"
	}
	if !strings.Contains(clock, ":") {
		switch {
		case len(clock) <= 2:
			clock = pad(clock, 2) + ":00"
		case len(clock) == 3:
			padded := pad(clock, 3)
			clock = padded[:1] + ":" + padded[1:3]
		default:
			padded := pad(clock, 4)
			clock = padded[:2] + ":" + padded[2:4]
		}
	}
	parts := strings.SplitN(clock, ":", 3)
	hour := pad(parts[0], 2)
	minute := "00"
	if len(parts) > 1 && parts[1] != "" {
		minute = pad(parts[1], 2)[:2]
	}

	iso := digits[:4] + "-" + digits[4:6] + "-" + digits[6:8] + "T" + hour + ":" + minute + ":00Z"
	parsed, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return nil
	}
	return &parsed
}

func pad(value string, width int) string {
	for len(value) < width {
		value = "0" + value
	}
	return value
}

// createFallbackLeg synthesizes a single leg when no segment-level detail is
// available (manual entry, map links, failed journey lookups).
func createFallbackLeg(from, to string, departure *time.Time, hints models.IngestHints) models.TripLeg {
	departureTime := departure
	if departureTime == nil {
		now := time.Now().UTC()
		departureTime = &now
	}

	durationMinutes := hints.DurationMinutes
	if durationMinutes <= 0 {
		durationMinutes = 60
	}
	arrivalTime := departureTime.Add(time.Duration(durationMinutes) * time.Minute)

	mode := models.ModeTrain
	if hints.Mode != "" {
		mode = models.TransportMode(hints.Mode)
	}
	energy := models.EnergyMedium
	if hints.EnergyCue != "" {
		energy = models.EnergyCue(hints.EnergyCue)
	}
	distance := hints.DistanceMeters
	if distance <= 0 {
		// rough rail-speed estimate
		distance = float64(durationMinutes) * 850
	}

	return models.TripLeg{
		Index:            0,
		Mode:             mode,
		DepartureTime:    departureTime,
		ArrivalTime:      &arrivalTime,
		DurationSeconds:  int64(durationMinutes) * 60,
		DepartureStation: from,
		ArrivalStation:   to,
		ServiceName:      "Manual estimate",
		EnergyCue:        energy,
		DistanceMeters:   distance,
		Prognosis:        models.Prognosis{Source: "fallback"},
	}
}

func logger() *zap.Logger {
	return zap.L().Named("normalizer")
}
