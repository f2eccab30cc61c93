package normalizer

import (
	"fmt"
	"sort"

	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const maxPreferredRegions = 3

// canonicalInput gathers everything an adapter contributes to a trip
type canonicalInput struct {
	TripID         string
	Source         models.TripSource
	Legs           []models.TripLeg
	Hints          models.IngestHints
	RawPayload     *models.TripPayload
	Confidence     int
	FallbackReason string
	WaypointCount  int
	Waypoints      []string
}

// buildCanonicalTrip sorts legs, derives aggregates and region/language
// preferences, and runs the shared validation pass. The returned confidence
// always equals the validation score.
func buildCanonicalTrip(input canonicalInput) *models.CanonicalTrip {
	legs := make([]models.TripLeg, len(input.Legs))
	copy(legs, input.Legs)
	sort.SliceStable(legs, func(i, j int) bool {
		if legs[i].DepartureTime == nil || legs[j].DepartureTime == nil {
			return false
		}
		return legs[i].DepartureTime.Before(*legs[j].DepartureTime)
	})
	for i := range legs {
		legs[i].Index = i
	}

	var totalDuration int64
	var totalDistance float64
	for _, leg := range legs {
		totalDuration += leg.DurationSeconds
		totalDistance += leg.DistanceMeters
	}

	trip := &models.CanonicalTrip{
		TripID:               input.TripID,
		Source:               input.Source,
		Tags:                 tagsOrDefault(input.Hints.Tags),
		Legs:                 legs,
		TotalDurationSeconds: totalDuration,
		DistanceMeters:       totalDistance,
		Metadata: models.TripMetadata{
			Fallback:      input.FallbackReason,
			RawPayload:    input.RawPayload,
			ParserVersion: parserVersion,
			WaypointCount: input.WaypointCount,
			Waypoints:     input.Waypoints,
			UserID:        input.Hints.UserID,
		},
	}

	if len(legs) > 0 {
		trip.FirstDeparture = legs[0].DepartureTime
		trip.FinalArrival = legs[len(legs)-1].ArrivalTime
	}

	for _, leg := range legs {
		if leg.Prognosis.DelaySeconds > 0 {
			trip.DelayInfo = append(trip.DelayInfo, models.DelayInfo{
				Index:        leg.Index,
				DelaySeconds: leg.Prognosis.DelaySeconds,
			})
		}
	}

	var stationNames []string
	if len(legs) > 0 {
		stationNames = append(stationNames, legs[0].DepartureStation, legs[len(legs)-1].ArrivalStation)
	}
	regions, languages, locale := aggregateRegions(stationNames)

	trip.PreferredRegions = capStrings(dedupeStrings(append(append([]string{}, input.Hints.PreferredRegions...), regions...)), maxPreferredRegions)
	trip.PreferredLanguages = dedupeStrings(append(append(append([]string{}, input.Hints.PreferredLanguages...), languages...), "en"))

	trip.Locale = input.Hints.Locale
	if trip.Locale == "" {
		trip.Locale = locale
	}
	if trip.Locale == "" {
		trip.Locale = "en-CH"
	}

	trip.ConfidenceScore = clampScore(input.Confidence)
	trip.Validation = buildValidation(trip)
	trip.ConfidenceScore = trip.Validation.Score

	return trip
}

// buildValidation applies the fixed deduction schedule to the adapter's
// starting confidence and flags trips below the manual-review threshold.
func buildValidation(trip *models.CanonicalTrip) models.ValidationReport {
	var issues, warnings []string
	delta := 0

	if len(trip.Legs) == 0 {
		issues = append(issues, "No trip legs parsed.")
		delta -= 45
	}

	if trip.FirstDeparture == nil || trip.FinalArrival == nil {
		issues = append(issues, "Missing departure/arrival timestamps.")
		delta -= 20
	}

	for _, leg := range trip.Legs {
		if leg.DepartureStation == "" || leg.ArrivalStation == "" {
			warnings = append(warnings, "Some legs are missing station names.")
			delta -= 8
			break
		}
	}

	for _, leg := range trip.Legs {
		if leg.DurationSeconds <= 0 {
			warnings = append(warnings, "Some legs are missing valid durations.")
			delta -= 10
			break
		}
	}

	if len(trip.PreferredRegions) == 0 {
		warnings = append(warnings, "No region hints inferred from parsed stations.")
		delta -= 5
	}

	if trip.Metadata.Fallback != "" {
		warnings = append(warnings, fmt.Sprintf("Fallback path used: %s", trip.Metadata.Fallback))
		delta -= 12
	}

	if trip.Source == models.SourceMap && trip.Metadata.WaypointCount > 2 {
		warnings = append(warnings, "Map route has multiple waypoints; leg detail may be coarse.")
		delta -= 5
	}

	score := clampScore(trip.ConfidenceScore + delta)
	return models.ValidationReport{
		Score:             score,
		Threshold:         models.ManualReviewThreshold,
		NeedsManualReview: score < models.ManualReviewThreshold,
		Issues:            issues,
		Warnings:          warnings,
	}
}

// aggregateRegions infers preferred regions and languages from station
// names, first-seen order, capped at three each.
func aggregateRegions(stationNames []string) (regions, languages []string, locale string) {
	for _, station := range stationNames {
		hint := lexicon.MatchRegion(station)
		if hint == nil {
			continue
		}
		regions = append(regions, hint.Region)
		languages = append(languages, hint.Languages...)
		if locale == "" {
			locale = hint.Locale
		}
	}
	regions = capStrings(dedupeStrings(regions), maxPreferredRegions)
	languages = capStrings(dedupeStrings(languages), 3)
	return regions, languages, locale
}

func tagsOrDefault(tags []string) []string {
	cleaned := dedupeStrings(tags)
	if len(cleaned) == 0 {
		return []string{lexicon.NoPreferenceTag}
	}
	return cleaned
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
