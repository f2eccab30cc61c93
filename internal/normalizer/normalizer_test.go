package normalizer

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rynno/rynno-backend-go/internal/clients/transport"
	"github.com/rynno/rynno-backend-go/internal/models"
)

type stubJourneyClient struct {
	connection *transport.Connection
	err        error
}

func (s *stubJourneyClient) GetConnection(_ context.Context, _ transport.ConnectionQuery) (*transport.Connection, error) {
	return s.connection, s.err
}

func timetableConnection() *transport.Connection {
	return &transport.Connection{
		Sections: []transport.Section{
			{
				Departure: transport.Stop{
					Station:   transport.StationRef{Name: "Lausanne"},
					Departure: "2025-07-12T09:04:00+0200",
					Platform:  "3",
				},
				Arrival: transport.Stop{
					Station: transport.StationRef{Name: "Visp"},
					Arrival: "2025-07-12T10:12:00+0200",
				},
				Journey: &transport.Journey{Name: "IR 90 1712", Category: "IR"},
			},
			{
				Departure: transport.Stop{
					Station:   transport.StationRef{Name: "Visp"},
					Departure: "2025-07-12T10:21:00+0200",
					Prognosis: &transport.Prognosis{Delay: 120},
				},
				Arrival: transport.Stop{
					Station: transport.StationRef{Name: "Zermatt"},
					Arrival: "2025-07-12T11:29:00+0200",
				},
				Journey: &transport.Journey{Name: "R 242", Category: "R"},
			},
		},
	}
}

func TestNormalizeRailShare(t *testing.T) {
	n := New(&stubJourneyClient{connection: timetableConnection()})

	payload := &models.TripPayload{
		URL: "https://www.sbb.ch/en/timetable?von=Lausanne&nach=Zermatt&date=2025-07-12&time=09:04",
	}
	trip, err := n.Normalize(context.Background(), "trip-rail-1", models.SourceRail, payload, models.IngestHints{})
	require.NoError(t, err)

	require.Len(t, trip.Legs, 2)
	assert.Equal(t, models.SourceRail, trip.Source)
	assert.Equal(t, "Lausanne", trip.Legs[0].DepartureStation)
	assert.Equal(t, "Zermatt", trip.Legs[1].ArrivalStation)
	assert.Equal(t, models.ModeTrain, trip.Legs[0].Mode)
	assert.Equal(t, models.EnergyHigh, trip.Legs[0].EnergyCue)
	assert.Equal(t, "3", trip.Legs[0].Platform)
	assert.Equal(t, int64(68*60), trip.Legs[0].DurationSeconds)

	// Second leg carries the prognosis delay.
	require.Len(t, trip.DelayInfo, 1)
	assert.Equal(t, 1, trip.DelayInfo[0].Index)
	assert.Equal(t, 120, trip.DelayInfo[0].DelaySeconds)

	assert.Empty(t, trip.Metadata.Fallback)
	assert.False(t, trip.Validation.NeedsManualReview)
	assert.Equal(t, trip.Validation.Score, trip.ConfidenceScore)
	assert.Contains(t, trip.PreferredRegions, "Lake Geneva (Romandie)")
	assert.Contains(t, trip.PreferredLanguages, "en")
	assert.Equal(t, "fr-CH", trip.Locale)
}

func TestNormalizeRailShareFallsBackOnLookupError(t *testing.T) {
	n := New(&stubJourneyClient{err: eris.New("connect timeout")})

	payload := &models.TripPayload{
		SharedText: "Check this out https://www.sbb.ch/en/timetable?von=Bern&nach=Interlaken%20Ost&date=2025-08-01&time=14:30",
	}
	trip, err := n.Normalize(context.Background(), "trip-rail-2", models.SourceShared, payload, models.IngestHints{})
	require.NoError(t, err)

	assert.Equal(t, models.SourceRail, trip.Source)
	require.Len(t, trip.Legs, 1)
	assert.Equal(t, "Manual estimate", trip.Legs[0].ServiceName)
	assert.Equal(t, "Bern", trip.Legs[0].DepartureStation)
	assert.Equal(t, "Interlaken Ost", trip.Legs[0].ArrivalStation)
	assert.Contains(t, trip.Metadata.Fallback, "transport-api-error")
	// Fallback deduction drops a rail trip below the clean-parse score.
	assert.Less(t, trip.ConfidenceScore, 80)
	assert.Equal(t, trip.Validation.Score, trip.ConfidenceScore)
}

func TestNormalizeManualEntry(t *testing.T) {
	n := New(&stubJourneyClient{})

	payload := &models.TripPayload{
		From: "Lausanne", To: "Zermatt",
		Date: "2025-07-12", Time: "09:04",
		DurationMinutes: 60, Mode: "train",
	}
	trip, err := n.Normalize(context.Background(), "trip-manual-1", models.SourceManual, payload, models.IngestHints{Tags: []string{"family"}})
	require.NoError(t, err)

	require.Len(t, trip.Legs, 1)
	leg := trip.Legs[0]
	assert.Equal(t, models.ModeTrain, leg.Mode)
	assert.Equal(t, int64(3600), leg.DurationSeconds)
	assert.Equal(t, "Manual train", leg.ServiceName)
	require.NotNil(t, leg.DepartureTime)
	assert.Equal(t, time.Date(2025, 7, 12, 9, 4, 0, 0, time.UTC), *leg.DepartureTime)

	assert.Equal(t, []string{"family"}, trip.Tags)
	assert.Equal(t, "manual-estimate", trip.Metadata.Fallback)
	// Manual trips start at 70 and lose the fallback deduction.
	assert.True(t, trip.Validation.NeedsManualReview)
	assert.GreaterOrEqual(t, trip.ConfidenceScore, 0)
	assert.LessOrEqual(t, trip.ConfidenceScore, 100)
}

func TestNormalizeManualEntryMissingFields(t *testing.T) {
	n := New(&stubJourneyClient{})

	_, err := n.Normalize(context.Background(), "trip-manual-2", models.SourceManual, &models.TripPayload{From: "Bern"}, models.IngestHints{})
	require.Error(t, err)

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.ElementsMatch(t, []string{"to", "date", "time"}, malformed.MissingFields)
}

func TestNormalizeMapShare(t *testing.T) {
	n := New(&stubJourneyClient{})

	payload := &models.TripPayload{
		URL: "https://www.google.com/maps/dir/?api=1&origin=46.5197,6.6323&destination=46.0207,7.7491&travelmode=transit&departure_time=1752310800&waypoints=Visp|Stalden",
	}
	trip, err := n.Normalize(context.Background(), "trip-map-1", models.SourceShared, payload, models.IngestHints{})
	require.NoError(t, err)

	assert.Equal(t, models.SourceMap, trip.Source)
	require.Len(t, trip.Legs, 1)
	leg := trip.Legs[0]
	assert.Equal(t, models.ModeTrain, leg.Mode)
	assert.Equal(t, int64(70*60), leg.DurationSeconds)
	require.NotNil(t, leg.DepartureTime)
	assert.Equal(t, time.Unix(1752310800, 0).UTC(), *leg.DepartureTime)

	// Lausanne to Zermatt as the crow flies is roughly 100km.
	assert.InDelta(t, 100000, leg.DistanceMeters, 15000)

	assert.Equal(t, 2, trip.Metadata.WaypointCount)
	assert.Equal(t, "map-share-summary", trip.Metadata.Fallback)
}

func TestNormalizeUnsupportedSource(t *testing.T) {
	n := New(&stubJourneyClient{})

	_, err := n.Normalize(context.Background(), "trip-x", models.TripSource("carrier-pigeon"), &models.TripPayload{}, models.IngestHints{})
	require.Error(t, err)

	var unsupported *UnsupportedSourceError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "carrier-pigeon", unsupported.Source)
}

func TestResolveSourcePrefersExplicitURLField(t *testing.T) {
	payload := &models.TripPayload{
		URL:        "https://www.sbb.ch/en?von=A&nach=B&date=2025-01-01",
		SharedText: "https://maps.google.com/dir/?origin=A&destination=B",
	}
	assert.Equal(t, models.SourceRail, resolveSource(models.SourceShared, payload))
}

func TestResolveSourceDefaultsToManual(t *testing.T) {
	assert.Equal(t, models.SourceManual, resolveSource(models.SourceShared, &models.TripPayload{SharedText: "no link here"}))
	assert.Equal(t, models.SourceManual, resolveSource("", nil))
}

func TestNormalizeDateTime(t *testing.T) {
	cases := []struct {
		date, clock string
		want        string
	}{
		{"2025-07-12", "09:04", "2025-07-12T09:04:00Z"},
		{"20250712", "0904", "2025-07-12T09:04:00Z"},
		{"2025-07-12", "815", "2025-07-12T08:15:00Z"},
		{"2025-07-12", "18", "2025-07-12T18:00:00Z"},
		{"2025-07-12", "", "2025-07-12T00:00:00Z"},
	}
	for _, tc := range cases {
		got := normalizeDateTime(tc.date, tc.clock)
		require.NotNil(t, got, "date=%s time=%s", tc.date, tc.clock)
		assert.Equal(t, tc.want, got.Format(time.RFC3339))
	}

	assert.Nil(t, normalizeDateTime("", "09:00"))
	assert.Nil(t, normalizeDateTime("12.07.25", "09:00"))
}

func TestLegsSortedByDeparture(t *testing.T) {
	early := time.Date(2025, 7, 12, 8, 0, 0, 0, time.UTC)
	late := time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC)
	earlyEnd := early.Add(30 * time.Minute)
	lateEnd := late.Add(30 * time.Minute)

	trip := buildCanonicalTrip(canonicalInput{
		TripID: "trip-sort",
		Source: models.SourceRail,
		Legs: []models.TripLeg{
			{Index: 0, DepartureTime: &late, ArrivalTime: &lateEnd, DepartureStation: "B", ArrivalStation: "C", DurationSeconds: 1800},
			{Index: 1, DepartureTime: &early, ArrivalTime: &earlyEnd, DepartureStation: "A", ArrivalStation: "B", DurationSeconds: 1800},
		},
		Confidence: 80,
	})

	assert.Equal(t, "A", trip.Legs[0].DepartureStation)
	assert.Equal(t, 0, trip.Legs[0].Index)
	assert.Equal(t, 1, trip.Legs[1].Index)
	assert.Equal(t, early, *trip.FirstDeparture)
	assert.Equal(t, lateEnd, *trip.FinalArrival)
	assert.Equal(t, int64(3600), trip.TotalDurationSeconds)
}

func TestValidationScoreStaysInRange(t *testing.T) {
	trip := buildCanonicalTrip(canonicalInput{
		TripID:         "trip-empty",
		Source:         models.SourceManual,
		Confidence:     70,
		FallbackReason: "manual-estimate",
	})

	assert.GreaterOrEqual(t, trip.ConfidenceScore, 0)
	assert.LessOrEqual(t, trip.ConfidenceScore, 100)
	assert.True(t, trip.Validation.NeedsManualReview)
	assert.NotEmpty(t, trip.Validation.Issues)
}
