package mood

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rynno/rynno-backend-go/internal/models"
)

func morningTrip(tags ...string) *models.CanonicalTrip {
	departure := time.Date(2025, 7, 12, 9, 4, 0, 0, time.UTC)
	arrival := departure.Add(68 * time.Minute)
	return &models.CanonicalTrip{
		TripID:         "trip-1",
		Source:         models.SourceRail,
		Tags:           tags,
		FirstDeparture: &departure,
		FinalArrival:   &arrival,
		Legs: []models.TripLeg{
			{
				Mode: models.ModeTrain, ServiceName: "IR 90 1712",
				DepartureTime: &departure, ArrivalTime: &arrival,
				DepartureStation: "Lausanne", ArrivalStation: "Visp",
				DurationSeconds: 68 * 60,
			},
		},
		PreferredRegions: []string{"Lake Geneva (Romandie)"},
	}
}

func TestBuildProfileFamilyMorning(t *testing.T) {
	trip := morningTrip("family")
	profile := BuildProfile(trip, models.Preferences{})

	assert.Equal(t, models.RhythmProfileVersion, profile.ProfileVersion)
	assert.Equal(t, []string{"family"}, profile.Tags)
	assert.Equal(t, "day", profile.TimeSegment)

	// day 0.65 + family -0.10; the train leg matches no offset key
	assert.InDelta(t, 0.55, profile.TargetEnergy, 0.001)
	// day 0.55 + family 0.20
	assert.InDelta(t, 0.75, profile.TargetValence, 0.001)

	assert.Equal(t, models.LyricsClean, profile.LyricSafety)
	assert.Equal(t, models.InstrumentationPercussion, profile.InstrumentationCue)
	assert.InDelta(t, 0.70, profile.TargetDanceability, 0.001)
	assert.ElementsMatch(t, []string{"heritage", "playful"}, profile.EraBias)

	assert.Equal(t, "Rynno • Lausanne → Visp", profile.PlaylistName)
	assert.Equal(t, 12, profile.PlaylistLength)
	assert.Equal(t, 5, profile.GuardrailSampleSize)
	assert.Equal(t, 2, profile.RegionSurpriseBudget)
}

func TestLegOffsetMatchesModeNotServiceName(t *testing.T) {
	trip := morningTrip()
	trip.Legs[0].ServiceName = "Map share transit"

	profile := BuildProfile(trip, models.Preferences{})

	// "share" must not substring-match the RE key; an unmatched train leg
	// contributes nothing, leaving the day baseline.
	assert.InDelta(t, 0.65, profile.TargetEnergy, 0.001)
}

func TestLegOffsetAveragesMatchedLegsOnly(t *testing.T) {
	trip := morningTrip()
	trip.Legs = []models.TripLeg{
		{Mode: models.ModeWalk},
		{Mode: models.ModeUnknown},
	}

	profile := BuildProfile(trip, models.Preferences{})

	// walk -0.04 averaged over the single matched leg, not halved by the
	// unmatched one
	assert.InDelta(t, 0.61, profile.TargetEnergy, 0.001)
}

func TestDominantCueTieKeepsFirstEncountered(t *testing.T) {
	trip := morningTrip("solo", "celebration")
	sunrise := time.Date(2025, 7, 12, 6, 0, 0, 0, time.UTC)
	trip.FirstDeparture = &sunrise

	profile := BuildProfile(trip, models.Preferences{})

	// strings (solo) and percussion (celebration) tie at one vote each with
	// acoustic on the half segment vote; the first-cast cue wins
	assert.Equal(t, models.InstrumentationStrings, profile.InstrumentationCue)
}

func TestBuildProfileBandsBracketTarget(t *testing.T) {
	for _, tags := range [][]string{{"kids"}, {"celebration"}, {"solo"}, nil} {
		profile := BuildProfile(morningTrip(tags...), models.Preferences{
			MoodHints: models.MoodHints{Energetic: true, Adventurous: true},
		})
		assert.GreaterOrEqual(t, profile.TargetEnergy, 0.10)
		assert.LessOrEqual(t, profile.TargetEnergy, 0.95)
		assert.LessOrEqual(t, profile.MinEnergy, profile.TargetEnergy)
		assert.GreaterOrEqual(t, profile.MaxEnergy, profile.TargetEnergy)
		assert.GreaterOrEqual(t, profile.TargetValence, 0.05)
		assert.LessOrEqual(t, profile.TargetValence, 0.95)
	}
}

func TestBuildProfileMoodHints(t *testing.T) {
	base := BuildProfile(morningTrip(), models.Preferences{})
	calm := BuildProfile(morningTrip(), models.Preferences{MoodHints: models.MoodHints{Calm: true}})
	energetic := BuildProfile(morningTrip(), models.Preferences{MoodHints: models.MoodHints{Energetic: true}})
	reflective := BuildProfile(morningTrip(), models.Preferences{MoodHints: models.MoodHints{Reflective: true}})

	assert.InDelta(t, base.TargetEnergy-0.05, calm.TargetEnergy, 0.001)
	assert.InDelta(t, base.TargetEnergy+0.10, energetic.TargetEnergy, 0.001)
	assert.InDelta(t, base.TargetValence-0.03, reflective.TargetValence, 0.001)
}

func TestBuildProfileNightSegment(t *testing.T) {
	trip := morningTrip()
	night := time.Date(2025, 7, 12, 23, 30, 0, 0, time.UTC)
	trip.FirstDeparture = &night

	profile := BuildProfile(trip, models.Preferences{})
	assert.Equal(t, "night", profile.TimeSegment)
	assert.Equal(t, models.InstrumentationAcoustic, profile.InstrumentationCue) // full no-preference vote beats the half segment vote
}

func TestBuildProfilePreferenceOverrides(t *testing.T) {
	profile := BuildProfile(morningTrip("family"), models.Preferences{
		ExplicitOverride:   models.LyricsAny,
		PlaylistLength:     4,
		EraPreference:      "serene",
		LanguagePreference: "French",
	})

	assert.Equal(t, models.LyricsAny, profile.LyricSafety)
	assert.Equal(t, 4, profile.PlaylistLength)
	assert.Equal(t, 4, profile.GuardrailSampleSize)
	assert.Contains(t, profile.EraBias, "serene")
	assert.Equal(t, "french", profile.LanguagePreference)
}

func TestBuildProfileDeterministic(t *testing.T) {
	trip := morningTrip("family", "celebration")
	prefs := models.Preferences{MoodHints: models.MoodHints{Cinematic: true}}

	first := BuildProfile(trip, prefs)
	second := BuildProfile(trip, prefs)
	require.Equal(t, first, second)
}

func TestBuildProfileNilTrip(t *testing.T) {
	profile := BuildProfile(nil, models.Preferences{})

	assert.Equal(t, []string{"no-preference"}, profile.Tags)
	assert.Equal(t, "Rynno • Departure → Destination", profile.PlaylistName)
	assert.Equal(t, 1, profile.RegionSurpriseBudget)
	assert.False(t, profile.FirstDeparture.IsZero())
}
