package assembler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/models"
)

type fakeSpotify struct {
	mu              sync.Mutex
	recommendations [][]spotify.Track
	recommendCalls  []spotify.RecommendationParams
	features        []spotify.AudioFeature
	createdName     string
	addedURIs       []string
}

func (f *fakeSpotify) ExchangeAuthorizationCode(context.Context, string, string) (*spotify.TokenResponse, error) {
	return nil, nil
}

func (f *fakeSpotify) RefreshAccessToken(context.Context, string) (*spotify.TokenResponse, error) {
	return nil, nil
}

func (f *fakeSpotify) GetUserProfile(context.Context, string) (*spotify.UserProfile, error) {
	return &spotify.UserProfile{ID: "listener-1", DisplayName: "Listener"}, nil
}

func (f *fakeSpotify) GetRecommendations(_ context.Context, _ string, params spotify.RecommendationParams) ([]spotify.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recommendCalls = append(f.recommendCalls, params)
	if len(f.recommendations) == 0 {
		return nil, nil
	}
	next := f.recommendations[0]
	f.recommendations = f.recommendations[1:]
	return next, nil
}

func (f *fakeSpotify) GetAudioFeatures(_ context.Context, _ string, ids []string) ([]spotify.AudioFeature, error) {
	return f.features, nil
}

func (f *fakeSpotify) CreatePlaylist(_ context.Context, _, _, name, _ string, _ bool) (*spotify.Playlist, error) {
	f.createdName = name
	return &spotify.Playlist{ID: "pl-1", Name: name, ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/playlist/pl-1"}}, nil
}

func (f *fakeSpotify) AddTracksToPlaylist(_ context.Context, _, _ string, uris []string) error {
	f.addedURIs = uris
	return nil
}

func goodTrack(id string, energy float64) (spotify.Track, spotify.AudioFeature) {
	track := spotify.Track{
		ID: id, Name: "The Long Road Home " + id,
		Artists:    []spotify.Artist{{Name: "Artist " + id}},
		Popularity: 60,
		URI:        "spotify:track:" + id,
	}
	feature := spotify.AudioFeature{
		ID: id, Energy: energy, Danceability: 0.7, Acousticness: 0.5, Instrumentalness: 0.3,
	}
	return track, feature
}

func testProfile() models.RhythmProfile {
	return models.RhythmProfile{
		ProfileVersion:          models.RhythmProfileVersion,
		InstrumentationCue:      models.InstrumentationPercussion,
		TargetEnergy:            0.65,
		MinEnergy:               0.45,
		MaxEnergy:               0.90,
		TargetValence:           0.55,
		TargetDanceability:      0.70,
		TargetAcousticness:      0.25,
		TargetInstrumentalness:  0.05,
		PlaylistLength:          6,
		LyricSafety:             models.LyricsAny,
		GuardrailSampleSize:     5,
		MaxGuardrailEnergyDelta: 0.35,
		PlaylistName:            "Rynno • Lausanne → Zermatt",
		PlaylistDescription:     "Mood: family · percussion tone · Energy 65",
	}
}

func testSeeds() models.SeedContext {
	return models.SeedContext{
		SeedGenres:           []string{"funk", "pop", "dance"},
		RegionSurpriseGenres: []string{"folk", "classical"},
		Plans: []models.RecommendationPlan{
			{ClusterID: "heritage", Weight: 0.5, SeedGenres: []string{"soul", "jazz", "funk"}},
			{ClusterID: "playful", Weight: 0.5, SeedGenres: []string{"pop", "dance", "funk"}},
		},
	}
}

func TestGuardrailPassRule(t *testing.T) {
	profile := testProfile()

	var tracks []spotify.Track
	var features []spotify.AudioFeature
	for i := 0; i < 5; i++ {
		track, feature := goodTrack(fmt.Sprintf("t%d", i), 0.65)
		tracks = append(tracks, track)
		features = append(features, feature)
	}

	result := evaluateGuardrails(tracks, features, &profile)
	assert.True(t, result.Pass)
	assert.Zero(t, result.ExplicitIssues)
	assert.Empty(t, result.FirstTrackIssue)
	assert.Equal(t, 5, result.SampleSize)

	// A single explicit track under clean lyrics fails the whole attempt.
	profile.LyricSafety = models.LyricsClean
	tracks[2].Explicit = true
	result = evaluateGuardrails(tracks, features, &profile)
	assert.False(t, result.Pass)
	assert.Equal(t, 1, result.ExplicitIssues)
	assert.NotEmpty(t, result.Reasons)
}

func TestGuardrailBoundaryCounts(t *testing.T) {
	profile := testProfile()

	var tracks []spotify.Track
	var features []spotify.AudioFeature
	for i := 0; i < 5; i++ {
		track, feature := goodTrack(fmt.Sprintf("t%d", i), 0.65)
		if i > 0 && i <= 2 {
			feature.Energy = 0.10 // delta 0.55 > 0.35
		}
		if i == 3 {
			feature.Danceability = 0.40 // percussion wants >= 0.55
		}
		tracks = append(tracks, track)
		features = append(features, feature)
	}

	// 2 energy issues and 1 instrumentation issue sit exactly at the limits.
	result := evaluateGuardrails(tracks, features, &profile)
	assert.True(t, result.Pass)
	assert.Equal(t, 2, result.EnergyIssues)
	assert.Equal(t, 1, result.InstrumentationIssues)

	// One more energy miss tips it over.
	features[4].Energy = 0.10
	result = evaluateGuardrails(tracks, features, &profile)
	assert.False(t, result.Pass)
	assert.Equal(t, 3, result.EnergyIssues)
}

func TestGuardrailEmptySamplePasses(t *testing.T) {
	profile := testProfile()
	result := evaluateGuardrails(nil, nil, &profile)
	assert.True(t, result.Pass)
	assert.Zero(t, result.SampleSize)
	assert.Zero(t, result.AvgEnergyDelta)
}

func TestGuardrailLanguageAndFirstTrack(t *testing.T) {
	profile := testProfile()
	profile.LanguagePreference = "french"
	profile.GuardrailSampleSize = 2

	tracks := []spotify.Track{
		{ID: "t1", Name: "Zug nach Hause", Artists: []spotify.Artist{{Name: "Die Band"}}, Popularity: 10},
		{ID: "t2", Name: "Nachtlicht", Artists: []spotify.Artist{{Name: "Das Duo"}}, Popularity: 50},
	}
	features := []spotify.AudioFeature{
		{ID: "t1", Energy: 0.10, Danceability: 0.7},
		{ID: "t2", Energy: 0.65, Danceability: 0.7},
	}

	result := evaluateGuardrails(tracks, features, &profile)
	assert.False(t, result.Pass)
	assert.Equal(t, 2, result.LanguageIssues)
	assert.NotEmpty(t, result.FirstTrackIssue)
}

func TestGuardrailLanguageMatchesWholeWords(t *testing.T) {
	profile := testProfile()
	profile.LanguagePreference = "french"

	// "Gare du Nord" contains the keyword "gare" as a whole word.
	match := spotify.Track{ID: "t1", Name: "Gare du Nord", Artists: []spotify.Artist{{Name: "Quatuor"}}}
	assert.False(t, failsLanguageFitCheck(match, profile.LanguagePreference))

	// "Lesson" contains "les" only as a fragment.
	fragment := spotify.Track{ID: "t2", Name: "Lesson One", Artists: []spotify.Artist{{Name: "Somebody"}}}
	assert.True(t, failsLanguageFitCheck(fragment, profile.LanguagePreference))

	// Unknown preference never fails.
	assert.False(t, failsLanguageFitCheck(fragment, "klingon"))
	assert.False(t, failsLanguageFitCheck(fragment, ""))
}

func TestGuardrailLanguageAcceptsISOCodes(t *testing.T) {
	match := spotify.Track{ID: "t1", Name: "Gare du Nord", Artists: []spotify.Artist{{Name: "Quatuor"}}}
	miss := spotify.Track{ID: "t2", Name: "Lesson One", Artists: []spotify.Artist{{Name: "Somebody"}}}

	// Trip preferred languages arrive as ISO codes; "fr" must behave like
	// "french" instead of silently disabling the check.
	assert.False(t, failsLanguageFitCheck(match, "fr"))
	assert.True(t, failsLanguageFitCheck(miss, "fr"))
	assert.True(t, failsLanguageFitCheck(miss, "de"))
}

func TestMergeUniqueTracks(t *testing.T) {
	a1, _ := goodTrack("a", 0.6)
	b1, _ := goodTrack("b", 0.6)
	c1, _ := goodTrack("c", 0.6)

	merged := mergeUniqueTracks(
		[]spotify.Track{a1, b1},
		[]spotify.Track{b1, c1, {ID: ""}},
		[]spotify.Track{a1},
	)

	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
	assert.Equal(t, "c", merged[2].ID)
}

func TestAdjustProfileThreadsNewValue(t *testing.T) {
	original := testProfile()
	result := models.GuardrailResult{
		ExplicitIssues:     1,
		EnergyIssues:       2,
		AvgEnergyDirection: 0.3,
	}

	adjusted := adjustProfile(original, result)

	assert.Equal(t, models.LyricsClean, adjusted.LyricSafety)
	assert.InDelta(t, 0.57, adjusted.TargetEnergy, 0.001)
	assert.InDelta(t, 0.82, adjusted.MaxEnergy, 0.001)
	assert.InDelta(t, 0.37, adjusted.MinEnergy, 0.001)
	assert.InDelta(t, 0.40, adjusted.MaxGuardrailEnergyDelta, 0.001)

	// The caller's profile is untouched.
	assert.Equal(t, models.LyricsAny, original.LyricSafety)
	assert.InDelta(t, 0.65, original.TargetEnergy, 0.001)
}

func TestAdjustSeedsMergesRemedies(t *testing.T) {
	seeds := testSeeds()
	profile := testProfile()
	result := models.GuardrailResult{
		ExplicitIssues:  1,
		FirstTrackIssue: "opener is too obscure to anchor the playlist",
	}

	adjusted := adjustSeeds(seeds, result, profile)

	assert.Contains(t, adjusted.SeedGenres, "acoustic")
	assert.LessOrEqual(t, len(adjusted.SeedGenres), 5)
	for _, plan := range adjusted.Plans {
		assert.LessOrEqual(t, len(plan.SeedGenres), 5)
	}
	// Original slices are untouched.
	assert.Equal(t, []string{"funk", "pop", "dance"}, seeds.SeedGenres)
}

func TestWeavePositionsSurprisesEvenly(t *testing.T) {
	client := &fakeSpotify{}
	a := New(client)

	var base []spotify.Track
	for i := 0; i < 6; i++ {
		track, _ := goodTrack(fmt.Sprintf("base%d", i), 0.6)
		base = append(base, track)
	}
	s1, _ := goodTrack("surprise1", 0.6)
	s2, _ := goodTrack("surprise2", 0.6)
	client.recommendations = [][]spotify.Track{{s1, s2}}

	profile := testProfile()
	profile.RegionSurpriseBudget = 2
	seeds := testSeeds()

	woven, err := a.weaveRegionSurprises(context.Background(), "token", base, &profile, &seeds)
	require.NoError(t, err)

	require.Len(t, woven, profile.PlaylistLength)
	var positions []int
	for i, entry := range woven {
		if entry.surprise {
			positions = append(positions, i)
		}
	}
	require.Len(t, positions, 2)
	// Surprises land inside the list, never at position 0.
	for _, pos := range positions {
		assert.Greater(t, pos, 0)
	}
}

func TestWeaveSkipsWhenBudgetZero(t *testing.T) {
	client := &fakeSpotify{}
	a := New(client)

	track, _ := goodTrack("only", 0.6)
	profile := testProfile()
	profile.RegionSurpriseBudget = 0

	seeds := testSeeds()
	woven, err := a.weaveRegionSurprises(context.Background(), "token", []spotify.Track{track}, &profile, &seeds)
	require.NoError(t, err)

	require.Len(t, woven, 1)
	assert.False(t, woven[0].surprise)
	assert.Empty(t, client.recommendCalls)
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	client := &fakeSpotify{}
	a := New(client)

	var tracks []spotify.Track
	var features []spotify.AudioFeature
	for i := 0; i < 8; i++ {
		track, feature := goodTrack(fmt.Sprintf("t%d", i), 0.65)
		tracks = append(tracks, track)
		features = append(features, feature)
	}
	// Two plan fetches, then the surprise fetch.
	surprise, _ := goodTrack("sx", 0.65)
	client.recommendations = [][]spotify.Track{tracks[:4], tracks[4:], {surprise}}
	client.features = features

	profile := testProfile()
	profile.RegionSurpriseBudget = 1

	result, err := a.Generate(context.Background(), Input{
		Trip:        &models.CanonicalTrip{TripID: "trip-ok"},
		Profile:     profile,
		Seeds:       testSeeds(),
		AccessToken: "token",
		UserID:      "listener-1",
		DisplayName: "Listener",
	})
	require.NoError(t, err)

	assert.Equal(t, "pl-1", result.PlaylistID)
	assert.Equal(t, profile.PlaylistName, client.createdName)
	require.Len(t, result.GuardrailAttempts, 1)
	assert.True(t, result.GuardrailAttempts[0].Pass)
	assert.Len(t, result.Tracks, profile.PlaylistLength)
	assert.Equal(t, 1, result.Tracks[0].Position)
	assert.Len(t, client.addedURIs, profile.PlaylistLength)
	assert.Equal(t, "Listener", result.SpotifyUser)
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	client := &fakeSpotify{}
	a := New(client)

	// Every attempt returns the same low-popularity opener, so the
	// first-track guardrail never clears.
	bad := spotify.Track{ID: "bad", Name: "Obscure", Artists: []spotify.Artist{{Name: "Nobody"}}, Popularity: 3}
	for i := 0; i < 7; i++ {
		client.recommendations = append(client.recommendations, []spotify.Track{bad})
	}
	client.features = []spotify.AudioFeature{{ID: "bad", Energy: 0.65, Danceability: 0.7}}

	_, err := a.Generate(context.Background(), Input{
		Trip:        &models.CanonicalTrip{TripID: "trip-stuck"},
		Profile:     testProfile(),
		Seeds:       testSeeds(),
		AccessToken: "token",
		UserID:      "listener-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trip-stuck")
	assert.Contains(t, err.Error(), "mood hints")
}

func TestBuildRecommendationParamsRetryNudge(t *testing.T) {
	profile := testProfile()

	first := buildRecommendationParams(&profile, []string{"funk"}, 0.5, 1)
	require.NotNil(t, first.TargetEnergy)
	assert.InDelta(t, 0.65, *first.TargetEnergy, 0.001)
	assert.Equal(t, 6, first.Limit) // 0.5 * (6 + 5) rounds to 6

	second := buildRecommendationParams(&profile, []string{"funk"}, 0.5, 2)
	assert.InDelta(t, 0.71, *second.TargetEnergy, 0.001)
	assert.InDelta(t, 0.95, *second.MaxEnergy, 0.001)

	third := buildRecommendationParams(&profile, []string{"funk"}, 0.5, 3)
	assert.InDelta(t, 0.59, *third.TargetEnergy, 0.001)

	tiny := buildRecommendationParams(&profile, []string{"funk"}, 0.1, 1)
	assert.Equal(t, minPlanLimit, tiny.Limit)
}
