package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rynno/rynno-backend-go/internal/models"
)

func TestChooseSeedsFamilyProfile(t *testing.T) {
	profile := &models.RhythmProfile{
		EraBias:            []string{"heritage", "playful"},
		InstrumentationCue: models.InstrumentationPercussion,
	}
	trip := &models.CanonicalTrip{
		PreferredRegions: []string{"Lake Geneva (Romandie)"},
	}

	ctx := ChooseSeeds(profile, trip)

	require.NotEmpty(t, ctx.SeedGenres)
	assert.LessOrEqual(t, len(ctx.SeedGenres), 5)
	// funk sits in both boosted clusters so it tops the ranking.
	assert.Equal(t, "funk", ctx.SeedGenres[0])
	assert.Equal(t, []string{"heritage", "playful"}, ctx.SelectedClusters)
	assert.ElementsMatch(t, []string{"acoustic", "chill"}, ctx.RegionSurpriseGenres)
	assert.Len(t, ctx.Summary, 4)
}

func TestChooseSeedsPlanWeightsNormalized(t *testing.T) {
	profile := &models.RhythmProfile{
		EraBias:            []string{"serene"},
		InstrumentationCue: models.InstrumentationPads,
		MoodHints:          models.MoodHints{Calm: true},
	}

	ctx := ChooseSeeds(profile, nil)

	require.Len(t, ctx.Plans, 3)
	assert.Equal(t, "serene", ctx.Plans[0].ClusterID)

	var total float64
	for _, plan := range ctx.Plans {
		assert.Greater(t, plan.Weight, 0.0)
		assert.LessOrEqual(t, len(plan.SeedGenres), 5)
		assert.NotEmpty(t, plan.SeedGenres)
		total += plan.Weight
	}
	assert.InDelta(t, 1.0, total, 0.01)

	// The plan's own cluster genres come first in its seed list.
	assert.Equal(t, "ambient", ctx.Plans[0].SeedGenres[0])
}

func TestChooseSeedsRegionSubstringMatch(t *testing.T) {
	trip := &models.CanonicalTrip{PreferredRegions: []string{"Bernese Alps"}}

	ctx := ChooseSeeds(&models.RhythmProfile{InstrumentationCue: models.InstrumentationAcoustic}, trip)

	assert.ElementsMatch(t, []string{"folk", "classical"}, ctx.RegionSurpriseGenres)
	assert.Greater(t, ctx.GenreWeights["folk"], 0.0)
}

func TestChooseSeedsSelectedClustersKeepCatalogOrder(t *testing.T) {
	profile := &models.RhythmProfile{
		EraBias:            []string{"playful", "heritage"},
		InstrumentationCue: models.InstrumentationPercussion,
		MoodHints:          models.MoodHints{Energetic: true},
	}

	ctx := ChooseSeeds(profile, nil)

	// playful outscores heritage (2.3 vs 1.8) but the listing stays in
	// catalog order.
	assert.Equal(t, []string{"heritage", "playful"}, ctx.SelectedClusters)
	assert.Equal(t, "playful", ctx.Plans[0].ClusterID)
}

func TestChooseSeedsDefaultsWithoutInput(t *testing.T) {
	ctx := ChooseSeeds(nil, nil)

	assert.NotEmpty(t, ctx.SeedGenres)
	assert.Equal(t, []string{"world", "latin"}, ctx.RegionSurpriseGenres)
	assert.Empty(t, ctx.SelectedClusters)
	require.Len(t, ctx.Plans, 3)
	// All clusters tie at the baseline, so plans split evenly in catalog order.
	assert.Equal(t, "heritage", ctx.Plans[0].ClusterID)
	assert.InDelta(t, 0.333, ctx.Plans[0].Weight, 0.001)
}

func TestChooseSeedsDeterministic(t *testing.T) {
	profile := &models.RhythmProfile{
		EraBias:            []string{"indie", "widescreen"},
		InstrumentationCue: models.InstrumentationStrings,
	}
	trip := &models.CanonicalTrip{PreferredRegions: []string{"Urban"}}

	first := ChooseSeeds(profile, trip)
	second := ChooseSeeds(profile, trip)
	require.Equal(t, first, second)
}
