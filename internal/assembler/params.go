package assembler

import (
	"math"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const (
	minPlanLimit = 4
	maxPlanLimit = 25

	// attempt > 1 escape nudges
	retryEnergyStep    = 0.06
	retryMaxEnergyStep = 0.05
)

// buildRecommendationParams maps the profile's current targets onto one
// recommendation request. The limit scales with the plan's weight; later
// attempts nudge target energy alternately down/up and relax the max-energy
// bound to escape a guardrail-failing region.
func buildRecommendationParams(profile *models.RhythmProfile, seedGenres []string, planWeight float64, attempt int) spotify.RecommendationParams {
	limit := int(math.Round(planWeight * float64(profile.PlaylistLength+5)))
	if limit < minPlanLimit {
		limit = minPlanLimit
	}
	if limit > maxPlanLimit {
		limit = maxPlanLimit
	}

	params := spotify.RecommendationParams{
		Limit:                  limit,
		SeedGenres:             seedGenres,
		TargetEnergy:           round2p(profile.TargetEnergy),
		TargetValence:          round2p(profile.TargetValence),
		TargetDanceability:     round2p(profile.TargetDanceability),
		TargetAcousticness:     round2p(profile.TargetAcousticness),
		TargetInstrumentalness: round2p(profile.TargetInstrumentalness),
		MinEnergy:              round2p(profile.MinEnergy),
		MaxEnergy:              round2p(profile.MaxEnergy),
	}

	if attempt > 1 {
		step := retryEnergyStep
		if attempt%2 == 1 {
			step = -retryEnergyStep
		}
		nudged := clampFloat(profile.TargetEnergy+step, 0.12, 0.95)
		params.TargetEnergy = round2p(nudged)
		params.MaxEnergy = round2p(math.Min(0.95, profile.MaxEnergy+retryMaxEnergyStep))
	}

	return params
}

func round2p(value float64) *float64 {
	rounded := math.Round(value*100) / 100
	return &rounded
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
