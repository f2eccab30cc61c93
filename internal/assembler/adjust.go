package assembler

import (
	"math"
	"strings"

	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

// Remedial genre sets merged into the seeds after a failed attempt, keyed to
// whichever guardrail category tripped.
var (
	explicitRemedy   = []string{"acoustic", "chill"}
	energyRemedy     = []string{"dance", "ambient"}
	languageRemedy   = []string{"world", "singer-songwriter"}
	firstTrackRemedy = []string{"pop", "indie-pop"}
)

// adjustProfile returns a corrected copy of the profile after a failed
// guardrail attempt. The original is never mutated; each attempt threads a
// fresh value through the loop.
func adjustProfile(profile models.RhythmProfile, result models.GuardrailResult) models.RhythmProfile {
	if result.ExplicitIssues > 0 {
		profile.LyricSafety = models.LyricsClean
	}

	if result.EnergyIssues > 1 {
		if result.AvgEnergyDirection > 0 {
			profile.TargetEnergy = math.Max(0.12, profile.TargetEnergy-0.08)
		} else {
			profile.TargetEnergy = math.Min(0.95, profile.TargetEnergy+0.08)
		}
		profile.MaxEnergy = math.Min(0.99, profile.TargetEnergy+0.25)
		profile.MinEnergy = math.Max(0.05, profile.TargetEnergy-0.20)
	}

	if result.LanguageIssues > 1 {
		profile.LanguagePreference = strings.ToLower(profile.LanguagePreference)
	}

	delta := profile.MaxGuardrailEnergyDelta
	if delta == 0 {
		delta = defaultMaxEnergyDelta
	}
	profile.MaxGuardrailEnergyDelta = math.Min(0.5, delta+0.05)

	return profile
}

// adjustSeeds returns a corrected copy of the seed context, merging remedial
// genres for each failed guardrail category and re-capping all genre lists.
func adjustSeeds(seeds models.SeedContext, result models.GuardrailResult, profile models.RhythmProfile) models.SeedContext {
	genres := append([]string{}, seeds.SeedGenres...)

	if result.ExplicitIssues > 0 {
		genres = mergeGenres(genres, explicitRemedy)
	}
	if result.InstrumentationIssues > 0 {
		genres = mergeGenres(genres, lexicon.InstrumentationGenreHints[profile.InstrumentationCue])
	}
	if result.EnergyIssues > 2 {
		genres = mergeGenres(genres, energyRemedy)
	}
	if result.LanguageIssues > 1 {
		genres = mergeGenres(genres, languageRemedy)
	}
	if result.FirstTrackIssue != "" {
		genres = mergeGenres(genres, firstTrackRemedy)
	}

	if len(genres) > 5 {
		genres = genres[:5]
	}
	seeds.SeedGenres = genres

	plans := make([]models.RecommendationPlan, len(seeds.Plans))
	copy(plans, seeds.Plans)
	for i := range plans {
		blended := mergeGenres(append([]string{}, plans[i].SeedGenres...), genres)
		if len(blended) > 5 {
			blended = blended[:5]
		}
		plans[i].SeedGenres = blended
	}
	seeds.Plans = plans

	return seeds
}

// mergeGenres appends additions that are not already present, keeping order.
func mergeGenres(existing, additions []string) []string {
	for _, genre := range additions {
		present := false
		for _, have := range existing {
			if have == genre {
				present = true
				break
			}
		}
		if !present {
			existing = append(existing, genre)
		}
	}
	return existing
}
