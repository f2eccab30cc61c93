package assembler

import (
	"math"
	"strings"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const (
	defaultGuardrailSample = 5
	defaultMaxEnergyDelta  = 0.35

	// first-track quality thresholds
	firstTrackEnergyDelta   = 0.2
	firstTrackMinPopularity = 18
)

// evaluateGuardrails scores the first guardrailSampleSize candidates against
// the profile. Tracks without a matching audio feature are skipped rather
// than counted as failures; an empty sample passes trivially.
func evaluateGuardrails(tracks []spotify.Track, features []spotify.AudioFeature, profile *models.RhythmProfile) models.GuardrailResult {
	lookup := make(map[string]spotify.AudioFeature, len(features))
	for _, feature := range features {
		if feature.ID != "" {
			lookup[feature.ID] = feature
		}
	}

	sampleSize := profile.GuardrailSampleSize
	if sampleSize <= 0 {
		sampleSize = defaultGuardrailSample
	}
	if sampleSize > len(tracks) {
		sampleSize = len(tracks)
	}

	maxDelta := profile.MaxGuardrailEnergyDelta
	if maxDelta == 0 {
		maxDelta = defaultMaxEnergyDelta
	}

	result := models.GuardrailResult{SampleSize: sampleSize, TrackCount: len(tracks)}
	var deltaTotal, directionTotal float64

	for i := 0; i < sampleSize; i++ {
		track := tracks[i]
		feature, ok := lookup[track.ID]
		if !ok {
			continue
		}

		direction := feature.Energy - profile.TargetEnergy
		delta := math.Abs(direction)
		deltaTotal += delta
		directionTotal += direction

		if profile.LyricSafety == models.LyricsClean && track.Explicit {
			result.ExplicitIssues++
		}
		if delta > maxDelta {
			result.EnergyIssues++
		}
		if failsInstrumentationCheck(feature, profile.InstrumentationCue) {
			result.InstrumentationIssues++
		}
		if failsLanguageFitCheck(track, profile.LanguagePreference) {
			result.LanguageIssues++
		}

		if i == 0 {
			result.FirstTrackIssue = firstTrackIssue(track, feature, profile)
		}
	}

	if sampleSize > 0 {
		result.AvgEnergyDelta = deltaTotal / float64(sampleSize)
		result.AvgEnergyDirection = directionTotal / float64(sampleSize)
	}

	if result.ExplicitIssues > 0 {
		result.Reasons = append(result.Reasons, "Explicit tracks appeared while clean lyrics are requested.")
	}
	if result.EnergyIssues > 0 {
		result.Reasons = append(result.Reasons, "Track energy drifted too far from the target mood.")
	}
	if result.InstrumentationIssues > 0 {
		result.Reasons = append(result.Reasons, "Instrumentation cues did not align with the requested vibe.")
	}
	if result.LanguageIssues > 0 {
		result.Reasons = append(result.Reasons, "Sampled tracks did not match the preferred language.")
	}
	if result.FirstTrackIssue != "" {
		result.Reasons = append(result.Reasons, "The opening track does not set the right tone: "+result.FirstTrackIssue)
	}

	result.Pass = result.ExplicitIssues == 0 &&
		result.EnergyIssues <= 2 &&
		result.InstrumentationIssues <= 1 &&
		result.LanguageIssues <= 2 &&
		result.FirstTrackIssue == ""

	return result
}

// failsInstrumentationCheck applies the cue-specific audio-feature thresholds.
func failsInstrumentationCheck(feature spotify.AudioFeature, cue models.Instrumentation) bool {
	switch cue {
	case models.InstrumentationPercussion:
		return feature.Danceability < 0.55
	case models.InstrumentationStrings:
		return feature.Acousticness < 0.35 && feature.Instrumentalness < 0.15
	case models.InstrumentationAcoustic:
		return feature.Acousticness < 0.4
	case models.InstrumentationPads:
		return feature.Instrumentalness < 0.2
	case models.InstrumentationPlayful:
		return feature.Danceability < 0.6
	default:
		return false
	}
}

// failsLanguageFitCheck matches track and artist text against the preferred
// language's keyword hint list. Absent or unknown preferences never fail.
func failsLanguageFitCheck(track spotify.Track, language string) bool {
	keywords := lexicon.LanguageKeywords(language)
	if len(keywords) == 0 {
		return false
	}

	var text strings.Builder
	text.WriteString(strings.ToLower(track.Name))
	for _, artist := range track.Artists {
		text.WriteString(" ")
		text.WriteString(strings.ToLower(artist.Name))
	}
	haystack := text.String()

	for _, keyword := range keywords {
		if containsWord(haystack, keyword) {
			return false
		}
	}
	return true
}

// containsWord matches whole words only, so "the" does not match "theater".
func containsWord(haystack, word string) bool {
	start := 0
	for {
		idx := strings.Index(haystack[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx == 0 || !isLetter(haystack[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx == len(haystack) || !isLetter(haystack[afterIdx])
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// firstTrackIssue runs the extra quality bar on the opening track; the first
// impression carries the playlist.
func firstTrackIssue(track spotify.Track, feature spotify.AudioFeature, profile *models.RhythmProfile) string {
	if profile.LyricSafety == models.LyricsClean && track.Explicit {
		return "explicit opener while clean lyrics are requested"
	}
	if math.Abs(feature.Energy-profile.TargetEnergy) > firstTrackEnergyDelta {
		return "opener energy is far from the target mood"
	}
	if track.Popularity < firstTrackMinPopularity {
		return "opener is too obscure to anchor the playlist"
	}
	return ""
}
