// Package mood derives a rhythm profile from a canonical trip and user
// preferences. Profile building is deterministic: the same trip and
// preferences always produce the same profile.
package mood

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const defaultPlaylistLength = 12

// BuildProfile blends the trip's time-of-day band, tag profiles, per-leg
// mode offsets and mood hints into a clamped rhythm profile.
func BuildProfile(trip *models.CanonicalTrip, prefs models.Preferences) *models.RhythmProfile {
	tags := normalizeTags(tripTags(trip))

	firstDeparture := time.Now().UTC()
	if trip != nil && trip.FirstDeparture != nil {
		firstDeparture = trip.FirstDeparture.UTC()
	}
	segment := lexicon.SegmentForHour(firstDeparture.Hour())

	var tagEnergy, tagValence float64
	votes := map[models.Instrumentation]float64{}
	var voteOrder []models.Instrumentation
	castVote := func(cue models.Instrumentation, weight float64) {
		if _, ok := votes[cue]; !ok {
			voteOrder = append(voteOrder, cue)
		}
		votes[cue] += weight
	}
	eraBias := []string{}
	seenClusters := map[string]struct{}{}
	for _, tag := range tags {
		profile := lexicon.TagProfileFor(tag)
		tagEnergy += profile.Energy
		tagValence += profile.Valence
		castVote(profile.Instrumentation, 1)
		for _, clusterID := range profile.Clusters {
			if _, ok := seenClusters[clusterID]; !ok {
				seenClusters[clusterID] = struct{}{}
				eraBias = append(eraBias, clusterID)
			}
		}
	}
	tagEnergy /= float64(len(tags))
	tagValence /= float64(len(tags))

	// Time-of-day texture counts as half a vote.
	castVote(segment.Instrumentation, 0.5)
	cue := dominantCue(votes, voteOrder)
	targets := lexicon.TargetsFor(cue)

	var moodEnergy, moodValence float64
	if prefs.MoodHints.Calm {
		moodEnergy -= 0.05
	}
	if prefs.MoodHints.Energetic {
		moodEnergy += 0.10
	}
	if prefs.MoodHints.Cinematic {
		moodEnergy += 0.02
	}
	if prefs.MoodHints.Adventurous {
		moodValence += 0.07
	}
	if prefs.MoodHints.Reflective {
		moodValence -= 0.03
	}

	targetEnergy := clamp(segment.Energy+tagEnergy+legEnergyOffset(trip)+moodEnergy, 0.10, 0.95)
	targetValence := clamp(segment.Valence+tagValence+moodValence, 0.05, 0.95)

	if prefs.EraPreference != "" {
		if _, ok := seenClusters[prefs.EraPreference]; !ok {
			eraBias = append(eraBias, prefs.EraPreference)
		}
	}

	lyricSafety := models.LyricsAny
	if containsAny(tags, "family", "kids") {
		lyricSafety = models.LyricsClean
	}
	if prefs.ExplicitOverride != "" {
		lyricSafety = prefs.ExplicitOverride
	}

	playlistLength := prefs.PlaylistLength
	if playlistLength <= 0 {
		playlistLength = defaultPlaylistLength
	}

	regionBudget := 1
	if trip != nil {
		regionBudget = len(trip.PreferredRegions) + 1
	}
	if regionBudget > 2 {
		regionBudget = 2
	}

	start, end := endpoints(trip)
	tagList := strings.Join(tags, ", ")

	return &models.RhythmProfile{
		ProfileVersion:     models.RhythmProfileVersion,
		Tags:               tags,
		EraBias:            eraBias,
		InstrumentationCue: cue,

		TargetEnergy:           targetEnergy,
		MinEnergy:              clamp(targetEnergy-0.20, 0.05, 0.90),
		MaxEnergy:              clamp(targetEnergy+0.25, 0.20, 0.99),
		TargetValence:          targetValence,
		TargetDanceability:     targets.Danceability,
		TargetAcousticness:     targets.Acousticness,
		TargetInstrumentalness: targets.Instrumentalness,

		PlaylistLength:       playlistLength,
		LyricSafety:          lyricSafety,
		LanguagePreference:   strings.ToLower(prefs.LanguagePreference),
		RegionSurpriseBudget: regionBudget,

		PlaylistName:        fmt.Sprintf("Rynno • %s → %s", start, end),
		PlaylistDescription: fmt.Sprintf("Mood: %s · %s tone · Energy %d", tagList, cue, int(math.Round(targetEnergy*100))),
		MoodSummary:         fmt.Sprintf("%s trip adjusting %s instrumentation with %s", segment.Name, cue, tagList),
		MoodHints:           prefs.MoodHints,
		TimeSegment:         segment.Name,
		FirstDeparture:      firstDeparture,

		GuardrailSampleSize:     minInt(5, playlistLength),
		MaxGuardrailEnergyDelta: 0.35,
	}
}

func tripTags(trip *models.CanonicalTrip) []string {
	if trip == nil {
		return nil
	}
	return trip.Tags
}

// normalizeTags lower-cases and dedupes tags, falling back to the
// no-preference sentinel.
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tag := range tags {
		lowered := strings.ToLower(strings.TrimSpace(tag))
		if lowered == "" {
			continue
		}
		if _, ok := seen[lowered]; ok {
			continue
		}
		seen[lowered] = struct{}{}
		out = append(out, lowered)
	}
	if len(out) == 0 {
		return []string{lexicon.NoPreferenceTag}
	}
	return out
}

// modeOffsetOrder fixes the match order for legEnergyOffset; the first
// matching key wins when a leg matches several.
var modeOffsetOrder = []string{"IC", "IR", "RE", "S-Bahn", "Regio", "tram", "bus", "walk", "ferry", "bike"}

// legEnergyOffset averages the per-leg mode offsets, matched by substring
// against the leg's mode. Legs whose mode matches no key are excluded from
// the average rather than counted as zero.
func legEnergyOffset(trip *models.CanonicalTrip) float64 {
	if trip == nil || len(trip.Legs) == 0 {
		return 0
	}
	var total float64
	var matched int
	for _, leg := range trip.Legs {
		needle := strings.ToLower(string(leg.Mode))
		for _, key := range modeOffsetOrder {
			if strings.Contains(needle, strings.ToLower(key)) {
				total += lexicon.ModeEnergyOffsets[key]
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}
	return total / float64(matched)
}

// dominantCue picks the cue with the highest vote; ties keep the cue whose
// first vote was cast earliest.
func dominantCue(votes map[models.Instrumentation]float64, order []models.Instrumentation) models.Instrumentation {
	best := models.InstrumentationAcoustic
	bestScore := math.Inf(-1)
	for _, cue := range order {
		if votes[cue] > bestScore {
			best = cue
			bestScore = votes[cue]
		}
	}
	return best
}

func endpoints(trip *models.CanonicalTrip) (string, string) {
	start, end := "Departure", "Destination"
	if trip != nil && len(trip.Legs) > 0 {
		if name := trip.Legs[0].DepartureStation; name != "" {
			start = name
		}
		if name := trip.Legs[len(trip.Legs)-1].ArrivalStation; name != "" {
			end = name
		}
	}
	return start, end
}

func containsAny(values []string, targets ...string) bool {
	for _, value := range values {
		for _, target := range targets {
			if value == target {
				return true
			}
		}
	}
	return false
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
