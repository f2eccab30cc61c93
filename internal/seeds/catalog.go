// Package seeds scores the fixed music-cluster catalog against a rhythm
// profile and turns the result into weighted genre-seed plans.
package seeds

import (
	"math"
	"sort"

	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const (
	baselineClusterScore = 1.0
	eraBiasBoost         = 0.8
	moodHintBoost        = 0.5
	instrumentationWt    = 0.6
	regionWt             = 0.8
	maxSeedGenres        = 5
	maxPlans             = 3
)

// ChooseSeeds scores every catalog cluster from a baseline of 1, accumulates
// weighted genres, and emits the top plans. The result is deterministic for
// identical inputs.
func ChooseSeeds(profile *models.RhythmProfile, trip *models.CanonicalTrip) *models.SeedContext {
	scores := map[string]float64{}
	for _, cluster := range lexicon.Clusters {
		scores[cluster.ID] = baselineClusterScore
	}

	if profile != nil {
		for _, clusterID := range profile.EraBias {
			if _, ok := scores[clusterID]; ok {
				scores[clusterID] += eraBiasBoost
			}
		}
		if profile.MoodHints.Calm {
			scores["serene"] += moodHintBoost
		}
		if profile.MoodHints.Energetic {
			scores["playful"] += moodHintBoost
		}
	}

	weights := map[string]float64{}
	pushGenres := func(genres []string, weight float64) {
		for _, genre := range genres {
			weights[genre] += weight
		}
	}

	for _, cluster := range lexicon.Clusters {
		pushGenres(cluster.Genres, scores[cluster.ID])
	}

	var hints []string
	if profile != nil {
		hints = lexicon.InstrumentationGenreHints[profile.InstrumentationCue]
	}
	pushGenres(hints, instrumentationWt)

	var regionSeeds []string
	if trip != nil {
		for _, region := range trip.PreferredRegions {
			if genres := lexicon.GenresForRegion(region); genres != nil {
				pushGenres(genres, regionWt)
				regionSeeds = append(regionSeeds, genres...)
			}
		}
	}

	sortedGenres := rankGenres(weights)
	seedGenres := headOf(sortedGenres, maxSeedGenres)
	if len(seedGenres) == 0 {
		seedGenres = []string{"indie", "pop"}
	}

	sortedClusters := rankClusters(scores)
	topClusters := sortedClusters
	if len(topClusters) > maxPlans {
		topClusters = topClusters[:maxPlans]
	}
	var topTotal float64
	for _, entry := range topClusters {
		topTotal += entry.score
	}
	if topTotal == 0 {
		topTotal = 1
	}

	plans := make([]models.RecommendationPlan, 0, len(topClusters))
	for _, entry := range topClusters {
		var clusterGenres []string
		if cluster := lexicon.ClusterByID(entry.id); cluster != nil {
			clusterGenres = cluster.Genres
		}
		blended := dedupe(append(append(append([]string{}, clusterGenres...), hints...), sortedGenres...))
		plans = append(plans, models.RecommendationPlan{
			ClusterID:  entry.id,
			Weight:     math.Round(entry.score/topTotal*1000) / 1000,
			SeedGenres: headOf(blended, maxSeedGenres),
		})
	}

	// Catalog order, not score order, so the listing is stable regardless of
	// how the boosts land.
	var selected []string
	for _, cluster := range lexicon.Clusters {
		if scores[cluster.ID] > baselineClusterScore {
			selected = append(selected, cluster.ID)
		}
	}

	surprise := dedupe(regionSeeds)
	if len(surprise) == 0 {
		surprise = []string{"world", "latin"}
	}

	return &models.SeedContext{
		SeedGenres:           seedGenres,
		RegionSurpriseGenres: surprise,
		SelectedClusters:     selected,
		Summary:              headOf(sortedGenres, 4),
		GenreWeights:         weights,
		Plans:                plans,
	}
}

type scoredCluster struct {
	id    string
	score float64
}

// rankClusters sorts by score descending, preserving catalog order for ties.
func rankClusters(scores map[string]float64) []scoredCluster {
	ranked := make([]scoredCluster, 0, len(lexicon.Clusters))
	for _, cluster := range lexicon.Clusters {
		ranked = append(ranked, scoredCluster{cluster.ID, scores[cluster.ID]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// rankGenres sorts by weight descending, breaking ties alphabetically so the
// ranking is stable across runs.
func rankGenres(weights map[string]float64) []string {
	genres := make([]string, 0, len(weights))
	for genre := range weights {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if weights[genres[i]] != weights[genres[j]] {
			return weights[genres[i]] > weights[genres[j]]
		}
		return genres[i] < genres[j]
	})
	return genres
}

func dedupe(values []string) []string {
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

func headOf(values []string, limit int) []string {
	if len(values) > limit {
		values = values[:limit]
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
