package models

// RecommendationPlan is one weighted genre-seed request used to diversify
// candidate sourcing. Plan weights are normalized to sum to 1.
type RecommendationPlan struct {
	ClusterID  string   `json:"clusterId"`
	Weight     float64  `json:"weight"`
	SeedGenres []string `json:"seedGenres"` // at most 5
}

// SeedContext maps a rhythm profile plus trip metadata onto weighted genre
// seeds. Adjusted in lockstep with the profile during guardrail retries.
type SeedContext struct {
	SeedGenres           []string             `json:"seedGenres"` // at most 5, ranked
	RegionSurpriseGenres []string             `json:"regionSurpriseGenres"`
	SelectedClusters     []string             `json:"selectedClusters"` // clusters scored above baseline
	Summary              []string             `json:"summary"`
	GenreWeights         map[string]float64   `json:"totalGenreWeights"`
	Plans                []RecommendationPlan `json:"recommendationPlans"`
}

// SeedSummary is the caller-facing digest of the seed context
type SeedSummary struct {
	Genres   []string `json:"genres"`
	Summary  []string `json:"summary"`
	Clusters []string `json:"clusters"`
}
