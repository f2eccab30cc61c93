package spotify

// Artist is a track credit
type Artist struct {
	Name string `json:"name"`
}

// Album holds the subset of album fields the pipeline reads
type Album struct {
	Name string `json:"name"`
}

// Track is one recommendation candidate
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Album        Album             `json:"album"`
	DurationMs   int               `json:"duration_ms"`
	Explicit     bool              `json:"explicit"`
	Popularity   int               `json:"popularity"`
	URI          string            `json:"uri"`
	PreviewURL   string            `json:"preview_url"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// AudioFeature is the per-track audio analysis used by the guardrails
type AudioFeature struct {
	ID               string  `json:"id"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
}

// RecommendationParams mirrors the recommendation endpoint's tunable knobs.
// Zero-valued pointers are omitted from the request.
type RecommendationParams struct {
	Limit                  int      `json:"limit"`
	SeedGenres             []string `json:"seed_genres"`
	TargetEnergy           *float64 `json:"target_energy,omitempty"`
	TargetValence          *float64 `json:"target_valence,omitempty"`
	TargetDanceability     *float64 `json:"target_danceability,omitempty"`
	TargetAcousticness     *float64 `json:"target_acousticness,omitempty"`
	TargetInstrumentalness *float64 `json:"target_instrumentalness,omitempty"`
	MinEnergy              *float64 `json:"min_energy,omitempty"`
	MaxEnergy              *float64 `json:"max_energy,omitempty"`
}

// UserProfile is the authenticated Spotify user
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// TokenResponse is the OAuth token endpoint response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
}

// Playlist is a created playlist
type Playlist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ExternalURLs map[string]string `json:"external_urls"`
}
