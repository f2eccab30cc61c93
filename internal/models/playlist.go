package models

// GuardrailResult records one assembler attempt. All attempts for a single
// generation call are retained for observability.
type GuardrailResult struct {
	Attempt               int      `json:"attempt"`
	Pass                  bool     `json:"pass"`
	SampleSize            int      `json:"sampleSize"`
	TrackCount            int      `json:"trackCount"`
	ExplicitIssues        int      `json:"explicitIssues"`
	EnergyIssues          int      `json:"energyIssues"`
	InstrumentationIssues int      `json:"instrumentationIssues"`
	LanguageIssues        int      `json:"languageIssues"`
	FirstTrackIssue       string   `json:"firstTrackIssue,omitempty"`
	AvgEnergyDelta        float64  `json:"avgEnergyDelta"`
	AvgEnergyDirection    float64  `json:"avgEnergyDirection"`
	Reasons               []string `json:"reasons"`
}

// PlaylistTrack is one positioned track in the final curated list
type PlaylistTrack struct {
	Position       int      `json:"position"`
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Artists        []string `json:"artists"`
	Album          string   `json:"album,omitempty"`
	DurationMs     int      `json:"durationMs"`
	Explicit       bool     `json:"explicit"`
	URI            string   `json:"uri"`
	PreviewURL     string   `json:"previewUrl,omitempty"`
	RegionSurprise bool     `json:"regionSurprise"`
	ExternalURL    string   `json:"externalUrl,omitempty"`
}

// PlaylistResult is what playlist generation returns to the caller
type PlaylistResult struct {
	PlaylistID        string            `json:"playlistId"`
	PlaylistURL       string            `json:"playlistUrl,omitempty"`
	PlaylistName      string            `json:"playlistName"`
	MoodProfile       RhythmProfile     `json:"moodProfile"`
	Seeds             SeedSummary       `json:"seeds"`
	Tracks            []PlaylistTrack   `json:"tracks"`
	GuardrailAttempts []GuardrailResult `json:"guardrailAttempts"`
	SpotifyUser       string            `json:"spotifyUser,omitempty"`
}
