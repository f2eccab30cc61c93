package models

import "time"

// RhythmProfileVersion tags the profile schema for stored playlists
const RhythmProfileVersion = "RhythmProfile_v1"

// Instrumentation is the dominant texture requested from the recommender
type Instrumentation string

// Instrumentation constants
const (
	InstrumentationPercussion Instrumentation = "percussion"
	InstrumentationStrings    Instrumentation = "strings"
	InstrumentationAcoustic   Instrumentation = "acoustic"
	InstrumentationPads       Instrumentation = "pads"
	InstrumentationPlayful    Instrumentation = "playful"
)

// LyricSafety is the explicit-content policy for a playlist
type LyricSafety string

// LyricSafety constants
const (
	LyricsClean LyricSafety = "clean"
	LyricsAny   LyricSafety = "any"
)

// MoodHints are free-form boolean nudges supplied by the user
type MoodHints struct {
	Calm        bool `json:"calm,omitempty"`
	Energetic   bool `json:"energetic,omitempty"`
	Cinematic   bool `json:"cinematic,omitempty"`
	Adventurous bool `json:"adventurous,omitempty"`
	Reflective  bool `json:"reflective,omitempty"`
}

// Preferences are the user-supplied knobs for playlist generation
type Preferences struct {
	MoodHints          MoodHints   `json:"moodHints,omitempty"`
	EraPreference      string      `json:"eraPreference,omitempty"`
	ExplicitOverride   LyricSafety `json:"explicitOverride,omitempty"`
	PlaylistLength     int         `json:"playlistLength,omitempty"`
	LanguagePreference string      `json:"languagePreference,omitempty"`
	Tags               []string    `json:"tags,omitempty"`
}

// RhythmProfile is the numeric musical-target record derived from a trip and
// user preferences. The assembler threads adjusted copies through its retry
// loop; a profile is never shared across generation requests.
type RhythmProfile struct {
	ProfileVersion     string          `json:"profileVersion"`
	Tags               []string        `json:"tags"`
	EraBias            []string        `json:"eraBias"`
	InstrumentationCue Instrumentation `json:"instrumentationCue"`

	TargetEnergy           float64 `json:"targetEnergy"`
	MinEnergy              float64 `json:"minEnergy"`
	MaxEnergy              float64 `json:"maxEnergy"`
	TargetValence          float64 `json:"targetValence"`
	TargetDanceability     float64 `json:"targetDanceability"`
	TargetAcousticness     float64 `json:"targetAcousticness"`
	TargetInstrumentalness float64 `json:"targetInstrumentalness"`

	PlaylistLength       int         `json:"playlistLength"`
	LyricSafety          LyricSafety `json:"lyricSafety"`
	LanguagePreference   string      `json:"languagePreference,omitempty"`
	RegionSurpriseBudget int         `json:"regionSurpriseBudget"`

	PlaylistName        string    `json:"playlistName"`
	PlaylistDescription string    `json:"playlistDescription"`
	MoodSummary         string    `json:"moodSummary"`
	MoodHints           MoodHints `json:"moodHints"`
	TimeSegment         string    `json:"timeSegment"`
	FirstDeparture      time.Time `json:"firstDeparture"`

	GuardrailSampleSize     int     `json:"guardrailSampleSize"`
	MaxGuardrailEnergyDelta float64 `json:"maxGuardrailEnergyDelta"`
}
