// Package lexicon holds the static lookup tables shared by the trip
// normalizer, the mood profile builder and the seed catalog. Raw-to-enum
// mappings live here as data so the pipeline code stays control-flow only.
package lexicon

import (
	"regexp"
	"strings"

	"github.com/rynno/rynno-backend-go/internal/models"
)

// RegionHint maps a station-name pattern to a geographic region and its
// dominant languages.
type RegionHint struct {
	Pattern   *regexp.Regexp
	Region    string
	Languages []string
	Locale    string
}

// RegionHints is ordered; first match wins when aggregating regions.
var RegionHints = []RegionHint{
	{regexp.MustCompile(`(?i)Z[üu]rich`), "Zurich & Zurich Oberland", []string{"de"}, "de-CH"},
	{regexp.MustCompile(`(?i)Gen[èe]ve|Geneva`), "Lake Geneva (Romandie)", []string{"fr"}, "fr-CH"},
	{regexp.MustCompile(`(?i)Lausanne`), "Lake Geneva (Romandie)", []string{"fr"}, "fr-CH"},
	{regexp.MustCompile(`(?i)Bern`), "Bernese Mittelland", []string{"de"}, "de-CH"},
	{regexp.MustCompile(`(?i)Basel`), "Basel & Aargau", []string{"de"}, "de-CH"},
	{regexp.MustCompile(`(?i)Lugano|Bellinzona|Chiasso`), "Italian-speaking Switzerland", []string{"it"}, "it-CH"},
	{regexp.MustCompile(`(?i)St\. Gallen|St Gallen|Sankt Gallen`), "St. Gallen / Eastern Switzerland", []string{"de"}, "de-CH"},
	{regexp.MustCompile(`(?i)Sion|Valais|Wallis|Martigny`), "Valais & Rhône Valley", []string{"fr"}, "fr-CH"},
	{regexp.MustCompile(`(?i)Interlaken|Grindelwald`), "Bernese Alps", []string{"de"}, "de-CH"},
}

// MatchRegion returns the first region hint whose pattern matches the
// station name, or nil.
func MatchRegion(stationName string) *RegionHint {
	if stationName == "" {
		return nil
	}
	for i := range RegionHints {
		if RegionHints[i].Pattern.MatchString(stationName) {
			return &RegionHints[i]
		}
	}
	return nil
}

// energyCues maps transit category codes and travel modes to energy cues.
// Keys are compared case-insensitively after stripping non-letters.
var energyCues = map[string]models.EnergyCue{
	"IC":           models.EnergyHigh,
	"IR":           models.EnergyHigh,
	"ICE":          models.EnergyHigh,
	"EC":           models.EnergyHigh,
	"RE":           models.EnergyMedium,
	"REX":          models.EnergyMedium,
	"S":            models.EnergyCalm,
	"R":            models.EnergyMedium,
	"TGV":          models.EnergyHigh,
	"EUROCITY":     models.EnergyHigh,
	"INTERCITY":    models.EnergyHigh,
	"REGIOEXPRESS": models.EnergyMedium,
	"REGIO":        models.EnergyCalm,
	"TRAM":         models.EnergyCalm,
	"BUS":          models.EnergyCalm,
	"WALK":         models.EnergyCalm,
	"TRANSIT":      models.EnergyMedium,
	"DRIVING":      models.EnergyHigh,
	"BICYCLING":    models.EnergyMedium,
	"WALKING":      models.EnergyCalm,
}

var nonLetters = regexp.MustCompile(`[^a-zA-Z]`)

// EnergyCueFor maps a transit category (or travel mode) to a coarse energy
// cue, defaulting to medium for unknown categories.
func EnergyCueFor(category string) models.EnergyCue {
	if category == "" {
		return models.EnergyMedium
	}
	key := strings.ToUpper(nonLetters.ReplaceAllString(category, ""))
	if cue, ok := energyCues[key]; ok {
		return cue
	}
	return models.EnergyMedium
}

// modeTable maps raw category/travel-mode strings onto the TransportMode
// enum. Substring match, checked in order.
var modeTable = []struct {
	Needle string
	Mode   models.TransportMode
}{
	{"bus", models.ModeBus},
	{"tram", models.ModeTram},
	{"trolley", models.ModeTram},
	{"light", models.ModeTram},
	{"walk", models.ModeWalk},
	{"driv", models.ModeDrive},
	{"bicycl", models.ModeBike},
	{"bike", models.ModeBike},
	{"ferry", models.ModeFerry},
	{"sbahn", models.ModeSBahn},
	{"s-bahn", models.ModeSBahn},
	{"transit", models.ModeTrain},
	{"train", models.ModeTrain},
}

// NormalizeMode converts a raw transit category or travel mode into the
// TransportMode enum. A bare "S" category (Swiss S-Bahn) maps to s-bahn;
// anything else unrecognized maps to train, matching timetable behavior
// where uncategorized sections are rail.
func NormalizeMode(raw string) models.TransportMode {
	category := strings.ToLower(strings.TrimSpace(raw))
	if category == "" {
		return models.ModeTrain
	}
	for _, entry := range modeTable {
		if strings.Contains(category, entry.Needle) {
			return entry.Mode
		}
	}
	if category == "s" || strings.HasPrefix(category, "s") && len(category) <= 3 {
		return models.ModeSBahn
	}
	return models.ModeTrain
}

// ModeEnergyOffsets nudges target energy per transport mode; matched by
// case-insensitive substring against the leg mode. Unmatched modes are left
// out of the per-trip average.
var ModeEnergyOffsets = map[string]float64{
	"IC":     0.12,
	"IR":     0.10,
	"RE":     0.08,
	"S-Bahn": 0.04,
	"Regio":  0.03,
	"tram":   0.02,
	"bus":    0.01,
	"walk":   -0.04,
	"ferry":  0.01,
	"bike":   -0.03,
}

// TimeSegment is one fixed time-of-day band with baseline musical targets
type TimeSegment struct {
	Name            string
	StartHour       int
	EndHour         int
	Energy          float64
	Valence         float64
	Instrumentation models.Instrumentation
}

// TimeSegments covers the full day; night wraps around midnight.
var TimeSegments = []TimeSegment{
	{"sunrise", 5, 8, 0.45, 0.58, models.InstrumentationAcoustic},
	{"day", 8, 18, 0.65, 0.55, models.InstrumentationPercussion},
	{"evening", 18, 22, 0.55, 0.62, models.InstrumentationStrings},
	{"night", 22, 24, 0.35, 0.48, models.InstrumentationPads},
	{"night", 0, 5, 0.35, 0.48, models.InstrumentationPads},
}

// SegmentForHour selects the time-of-day band for an hour, defaulting to day.
func SegmentForHour(hour int) TimeSegment {
	for _, segment := range TimeSegments {
		if hour >= segment.StartHour && hour < segment.EndHour {
			return segment
		}
	}
	return TimeSegments[1]
}

// TagProfile carries the per-tag musical offsets and cluster affinities
type TagProfile struct {
	Energy          float64
	Valence         float64
	LyricSafety     models.LyricSafety
	Instrumentation models.Instrumentation
	Clusters        []string
}

// NoPreferenceTag is the sentinel tag used when a trip carries no tags
const NoPreferenceTag = "no-preference"

// TagProfiles maps trip tags to their musical contribution. Unknown tags
// fall back to the no-preference profile.
var TagProfiles = map[string]TagProfile{
	"family": {
		Energy: -0.10, Valence: 0.20, LyricSafety: models.LyricsClean,
		Instrumentation: models.InstrumentationPercussion,
		Clusters:        []string{"heritage", "playful"},
	},
	"kids": {
		Energy: -0.15, Valence: 0.30, LyricSafety: models.LyricsClean,
		Instrumentation: models.InstrumentationPlayful,
		Clusters:        []string{"playful"},
	},
	"celebration": {
		Energy: 0.15, Valence: 0.25, LyricSafety: models.LyricsAny,
		Instrumentation: models.InstrumentationPercussion,
		Clusters:        []string{"widescreen", "playful"},
	},
	"solo": {
		Energy: -0.02, Valence: 0.05, LyricSafety: models.LyricsAny,
		Instrumentation: models.InstrumentationStrings,
		Clusters:        []string{"indie", "serene"},
	},
	"couple": {
		Energy: 0.05, Valence: 0.10, LyricSafety: models.LyricsAny,
		Instrumentation: models.InstrumentationStrings,
		Clusters:        []string{"widescreen", "heritage"},
	},
	NoPreferenceTag: {
		Energy: 0, Valence: 0, LyricSafety: models.LyricsAny,
		Instrumentation: models.InstrumentationAcoustic,
		Clusters:        []string{"indie", "heritage", "serene"},
	},
}

// TagProfileFor resolves a tag to its profile, falling back to no-preference.
func TagProfileFor(tag string) TagProfile {
	if profile, ok := TagProfiles[tag]; ok {
		return profile
	}
	return TagProfiles[NoPreferenceTag]
}

// InstrumentationTargets holds the audio-feature targets per texture
type InstrumentationTargets struct {
	Danceability     float64
	Acousticness     float64
	Instrumentalness float64
}

// instrumentationTargets per cue; acoustic is the fallback.
var instrumentationTargets = map[models.Instrumentation]InstrumentationTargets{
	models.InstrumentationPercussion: {0.70, 0.25, 0.05},
	models.InstrumentationStrings:    {0.55, 0.45, 0.20},
	models.InstrumentationAcoustic:   {0.50, 0.60, 0.25},
	models.InstrumentationPads:       {0.35, 0.40, 0.35},
	models.InstrumentationPlayful:    {0.75, 0.20, 0.10},
}

// TargetsFor returns the audio-feature targets for an instrumentation cue.
func TargetsFor(cue models.Instrumentation) InstrumentationTargets {
	if targets, ok := instrumentationTargets[cue]; ok {
		return targets
	}
	return instrumentationTargets[models.InstrumentationAcoustic]
}

// Cluster is a coarse music grouping used for seed planning
type Cluster struct {
	ID              string
	Name            string
	Genres          []string
	Instrumentation string
	Description     string
}

// Clusters is the fixed catalog scored by the seed chooser.
var Clusters = []Cluster{
	{
		ID: "heritage", Name: "Heritage grooves",
		Genres:          []string{"soul", "jazz", "funk"},
		Instrumentation: "warm",
		Description:     "Warm, soulful grooves stretching from the 60s-90s.",
	},
	{
		ID: "widescreen", Name: "Widescreen travel",
		Genres:          []string{"soundtrack", "ambient", "classical"},
		Instrumentation: "strings",
		Description:     "Cinematic textures and orchestral flourishes for expansive legs.",
	},
	{
		ID: "indie", Name: "Indie craft",
		Genres:          []string{"indie", "alternative", "rock"},
		Instrumentation: "strings",
		Description:     "Thoughtful indie/alt cuts that favor lyricism and depth.",
	},
	{
		ID: "serene", Name: "Serene journeys",
		Genres:          []string{"ambient", "classical", "chill"},
		Instrumentation: "pads",
		Description:     "Ambient, neo-classical, and minimalist textures for reflective stretches.",
	},
	{
		ID: "playful", Name: "Playful family",
		Genres:          []string{"pop", "dance", "funk"},
		Instrumentation: "percussion",
		Description:     "Clean, upbeat pop/world songs ready for family-friendly rides.",
	},
}

// ClusterByID looks a cluster up by id, or nil.
func ClusterByID(id string) *Cluster {
	for i := range Clusters {
		if Clusters[i].ID == id {
			return &Clusters[i]
		}
	}
	return nil
}

// RegionGenres maps preferred-region substrings to seed genres
var RegionGenres = map[string][]string{
	"Alps":                         {"folk", "classical"},
	"Lake Geneva":                  {"acoustic", "chill"},
	"Italian-speaking Switzerland": {"latin", "dance"},
	"Urban":                        {"electronic", "dance"},
	"Surprise":                     {"world", "reggae"},
}

// GenresForRegion matches a preferred region against the region-genre table
// by substring, so "Bernese Alps" picks up the Alps genres.
func GenresForRegion(region string) []string {
	if genres, ok := RegionGenres[region]; ok {
		return genres
	}
	for key, genres := range RegionGenres {
		if strings.Contains(region, key) {
			return genres
		}
	}
	return nil
}

// InstrumentationGenreHints maps a texture cue to reinforcing seed genres
var InstrumentationGenreHints = map[models.Instrumentation][]string{
	models.InstrumentationPercussion: {"dance", "pop"},
	models.InstrumentationStrings:    {"classical", "soundtrack"},
	models.InstrumentationAcoustic:   {"acoustic", "folk"},
	models.InstrumentationPads:       {"ambient", "chill"},
	models.InstrumentationPlayful:    {"pop", "funk"},
}

// languageKeywords are small per-language hint lists used by the language-fit
// guardrail. A track passes when any keyword appears in its title or artist
// names; unknown preferences never fail the check.
var languageKeywords = map[string][]string{
	"english": {"the", "you", "love", "night", "heart", "home", "road", "light", "city", "dream"},
	"french":  {"le", "la", "les", "amour", "nuit", "bonjour", "gare", "coeur", "voix", "soleil"},
	"german":  {"der", "die", "das", "und", "liebe", "nacht", "herz", "zug", "heimat", "licht"},
	"italian": {"il", "la", "amore", "notte", "cuore", "sole", "vita", "treno", "strada", "bella"},
}

// languageAliases maps ISO 639-1 codes onto the keyword table, since trip
// preferred languages arrive as codes.
var languageAliases = map[string]string{
	"en": "english",
	"fr": "french",
	"de": "german",
	"it": "italian",
}

// LanguageKeywords returns the hint list for a (lower-cased) language
// preference or ISO code, or nil when the language is unknown.
func LanguageKeywords(language string) []string {
	key := strings.ToLower(language)
	if alias, ok := languageAliases[key]; ok {
		key = alias
	}
	return languageKeywords[key]
}
