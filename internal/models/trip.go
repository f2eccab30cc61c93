package models

import "time"

// TripSource identifies which adapter produced a canonical trip
type TripSource string

// TripSource constants
const (
	SourceRail   TripSource = "rail"
	SourceMap    TripSource = "map"
	SourceManual TripSource = "manual"
	SourceShared TripSource = "shared" // re-classified by URL host before adapting
)

// TransportMode is the normalized mode of a trip leg
type TransportMode string

// TransportMode constants
const (
	ModeTrain   TransportMode = "train"
	ModeSBahn   TransportMode = "s-bahn"
	ModeTram    TransportMode = "tram"
	ModeBus     TransportMode = "bus"
	ModeWalk    TransportMode = "walk"
	ModeDrive   TransportMode = "drive"
	ModeBike    TransportMode = "bike"
	ModeFerry   TransportMode = "ferry"
	ModeUnknown TransportMode = "unknown"
)

// EnergyCue is a coarse musical-energy hint derived from the transport category
type EnergyCue string

// EnergyCue constants
const (
	EnergyCalm   EnergyCue = "calm"
	EnergyMedium EnergyCue = "medium"
	EnergyHigh   EnergyCue = "high"
)

// Prognosis carries per-leg delay info and where it came from
type Prognosis struct {
	DelaySeconds int    `json:"delaySeconds"`
	Source       string `json:"source,omitempty"` // timetable, fallback, map-share-link
}

// TripLeg is one journey segment. Legs are immutable once constructed and
// owned by the CanonicalTrip that contains them.
type TripLeg struct {
	Index           int           `json:"index"`
	Mode            TransportMode `json:"mode"`
	DepartureTime   *time.Time    `json:"departureTime"`
	ArrivalTime     *time.Time    `json:"arrivalTime"`
	DurationSeconds int64         `json:"durationSeconds"` // 0 when unknown
	DepartureStation string       `json:"departureStation,omitempty"`
	ArrivalStation  string        `json:"arrivalStation,omitempty"`
	Platform        string        `json:"platform,omitempty"`
	ServiceName     string        `json:"serviceName,omitempty"`
	EnergyCue       EnergyCue     `json:"energyCue"`
	DistanceMeters  float64       `json:"distanceMeters,omitempty"`
	Prognosis       Prognosis     `json:"prognosis"`
}

// DelayInfo is a non-zero delay observed on one leg
type DelayInfo struct {
	Index        int `json:"index"`
	DelaySeconds int `json:"delaySeconds"`
}

// ManualReviewThreshold is the confidence score below which a trip needs
// user confirmation before playlist generation.
const ManualReviewThreshold = 70

// ValidationReport scores a canonical trip by applying deductions to the
// adapter's starting confidence.
type ValidationReport struct {
	Score             int      `json:"score"`
	Threshold         int      `json:"threshold"`
	NeedsManualReview bool     `json:"needsManualReview"`
	Issues            []string `json:"issues"`   // blocking
	Warnings          []string `json:"warnings"` // non-blocking
}

// TripMetadata is the free-form metadata attached to a canonical trip
type TripMetadata struct {
	Fallback      string         `json:"fallback,omitempty"`
	RawPayload    *TripPayload   `json:"rawPayload,omitempty"`
	ParserVersion string         `json:"parserVersion"`
	WaypointCount int            `json:"waypointCount,omitempty"`
	Waypoints     []string       `json:"waypoints,omitempty"`
	UserID        string         `json:"userId,omitempty"`
}

// CanonicalTrip is the normalized, source-agnostic trip representation.
// It is immutable after construction; a refresh produces a brand-new value.
type CanonicalTrip struct {
	TripID               string             `json:"tripId"`
	Source               TripSource         `json:"source"`
	Locale               string             `json:"locale"`
	PreferredLanguages   []string           `json:"preferredLanguages"`
	PreferredRegions     []string           `json:"preferredRegions"`
	Tags                 []string           `json:"tags"`
	Legs                 []TripLeg          `json:"legs"` // sorted ascending by departure time
	TotalDurationSeconds int64              `json:"totalDurationSeconds"`
	DistanceMeters       float64            `json:"distanceMeters"`
	FirstDeparture       *time.Time         `json:"firstDeparture"`
	FinalArrival         *time.Time         `json:"finalArrival"`
	DelayInfo            []DelayInfo        `json:"delayInfo"`
	ConfidenceScore      int                `json:"confidenceScore"` // always [0,100], equals Validation.Score
	Validation           ValidationReport   `json:"validation"`
	Metadata             TripMetadata       `json:"metadata"`
}

// TripPayload is the raw ingest payload handed to the normalizer
type TripPayload struct {
	Source     string `json:"source,omitempty"`
	URL        string `json:"url,omitempty"`
	SharedURL  string `json:"sharedUrl,omitempty"`
	SharedText string `json:"sharedText,omitempty"`
	Text       string `json:"text,omitempty"`

	// Manual fields
	From            string  `json:"from,omitempty"`
	To              string  `json:"to,omitempty"`
	Date            string  `json:"date,omitempty"`
	Time            string  `json:"time,omitempty"`
	Mode            string  `json:"mode,omitempty"`
	DurationMinutes int     `json:"durationMinutes,omitempty"`
	DistanceMeters  float64 `json:"distanceMeters,omitempty"`
	EnergyCue       string  `json:"energyCue,omitempty"`
	ServiceName     string  `json:"serviceName,omitempty"`
}

// IngestHints is caller-supplied metadata that shapes normalization
type IngestHints struct {
	UserID             string   `json:"userId,omitempty"`
	Locale             string   `json:"locale,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	PreferredRegions   []string `json:"preferredRegions,omitempty"`
	PreferredLanguages []string `json:"preferredLanguages,omitempty"`
	DurationMinutes    int      `json:"durationMinutes,omitempty"`
	Mode               string   `json:"mode,omitempty"`
	DistanceMeters     float64  `json:"distanceMeters,omitempty"`
	EnergyCue          string   `json:"energyCue,omitempty"`
}

// TripEntry is the stored wrapper around a canonical trip
type TripEntry struct {
	TripID      string         `json:"tripId"`
	Status      string         `json:"status"` // complete, error
	Canonical   *CanonicalTrip `json:"canonical"`
	RawPayload  *TripPayload   `json:"rawPayload,omitempty"`
	Source      TripSource     `json:"source"`
	Hints       IngestHints    `json:"metadata"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Errors      []string       `json:"errors,omitempty"`
}

// TripEntry status constants
const (
	TripStatusComplete = "complete"
	TripStatusError    = "error"
)
