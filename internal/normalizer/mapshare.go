package normalizer

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"

	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

// earthRadiusMeters for great-circle distance estimates
const earthRadiusMeters = 6371000.0

type mapShareQuery struct {
	Origin        string
	Destination   string
	TravelMode    string
	DepartureTime *time.Time
	Waypoints     []string
}

// parseMapShareURL extracts origin/destination/travel-mode/departure and
// waypoints from a mapping-service share link.
func parseMapShareURL(shareURL string) (*mapShareQuery, error) {
	if shareURL == "" {
		return nil, &MalformedInputError{Reason: "map share URL is required for the map adapter"}
	}

	parsed, err := url.Parse(shareURL)
	if err != nil {
		return nil, &MalformedInputError{Reason: "map share URL could not be parsed"}
	}
	query := parsed.Query()

	travelMode := strings.ToLower(firstQueryValue(query, "travelmode", "mode"))
	if travelMode == "" {
		travelMode = "transit"
	}

	var departure *time.Time
	if epoch := firstQueryValue(query, "departure_time", "depart"); epoch != "" {
		if seconds, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			at := time.Unix(seconds, 0).UTC()
			departure = &at
		}
	}

	var waypoints []string
	for _, item := range strings.Split(query.Get("waypoints"), "|") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			waypoints = append(waypoints, trimmed)
		}
	}

	return &mapShareQuery{
		Origin:        firstQueryValue(query, "origin", "saddr"),
		Destination:   firstQueryValue(query, "destination", "daddr"),
		TravelMode:    travelMode,
		DepartureTime: departure,
		Waypoints:     waypoints,
	}, nil
}

// runMapAdapter builds exactly one synthetic leg from a map share link,
// since such links carry no segment-level detail. The waypoint count is
// recorded for the downstream confidence penalty.
func runMapAdapter(tripID string, payload *models.TripPayload, hints models.IngestHints) (*models.CanonicalTrip, error) {
	parsed, err := parseMapShareURL(sharedURL(payload))
	if err != nil {
		return nil, err
	}
	if parsed.Origin == "" || parsed.Destination == "" {
		return nil, &MalformedInputError{
			Reason:        "map link lacks origin or destination",
			MissingFields: missingMapFields(parsed),
		}
	}

	departure := parsed.DepartureTime
	if departure == nil {
		now := time.Now().UTC()
		departure = &now
	}

	durationMinutes := hints.DurationMinutes
	if durationMinutes <= 0 {
		if parsed.TravelMode == "walking" {
			durationMinutes = 35
		} else {
			durationMinutes = 70
		}
	}
	arrival := departure.Add(time.Duration(durationMinutes) * time.Minute)

	distance := hints.DistanceMeters
	if distance <= 0 {
		distance = coordinateDistance(parsed.Origin, parsed.Destination)
	}

	leg := models.TripLeg{
		Index:            0,
		Mode:             lexicon.NormalizeMode(parsed.TravelMode),
		DepartureTime:    departure,
		ArrivalTime:      &arrival,
		DurationSeconds:  int64(durationMinutes) * 60,
		DepartureStation: parsed.Origin,
		ArrivalStation:   parsed.Destination,
		ServiceName:      "Map share " + parsed.TravelMode,
		EnergyCue:        lexicon.EnergyCueFor(parsed.TravelMode),
		DistanceMeters:   distance,
		Prognosis:        models.Prognosis{Source: "map-share-link"},
	}

	return buildCanonicalTrip(canonicalInput{
		TripID:         tripID,
		Source:         models.SourceMap,
		Legs:           []models.TripLeg{leg},
		Hints:          hints,
		RawPayload:     payload,
		Confidence:     mapConfidence,
		FallbackReason: "map-share-summary",
		WaypointCount:  len(parsed.Waypoints),
		Waypoints:      parsed.Waypoints,
	}), nil
}

func missingMapFields(parsed *mapShareQuery) []string {
	var missing []string
	if parsed.Origin == "" {
		missing = append(missing, "origin")
	}
	if parsed.Destination == "" {
		missing = append(missing, "destination")
	}
	return missing
}

// coordinateDistance estimates the great-circle distance in meters when both
// endpoints are "lat,lng" pairs, as mapping links often carry. Returns 0 for
// named places.
func coordinateDistance(origin, destination string) float64 {
	from, ok := parseLatLng(origin)
	if !ok {
		return 0
	}
	to, ok := parseLatLng(destination)
	if !ok {
		return 0
	}
	return from.Distance(to).Radians() * earthRadiusMeters
}

func parseLatLng(value string) (s2.LatLng, bool) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return s2.LatLng{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return s2.LatLng{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return s2.LatLng{}, false
	}
	ll := s2.LatLngFromDegrees(lat, lng)
	if !ll.IsValid() {
		return s2.LatLng{}, false
	}
	return ll, true
}
