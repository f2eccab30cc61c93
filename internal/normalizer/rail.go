package normalizer

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/clients/transport"
	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const journeyLookupTimeout = 10 * time.Second

type railShareQuery struct {
	From      string
	To        string
	Date      string
	Time      string
	JourneyID string
}

// parseRailShareURL extracts the journey query from a rail share link,
// supporting both localized and English parameter names.
func parseRailShareURL(shareURL string) (*railShareQuery, error) {
	if shareURL == "" {
		return nil, &MalformedInputError{Reason: "rail share URL is required for the rail adapter"}
	}

	parsed, err := url.Parse(shareURL)
	if err != nil {
		return nil, &MalformedInputError{Reason: "rail share URL could not be parsed"}
	}
	query := parsed.Query()

	return &railShareQuery{
		From:      firstQueryValue(query, "von", "from", "fromStation"),
		To:        firstQueryValue(query, "nach", "to", "toStation"),
		Date:      query.Get("date"),
		Time:      query.Get("time"),
		JourneyID: firstQueryValue(query, "journeyId", "journey"),
	}, nil
}

// runRailAdapter resolves a rail share link through the journey-lookup
// collaborator. A failed or empty lookup degrades to a single synthetic leg
// with the fallback reason recorded; this is the only place an upstream
// infrastructure error is absorbed rather than propagated.
func (n *Normalizer) runRailAdapter(ctx context.Context, tripID string, payload *models.TripPayload, hints models.IngestHints) (*models.CanonicalTrip, error) {
	parsed, err := parseRailShareURL(sharedURL(payload))
	if err != nil {
		return nil, err
	}
	if parsed.From == "" || parsed.To == "" || parsed.Date == "" {
		return nil, &MalformedInputError{
			Reason:        "share link lacks required origin/destination/date information",
			MissingFields: missingRailFields(parsed),
		}
	}

	lookupTime := parsed.Time
	if lookupTime == "" {
		lookupTime = "00:00"
	}

	var legs []models.TripLeg
	fallbackReason := ""

	lookupCtx, cancel := context.WithTimeout(ctx, journeyLookupTimeout)
	defer cancel()

	connection, err := n.journeys.GetConnection(lookupCtx, transport.ConnectionQuery{
		From:      parsed.From,
		To:        parsed.To,
		Date:      parsed.Date,
		Time:      lookupTime,
		JourneyID: parsed.JourneyID,
	})
	switch {
	case err != nil:
		fallbackReason = "transport-api-error: " + eris.Cause(err).Error()
		logger().Warn("journey lookup failed, using synthetic leg",
			zap.String("trip_id", tripID), zap.Error(err))
	case connection == nil:
		fallbackReason = "transport-api-empty"
	default:
		legs = legsFromConnection(connection)
	}

	if len(legs) == 0 {
		if fallbackReason == "" {
			fallbackReason = "transport-api-empty"
		}
		departure := normalizeDateTime(parsed.Date, parsed.Time)
		leg := createFallbackLeg(parsed.From, parsed.To, departure, hints)
		legs = append(legs, leg)
	}

	return buildCanonicalTrip(canonicalInput{
		TripID:         tripID,
		Source:         models.SourceRail,
		Legs:           legs,
		Hints:          hints,
		RawPayload:     payload,
		Confidence:     railConfidence,
		FallbackReason: fallbackReason,
	}), nil
}

func missingRailFields(parsed *railShareQuery) []string {
	var missing []string
	if parsed.From == "" {
		missing = append(missing, "from")
	}
	if parsed.To == "" {
		missing = append(missing, "to")
	}
	if parsed.Date == "" {
		missing = append(missing, "date")
	}
	return missing
}

// legsFromConnection converts timetable sections into trip legs, discarding
// any section without both timestamps.
func legsFromConnection(connection *transport.Connection) []models.TripLeg {
	var legs []models.TripLeg
	for i, section := range connection.Sections {
		leg := legFromSection(section, i)
		if leg.DepartureTime == nil || leg.ArrivalTime == nil {
			continue
		}
		legs = append(legs, leg)
	}
	return legs
}

func legFromSection(section transport.Section, index int) models.TripLeg {
	departure := parseTimetableTime(section.Departure.Departure)
	arrival := parseTimetableTime(section.Arrival.Arrival)

	var duration int64
	if departure != nil && arrival != nil {
		duration = int64(arrival.Sub(*departure) / time.Second)
		if duration < 0 {
			duration = 0
		}
	}

	platform := section.Departure.Platform
	if platform == "" && section.Departure.Prognosis != nil {
		platform = section.Departure.Prognosis.Platform
	}

	delay := section.Departure.Delay
	if delay == 0 && section.Departure.Prognosis != nil {
		delay = section.Departure.Prognosis.Delay
	}

	return models.TripLeg{
		Index:            index,
		Mode:             sectionMode(section),
		DepartureTime:    departure,
		ArrivalTime:      arrival,
		DurationSeconds:  duration,
		DepartureStation: section.Departure.Station.Name,
		ArrivalStation:   section.Arrival.Station.Name,
		Platform:         platform,
		ServiceName:      sectionServiceName(section),
		EnergyCue:        sectionEnergyCue(section),
		DistanceMeters:   section.Distance,
		Prognosis: models.Prognosis{
			DelaySeconds: delay,
			Source:       "timetable",
		},
	}
}

func sectionMode(section transport.Section) models.TransportMode {
	if section.Walk != nil {
		return models.ModeWalk
	}
	if section.Journey != nil {
		return lexicon.NormalizeMode(section.Journey.Category)
	}
	return models.ModeTrain
}

func sectionServiceName(section transport.Section) string {
	if section.Journey != nil && section.Journey.Name != "" {
		return section.Journey.Name
	}
	if section.Walk != nil {
		return "Walk"
	}
	return "Transfer"
}

func sectionEnergyCue(section transport.Section) models.EnergyCue {
	if section.Walk != nil {
		return models.EnergyCalm
	}
	if section.Journey != nil && section.Journey.Category != "" {
		return lexicon.EnergyCueFor(section.Journey.Category)
	}
	if section.Journey != nil {
		name := strings.ToLower(section.Journey.Name)
		if strings.Contains(name, "bus") || strings.Contains(name, "tram") {
			return models.EnergyCalm
		}
	}
	return models.EnergyMedium
}

// parseTimetableTime accepts both RFC3339 and the timetable API's
// zone-without-colon variant.
func parseTimetableTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
