package normalizer

import (
	"strings"

	"github.com/rynno/rynno-backend-go/internal/models"
)

// runManualAdapter accepts a hand-entered trip. Manual entries always yield a
// single synthetic leg; payload overrides beat ingest hints for duration,
// mode, distance and energy.
func runManualAdapter(tripID string, payload *models.TripPayload, hints models.IngestHints) (*models.CanonicalTrip, error) {
	if payload == nil {
		return nil, &MalformedInputError{
			Reason:        "manual entry requires a payload",
			MissingFields: []string{"from", "to", "date", "time"},
		}
	}

	var missing []string
	if payload.From == "" {
		missing = append(missing, "from")
	}
	if payload.To == "" {
		missing = append(missing, "to")
	}
	if payload.Date == "" {
		missing = append(missing, "date")
	}
	if payload.Time == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{
			Reason:        "manual entry is incomplete",
			MissingFields: missing,
		}
	}

	departure := normalizeDateTime(payload.Date, payload.Time)
	if departure == nil {
		return nil, &MalformedInputError{Reason: "manual entry has an unparseable date or time"}
	}

	merged := hints
	if payload.DurationMinutes > 0 {
		merged.DurationMinutes = payload.DurationMinutes
	}
	if payload.Mode != "" {
		merged.Mode = payload.Mode
	}
	if payload.DistanceMeters > 0 {
		merged.DistanceMeters = payload.DistanceMeters
	}
	if payload.EnergyCue != "" {
		merged.EnergyCue = payload.EnergyCue
	}

	leg := createFallbackLeg(payload.From, payload.To, departure, merged)
	if payload.ServiceName != "" {
		leg.ServiceName = payload.ServiceName
	} else {
		leg.ServiceName = "Manual " + strings.ToLower(string(leg.Mode))
	}

	return buildCanonicalTrip(canonicalInput{
		TripID:         tripID,
		Source:         models.SourceManual,
		Legs:           []models.TripLeg{leg},
		Hints:          hints,
		RawPayload:     payload,
		Confidence:     manualConfidence,
		FallbackReason: "manual-estimate",
	}), nil
}
