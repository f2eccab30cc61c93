package normalizer

import "fmt"

// UnsupportedSourceError is returned for source tags no adapter handles
type UnsupportedSourceError struct {
	Source string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported source '%s'; supported sources: rail, map, manual, shared", e.Source)
}

// MalformedInputError is returned when required fields cannot be extracted
// from the raw payload.
type MalformedInputError struct {
	Reason        string
	MissingFields []string
}

func (e *MalformedInputError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s: missing %v", e.Reason, e.MissingFields)
	}
	return e.Reason
}
