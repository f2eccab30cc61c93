package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rynno/rynno-backend-go/internal/models"
)

// TripRepository handles database operations for trip entries
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Save upserts a trip entry. A refresh stores a brand-new canonical trip
// under the same id.
func (r *TripRepository) Save(entry *models.TripEntry) error {
	canonical, err := marshalNullable(entry.Canonical)
	if err != nil {
		return eris.Wrap(err, "encode canonical trip")
	}
	rawPayload, err := marshalNullable(entry.RawPayload)
	if err != nil {
		return eris.Wrap(err, "encode raw payload")
	}
	hints, err := json.Marshal(entry.Hints)
	if err != nil {
		return eris.Wrap(err, "encode hints")
	}
	errors, err := json.Marshal(entry.Errors)
	if err != nil {
		return eris.Wrap(err, "encode errors")
	}

	var firstDeparture sql.NullString
	if entry.Canonical != nil && entry.Canonical.FirstDeparture != nil {
		firstDeparture = sql.NullString{String: entry.Canonical.FirstDeparture.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `INSERT INTO trips
		(trip_id, status, source, user_id, canonical_json, raw_payload_json, hints_json, errors_json, first_departure, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trip_id) DO UPDATE SET
			status = excluded.status,
			source = excluded.source,
			user_id = excluded.user_id,
			canonical_json = excluded.canonical_json,
			raw_payload_json = excluded.raw_payload_json,
			hints_json = excluded.hints_json,
			errors_json = excluded.errors_json,
			first_departure = excluded.first_departure,
			last_updated = excluded.last_updated`

	_, err = r.db.Exec(query,
		entry.TripID, entry.Status, string(entry.Source), entry.Hints.UserID,
		canonical, rawPayload, string(hints), string(errors),
		firstDeparture, entry.LastUpdated.UTC().Format(time.RFC3339))
	if err != nil {
		return eris.Wrap(err, "save trip entry")
	}
	return nil
}

// GetByID retrieves a trip entry, or nil when absent.
func (r *TripRepository) GetByID(tripID string) (*models.TripEntry, error) {
	query := `SELECT trip_id, status, source, canonical_json, raw_payload_json, hints_json, errors_json, last_updated
		FROM trips WHERE trip_id = ?`

	var entry models.TripEntry
	var source, lastUpdated string
	var canonical, rawPayload, hints, errorsJSON sql.NullString

	err := r.db.QueryRow(query, tripID).Scan(
		&entry.TripID, &entry.Status, &source,
		&canonical, &rawPayload, &hints, &errorsJSON, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "get trip entry")
	}

	entry.Source = models.TripSource(source)
	if parsed, err := time.Parse(time.RFC3339, lastUpdated); err == nil {
		entry.LastUpdated = parsed
	}
	if canonical.Valid && canonical.String != "" {
		if err := json.Unmarshal([]byte(canonical.String), &entry.Canonical); err != nil {
			return nil, eris.Wrap(err, "decode canonical trip")
		}
	}
	if rawPayload.Valid && rawPayload.String != "" {
		if err := json.Unmarshal([]byte(rawPayload.String), &entry.RawPayload); err != nil {
			return nil, eris.Wrap(err, "decode raw payload")
		}
	}
	if hints.Valid && hints.String != "" {
		if err := json.Unmarshal([]byte(hints.String), &entry.Hints); err != nil {
			return nil, eris.Wrap(err, "decode hints")
		}
	}
	if errorsJSON.Valid && errorsJSON.String != "" {
		if err := json.Unmarshal([]byte(errorsJSON.String), &entry.Errors); err != nil {
			return nil, eris.Wrap(err, "decode errors")
		}
	}

	return &entry, nil
}

// ListUpcoming returns complete trips departing within the horizon, for the
// delay refresh loop.
func (r *TripRepository) ListUpcoming(now time.Time, horizon time.Duration, limit int) ([]models.TripEntry, error) {
	if limit < 1 {
		limit = 20
	}

	query := `SELECT trip_id FROM trips
		WHERE status = ? AND first_departure IS NOT NULL
			AND first_departure >= ? AND first_departure <= ?
		ORDER BY first_departure ASC LIMIT ?`

	rows, err := r.db.Query(query, models.TripStatusComplete,
		now.UTC().Format(time.RFC3339), now.Add(horizon).UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, eris.Wrap(err, "list upcoming trips")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "scan trip id")
		}
		ids = append(ids, id)
	}

	var entries []models.TripEntry
	for _, id := range ids {
		entry, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func marshalNullable(value any) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}
