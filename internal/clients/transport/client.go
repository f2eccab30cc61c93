// Package transport wraps the public timetable API used to resolve a shared
// rail link into concrete journey sections.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://transport.opendata.ch/v1/connections"

const userAgent = "RynnoParser/1.0"

// ConnectionQuery identifies one journey lookup
type ConnectionQuery struct {
	From      string
	To        string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	JourneyID string
}

// Stop is a departure or arrival point of a section
type Stop struct {
	Station   StationRef `json:"station"`
	Departure string     `json:"departure"`
	Arrival   string     `json:"arrival"`
	Platform  string     `json:"platform"`
	Delay     int        `json:"delay"`
	Prognosis *Prognosis `json:"prognosis"`
}

// StationRef names a station
type StationRef struct {
	Name string `json:"name"`
}

// Prognosis is the realtime estimate attached to a stop
type Prognosis struct {
	Platform  string `json:"platform"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Delay     int    `json:"delay"`
}

// Journey describes the vehicle operating a section
type Journey struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Walk marks a section covered on foot
type Walk struct {
	Duration int `json:"duration"`
}

// Section is one segment of a connection
type Section struct {
	Departure Stop     `json:"departure"`
	Arrival   Stop     `json:"arrival"`
	Journey   *Journey `json:"journey"`
	Walk      *Walk    `json:"walk"`
	Distance  float64  `json:"distance"`
}

// Connection is one candidate journey between two stations
type Connection struct {
	Sections []Section `json:"sections"`
}

type connectionsResponse struct {
	Connections []Connection `json:"connections"`
}

// Client looks up journey connections. The normalizer depends on this
// interface so tests can inject fakes.
type Client interface {
	GetConnection(ctx context.Context, query ConnectionQuery) (*Connection, error)
}

// HTTPClient is the live timetable API client
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a timetable client with a bounded per-call timeout.
func NewClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetConnection fetches the first candidate connection for a query, or nil
// when the timetable has none.
func (c *HTTPClient) GetConnection(ctx context.Context, query ConnectionQuery) (*Connection, error) {
	params := url.Values{}
	params.Set("from", query.From)
	params.Set("to", query.To)
	params.Set("date", query.Date)
	params.Set("time", query.Time)
	params.Set("limit", "3")
	if query.JourneyID != "" {
		params.Set("journey", query.JourneyID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "transport: build request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "transport: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, eris.Errorf("transport: API failure (%d): %s", resp.StatusCode, string(body))
	}

	var payload connectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "transport: decode response")
	}
	if len(payload.Connections) == 0 {
		return nil, nil
	}
	return &payload.Connections[0], nil
}
