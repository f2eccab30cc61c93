// Package spotify is the Spotify Web API client used by playlist generation
// and the OAuth flow.
package spotify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	accountsBase = "https://accounts.spotify.com/api"
	apiBase      = "https://api.spotify.com/v1"

	// audio-features accepts at most 100 ids per request
	featureBatchSize = 100
)

// Client is the Spotify surface the rest of the backend depends on
type Client interface {
	ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	GetUserProfile(ctx context.Context, accessToken string) (*UserProfile, error)
	GetRecommendations(ctx context.Context, accessToken string, params RecommendationParams) ([]Track, error)
	GetAudioFeatures(ctx context.Context, accessToken string, trackIDs []string) ([]AudioFeature, error)
	CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, public bool) (*Playlist, error)
	AddTracksToPlaylist(ctx context.Context, accessToken, playlistID string, uris []string) error
}

// HTTPClient is the live Web API client
type HTTPClient struct {
	clientID     string
	clientSecret string
	accountsBase string
	apiBase      string
	http         *http.Client
}

// NewClient creates a Spotify client. clientID/clientSecret are only needed
// for the token endpoints.
func NewClient(clientID, clientSecret string) *HTTPClient {
	return &HTTPClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		accountsBase: accountsBase,
		apiBase:      apiBase,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBase overrides the API endpoints, used by tests.
func NewClientWithBase(clientID, clientSecret, accounts, api string) *HTTPClient {
	c := NewClient(clientID, clientSecret)
	if accounts != "" {
		c.accountsBase = accounts
	}
	if api != "" {
		c.apiBase = api
	}
	return c
}

func (c *HTTPClient) basicAuth() (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", eris.New("spotify: missing client ID / secret for token flow")
	}
	return base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret)), nil
}

func (c *HTTPClient) tokenRequest(ctx context.Context, form url.Values) (*TokenResponse, error) {
	auth, err := c.basicAuth()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsBase+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "spotify: build token request")
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token TokenResponse
	if err := c.do(req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// ExchangeAuthorizationCode completes the authorization-code grant.
func (c *HTTPClient) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return c.tokenRequest(ctx, form)
}

// RefreshAccessToken trades a refresh token for a fresh access token.
func (c *HTTPClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

// GetUserProfile fetches the authenticated user.
func (c *HTTPClient) GetUserProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := c.apiRequest(ctx, http.MethodGet, "/me", accessToken, nil)
	if err != nil {
		return nil, err
	}
	var profile UserProfile
	if err := c.do(req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetRecommendations queries the recommendation endpoint with the given
// seed genres and audio-feature targets.
func (c *HTTPClient) GetRecommendations(ctx context.Context, accessToken string, params RecommendationParams) ([]Track, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", params.Limit))
	query.Set("seed_genres", strings.Join(params.SeedGenres, ","))
	setFloat(query, "target_energy", params.TargetEnergy)
	setFloat(query, "target_valence", params.TargetValence)
	setFloat(query, "target_danceability", params.TargetDanceability)
	setFloat(query, "target_acousticness", params.TargetAcousticness)
	setFloat(query, "target_instrumentalness", params.TargetInstrumentalness)
	setFloat(query, "min_energy", params.MinEnergy)
	setFloat(query, "max_energy", params.MaxEnergy)

	req, err := c.apiRequest(ctx, http.MethodGet, "/recommendations?"+query.Encode(), accessToken, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	return payload.Tracks, nil
}

// GetAudioFeatures batch-fetches audio features, filtering null entries.
func (c *HTTPClient) GetAudioFeatures(ctx context.Context, accessToken string, trackIDs []string) ([]AudioFeature, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	var features []AudioFeature
	for start := 0; start < len(trackIDs); start += featureBatchSize {
		end := start + featureBatchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		query := url.Values{}
		query.Set("ids", strings.Join(trackIDs[start:end], ","))
		req, err := c.apiRequest(ctx, http.MethodGet, "/audio-features?"+query.Encode(), accessToken, nil)
		if err != nil {
			return nil, err
		}

		var payload struct {
			AudioFeatures []*AudioFeature `json:"audio_features"`
		}
		if err := c.do(req, &payload); err != nil {
			return nil, err
		}
		for _, feature := range payload.AudioFeatures {
			if feature != nil {
				features = append(features, *feature)
			}
		}
	}
	return features, nil
}

// CreatePlaylist creates an empty playlist for a user.
func (c *HTTPClient) CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, public bool) (*Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}
	req, err := c.apiRequest(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/playlists", accessToken, body)
	if err != nil {
		return nil, err
	}
	var playlist Playlist
	if err := c.do(req, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracksToPlaylist appends track URIs to a playlist. A no-op for an
// empty list.
func (c *HTTPClient) AddTracksToPlaylist(ctx context.Context, accessToken, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	req, err := c.apiRequest(ctx, http.MethodPost, "/playlists/"+url.PathEscape(playlistID)+"/tracks", accessToken, map[string]any{"uris": uris})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *HTTPClient) apiRequest(ctx context.Context, method, path, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, eris.Wrap(err, "spotify: encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "spotify: build request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "spotify: %s %s failed", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return eris.Errorf("spotify: %s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "spotify: decode response")
	}
	return nil
}

func setFloat(query url.Values, key string, value *float64) {
	if value != nil {
		query.Set(key, fmt.Sprintf("%.2f", *value))
	}
}
