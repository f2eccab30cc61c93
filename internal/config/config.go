package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration, loaded from environment variables
type Config struct {
	Port   string
	DBPath string

	JWTSecret     string
	StateTokenTTL time.Duration
	TokenKey      string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string

	TransportAPIBase string
	InternalAPIKey   string

	ReminderLeadMinutes   int
	RefreshHorizonMinutes int
	DelayThresholdSeconds int

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from the environment, with development defaults
// for everything except the Spotify credentials.
func Load() *Config {
	return &Config{
		Port:   envOr("PORT", ":8080"),
		DBPath: envOr("DB_PATH", "./data/rynno.db"),

		JWTSecret:     envOr("JWT_SECRET", "rynno-dev-state-secret-change-me"),
		StateTokenTTL: 10 * time.Minute,
		TokenKey:      envOr("TOKEN_ENCRYPTION_KEY", "rynno-dev-token-key-change-me"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  envOr("SPOTIFY_REDIRECT_URI", "http://localhost:8080/auth/spotify/callback"),

		TransportAPIBase: envOr("TRANSPORT_API_BASE", ""),
		InternalAPIKey:   envOr("INTERNAL_API_KEY", ""),

		ReminderLeadMinutes:   envInt("REMINDER_LEAD_MINUTES", 20),
		RefreshHorizonMinutes: envInt("REFRESH_HORIZON_MINUTES", 120),
		DelayThresholdSeconds: envInt("DELAY_THRESHOLD_SECONDS", 300),

		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Minute,
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
