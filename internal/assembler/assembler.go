// Package assembler drives the guardrail retry loop: fetch candidates per
// recommendation plan, score them against the rhythm profile, adjust and
// retry on quality failures, then weave region surprises and create the
// playlist.
package assembler

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/models"
)

const maxGuardrailAttempts = 3

// Assembler turns a profile plus seed context into a created playlist
type Assembler struct {
	spotify spotify.Client
	log     *zap.Logger
}

// New creates an assembler backed by the given Spotify client.
func New(client spotify.Client) *Assembler {
	return &Assembler{spotify: client, log: zap.L().Named("assembler")}
}

// Input carries everything one generation call needs. Profile and Seeds are
// taken by value: the retry loop threads adjusted copies and never touches
// the caller's originals.
type Input struct {
	Trip        *models.CanonicalTrip
	Profile     models.RhythmProfile
	Seeds       models.SeedContext
	AccessToken string
	UserID      string
	DisplayName string
}

// Generate runs the guardrail loop and, on pass, creates the playlist and
// adds the curated tracks. Infrastructure errors abort immediately; only
// quality failures drive the internal retries.
func (a *Assembler) Generate(ctx context.Context, input Input) (*models.PlaylistResult, error) {
	if input.Trip == nil {
		return nil, eris.New("assembler: trip data is required to build a playlist")
	}

	profile := input.Profile
	seeds := input.Seeds

	var attempts []models.GuardrailResult
	var passed []spotify.Track

	for attempt := 1; attempt <= maxGuardrailAttempts; attempt++ {
		tracks, err := a.fetchCandidates(ctx, input.AccessToken, &profile, &seeds, attempt)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(tracks))
		for _, track := range tracks {
			if track.ID != "" {
				ids = append(ids, track.ID)
			}
		}
		features, err := a.spotify.GetAudioFeatures(ctx, input.AccessToken, ids)
		if err != nil {
			return nil, err
		}

		result := evaluateGuardrails(tracks, features, &profile)
		result.Attempt = attempt
		attempts = append(attempts, result)

		a.log.Info("guardrail attempt evaluated",
			zap.String("trip_id", input.Trip.TripID),
			zap.Int("attempt", attempt),
			zap.Bool("pass", result.Pass),
			zap.Int("track_count", result.TrackCount),
			zap.Strings("reasons", result.Reasons))

		if result.Pass {
			passed = tracks
			break
		}

		profile = adjustProfile(profile, result)
		seeds = adjustSeeds(seeds, result, profile)
	}

	if passed == nil {
		return nil, eris.Errorf(
			"assembler: unable to satisfy playlist guardrails for trip %s; try adding explicit tags or refreshing the mood hints",
			input.Trip.TripID)
	}

	curated, err := a.weaveRegionSurprises(ctx, input.AccessToken, passed, &profile, &seeds)
	if err != nil {
		return nil, err
	}

	playlist, err := a.spotify.CreatePlaylist(ctx, input.AccessToken, input.UserID, profile.PlaylistName, profile.PlaylistDescription, false)
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(curated))
	for _, entry := range curated {
		if entry.track.URI != "" {
			uris = append(uris, entry.track.URI)
		}
	}
	if err := a.spotify.AddTracksToPlaylist(ctx, input.AccessToken, playlist.ID, uris); err != nil {
		return nil, err
	}

	user := input.DisplayName
	if user == "" {
		user = input.UserID
	}

	return &models.PlaylistResult{
		PlaylistID:   playlist.ID,
		PlaylistURL:  playlist.ExternalURLs["spotify"],
		PlaylistName: playlist.Name,
		MoodProfile:  profile,
		Seeds: models.SeedSummary{
			Genres:   seeds.SeedGenres,
			Summary:  seeds.Summary,
			Clusters: seeds.SelectedClusters,
		},
		Tracks:            formatTracks(curated),
		GuardrailAttempts: attempts,
		SpotifyUser:       user,
	}, nil
}

// fetchCandidates issues the per-plan recommendation requests concurrently
// and merges the results in plan order. When every plan comes back empty it
// falls back to one plain request on the primary seed list.
func (a *Assembler) fetchCandidates(ctx context.Context, accessToken string, profile *models.RhythmProfile, seeds *models.SeedContext, attempt int) ([]spotify.Track, error) {
	plans := seeds.Plans
	if len(plans) == 0 {
		plans = []models.RecommendationPlan{{Weight: 1, SeedGenres: seeds.SeedGenres}}
	}

	groups := make([][]spotify.Track, len(plans))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		i := i
		params := buildRecommendationParams(profile, plan.SeedGenres, plan.Weight, attempt)
		eg.Go(func() error {
			tracks, err := a.spotify.GetRecommendations(egCtx, accessToken, params)
			if err != nil {
				return err
			}
			groups[i] = tracks
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := mergeUniqueTracks(groups...)
	if len(merged) > 0 {
		return merged, nil
	}

	params := buildRecommendationParams(profile, seeds.SeedGenres, 1, attempt)
	return a.spotify.GetRecommendations(ctx, accessToken, params)
}
