package assembler

import (
	"context"
	"math"

	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/models"
)

// candidate wraps a track with its surprise marker through curation
type candidate struct {
	track    spotify.Track
	surprise bool
}

// mergeUniqueTracks concatenates per-plan result lists, deduplicating by
// track id while preserving first-seen order across plans.
func mergeUniqueTracks(groups ...[]spotify.Track) []spotify.Track {
	seen := map[string]struct{}{}
	var merged []spotify.Track
	for _, group := range groups {
		for _, track := range group {
			if track.ID == "" {
				continue
			}
			if _, ok := seen[track.ID]; ok {
				continue
			}
			seen[track.ID] = struct{}{}
			merged = append(merged, track)
		}
	}
	return merged
}

// weaveRegionSurprises issues one extra recommendation request seeded with
// region-surprise genres and interleaves up to the budget count evenly
// through the trimmed list. An empty surprise fetch leaves the base list
// unchanged; a failed fetch aborts the generation like any other
// infrastructure error.
func (a *Assembler) weaveRegionSurprises(ctx context.Context, accessToken string, base []spotify.Track, profile *models.RhythmProfile, seeds *models.SeedContext) ([]candidate, error) {
	trimmed := trimCandidates(base, profile.PlaylistLength)
	if profile.RegionSurpriseBudget <= 0 {
		return trimmed, nil
	}

	limit := profile.RegionSurpriseBudget + 3
	if limit > 8 {
		limit = 8
	}
	params := spotify.RecommendationParams{
		Limit:        limit,
		SeedGenres:   seeds.RegionSurpriseGenres,
		TargetEnergy: round2p(profile.TargetEnergy),
	}

	fetched, err := a.spotify.GetRecommendations(ctx, accessToken, params)
	if err != nil {
		return nil, err
	}

	present := map[string]struct{}{}
	for _, entry := range base {
		present[entry.ID] = struct{}{}
	}

	var surprises []candidate
	for _, track := range fetched {
		if len(surprises) == profile.RegionSurpriseBudget {
			break
		}
		if _, ok := present[track.ID]; ok {
			continue
		}
		surprises = append(surprises, candidate{track: track, surprise: true})
	}
	if len(surprises) == 0 {
		return trimmed, nil
	}

	woven := trimmed
	for i, surprise := range surprises {
		at := int(math.Round(float64((i+1)*len(woven)) / float64(len(surprises)+1)))
		if at < 1 {
			at = 1
		}
		if at > len(woven)-1 {
			at = len(woven) - 1
		}
		if at < 0 {
			at = 0
		}
		woven = append(woven, candidate{})
		copy(woven[at+1:], woven[at:])
		woven[at] = surprise
	}

	if len(woven) > profile.PlaylistLength {
		woven = woven[:profile.PlaylistLength]
	}
	return woven, nil
}

func trimCandidates(tracks []spotify.Track, length int) []candidate {
	if len(tracks) > length {
		tracks = tracks[:length]
	}
	out := make([]candidate, len(tracks))
	for i, track := range tracks {
		out[i] = candidate{track: track}
	}
	return out
}

// formatTracks assigns final 1-based positions and flattens artist credits.
func formatTracks(curated []candidate) []models.PlaylistTrack {
	out := make([]models.PlaylistTrack, len(curated))
	for i, entry := range curated {
		artists := make([]string, len(entry.track.Artists))
		for j, artist := range entry.track.Artists {
			artists[j] = artist.Name
		}
		out[i] = models.PlaylistTrack{
			Position:       i + 1,
			ID:             entry.track.ID,
			Name:           entry.track.Name,
			Artists:        artists,
			Album:          entry.track.Album.Name,
			DurationMs:     entry.track.DurationMs,
			Explicit:       entry.track.Explicit,
			URI:            entry.track.URI,
			PreviewURL:     entry.track.PreviewURL,
			RegionSurprise: entry.surprise,
			ExternalURL:    entry.track.ExternalURLs["spotify"],
		}
	}
	return out
}
