package service

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/assembler"
	"github.com/rynno/rynno-backend-go/internal/models"
	"github.com/rynno/rynno-backend-go/internal/mood"
	"github.com/rynno/rynno-backend-go/internal/seeds"
)

// GenerateRequest carries one playlist-generation call
type GenerateRequest struct {
	TripID      string             `json:"tripId"`
	Preferences models.Preferences `json:"preferences"`
	UserID      string             `json:"userId"`
	AccessToken string             `json:"accessToken,omitempty"`
}

// PlaylistService runs the trip-to-playlist pipeline
type PlaylistService struct {
	trips     *TripService
	auth      *AuthService
	assembler *assembler.Assembler
	feedback  *FeedbackService
	log       *zap.Logger
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(trips *TripService, auth *AuthService, asm *assembler.Assembler, feedback *FeedbackService) *PlaylistService {
	return &PlaylistService{
		trips:     trips,
		auth:      auth,
		assembler: asm,
		feedback:  feedback,
		log:       zap.L().Named("playlists"),
	}
}

// Generate builds the rhythm profile and seed context for a stored trip and
// runs the guardrail assembler. An explicit access token in the request
// bypasses the stored-token lookup.
func (s *PlaylistService) Generate(ctx context.Context, req GenerateRequest) (*models.PlaylistResult, error) {
	entry, err := s.trips.Status(req.TripID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.TripStatusComplete || entry.Canonical == nil {
		return nil, eris.Errorf("trip %s has no usable canonical data; re-ingest it first", req.TripID)
	}

	profile := mood.BuildProfile(entry.Canonical, req.Preferences)
	seedContext := seeds.ChooseSeeds(profile, entry.Canonical)

	userID := req.UserID
	if userID == "" {
		userID = entry.Hints.UserID
	}

	accessToken := req.AccessToken
	var displayName string
	if accessToken == "" {
		if userID == "" {
			return nil, eris.New("playlists: a user id or access token is required")
		}
		accessToken, err = s.auth.AccessToken(ctx, userID)
		if err != nil {
			return nil, err
		}
		if connection, connErr := s.auth.Connection(userID); connErr == nil {
			displayName = connection.DisplayName
		}
	}

	result, err := s.assembler.Generate(ctx, assembler.Input{
		Trip:        entry.Canonical,
		Profile:     *profile,
		Seeds:       *seedContext,
		AccessToken: accessToken,
		UserID:      userID,
		DisplayName: displayName,
	})
	if err != nil {
		s.feedback.Record(models.FeedbackEvent{
			EventType: models.EventGuardrailFailure,
			TripID:    req.TripID,
			UserID:    userID,
			Outcome:   err.Error(),
		})
		return nil, err
	}

	s.feedback.Record(models.FeedbackEvent{
		EventType:  models.EventPlaylistRegenerated,
		TripID:     req.TripID,
		UserID:     userID,
		PlaylistID: result.PlaylistID,
		Context: map[string]any{
			"attempts":   len(result.GuardrailAttempts),
			"trackCount": len(result.Tracks),
		},
	})

	s.log.Info("playlist generated",
		zap.String("trip_id", req.TripID),
		zap.String("playlist_id", result.PlaylistID),
		zap.Int("attempts", len(result.GuardrailAttempts)))

	return result, nil
}
