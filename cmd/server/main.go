package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rynno/rynno-backend-go/internal/api"
	"github.com/rynno/rynno-backend-go/internal/assembler"
	"github.com/rynno/rynno-backend-go/internal/clients/spotify"
	"github.com/rynno/rynno-backend-go/internal/clients/transport"
	"github.com/rynno/rynno-backend-go/internal/config"
	"github.com/rynno/rynno-backend-go/internal/database"
	"github.com/rynno/rynno-backend-go/internal/handler"
	"github.com/rynno/rynno-backend-go/internal/normalizer"
	"github.com/rynno/rynno-backend-go/internal/repository"
	"github.com/rynno/rynno-backend-go/internal/service"
	"github.com/rynno/rynno-backend-go/internal/tokencrypto"
)

const refreshLoopInterval = 5 * time.Minute

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	db := database.GetDB()
	tripRepo := repository.NewTripRepository(db)
	oauthRepo := repository.NewOAuthRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	codec, err := tokencrypto.New(cfg.TokenKey)
	if err != nil {
		logger.Fatal("failed to initialize token codec", zap.Error(err))
	}

	journeys := transport.NewClient(cfg.TransportAPIBase)
	spotifyClient := spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)

	feedbackService := service.NewFeedbackService(feedbackRepo)
	tripService := service.NewTripService(normalizer.New(journeys), tripRepo, feedbackService)
	authService := service.NewAuthService(spotifyClient, oauthRepo, codec,
		cfg.JWTSecret, cfg.StateTokenTTL, cfg.SpotifyClientID, cfg.SpotifyRedirectURI)
	playlistService := service.NewPlaylistService(tripService, authService,
		assembler.New(spotifyClient), feedbackService)
	reminderService := service.NewReminderService(reminderRepo, tripService, feedbackService, nil,
		service.ReminderConfig{
			LeadMinutes:           cfg.ReminderLeadMinutes,
			RefreshHorizonMinutes: cfg.RefreshHorizonMinutes,
			DelayThresholdSeconds: cfg.DelayThresholdSeconds,
		})
	reminderService.SetRegenerator(func(ctx context.Context, tripID, userID string) error {
		_, err := playlistService.Generate(ctx, service.GenerateRequest{TripID: tripID, UserID: userID})
		return err
	})

	router := api.SetupRouter(cfg, api.Handlers{
		Trips:     handler.NewTripHandler(tripService),
		Playlists: handler.NewPlaylistHandler(playlistService),
		Auth:      handler.NewAuthHandler(authService),
		Reminders: handler.NewReminderHandler(reminderService),
		Feedback:  handler.NewFeedbackHandler(feedbackService),
		Meta:      handler.NewMetaHandler(),
	})

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runRefreshLoop(ctx, reminderService, logger)

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// runRefreshLoop periodically refreshes upcoming trips and dispatches due
// reminders until the context is cancelled.
func runRefreshLoop(ctx context.Context, reminders *service.ReminderService, logger *zap.Logger) {
	ticker := time.NewTicker(refreshLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reminders.RunRefreshCycle(ctx); err != nil {
				logger.Warn("refresh cycle failed", zap.Error(err))
			}
			if _, err := reminders.DispatchDue(ctx, time.Now().UTC()); err != nil {
				logger.Warn("reminder dispatch failed", zap.Error(err))
			}
		}
	}
}
