package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/datingapp-be/internal/api"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/config"
	"github.com/isdelr/datingapp-be/internal/database"
	"github.com/isdelr/datingapp-be/internal/logger"
	"github.com/isdelr/datingapp-be/internal/metrics"
	"github.com/isdelr/datingapp-be/internal/monitoring"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/isdelr/datingapp-be/internal/storage"
	"github.com/isdelr/datingapp-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.IsProduction())
	metrics.Init()

	signing, err := auth.NewSigningConfig([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid token signing configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	var photoStorage services.PhotoStorage
	if cfg.S3.Enabled() {
		s3Storage, err := storage.NewS3PhotoStorage(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize photo storage")
		}
		photoStorage = s3Storage
	} else {
		log.Warn().Msg("S3_BUCKET not set, photo uploads are disabled")
	}

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(services.NewSQLCredentialStore(db), auth.DefaultHashParams, eventService)
	photoService := services.NewPhotoService(db, photoStorage, eventService)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
		}
	}

	guard := auth.NewGuard(auth.NewValidator(signing), recordDenial(eventService))

	// Set up and run the event retention janitor
	janitor, err := monitoring.NewJanitor(eventService, cfg.EventPurgeSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure event janitor")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(api.Deps{
		Guard:         guard,
		Issuer:        auth.NewIssuer(signing),
		Users:         userService,
		Photos:        photoService,
		Events:        eventService,
		Hub:           hub,
		DB:            db,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookie:  cfg.IsProduction(),
		RatePerSecond: cfg.AuthRatePerSecond,
		RateBurst:     cfg.AuthRateBurst,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}

// recordDenial turns forbidden requests into security events. Unauthenticated
// requests are only counted by the guard's metrics so token rejection never
// touches the store.
func recordDenial(events services.EventServiceProvider) auth.DenyHook {
	return func(d auth.Denial) {
		if !errors.Is(d.Err, auth.ErrForbidden) {
			return
		}
		userID := d.Claims.UserID()
		msg := fmt.Sprintf("%s %s denied: %v", d.Request.Method, d.Request.URL.Path, d.Err)
		if err := events.CreateEvent(d.Request.Context(), "access.forbidden", "warn", msg, &userID); err != nil {
			log.Error().Err(err).Msg("Failed to record access denial")
		}
	}
}
