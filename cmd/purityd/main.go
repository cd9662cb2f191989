package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/api"
	"puritygrid-backend/internal/db"
	"puritygrid-backend/internal/ingest"
	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/notification"
	"puritygrid-backend/internal/requests"
	"puritygrid-backend/internal/seed"
	"puritygrid-backend/internal/session"
	"puritygrid-backend/internal/sink"
	"puritygrid-backend/internal/store"
	"puritygrid-backend/internal/telemetry"
)

func main() {
	// Setup logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "purityd").Logger()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	logger.Info().Str("path", configPath).Msg("configuration loaded successfully")

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	// Create a context that is cancelled on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore := store.NewGormStore(gormDB)
	slots := store.NewSlots(gormDB)

	generator := newGenerator(cfg.Mock.Seed)
	if cfg.Mock.SeedAccounts {
		var fleet *mock.Generator
		if cfg.Mock.Enabled {
			fleet = generator
		}
		if err := seed.Seed(ctx, appStore, fleet, cfg.Mock.FleetSize, time.Now(), logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	sessions := session.NewManager(slots, cfg.Session.TTL, logger)
	if err := sessions.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore sessions, starting with none")
	}

	owner := telemetry.NewClassifier(cfg.Thresholds.Owner, telemetry.SupplyStatuses)
	renter := telemetry.NewClassifier(cfg.Thresholds.Renter, telemetry.RentalStatuses)

	pipeline := ingest.NewPipeline(appStore, owner, logger)
	if err := pipeline.Prime(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to prime severities")
	}
	if cfg.Mock.Enabled {
		pipeline.WithMockExpansion(generator)
	}

	// Push notifications are optional.
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, logger)
		pool.Start(ctx)
		pipeline.WithNotifier(pool)
	} else {
		logger.Warn().Msg("VAPID keys are not configured, push notifications disabled")
	}

	if cfg.Influx.Enabled {
		influx := sink.NewInfluxSink(cfg.Influx)
		defer influx.Close()
		pipeline.WithSink(influx)
	}

	go ingest.NewPoller(cfg.Ingest, pipeline, logger).Run(ctx)

	if cfg.MQTT.Enabled {
		subscriber := ingest.NewSubscriber(cfg.MQTT, pipeline, logger)
		if err := subscriber.Connect(); err != nil {
			logger.Error().Err(err).Msg("MQTT disabled for this run")
		} else if err := subscriber.Subscribe(ctx); err != nil {
			logger.Error().Err(err).Msg("MQTT disabled for this run")
			subscriber.Close()
		} else {
			defer subscriber.Close()
		}
	}

	retention := time.Duration(cfg.Database.HistoryRetentionDays) * 24 * time.Hour
	go store.NewRetention(appStore, retention, time.Hour, logger).Run(ctx)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(api.Deps{
		Store:         appStore,
		Sessions:      sessions,
		Authenticator: session.NewAuthenticator(appStore),
		Requests:      requests.NewQueue(slots, logger),
		Owner:         owner,
		Renter:        renter,
		Generator:     generator,
		Income:        cfg.Mock.Income,
		MockHistory:   cfg.Mock.Enabled,
		Webpush:       webpushOptions,
		Log:           logger,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server, sessions, logger),
	}

	// Start the server in a goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Block until a signal is received.
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server Shutdown")
	}

	logger.Info().Msg("server gracefully stopped")
}

// newGenerator returns a reproducible generator for a non-zero seed.
func newGenerator(seed uint64) *mock.Generator {
	if seed != 0 {
		return mock.NewSeededGenerator(seed)
	}
	return mock.NewGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}
