package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/database"
	"github.com/pau-bookit/bookit-api/internal/events"
	"github.com/pau-bookit/bookit-api/internal/handler"
	"github.com/pau-bookit/bookit-api/internal/identity"
	"github.com/pau-bookit/bookit-api/internal/middleware"
	"github.com/pau-bookit/bookit-api/internal/router"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "bookit-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	stateRepo, closeState, err := database.OpenStateRepository(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	defer func() {
		if err := closeState(); err != nil {
			logger.Warn().Err(err).Msg("failed to close storage")
		}
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	st, err := store.Open(startupCtx, stateRepo, store.WithActivityCapacity(cfg.ActivityCapacity))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load booking state")
	}

	opening, err := cfg.OpeningWindow()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid opening hours")
	}

	codec := identity.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	provider, err := identity.New(cfg.IdentityProvider, codec, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure identity provider")
	}

	publisher := events.Nop()
	if cfg.NATSURL != "" {
		conn, err := events.Connect(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, reservation events disabled")
		} else {
			defer conn.Drain()
			publisher = events.NewNATSPublisher(conn, cfg.NATSSubject)
		}
	}

	validate := service.NewValidator()
	board := service.NewRoomBoard(logger)

	activityService := service.NewActivityService(st, cfg.ActivityRecent, logger)
	roomService := service.NewRoomService(st, validate, board, logger)
	reservationService := service.NewReservationService(st, validate, service.ReservationServiceConfig{
		Activity:       activityService,
		Publisher:      publisher,
		Board:          board,
		Opening:        opening,
		RecentActivity: cfg.ActivityRecent,
	}, logger)
	authService := service.NewAuthService(provider, validate, logger)

	if cfg.SeedRooms {
		if _, err := roomService.SeedDefaults(startupCtx); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed rooms")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:             handler.NewAuthHandler(authService, logger),
		ReservationHandler:      handler.NewReservationHandler(reservationService, logger),
		AdminReservationHandler: handler.NewAdminReservationHandler(reservationService, logger),
		ActivityHandler:         handler.NewActivityHandler(activityService, logger),
		RoomHandler:             handler.NewRoomHandler(roomService, reservationService, board, logger),
		State:                   st,
		Authenticator:           authService,
		LoginRateLimit:          cfg.LoginRateLimit,
		SubmitRateLimit:         cfg.SubmitRateLimit,
	})

	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddress()).
			Str("storage", cfg.StorageDriver).
			Str("identity", authService.ProviderName()).
			Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cfg.ShutdownTimeout, logger)
}

func waitForShutdown(app *fiber.App, timeout time.Duration, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
