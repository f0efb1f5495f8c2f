package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/database"
	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/events"
	"github.com/pau-bookit/bookit-api/internal/identity"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/store"
)

type services struct {
	store        *store.Store
	reservations service.ReservationService
	rooms        service.RoomService
	activity     service.ActivityService
	close        func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bookitctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "bookitctl",
		Usage: "operate the PAU Bookit reservation store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "storage-driver", Value: config.StorageSQLite, EnvVars: []string{"BOOKIT_STORAGE_DRIVER"}},
			&cli.StringFlag{Name: "sqlite-path", Value: "bookit.db", EnvVars: []string{"BOOKIT_SQLITE_PATH"}},
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"BOOKIT_DATABASE_URL"}},
			&cli.StringFlag{Name: "redis-url", EnvVars: []string{"BOOKIT_REDIS_URL"}},
			&cli.StringFlag{Name: "redis-snapshot-key", Value: "bookit:state", EnvVars: []string{"BOOKIT_REDIS_SNAPSHOT_KEY"}},
			&cli.IntFlag{Name: "activity-capacity", Value: store.DefaultActivityCapacity, EnvVars: []string{"BOOKIT_ACTIVITY_CAPACITY"}},
			&cli.IntFlag{Name: "activity-recent", Value: store.DefaultRecentActivity, EnvVars: []string{"BOOKIT_ACTIVITY_RECENT"}},
			&cli.StringFlag{Name: "nats-url", EnvVars: []string{"BOOKIT_NATS_URL"}},
			&cli.StringFlag{Name: "nats-subject", Value: "bookit.reservations", EnvVars: []string{"BOOKIT_NATS_SUBJECT"}},
			&cli.BoolFlag{Name: "debug", EnvVars: []string{"BOOKIT_DEBUG"}},
		},
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "rooms",
				Usage: "inspect and seed the room inventory",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Flags: []cli.Flag{&cli.StringFlag{Name: "building"}},
						Action: withServices(func(cctx *cli.Context, svc services) error {
							rooms, err := svc.rooms.List(cctx.Context, cctx.String("building"))
							if err != nil {
								return err
							}
							return printJSON(cctx, rooms)
						}),
					},
					{
						Name:  "seed",
						Usage: "add the default SST and TYD rooms that are missing",
						Action: withServices(func(cctx *cli.Context, svc services) error {
							result, err := svc.rooms.SeedDefaults(cctx.Context)
							if err != nil {
								return err
							}
							return printJSON(cctx, result)
						}),
					},
				},
			},
			{
				Name:  "reservations",
				Usage: "review the reservation queue",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Flags: []cli.Flag{&cli.StringFlag{Name: "status", Value: string(store.StatusAll)}},
						Action: withServices(func(cctx *cli.Context, svc services) error {
							result, err := svc.reservations.List(cctx.Context, dto.ReservationListRequest{Status: cctx.String("status")})
							if err != nil {
								return err
							}
							return printJSON(cctx, result)
						}),
					},
					{
						Name:      "review",
						ArgsUsage: "<reservation-id>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "decision", Required: true, Usage: "approve or deny"},
							&cli.StringFlag{Name: "reviewer", Required: true},
						},
						Action: withServices(func(cctx *cli.Context, svc services) error {
							id, err := strconv.ParseInt(cctx.Args().First(), 10, 64)
							if err != nil {
								return fmt.Errorf("reservation id must be an integer")
							}
							result, err := svc.reservations.Review(cctx.Context, adminActor(cctx.String("reviewer")), id, dto.ReservationReviewRequest{Decision: cctx.String("decision")})
							if err != nil {
								return err
							}
							return printJSON(cctx, result)
						}),
					},
					{
						Name:  "bulk-approve",
						Flags: []cli.Flag{&cli.StringFlag{Name: "reviewer", Required: true}},
						Action: withServices(func(cctx *cli.Context, svc services) error {
							result, err := svc.reservations.BulkApprove(cctx.Context, adminActor(cctx.String("reviewer")))
							if err != nil {
								return err
							}
							return printJSON(cctx, result)
						}),
					},
				},
			},
			{
				Name:  "activity",
				Usage: "show the newest activity records",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Usage: "defaults to --activity-recent"}},
				Action: withServices(func(cctx *cli.Context, svc services) error {
					result, err := svc.activity.Recent(cctx.Context, cctx.Int("limit"))
					if err != nil {
						return err
					}
					return printJSON(cctx, result.Items)
				}),
			},
			{
				Name:  "export",
				Usage: "print the whole booking document as JSON",
				Action: withServices(func(cctx *cli.Context, svc services) error {
					return printJSON(cctx, svc.store.Snapshot())
				}),
			},
			{
				Name:  "token",
				Usage: "issue an access token accepted by the jwt identity provider",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", Required: true, EnvVars: []string{"BOOKIT_JWT_SECRET"}},
					&cli.StringFlag{Name: "issuer", Value: "pau-bookit", EnvVars: []string{"BOOKIT_JWT_ISSUER"}},
					&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour},
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "role", Value: string(models.RoleStudent)},
				},
				Action: issueToken,
			},
		},
	}
}

func withServices(action func(cctx *cli.Context, svc services) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		svc, err := openServices(cctx)
		if err != nil {
			return err
		}
		defer func() { _ = svc.close() }()
		return action(cctx, svc)
	}
}

func openServices(cctx *cli.Context) (services, error) {
	level := zerolog.WarnLevel
	if cctx.Bool("debug") {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg := config.Config{
		AppName:          "bookitctl",
		StorageDriver:    cctx.String("storage-driver"),
		SQLitePath:       cctx.String("sqlite-path"),
		DatabaseURL:      cctx.String("database-url"),
		RedisURL:         cctx.String("redis-url"),
		RedisSnapshotKey: cctx.String("redis-snapshot-key"),
		NATSURL:          cctx.String("nats-url"),
		NATSSubject:      cctx.String("nats-subject"),
		ActivityCapacity: cctx.Int("activity-capacity"),
		ActivityRecent:   cctx.Int("activity-recent"),
	}

	repo, closeState, err := database.OpenStateRepository(cfg)
	if err != nil {
		return services{}, err
	}
	st, err := store.Open(cctx.Context, repo, store.WithActivityCapacity(cfg.ActivityCapacity))
	if err != nil {
		_ = closeState()
		return services{}, err
	}

	publisher, closeEvents := openPublisher(cfg, logger)

	validate := service.NewValidator()
	activity := service.NewActivityService(st, cfg.ActivityRecent, logger)
	return services{
		store: st,
		reservations: service.NewReservationService(st, validate, service.ReservationServiceConfig{
			Activity:       activity,
			Publisher:      publisher,
			RecentActivity: cfg.ActivityRecent,
		}, logger),
		rooms:    service.NewRoomService(st, validate, nil, logger),
		activity: activity,
		close: func() error {
			closeEvents()
			return closeState()
		},
	}, nil
}

// openPublisher connects to NATS when a url is configured. Like the server, an
// unreachable broker only disables events.
func openPublisher(cfg config.Config, logger zerolog.Logger) (events.Publisher, func()) {
	if cfg.NATSURL == "" {
		return events.Nop(), func() {}
	}
	conn, err := events.Connect(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, reservation events disabled")
		return events.Nop(), func() {}
	}
	return events.NewNATSPublisher(conn, cfg.NATSSubject), func() { _ = conn.Drain() }
}

func issueToken(cctx *cli.Context) error {
	role := models.Role(cctx.String("role"))
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	codec := identity.NewTokenCodec(cctx.String("secret"), cctx.String("issuer"), cctx.Duration("ttl"))
	token, expiresAt, err := codec.Issue(models.User{
		ID:     cctx.String("id"),
		Name:   cctx.String("name"),
		Email:  cctx.String("email"),
		Role:   role,
		Active: true,
	})
	if err != nil {
		return err
	}
	return printJSON(cctx, map[string]interface{}{"token": token, "expires_at": expiresAt})
}

func adminActor(id string) service.Actor {
	return service.Actor{ID: id, Role: models.RoleAdmin}
}

func printJSON(cctx *cli.Context, value interface{}) error {
	encoder := json.NewEncoder(cctx.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
