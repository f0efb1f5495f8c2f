package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pau-bookit/bookit-api/internal/scheduling"
)

// Storage drivers understood by the persistence wiring.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Identity providers selectable at startup.
const (
	IdentityJWT = "jwt"
	IdentityDev = "dev"
)

// Config holds runtime configuration values for the booking API.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	LogLevel         string
	StorageDriver    string
	DatabaseURL      string
	SQLitePath       string
	RedisURL         string
	RedisSnapshotKey string
	NATSURL          string
	NATSSubject      string
	IdentityProvider string
	JWTSecret        string
	JWTIssuer        string
	JWTTTL           time.Duration
	ActivityCapacity int
	ActivityRecent   int
	SeedRooms        bool
	OpeningHours     string
	ClosingHours     string
	CORSOrigins      []string
	AccessLog        bool
	LoginRateLimit   int
	SubmitRateLimit  int
	ShutdownTimeout  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// OpeningWindow returns the daily window inside which free slots are reported.
func (c Config) OpeningWindow() (scheduling.Window, error) {
	window, err := scheduling.ParseWindow(c.OpeningHours, c.ClosingHours)
	if err != nil {
		return scheduling.Window{}, fmt.Errorf("invalid opening hours: %w", err)
	}
	if window.Empty() {
		return scheduling.Window{}, fmt.Errorf("opening hours %s-%s are empty", c.OpeningHours, c.ClosingHours)
	}
	return window, nil
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOOKIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PAU Bookit API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("sqlite.path", "bookit.db")
	v.SetDefault("redis.snapshot_key", "bookit:state")
	v.SetDefault("nats.subject", "bookit.reservations")
	v.SetDefault("identity.provider", IdentityJWT)
	v.SetDefault("jwt.issuer", "pau-bookit")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("activity.capacity", 50)
	v.SetDefault("activity.recent", 5)
	v.SetDefault("rooms.seed", true)
	v.SetDefault("hours.open", "07:00")
	v.SetDefault("hours.close", "21:00")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("http.access_log", false)
	v.SetDefault("ratelimit.login", 10)
	v.SetDefault("ratelimit.submit", 30)
	v.SetDefault("shutdown.timeout", "5s")

	ttl, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("invalid jwt ttl %q", v.GetString("jwt.ttl"))
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("shutdown.timeout"))
	if err != nil || shutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid shutdown timeout %q", v.GetString("shutdown.timeout"))
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
		StorageDriver:    strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		DatabaseURL:      v.GetString("database.url"),
		SQLitePath:       v.GetString("sqlite.path"),
		RedisURL:         v.GetString("redis.url"),
		RedisSnapshotKey: v.GetString("redis.snapshot_key"),
		NATSURL:          v.GetString("nats.url"),
		NATSSubject:      v.GetString("nats.subject"),
		IdentityProvider: strings.ToLower(strings.TrimSpace(v.GetString("identity.provider"))),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTIssuer:        v.GetString("jwt.issuer"),
		JWTTTL:           ttl,
		ActivityCapacity: v.GetInt("activity.capacity"),
		ActivityRecent:   v.GetInt("activity.recent"),
		SeedRooms:        v.GetBool("rooms.seed"),
		OpeningHours:     v.GetString("hours.open"),
		ClosingHours:     v.GetString("hours.close"),
		CORSOrigins:      splitList(v.GetString("cors.origins")),
		AccessLog:        v.GetBool("http.access_log"),
		LoginRateLimit:   v.GetInt("ratelimit.login"),
		SubmitRateLimit:  v.GetInt("ratelimit.submit"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url is required for the postgres storage driver")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url is required for the redis storage driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.IdentityProvider != IdentityJWT && cfg.IdentityProvider != IdentityDev {
		return Config{}, fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
	}

	if _, err := cfg.OpeningWindow(); err != nil {
		return Config{}, err
	}

	if cfg.ActivityCapacity <= 0 {
		cfg.ActivityCapacity = 50
	}
	if cfg.ActivityRecent <= 0 {
		cfg.ActivityRecent = 5
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
