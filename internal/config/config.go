package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/alttext/shared/db/sqlite"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	SQLite   *sqlite.SQLiteConfig
	Auth     AuthConfig
	Log      LogConfig
	Backfill BackfillConfig
	NATS     NATSConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret     string
	WebhookSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

type BackfillConfig struct {
	BatchSize     int
	Schedule      string
	RatePerMinute int
}

type NATSConfig struct {
	URL           string
	UploadSubject string
	QueueGroup    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StatsTTL time.Duration
}

// Load reads configuration from the environment, after applying an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	batchSize, err := strconv.Atoi(getEnv("BACKFILL_BATCH_SIZE", "500"))
	if err != nil || batchSize < 1 {
		return nil, fmt.Errorf("invalid BACKFILL_BATCH_SIZE: %q", os.Getenv("BACKFILL_BATCH_SIZE"))
	}

	ratePerMinute, err := strconv.Atoi(getEnv("BACKFILL_RATE_PER_MINUTE", "6"))
	if err != nil || ratePerMinute < 1 {
		return nil, fmt.Errorf("invalid BACKFILL_RATE_PER_MINUTE: %q", os.Getenv("BACKFILL_RATE_PER_MINUTE"))
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	statsTTL, err := time.ParseDuration(getEnv("STATS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		SQLite: sqlite.NewSQLiteConfig(),
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Backfill: BackfillConfig{
			BatchSize:     batchSize,
			Schedule:      getEnv("BACKFILL_SCHEDULE", ""),
			RatePerMinute: ratePerMinute,
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			UploadSubject: getEnv("NATS_UPLOAD_SUBJECT", "media.image.created"),
			QueueGroup:    getEnv("NATS_QUEUE_GROUP", "alttext"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			StatsTTL: statsTTL,
		},
	}

	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs
func (c *Config) ValidateServer() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
