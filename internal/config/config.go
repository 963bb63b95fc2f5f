package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Scheduling
	DefaultTZ           string
	SlotDurationMinutes int

	// Auth
	JWTSecret string

	// External sender
	ProviderBaseURL      string
	ProviderAPIKey       string
	ProviderConnTimeout  time.Duration
	ProviderReadTimeout  time.Duration
	ProviderWriteTimeout time.Duration

	// Dispatcher
	DispatchWorkers      int
	RateLimitPerSec      int
	CircuitFailMax       int
	CircuitResetSec      time.Duration
	RetryMaxAttempts     int
	RetryBackoffBase     time.Duration
	RetryBackoffMax      time.Duration
	RequeueStaleSec      time.Duration
	FailedMaxAttempts    int
	RecipientPlaceholder string

	// Outbox relay
	OutboxBatchSize int

	// Background worker poll intervals, cron-style durations
	OutboxPollInterval  time.Duration
	RequeuePollInterval time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		DefaultTZ:           getEnv("DEFAULT_TZ", "America/Sao_Paulo"),
		SlotDurationMinutes: getInt("SLOT_DURATION_MINUTES", 30),

		JWTSecret: getEnv("SECRET_KEY", "dev-secret-change-me"),

		ProviderBaseURL:      getEnv("NOTIF_HTTP_BASE_URL", "https://webhook.site/your-uuid-here"),
		ProviderAPIKey:       getEnv("NOTIF_HTTP_API_KEY", ""),
		ProviderConnTimeout:  getDuration("PROVIDER_CONNECT_TIMEOUT", 2*time.Second),
		ProviderReadTimeout:  getDuration("PROVIDER_READ_TIMEOUT", 5*time.Second),
		ProviderWriteTimeout: getDuration("PROVIDER_WRITE_TIMEOUT", 5*time.Second),

		DispatchWorkers:      getInt("NOTIF_DISPATCH_WORKERS", 5),
		RateLimitPerSec:      getInt("NOTIF_RATE_LIMIT_PER_SEC", 50),
		CircuitFailMax:       getInt("NOTIF_CIRCUIT_FAIL_MAX", 5),
		CircuitResetSec:      getDuration("NOTIF_CIRCUIT_RESET_SECONDS", 60*time.Second),
		RetryMaxAttempts:     getInt("NOTIF_RETRY_MAX_ATTEMPTS", 5),
		RetryBackoffBase:     getDuration("NOTIF_RETRY_BACKOFF_BASE", 1*time.Second),
		RetryBackoffMax:      getDuration("NOTIF_RETRY_BACKOFF_MAX", 16*time.Second),
		RequeueStaleSec:      getDuration("NOTIF_REQUEUE_STALE_SECONDS", 120*time.Second),
		FailedMaxAttempts:    getInt("NOTIF_FAILED_MAX_ATTEMPTS", 5),
		RecipientPlaceholder: getEnv("RECIPIENT_PLACEHOLDER", "+10000000000"),

		OutboxBatchSize: getInt("OUTBOX_BATCH_SIZE", 50),

		OutboxPollInterval:  getDuration("OUTBOX_POLL_INTERVAL_SECONDS", 10*time.Second),
		RequeuePollInterval: getDuration("REQUEUE_POLL_INTERVAL_SECONDS", 60*time.Second),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// A bare number, as the *_SECONDS variables carry, is read as seconds.
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultVal
}
