package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Claude extraction
	AnthropicAPIKey string
	AnthropicModel  string

	// Job persistence
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MongoTimeout    time.Duration

	// Queue
	NATSURL      string
	QueueStream  string
	QueueSubject string
	QueueDurable string
	AckWait      time.Duration
	MaxDeliver   int
	FetchWait    time.Duration
	PollInterval time.Duration

	// Blob storage
	BlobDir string

	// Upload limits
	MaxUploadBytes int64

	// LLM stats window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SITEDIGEST_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		MongoURI:        envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   envOr("MONGO_DB", "sitedigest"),
		MongoCollection: envOr("MONGO_COLLECTION", "report_jobs"),
		MongoTimeout:    envDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		NATSURL:      envOr("NATS_URL", "nats://localhost:4222"),
		QueueStream:  envOr("QUEUE_STREAM", "REPORTS"),
		QueueSubject: envOr("QUEUE_SUBJECT", "reports.jobs"),
		QueueDurable: envOr("QUEUE_DURABLE", "sitedigest-worker"),
		AckWait:      envDuration("QUEUE_ACK_WAIT", 5*time.Minute),
		MaxDeliver:   envInt("QUEUE_MAX_DELIVER", 5),
		FetchWait:    envDuration("QUEUE_FETCH_WAIT", 2*time.Second),
		PollInterval: envDuration("POLL_INTERVAL", 5*time.Second),

		BlobDir: envOr("BLOB_DIR", "./data/blobs"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		StatsWindow: envDuration("LLM_STATS_WINDOW", 1*time.Hour),
	}

	if cfg.AckWait <= 0 {
		cfg.AckWait = 5 * time.Minute
	}
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 5
	}
	if cfg.FetchWait <= 0 {
		cfg.FetchWait = 2 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SITEDIGEST_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
