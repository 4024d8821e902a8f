package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates everything the processes need at startup so main stays lean.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Auth     Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	LogLevel          slog.Level
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Postgres captures the primary store connection.
type Postgres struct {
	URL string
}

// Redis captures the search index backend connection.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the event broker connection. ConsumerGroup is only used by
// the credential daemon; the API server only produces.
type Kafka struct {
	Brokers       []string
	IdentityTopic string
	ConsumerGroup string
}

// Auth holds the admin token signing key. Per-user credentials live in the
// primary store, not in config.
type Auth struct {
	AdminSigningKey string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:              envOr("STAMPLY_ADDR", ":8080"),
			LogLevel:          parseLevel(os.Getenv("STAMPLY_LOG_LEVEL")),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		Postgres: Postgres{
			URL: envOr("STAMPLY_POSTGRES_URL", "postgres://localhost:5432/stamply?sslmode=disable"),
		},
		Redis: Redis{
			URL:          envOr("STAMPLY_REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     envIntOr("STAMPLY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("STAMPLY_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Brokers:       strings.Split(envOr("STAMPLY_KAFKA_BROKERS", "localhost:9092"), ","),
			IdentityTopic: envOr("STAMPLY_IDENTITY_TOPIC", "identity-events"),
			ConsumerGroup: envOr("STAMPLY_CONSUMER_GROUP", "credentiald"),
		},
		Auth: Auth{
			// Default for development only; override in any real deployment.
			AdminSigningKey: envOr("STAMPLY_ADMIN_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
