package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Diagnostic sink backends.
const (
	SinkFile  = "file"
	SinkRedis = "redis"
	SinkNATS  = "nats"
	SinkNone  = "none"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
	AppURL    string `env:"APP_URL"`

	DatabaseURL  string `env:"DATABASE_URL"`
	UseLocalData bool   `env:"USE_LOCAL_DATA" default:"false"`
	DataDir      string `env:"DATA_DIR" default:"data"`

	DiagnosticSink      string `env:"DIAGNOSTIC_SINK" default:"file"`
	DiagnosticDir       string `env:"DIAGNOSTIC_DIR" default:"."`
	DiagnosticQueueSize int    `env:"DIAGNOSTIC_QUEUE_SIZE" default:"1024"`
	RedisURL            string `env:"REDIS_URL"`
	NATSURL             string `env:"NATS_URL"`

	MaxConnections       int     `env:"MAX_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP  int     `env:"MAX_CONNECTIONS_PER_IP" default:"100"`
	ConnectRatePerSecond float64 `env:"CONNECT_RATE_PER_SECOND" default:"10"`
	ConnectRateBurst     int     `env:"CONNECT_RATE_BURST" default:"20"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if !cfg.UseLocalData && cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required unless USE_LOCAL_DATA=true")
	}

	switch cfg.DiagnosticSink {
	case SinkFile, SinkNone:
	case SinkRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when DIAGNOSTIC_SINK=redis")
		}
	case SinkNATS:
		if cfg.NATSURL == "" {
			return errors.New("NATS_URL is required when DIAGNOSTIC_SINK=nats")
		}
	default:
		return fmt.Errorf("DIAGNOSTIC_SINK must be one of file, redis, nats, none, got %q", cfg.DiagnosticSink)
	}

	if cfg.DiagnosticQueueSize <= 0 {
		return errors.New("DIAGNOSTIC_QUEUE_SIZE must be positive")
	}
	if cfg.ConnectRatePerSecond <= 0 || cfg.ConnectRateBurst <= 0 {
		return errors.New("CONNECT_RATE_PER_SECOND and CONNECT_RATE_BURST must be positive")
	}

	if cfg.IsProduction() && cfg.DatabaseURL != "" {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
