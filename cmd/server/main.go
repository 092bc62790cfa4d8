package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nndrao/stomp-server/internal/adapter/filesink"
	"github.com/nndrao/stomp-server/internal/adapter/httpserver"
	"github.com/nndrao/stomp-server/internal/adapter/localfile"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	natssink "github.com/nndrao/stomp-server/internal/adapter/nats"
	"github.com/nndrao/stomp-server/internal/adapter/postgres"
	"github.com/nndrao/stomp-server/internal/adapter/redis"
	"github.com/nndrao/stomp-server/internal/adapter/websocket"
	"github.com/nndrao/stomp-server/internal/dataset"
	"github.com/nndrao/stomp-server/internal/diagnostics"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/config"
	"github.com/nndrao/stomp-server/internal/platform/logging"
	"github.com/nndrao/stomp-server/internal/platform/retry"
	"github.com/nndrao/stomp-server/internal/platform/version"
	"github.com/nndrao/stomp-server/internal/record"
	"github.com/nndrao/stomp-server/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

const dataUnavailableHelp = `No data source is available.

Please ensure either:
  1. PostgreSQL is running and DATABASE_URL points at it
     (load data with: go run ./cmd/migrate), or
  2. Local JSON files exist in %s
     (generate them with: go run ./cmd/generate -out %s), then set USE_LOCAL_DATA=true
`

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, reg prometheus.Registerer) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, metrics.NewDatabaseMetrics(reg))
	if err != nil {
		slog.Warn("Failed to connect to database, continuing with local data", "error", err)
		return nil
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func loadData(cfg *config.Config, store *postgres.RecordStore, clock clockwork.Clock) domain.Loaded {
	local := localfile.NewStore(cfg.DataDir)

	var primary domain.DataProvider
	if store != nil {
		primary = store
	}

	policy := retry.Policy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Clock:          clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Dataset load failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := dataset.NewLoader(primary, local, policy).Load(ctx)
	if err != nil {
		slog.Error("Failed to load datasets", "error", err)
		fmt.Fprintf(os.Stderr, dataUnavailableHelp, cfg.DataDir, cfg.DataDir)
		os.Exit(1)
	}
	return data
}

// setupSink opens the configured diagnostic backend. The returned health check
// is nil for backends without a remote dependency.
func setupSink(cfg *config.Config, reg prometheus.Registerer) (domain.DiagnosticSink, *httpserver.HealthCheck) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.DiagnosticSink {
	case config.SinkRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL, metrics.NewRedisMetrics(reg))
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		check := &httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		return redis.NewSink(client, redis.DefaultMaxLen), check

	case config.SinkNATS:
		nc, js, err := natssink.Connect(cfg.NATSURL, version.Name)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		if err := natssink.EnsureStream(ctx, js); err != nil {
			slog.Error("Failed to set up diagnostics stream", "error", err)
			os.Exit(1)
		}
		check := &httpserver.HealthCheck{
			Name: "nats",
			Check: func(context.Context) error {
				if status := nc.Status(); status != nats.CONNECTED {
					return fmt.Errorf("nats connection %s", status)
				}
				return nil
			},
		}
		closeFn := func() {
			if err := nc.Drain(); err != nil {
				slog.Warn("NATS drain failed", "error", err)
			}
		}
		return natssink.NewSink(js, metrics.NewNATSMetrics(reg), closeFn), check

	case config.SinkNone:
		return diagnostics.Discard, nil

	default:
		sink, err := filesink.Open(cfg.DiagnosticDir)
		if err != nil {
			slog.Error("Failed to open diagnostic log directory", "dir", cfg.DiagnosticDir, "error", err)
			os.Exit(1)
		}
		return sink, nil
	}
}

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, listener *websocket.Listener, queue *diagnostics.Queue) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := listener.Shutdown(shutdownCtx); err != nil {
			slog.Error("WebSocket shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := queue.Shutdown(shutdownCtx); err != nil {
			slog.Error("Diagnostic queue shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	reg := metrics.NewRegistry()

	var (
		store        *postgres.RecordStore
		healthChecks []httpserver.HealthCheck
	)
	if cfg.UseLocalData {
		slog.Info("USE_LOCAL_DATA set, skipping database", "data_dir", cfg.DataDir)
	} else if pool := setupDB(cfg, reg); pool != nil {
		defer pool.Close()
		store = postgres.NewRecordStore(pool)
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "database", Check: store.Ping})
	}

	data := loadData(cfg, store, clock)

	sink, sinkCheck := setupSink(cfg, reg)
	if sinkCheck != nil {
		healthChecks = append(healthChecks, *sinkCheck)
	}
	queue := diagnostics.NewQueue(sink, cfg.DiagnosticQueueSize, metrics.NewDiagnosticsMetrics(reg))

	deps := session.Deps{
		Datasets: data.Datasets,
		Mutator:  record.NewMutator(clock, nil),
		Sink:     queue,
		Clock:    clock,
		Metrics:  metrics.NewStompMetrics(reg),
	}
	limits := websocket.NewConnectionLimits(clock, int64(cfg.MaxConnections), cfg.MaxConnectionsPerIP, cfg.ConnectRatePerSecond, cfg.ConnectRateBurst)
	listener := websocket.NewListener(deps, websocket.NewCheckOrigin(cfg.AppURL, cfg.IsDevelopment()), limits, metrics.NewWebSocketMetrics(reg), clock)

	srv := httpserver.NewServer(cfg, data, listener, healthChecks, reg)

	done := runGracefulShutdown(cfg, srv, listener, queue)

	slog.Info("Server starting",
		"port", cfg.Port,
		"websocket", fmt.Sprintf("ws://localhost:%s/ws", cfg.Port),
		"data_source", data.Source,
		"positions", data.Datasets[domain.KindPositions].Len(),
		"trades", data.Datasets[domain.KindTrades].Len(),
		"diagnostic_sink", cfg.DiagnosticSink,
	)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
