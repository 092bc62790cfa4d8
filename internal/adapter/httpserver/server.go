package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/config"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// websocketListener accepts STOMP-over-WebSocket connections.
type websocketListener interface {
	http.Handler
	ActiveConnections() int
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	data           domain.Loaded
	listener       websocketListener
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics

	healthChecks []HealthCheck
	probes       singleflight.Group
	clock        clockwork.Clock
	startTime    time.Time
}

func NewServer(cfg *config.Config, data domain.Loaded, listener websocketListener, healthChecks []HealthCheck, reg *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	clock := clockwork.NewRealClock()
	srv := &Server{
		echo:           e,
		config:         cfg,
		data:           data,
		listener:       listener,
		metricsHandler: metrics.Handler(reg),
		httpMetrics:    metrics.NewHTTPMetrics(reg),
		healthChecks:   healthChecks,
		clock:          clock,
		startTime:      clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for tests that drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
