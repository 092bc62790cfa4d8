package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/version"
)

const (
	readinessProbeTimeout = 5 * time.Second
	healthReportTimeout   = 5 * time.Second
)

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// healthReport is the body of GET /health.
type healthReport struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	Uptime            float64   `json:"uptime"`
	Environment       string    `json:"environment"`
	Database          string    `json:"database"`
	DataSource        string    `json:"dataSource"`
	UseLocalData      bool      `json:"useLocalData"`
	PositionsCount    int       `json:"positionsCount"`
	TradesCount       int       `json:"tradesCount"`
	ActiveConnections int       `json:"activeConnections"`
	FailedCheck       string    `json:"failed_check,omitempty"`
	Error             string    `json:"error,omitempty"`
	Note              string    `json:"note,omitempty"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health", s.handleHealth, newRateLimiter("health", healthRatePerSecond, healthRateBurst))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleHealth reports data-source state. A failing dependency only makes the
// server unhealthy when it is not already serving a complete local dataset.
func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthReportTimeout)
	defer cancel()

	report := healthReport{
		Status:         "healthy",
		Timestamp:      s.clock.Now().UTC(),
		Uptime:         s.uptime(),
		Environment:    s.config.AppEnv,
		Database:       "connected",
		DataSource:     dataSourceLabel(s.data.Source),
		UseLocalData:   s.config.UseLocalData,
		PositionsCount: s.data.Datasets[domain.KindPositions].Len(),
		TradesCount:    s.data.Datasets[domain.KindTrades].Len(),
	}
	if s.listener != nil {
		report.ActiveConnections = s.listener.ActiveConnections()
	}
	if s.data.Source == domain.DataSourceLocal {
		report.Database = "local"
	}

	status := http.StatusOK
	if name, err := s.firstFailingCheck(ctx); err != nil {
		slog.WarnContext(ctx, "Health check failed", "check", name, "error", err)
		report.FailedCheck = name
		report.Error = err.Error()

		if s.data.Source == domain.DataSourceLocal && s.data.Complete() {
			report.Note = name + " unavailable but using local data"
		} else {
			report.Status = "unhealthy"
			report.Database = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	if err := c.JSON(status, report); err != nil {
		return fmt.Errorf("failed to write health response: %w", err)
	}
	return nil
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": s.uptime(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}

	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	return s.runHealthChecks(c, ctx)
}

func (s *Server) runHealthChecks(c echo.Context, ctx context.Context) error {
	if name, err := s.firstFailingCheck(ctx); err != nil {
		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": name,
			"error":        err.Error(),
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "ready"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type checkFailure struct {
	name string
	err  error
}

// firstFailingCheck runs the checks in order. Concurrent callers share one run.
func (s *Server) firstFailingCheck(ctx context.Context) (string, error) {
	v, _, _ := s.probes.Do("checks", func() (any, error) {
		for _, hc := range s.healthChecks {
			if err := hc.Check(ctx); err != nil {
				return checkFailure{name: hc.Name, err: err}, nil
			}
		}
		return checkFailure{}, nil
	})
	failure := v.(checkFailure)
	return failure.name, failure.err
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}

func (s *Server) uptime() float64 {
	return s.clock.Since(s.startTime).Seconds()
}

func dataSourceLabel(src domain.DataSource) string {
	switch src {
	case domain.DataSourcePostgres:
		return "PostgreSQL"
	case domain.DataSourceLocal:
		return "Local JSON Files"
	default:
		return "None"
	}
}
