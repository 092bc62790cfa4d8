package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nndrao/stomp-server/internal/platform/version"
)

type indexResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Endpoints   map[string]string `json:"endpoints"`
}

// handleIndex describes the server, or hands the request to the WebSocket
// listener when it asks for an upgrade.
func (s *Server) handleIndex(c echo.Context) error {
	if isWebSocketUpgrade(c) {
		return s.handleWebSocket(c)
	}

	resp := indexResponse{
		Name:        "STOMP Fixed Income Server",
		Version:     version.Version,
		Environment: s.config.AppEnv,
		Endpoints: map[string]string{
			"health":    "/health",
			"websocket": s.websocketURL(c),
		},
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write index response: %w", err)
	}
	return nil
}

func (s *Server) handleWebSocket(c echo.Context) error {
	if s.listener == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "websocket listener not available")
	}
	s.listener.ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *Server) websocketURL(c echo.Context) string {
	scheme := "ws"
	if c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request().Host)
}

func isWebSocketUpgrade(c echo.Context) bool {
	h := c.Request().Header
	return strings.EqualFold(h.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(h.Get("Connection")), "upgrade")
}
