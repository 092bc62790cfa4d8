package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nndrao/stomp-server/internal/platform/correlation"
)

// correlationMiddleware tags the request context with an ID, reusing the
// caller's X-Request-ID when it is well formed, and echoes it back.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.Header))
		c.Response().Header().Set(correlation.Header, id)
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ErrorHandlingMiddleware renders handler errors as JSON. Echo HTTP errors
// pass through to the default handler; anything else becomes a logged 500.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}
			if c.Response().Committed {
				slog.ErrorContext(c.Request().Context(), "Handler failed after response was written",
					"path", c.Request().URL.Path,
					"error", err,
				)
				return nil
			}

			slog.ErrorContext(c.Request().Context(), "Internal error",
				"path", c.Request().URL.Path,
				"method", c.Request().Method,
				"error", err,
			)
			if err := c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"}); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}
