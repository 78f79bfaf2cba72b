package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/metrics"
)

// statusOf returns the status the client will see, including errors that
// echo's HTTPErrorHandler renders after the middleware returns.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// Observe records Prometheus request metrics and writes one access log line
// per request. Routes are labelled by their pattern, not the raw path.
func Observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := statusOf(c, err)
			metrics.RecordHTTPRequest(c.Request().Method, route, status, elapsed)

			ev := logging.Info()
			if status >= http.StatusInternalServerError {
				ev = logging.Error().Err(err)
			}
			ev.Str("method", c.Request().Method).
				Str("route", route).
				Str("uri", c.Request().RequestURI).
				Int("status", status).
				Dur("latency", elapsed).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return err
		}
	}
}
