// Package middleware provides HTTP middleware for the Parla Echo server.
// Middleware here is application-agnostic (logging, recovery, headers,
// proxy trust); identity-aware middleware lives in internal/auth.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns middleware that writes one structured log line per
// request after it completes. The log level follows the response status so
// failures stand out without a separate error log.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			slog.LogAttrs(req.Context(), statusLevel(res.Status), "http request", attrs...)

			return err
		}
	}
}

// statusLevel maps a response status to a log level: 5xx is an error, 4xx
// a warning, everything else informational.
func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
