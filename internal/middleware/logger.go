package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/metrics"
)

// RequestLogger writes a concise structured access log for each request and
// records its latency.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			metrics.APILatency.WithLabelValues(req.Method, route, strconv.Itoa(status)).Observe(duration.Seconds())
			logger.WithModule("http").Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("client_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
			)
			return nil
		}
	}
}
