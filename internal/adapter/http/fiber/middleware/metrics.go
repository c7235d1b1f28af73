package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
)

// Metrics records every request's duration and status into the Prometheus
// series served at /metrics.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		telemetry.RecordHTTPRequest(c.Method(), path, c.Response().StatusCode(), time.Since(start).Seconds())

		return err
	}
}
