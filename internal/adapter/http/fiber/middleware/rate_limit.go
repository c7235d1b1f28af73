package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// DefaultRateLimit / SensitiveRateLimit / WebhookRateLimit are the per-route
// budgets from spec §5: 60 req/min default, 10 req/min on the
// balance-affecting routes, 30 req/min per IP on the payment webhook.
func DefaultRateLimit() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return clientKey(c)
		},
		LimitReached: rateLimitReached,
	})
}

// SensitiveRateLimit guards /charging/start, /charging/stop and the
// /balance group (/balance/topup-card, /balance/topup-card/confirm,
// /balance/payments).
func SensitiveRateLimit() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return clientKey(c)
		},
		LimitReached: rateLimitReached,
	})
}

// WebhookRateLimit guards /payment/webhook, keyed by IP since the caller is
// the payment provider rather than an authenticated client.
func WebhookRateLimit() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          30,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimitReached,
	})
}

func clientKey(c *fiber.Ctx) string {
	if clientID, ok := c.Locals("client_id").(string); ok && clientID != "" {
		return clientID
	}
	return c.IP()
}

func rateLimitReached(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too_many_requests"})
}
