package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/smartcharge/core/pkg/config"
)

// CircuitBreaker trips inbound HTTP traffic when a burst of handler errors
// crosses cfg's failure threshold, returning 503 immediately instead of
// letting requests queue up behind a struggling Postgres or Redis. This
// guards the ingress side; the Gateway's own outbound retries against
// Postgres are a separate breaker (internal/infrastructure/circuitbreaker).
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	maxRequests := cfg.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 3
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chargeplan-api",
		MaxRequests: uint32(maxRequests),
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("inbound circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *fiber.Ctx) error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, c.Next()
		})

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			log.Warn("inbound circuit breaker rejecting request",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("state", cb.State().String()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service temporarily unavailable",
			})
		}

		return err
	}
}
