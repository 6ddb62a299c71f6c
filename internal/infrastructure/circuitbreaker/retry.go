package circuitbreaker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryWithBackoff executes fn with exponential backoff, bailing out
// immediately on a circuit-open error since retrying would just spin.
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for i := 0; i <= maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if IsCircuitOpen(err) || IsTooManyRequests(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GatewayClient wraps a single named circuit breaker around Persistence
// Gateway calls, combining it with bounded retry for transient failures.
type GatewayClient struct {
	breaker    *CircuitBreaker
	maxRetries int
	baseDelay  time.Duration
	log        *zap.Logger
}

// NewGatewayClient creates a circuit-breaker-protected retrier for the
// Persistence Gateway. maxRetries bounds the number of attempts for errors
// the caller marks retryable (domain.Error{Kind: Transient}).
func NewGatewayClient(name string, maxRetries int, log *zap.Logger) *GatewayClient {
	cb := New(Settings{
		Name:             name,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
	}, log)

	return &GatewayClient{breaker: cb, maxRetries: maxRetries, baseDelay: 100 * time.Millisecond, log: log}
}

// Do runs fn through the circuit breaker, retrying with backoff only for
// errors retryable marks as transient. Any other failure, or an open
// circuit, is returned immediately.
func (g *GatewayClient) Do(ctx context.Context, retryable func(error) bool, fn func(context.Context) error) error {
	delay := g.baseDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		_, err := g.breaker.ExecuteCtx(ctx, func(ctx context.Context) (interface{}, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			return nil
		}

		lastErr = err
		if IsCircuitOpen(err) || IsTooManyRequests(err) || !retryable(err) {
			return err
		}
		if attempt >= g.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if delay > 5*time.Second {
				delay = 5 * time.Second
			}
		}
	}

	return fmt.Errorf("gateway: max retries exceeded: %w", lastErr)
}
