package bybit

import (
	"context"
	"math"
	"math/rand"
	"time"

	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
)

// RetryConfig controls exponential backoff for kline requests
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool // adds up to 10% either way
}

// DefaultRetryConfig retries three times starting at one second
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

type RetryableFunc func() error

// Retry executes fn with the client's retry configuration
func (c *Client) Retry(ctx context.Context, fn RetryableFunc) error {
	return c.RetryWithConfig(ctx, fn, c.retry)
}

// RetryWithConfig executes fn until it succeeds, fails with a non-retryable
// error, or the attempts are exhausted
func (c *Client) RetryWithConfig(ctx context.Context, fn RetryableFunc, config RetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == config.MaxRetries || !isRetryable(err) {
			break
		}

		delay := calculateDelay(attempt, config)
		c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("Retrying kline request")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func isRetryable(err error) bool {
	if IsRetryableError(err) {
		return true
	}
	if _, ok := err.(*BybitError); ok {
		return false
	}
	return apperrors.Categorize(err, "bybit", "retry").IsRetryable()
}

// calculateDelay is InitialDelay × BackoffFactor^attempt, capped at MaxDelay
func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterEnabled {
		delay += time.Duration(float64(delay) * 0.1 * (2*rand.Float64() - 1))
	}
	return delay
}
