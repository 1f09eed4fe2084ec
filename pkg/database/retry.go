package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// firstRetryDelay is the wait after the first failed attempt.
var firstRetryDelay = time.Second

// connectWithRetry runs connect until it succeeds, the context ends, or the
// attempt budget is spent. Waits double from 1s: 1s, 2s, 4s, 8s, 16s.
// At least one attempt is always made.
func connectWithRetry(ctx context.Context, backend string, maxRetries int, connect func(ctx context.Context) error) error {
	attempts := maxRetries
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = firstRetryDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = 16 * firstRetryDelay
	policy.MaxElapsedTime = 0

	tried := 0
	err := backoff.RetryNotify(
		func() error {
			tried++
			return connect(ctx)
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx),
		func(err error, next time.Duration) {
			log.Warn().
				Err(err).
				Str("backend", backend).
				Int("attempt", tried).
				Int("max_retries", maxRetries).
				Dur("next_retry_in", next).
				Msg("connection failed, retrying")
		},
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect after %d attempts: %w", backend, tried, err)
	}

	log.Info().Str("backend", backend).Msg("connection established")
	return nil
}
