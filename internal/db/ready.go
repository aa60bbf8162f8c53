package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// WaitFor calls ping with Fibonacci backoff until it succeeds or timeout expires.
func WaitFor(ctx context.Context, timeout time.Duration, ping func(context.Context) error) error {
	b := retry.WithMaxDuration(timeout, retry.NewFibonacci(100*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("timeout waiting for database: %w", err)
	}
	return nil
}
