package retry

import (
	"context"
	"time"

	"CatalogLocalizer/pkg/pace"
)

// Do runs fn up to attempts times, waiting delay between failed attempts.
// retryable classifies attempt errors; returning false surfaces that error
// as terminal immediately. Context errors surface raw so cancellation is
// never mistaken for a service failure.
func Do(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt < attempts {
			if err := pace.Wait(ctx, delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}
