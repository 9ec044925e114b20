package pace

import (
	"context"
	"time"
)

// Wait blocks for d or until ctx is done, whichever comes first. All fixed
// delays in the pipeline (retry backoff, rate-limit cooldown, per-product
// pacing) go through here so cancellation is honored everywhere.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
