package common

import (
	"context"
	"time"
)

// RestartWithContext calls handler repeatedly, waiting interval between calls,
// until either handler returns an error or ctx finishes.
// The error from handler is returned, finishing of ctx results in nil.
func RestartWithContext(ctx context.Context, handler func() error, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := handler()
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
