package watch

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrDisappeared indicates the file vanished while waiting for it.
var ErrDisappeared = errors.New("file disappeared while waiting")

// ErrStabilizeTimeout indicates the file never stabilised within the
// timeout. Callers may still attempt to process the file; partially
// written workbooks fail cleanly at parse time.
var ErrStabilizeTimeout = errors.New("timeout waiting for file to stabilise")

// WaitStable blocks until path is openable and its size stops changing
// across one poll interval. Punch-clock exports are copied into the watch
// folder, so the create event routinely fires mid-write.
func WaitStable(ctx context.Context, path string, timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)
	lastSize := int64(-1)

	for time.Now().Before(deadline) {
		f, err := os.Open(path) // #nosec G304 -- path comes from the watched directory
		if err != nil {
			if os.IsNotExist(err) {
				return ErrDisappeared
			}
			// Locked or mid-copy; try again shortly.
			if err := sleep(ctx, poll); err != nil {
				return err
			}
			continue
		}
		info, statErr := f.Stat()
		_ = f.Close()
		if statErr != nil {
			if err := sleep(ctx, poll); err != nil {
				return err
			}
			continue
		}

		size := info.Size()
		if size == lastSize && size > 0 {
			// One extra interval of settle time before declaring victory.
			if err := sleep(ctx, poll); err != nil {
				return err
			}
			return nil
		}
		lastSize = size

		if err := sleep(ctx, poll); err != nil {
			return err
		}
	}

	return ErrStabilizeTimeout
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
