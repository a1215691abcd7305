package exam

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultDuration is the time allowed for one exam.
const DefaultDuration = 40 * time.Minute

// startCountdown calls onTick once per interval until the returned stop func
// is called or ctx is done. stop never waits for the goroutine, so it is safe
// to call from inside onTick.
func startCountdown(ctx context.Context, clock Clock, interval time.Duration, onTick func()) (stop func()) {
	t := clock.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C():
				if ctx.Err() != nil {
					return
				}
				select {
				case <-done:
					return
				default:
				}
				onTick()
			}
		}
	}()

	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}

// FormatClock renders seconds as mm:ss. Negative input renders as 00:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// CompletionPercent is answered/total*100, or 0 for an empty set.
func CompletionPercent(answered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(answered) / float64(total) * 100
}
