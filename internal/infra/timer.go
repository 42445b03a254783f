package infra

import (
	"sync"
	"time"

	"github.com/mkliu/usagemon/internal/domain"
)

// TickerTimer implements domain.Timer on a time.Ticker goroutine. The
// first callback fires immediately, then on every period. Stop blocks
// until the goroutine has exited, so no callback runs after it returns.
type TickerTimer struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewTickerTimer creates an unstarted timer.
func NewTickerTimer() *TickerTimer {
	return &TickerTimer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the tick goroutine. Call at most once.
func (t *TickerTimer) Start(period time.Duration, fn func()) {
	go func() {
		defer close(t.done)

		fn()

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop cancels the timer and waits for an in-flight callback. Idempotent.
func (t *TickerTimer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// Ensure TickerTimer implements domain.Timer.
var _ domain.Timer = (*TickerTimer)(nil)
