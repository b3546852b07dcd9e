package tasks

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Schedule runs a task at a fixed rate on its own goroutine.
//
// The first run happens immediately. Later runs are paced by a [rate.Limiter]
// so a slow task is followed by the next run without an extra full interval.
type Schedule struct {
	stop     context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Every starts a schedule that calls task every interval until task returns
// false, [Schedule.Stop] is called, or ctx is cancelled.
//
// task receives ctx, not the schedule's own stop signal: stopping prevents
// further runs but does not abort one already in flight.
func Every(ctx context.Context, interval time.Duration, task func(context.Context) bool) *Schedule {
	waitCtx, stop := context.WithCancel(ctx)
	s := &Schedule{stop: stop, done: make(chan struct{})}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	go func() {
		defer close(s.done)
		defer stop()
		for {
			if err := limiter.Wait(waitCtx); err != nil {
				return
			}
			if waitCtx.Err() != nil {
				return
			}
			if !task(ctx) {
				return
			}
		}
	}()
	return s
}

// Stop prevents further runs. It does not wait for a run in progress; use [Schedule.Done] for that.
func (s *Schedule) Stop() {
	s.stopOnce.Do(s.stop)
}

// Done is closed once the schedule's goroutine has exited.
func (s *Schedule) Done() <-chan struct{} {
	return s.done
}
