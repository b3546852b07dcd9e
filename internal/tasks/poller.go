package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

const (
	DefaultPollInterval = time.Second
	DefaultGraceCount   = 10
)

// PollerOptions configures a [Poller].
type PollerOptions struct {
	Interval    time.Duration
	GraceCount  int // consecutive idle snapshots required to finish
	MaxFailures int // consecutive failed fetches before giving up; 0 never gives up
}

func (o PollerOptions) withDefaults() PollerOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.GraceCount <= 0 {
		o.GraceCount = DefaultGraceCount
	}
	if o.MaxFailures < 0 {
		o.MaxFailures = 0
	}
	return o
}

// Poller watches the importer queue until it has been idle for GraceCount
// consecutive snapshots.
//
// Each snapshot replaces the previous one, warnings and errors included. A
// failed fetch skips that tick and leaves the idle counter as it was.
type Poller struct {
	fetcher StatusFetcher
	opts    PollerOptions
	logger  *log.Logger

	mu       sync.Mutex
	run      *Run
	running  bool
	schedule *Schedule
	progress chan<- ProgressUpdate
	zeros    int
	failures int
	last     *models.ImportStatus
}

// Run is one polling run started by [Poller.Start].
type Run struct {
	id     uint64
	done   chan struct{}
	result Phase
	err    error
}

// Done is closed when the run ends.
func (r *Run) Done() <-chan struct{} { return r.done }

// Result blocks until the run ends and reports how it ended.
func (r *Run) Result() (Phase, error) {
	<-r.done
	return r.result, r.err
}

// NewPoller creates an idle [Poller]. logger may be nil.
func NewPoller(fetcher StatusFetcher, opts PollerOptions, logger *log.Logger) *Poller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	idle := &Run{done: make(chan struct{}), result: Cancelled}
	close(idle.done)
	return &Poller{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		logger:  shared.WithLogger(logger, "component", "poller"),
		run:     idle,
	}
}

// Start begins a new polling run, replacing any run in progress.
//
// The idle counter and failure count are reset; a replaced run ends as
// [Restarted]. Updates are sent to progress without blocking; progress may be nil.
func (p *Poller) Start(ctx context.Context, progress chan<- ProgressUpdate) *Run {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.finishLocked(Restarted, nil)
	}

	run := &Run{id: p.run.id + 1, done: make(chan struct{})}
	p.run = run
	p.running = true
	p.progress = progress
	p.zeros = 0
	p.failures = 0
	p.last = nil

	p.logger.Debug("polling started", "run", run.id, "interval", p.opts.Interval, "grace", p.opts.GraceCount)
	schedule := Every(ctx, p.opts.Interval, func(ctx context.Context) bool {
		return p.tick(ctx, run)
	})
	p.schedule = schedule

	go func() {
		<-schedule.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.running && p.run == run {
			p.finishLocked(Cancelled, ctx.Err())
		}
	}()
	return run
}

// Stop cancels the current run. A fetch already in flight is allowed to
// complete but its result is discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.finishLocked(Cancelled, nil)
	}
}

// tick fetches one snapshot and decides whether the run continues.
func (p *Poller) tick(ctx context.Context, run *Run) bool {
	status, err := p.fetcher.ImportStatus(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.run != run {
		p.logger.Debug("discarding late status", "run", run.id)
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	if err != nil {
		p.failures++
		p.logger.Warn("status fetch failed", "failures", p.failures, "error", err)
		sendProgress(p.progress, pollFailedUpdate(p.zeros, p.opts.GraceCount, p.failures, err))

		if p.opts.MaxFailures > 0 && p.failures >= p.opts.MaxFailures {
			p.finishLocked(Aborted, fmt.Errorf("%w: %w", shared.ErrTooManyFailures, err))
			return false
		}
		return true
	}

	p.failures = 0
	p.last = status
	if status.Idle() {
		p.zeros++
	} else {
		p.zeros = 0
	}
	sendProgress(p.progress, polledUpdate(p.zeros, p.opts.GraceCount, status))

	if p.zeros >= p.opts.GraceCount {
		p.finishLocked(Finished, nil)
		return false
	}
	return true
}

// finishLocked ends the current run. p.mu must be held.
func (p *Poller) finishLocked(result Phase, err error) {
	p.running = false
	p.run.result = result
	p.run.err = err
	if p.schedule != nil {
		p.schedule.Stop()
	}

	switch result {
	case Finished:
		p.logger.Info("importer idle, polling finished", "run", p.run.id)
		sendProgress(p.progress, finishedUpdate(p.opts.GraceCount, p.last))
	case Aborted:
		p.logger.Error("polling aborted", "run", p.run.id, "error", err)
		sendProgress(p.progress, abortedUpdate(err))
	case Cancelled:
		p.logger.Debug("polling cancelled", "run", p.run.id)
		sendProgress(p.progress, cancelledUpdate())
	}
	close(p.run.done)
}

// Running reports whether a run is in progress.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Snapshot returns the latest status and the current idle counter.
func (p *Poller) Snapshot() (*models.ImportStatus, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.zeros
}

// Done returns a channel closed when the current run ends.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run.done
}

// Wait blocks until polling ends or ctx is done. A run replaced by
// [Poller.Start] is followed into its replacement.
func (p *Poller) Wait(ctx context.Context) (Phase, error) {
	for {
		select {
		case <-p.Done():
			p.mu.Lock()
			running, run := p.running, p.run
			p.mu.Unlock()
			if running {
				continue
			}
			return run.result, run.err
		case <-ctx.Done():
			return Cancelled, ctx.Err()
		}
	}
}
