package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

// ImportMonitor ties a [Submitter] to a [Poller]: every accepted submission
// (re)starts polling with a fresh idle counter.
type ImportMonitor struct {
	submitter *Submitter
	poller    *Poller
	recorder  ImportRecorder
	logger    *log.Logger

	mu       sync.Mutex
	pending  []*models.ImportRecord
	settling sync.WaitGroup
}

// NewImportMonitor creates a monitor for api. logger may be nil.
func NewImportMonitor(api ImportAPI, opts PollerOptions, logger *log.Logger) *ImportMonitor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportMonitor{
		submitter: NewSubmitter(api, logger),
		poller:    NewPoller(api, opts, logger),
		logger:    shared.WithLogger(logger, "component", "import_monitor"),
	}
}

// WithRecorder stores each submission and its outcome through r.
func (m *ImportMonitor) WithRecorder(r ImportRecorder) *ImportMonitor {
	m.recorder = r
	return m
}

// Poller exposes the underlying poller.
func (m *ImportMonitor) Poller() *Poller { return m.poller }

// Submit queues path and, once accepted, restarts polling.
//
// A rejected submission leaves any run in progress untouched.
func (m *ImportMonitor) Submit(ctx context.Context, path string, progress chan<- ProgressUpdate) (*Acknowledgment, error) {
	ack, err := m.submitter.Submit(ctx, path)
	if err != nil {
		sendProgress(progress, rejectedUpdate(path, err))
		if !errors.Is(err, shared.ErrInvalidPath) {
			m.record(path, models.OutcomeFailed, err.Error())
		}
		return nil, err
	}

	sendProgress(progress, submittedUpdate(ack.Path))
	if record := m.record(ack.Path, models.OutcomePending, ""); record != nil {
		m.mu.Lock()
		m.pending = append(m.pending, record)
		m.mu.Unlock()
	}

	m.Watch(ctx, progress)
	return ack, nil
}

// Watch starts polling without submitting anything.
func (m *ImportMonitor) Watch(ctx context.Context, progress chan<- ProgressUpdate) {
	run := m.poller.Start(ctx, progress)

	m.settling.Add(1)
	go func() {
		defer m.settling.Done()
		result, err := run.Result()
		if result == Restarted {
			return
		}
		m.settle(result, err)
	}()
}

// Stop cancels polling.
func (m *ImportMonitor) Stop() {
	m.poller.Stop()
}

// Wait blocks until polling ends and the submissions it covered are recorded.
func (m *ImportMonitor) Wait(ctx context.Context) (Phase, error) {
	result, err := m.poller.Wait(ctx)
	if ctx.Err() == nil {
		m.settling.Wait()
	}
	return result, err
}

// record stores a new history entry, returning nil when no recorder is set or the write fails.
func (m *ImportMonitor) record(path string, outcome models.ImportOutcome, detail string) *models.ImportRecord {
	if m.recorder == nil {
		return nil
	}

	record := models.NewImportRecord(path)
	if outcome != models.OutcomePending {
		record.Finish(outcome, detail, time.Now().UTC())
	}
	if err := m.recorder.Create(record); err != nil {
		m.logger.Warn("failed to record import", "path", path, "error", err)
		return nil
	}
	return record
}

// settle marks every pending submission with the outcome of the run that covered it.
func (m *ImportMonitor) settle(result Phase, runErr error) {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	if m.recorder == nil || len(pending) == 0 {
		return
	}

	outcome, detail := models.OutcomeFinished, ""
	switch result {
	case Aborted:
		outcome = models.OutcomeFailed
	case Cancelled:
		outcome = models.OutcomeCancelled
	}
	if runErr != nil {
		detail = runErr.Error()
	}

	now := time.Now().UTC()
	for _, record := range pending {
		record.Finish(outcome, detail, now)
		if err := m.recorder.Update(record); err != nil {
			m.logger.Warn("failed to update import record", "path", record.Path(), "error", err)
		}
	}
}
