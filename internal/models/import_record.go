package models

import (
	"fmt"
	"strings"
	"time"
)

// ImportOutcome is how monitoring of a submitted import ended.
type ImportOutcome string

const (
	OutcomePending   ImportOutcome = "pending"
	OutcomeFinished  ImportOutcome = "finished"
	OutcomeFailed    ImportOutcome = "failed"
	OutcomeCancelled ImportOutcome = "cancelled"
)

var _ Model = (*ImportRecord)(nil)

// ImportRecord is a submission made from this client, kept in the local history.
type ImportRecord struct {
	id          string
	path        string
	outcome     ImportOutcome
	detail      string
	submittedAt time.Time
	finishedAt  time.Time
}

// NewImportRecord creates a pending record for path.
func NewImportRecord(path string) *ImportRecord {
	return &ImportRecord{
		path:        path,
		outcome:     OutcomePending,
		submittedAt: time.Now().UTC(),
	}
}

// RestoreImportRecord rebuilds a record read back from storage.
func RestoreImportRecord(id, path string, outcome ImportOutcome, detail string, submittedAt, finishedAt time.Time) *ImportRecord {
	return &ImportRecord{
		id:          id,
		path:        path,
		outcome:     outcome,
		detail:      detail,
		submittedAt: submittedAt,
		finishedAt:  finishedAt,
	}
}

func (r *ImportRecord) ID() string             { return r.id }
func (r *ImportRecord) Path() string           { return r.path }
func (r *ImportRecord) Outcome() ImportOutcome { return r.outcome }
func (r *ImportRecord) Detail() string         { return r.detail }
func (r *ImportRecord) SubmittedAt() time.Time { return r.submittedAt }
func (r *ImportRecord) FinishedAt() time.Time  { return r.finishedAt }

// CreatedAt satisfies [Model].
func (r *ImportRecord) CreatedAt() time.Time { return r.submittedAt }

// UpdatedAt satisfies [Model]; a pending record was last touched on submit.
func (r *ImportRecord) UpdatedAt() time.Time {
	if r.finishedAt.IsZero() {
		return r.submittedAt
	}
	return r.finishedAt
}

func (r *ImportRecord) SetID(id string) { r.id = id }

// Finish records the terminal outcome of the monitor.
func (r *ImportRecord) Finish(outcome ImportOutcome, detail string, at time.Time) {
	r.outcome = outcome
	r.detail = detail
	r.finishedAt = at
}

// Validate checks the record before it is stored.
func (r *ImportRecord) Validate() error {
	if strings.TrimSpace(r.path) == "" {
		return fmt.Errorf("import record has no path")
	}
	switch r.outcome {
	case OutcomePending, OutcomeFinished, OutcomeFailed, OutcomeCancelled:
	default:
		return fmt.Errorf("unknown import outcome %q", r.outcome)
	}
	return nil
}
