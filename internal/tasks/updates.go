package tasks

import (
	"fmt"

	"github.com/desertthunder/musik/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Consecutive idle observations so far
	Total   int    // Idle observations needed to finish
	Message string // Human-readable message for display
	Data    any    // *models.ImportStatus for poll updates
	Err     error  // Set for PollFailed, Aborted and Rejected
}

// Status returns the snapshot carried by a poll update, or nil.
func (u ProgressUpdate) Status() *models.ImportStatus {
	status, _ := u.Data.(*models.ImportStatus)
	return status
}

// Operation phase enumeration
type Phase int

const (
	Submitted Phase = iota
	Rejected
	Polled
	PollFailed
	Finished
	Aborted
	Cancelled
	Restarted
)

func (p Phase) String() string {
	switch p {
	case Submitted:
		return "submitted"
	case Rejected:
		return "rejected"
	case Polled:
		return "polled"
	case PollFailed:
		return "poll_failed"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	case Cancelled:
		return "cancelled"
	case Restarted:
		return "restarted"
	default:
		return ""
	}
}

// Terminal reports whether the phase ends a polling run.
func (p Phase) Terminal() bool {
	switch p {
	case Finished, Aborted, Cancelled, Restarted:
		return true
	}
	return false
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}

	select {
	case progress <- update:
	default:
	}
}

func submittedUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submitted,
		Message: fmt.Sprintf("Queued %s for import", path),
	}
}

func rejectedUpdate(path string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Rejected,
		Message: fmt.Sprintf("Could not queue %s: %v", path, err),
		Err:     err,
	}
}

func polledUpdate(zeros, grace int, status *models.ImportStatus) ProgressUpdate {
	msg := fmt.Sprintf("%d outstanding", status.OutstandingTasks)
	if status.CurrentTask != nil {
		msg = fmt.Sprintf("%d outstanding, importing %s", status.OutstandingTasks, status.CurrentTask.URI)
	} else if status.Idle() {
		msg = fmt.Sprintf("Importer idle (%d/%d)", zeros, grace)
	}
	return ProgressUpdate{
		Phase:   Polled,
		Step:    zeros,
		Total:   grace,
		Message: msg,
		Data:    status,
	}
}

func pollFailedUpdate(zeros, grace, failures int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollFailed,
		Step:    zeros,
		Total:   grace,
		Message: fmt.Sprintf("Status check failed (%d in a row): %v", failures, err),
		Err:     err,
	}
}

func finishedUpdate(grace int, status *models.ImportStatus) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    grace,
		Total:   grace,
		Message: "Import finished",
		Data:    status,
	}
}

func abortedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aborted,
		Message: fmt.Sprintf("Stopped watching the importer: %v", err),
		Err:     err,
	}
}

func cancelledUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Cancelled,
		Message: "Stopped watching the importer",
	}
}
