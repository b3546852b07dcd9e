// Package tasks implements the import job monitor with real-time progress reporting.
//
// # Core Operations
//
//  1. [Submitter.Submit] : queue a server-side path for import
//     - A blank path fails with shared.ErrInvalidPath and no request is made
//     - HTTP 404 becomes shared.ErrPathNotFound
//     - Anything else becomes shared.ErrSubmissionFailed
//
//  2. [Poller.Start] : watch the importer queue
//     - Fetches a snapshot every interval and publishes it
//     - Counts consecutive snapshots with zero outstanding tasks; any non-zero snapshot resets the count
//     - Finishes once the count reaches the grace window (10 by default)
//
//  3. [ImportMonitor] : submit, then (re)start polling with a fresh counter
//
// # Scheduling
//
// Polling runs on a [Schedule], a cancellable fixed-rate loop paced by
// golang.org/x/time/rate. Stopping a schedule prevents further runs; a fetch
// already in flight completes but its result is discarded because each
// polling run carries an id that late results are checked against.
//
// # Failed Fetches
//
// A failed status fetch skips that tick: the idle counter is neither advanced
// nor reset and the failure is published as a [PollFailed] update.
// PollerOptions.MaxFailures aborts the run after that many consecutive
// failures; zero keeps retrying for as long as the run lasts.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, idle counter, messages, and the
// latest snapshot. Updates use select with default to prevent blocking, so a
// slow reader sees fewer updates rather than stalling the poller.
package tasks
