// Package sync defines the device log reconciliation contract: one punch
// in, at most one attendance mutation out.
package sync

import (
	"context"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
)

// Outcome classifies what processing a single log entry did.
type Outcome string

const (
	// OutcomeApplied means the entry produced a store write.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkippedUnmapped means no employee matched the device identifier.
	OutcomeSkippedUnmapped Outcome = "skipped_unmapped"
	// OutcomeSkippedDuplicate means the punch's target field was already set.
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
	// OutcomeFailed means a lookup or store error; the entry is not retried
	// within the run.
	OutcomeFailed Outcome = "failed"
)

// BatchResult tallies per-entry outcomes for one sync run.
type BatchResult struct {
	Total            int
	Applied          int
	SkippedUnmapped  int
	SkippedDuplicate int
	Failed           int
}

// Add records one outcome in the tally.
func (r *BatchResult) Add(o Outcome) {
	r.Total++
	switch o {
	case OutcomeApplied:
		r.Applied++
	case OutcomeSkippedUnmapped:
		r.SkippedUnmapped++
	case OutcomeSkippedDuplicate:
		r.SkippedDuplicate++
	case OutcomeFailed:
		r.Failed++
	}
}

// Event is published for every applied punch, feeding the live dashboard
// stream.
type Event struct {
	EmployeeID   string           `json:"employee_id"`
	EmployeeName string           `json:"employee_name"`
	Direction    device.Direction `json:"direction"`
	Timestamp    time.Time        `json:"timestamp"`
	Date         string           `json:"date"`
}

// Service reconciles device punches into attendance records.
type Service interface {
	// ProcessLogs runs the batch entry-by-entry. A failing entry is
	// counted and skipped; it never aborts the rest of the batch.
	ProcessLogs(ctx context.Context, logs []device.LogEntry) BatchResult

	// ProcessEntry handles a single punch (shared by batch and realtime
	// paths).
	ProcessEntry(ctx context.Context, entry device.LogEntry) Outcome

	// TriggerSync runs one fetch-reconcile-notify cycle. At most one run
	// is in flight at a time; a trigger during a run is dropped and
	// reports started=false.
	TriggerSync(ctx context.Context) (started bool)

	// Running reports whether a sync run is currently in flight.
	Running() bool
}
