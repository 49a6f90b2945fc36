package app

import "time"

// Run tracks one CLI invocation. Its ID tags every log line and its start
// time is recorded on runs saved by `audit --save`.
type Run struct {
	ID          string
	Command     string
	LibraryPath string
	StartedAt   time.Time
	Status      string // "success" or "error"
}

// NewRun creates a run that has not failed yet.
func NewRun(id, command, libraryPath string, startedAt time.Time) *Run {
	return &Run{
		ID:          id,
		Command:     command,
		LibraryPath: libraryPath,
		StartedAt:   startedAt,
		Status:      "success",
	}
}

// Fail marks the run as failed.
func (r *Run) Fail() { r.Status = "error" }

// Failed reports whether Fail was called.
func (r *Run) Failed() bool { return r.Status == "error" }
