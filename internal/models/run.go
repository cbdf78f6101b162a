package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one suite execution
type Run struct {
	ID         string
	Title      string
	ReportName string
	Browser    string
	OS         string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    []*TestEntry
}

// Summary counts entries by status
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Running int
}

// NewRun creates a run started now
func NewRun(title, reportName, browser, os string) *Run {
	return &Run{
		ID:         uuid.New().String(),
		Title:      title,
		ReportName: reportName,
		Browser:    browser,
		OS:         os,
		StartedAt:  time.Now(),
	}
}

// Finish marks the run as finished
func (r *Run) Finish() error {
	if !r.FinishedAt.IsZero() {
		return ErrRunAlreadyFinished
	}
	r.FinishedAt = time.Now()
	return nil
}

// IsFinished reports whether Finish was called
func (r *Run) IsFinished() bool {
	return !r.FinishedAt.IsZero()
}

// Summary returns the status counts of the run
func (r *Run) Summary() Summary {
	s := Summary{Total: len(r.Entries)}
	for _, e := range r.Entries {
		switch e.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		default:
			s.Running++
		}
	}
	return s
}

// Succeeded reports whether no entry failed
func (r *Run) Succeeded() bool {
	return r.Summary().Failed == 0
}

// String formats the summary for logs
func (s Summary) String() string {
	return fmt.Sprintf("%d tests: %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}
