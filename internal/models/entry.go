package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the state of a test entry
type Status string

// Entry statuses
const (
	StatusRunning Status = "RUNNING"
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkip    Status = "SKIP"
)

// IsTerminal reports whether s is a final status
func (s Status) IsTerminal() bool {
	return s == StatusPass || s == StatusFail || s == StatusSkip
}

// Domain errors
var (
	ErrInvalidTestName    = errors.New("test name cannot be empty")
	ErrAlreadyFinalized   = errors.New("test entry already has a terminal status")
	ErrInvalidStatus      = errors.New("invalid test status")
	ErrRunAlreadyFinished = errors.New("run is already finished")
)

// LogLine is one status line attached to a test entry
type LogLine struct {
	Status  Status
	Message string
	At      time.Time
}

// TestEntry records the outcome of one scenario
type TestEntry struct {
	ID         string
	RunID      string
	Name       string
	Status     Status
	Cause      string
	Logs       []LogLine
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewTestEntry creates a running entry for the named test
func NewTestEntry(name string) (*TestEntry, error) {
	if name == "" {
		return nil, ErrInvalidTestName
	}
	return &TestEntry{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}, nil
}

// Pass marks the entry as passed
func (e *TestEntry) Pass(message string) error {
	return e.finish(StatusPass, message, "")
}

// Fail marks the entry as failed with cause
func (e *TestEntry) Fail(cause error) error {
	text := "unknown failure"
	if cause != nil {
		text = cause.Error()
	}
	return e.finish(StatusFail, text, text)
}

// Skip marks the entry as skipped
func (e *TestEntry) Skip(message string) error {
	return e.finish(StatusSkip, message, "")
}

func (e *TestEntry) finish(status Status, message, cause string) error {
	if e.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s, cannot become %s", ErrAlreadyFinalized, e.Name, e.Status, status)
	}

	now := time.Now()
	e.Status = status
	e.Cause = cause
	e.FinishedAt = now
	e.Logs = append(e.Logs, LogLine{Status: status, Message: message, At: now})
	return nil
}

// Duration returns how long the test ran
func (e *TestEntry) Duration() time.Duration {
	if e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// ParseStatus converts a stored status string
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusRunning, StatusPass, StatusFail, StatusSkip:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}
