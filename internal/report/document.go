// Package report collects test outcomes into a report document and renders it.
package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/keyworddriven/loginharness/internal/models"
)

// Report defaults
const (
	DefaultTitle      = "Keyword-Driven Framework Test Report"
	DefaultReportName = "Test Execution Report"
	DefaultPath       = "test-output/extent-report.html"
)

// ErrAlreadyFlushed is returned by a second Flush
var ErrAlreadyFlushed = errors.New("report already flushed")

// unfinishedCause is recorded for entries still running at flush time
const unfinishedCause = "test did not finish before the suite ended"

// Fact is a system fact shown in the report header
type Fact struct {
	Name  string
	Value string
}

// Renderer persists a finished run
type Renderer interface {
	Render(run *models.Run, facts []Fact) error
}

// Document is the process-wide report. Entries are appended in start order
// and each worker has its own current-entry slot.
type Document struct {
	mu        sync.Mutex
	run       *models.Run
	facts     []Fact
	slots     map[string]*models.TestEntry
	renderers []Renderer
	flushed   bool
}

// NewDocument creates an empty document
func NewDocument(title, reportName string) *Document {
	return &Document{
		run:   models.NewRun(title, reportName, "", ""),
		slots: make(map[string]*models.TestEntry),
	}
}

// AttachRenderer adds a renderer invoked on Flush
func (d *Document) AttachRenderer(r Renderer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderers = append(d.renderers, r)
}

// SetSystemInfo records a system fact, replacing an earlier value with the same name
func (d *Document) SetSystemInfo(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch name {
	case "Browser":
		d.run.Browser = value
	case "OS":
		d.run.OS = value
	}
	for i := range d.facts {
		if d.facts[i].Name == name {
			d.facts[i].Value = value
			return
		}
	}
	d.facts = append(d.facts, Fact{Name: name, Value: value})
}

// CreateTest appends a running entry and binds it to the worker's slot
func (d *Document) CreateTest(worker, name string) (*models.TestEntry, error) {
	entry, err := models.NewTestEntry(name)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.flushed {
		return nil, fmt.Errorf("create test %s: %w", name, ErrAlreadyFlushed)
	}
	entry.RunID = d.run.ID
	d.run.Entries = append(d.run.Entries, entry)
	d.slots[worker] = entry
	return entry, nil
}

// Pass finalizes the worker's current entry as passed
func (d *Document) Pass(worker, name, message string) error {
	return d.finish(worker, name, func(e *models.TestEntry) error { return e.Pass(message) })
}

// Fail finalizes the worker's current entry as failed
func (d *Document) Fail(worker, name string, cause error) error {
	return d.finish(worker, name, func(e *models.TestEntry) error { return e.Fail(cause) })
}

// Skip finalizes the worker's current entry as skipped
func (d *Document) Skip(worker, name, message string) error {
	return d.finish(worker, name, func(e *models.TestEntry) error { return e.Skip(message) })
}

func (d *Document) finish(worker, name string, apply func(e *models.TestEntry) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.flushed {
		return fmt.Errorf("finish test %s: %w", name, ErrAlreadyFlushed)
	}

	entry, ok := d.slots[worker]
	if !ok || entry.Name != name {
		// A skip can arrive without a start when setup never ran
		created, err := models.NewTestEntry(name)
		if err != nil {
			return err
		}
		created.RunID = d.run.ID
		d.run.Entries = append(d.run.Entries, created)
		entry = created
	}
	delete(d.slots, worker)
	return apply(entry)
}

// Current returns the entry bound to the worker's slot
func (d *Document) Current(worker string) (*models.TestEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.slots[worker]
	return entry, ok
}

// Len returns the number of entries
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.run.Entries)
}

// Facts returns a copy of the system facts
func (d *Document) Facts() []Fact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Fact(nil), d.facts...)
}

// Run returns the underlying run. It must not be modified before Flush.
func (d *Document) Run() *models.Run {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.run
}

// Flush finalizes dangling entries and renders the document. It runs once.
func (d *Document) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.flushed {
		return ErrAlreadyFlushed
	}
	d.flushed = true

	for _, entry := range d.run.Entries {
		if !entry.Status.IsTerminal() {
			entry.Fail(errors.New(unfinishedCause))
		}
	}
	clear(d.slots)
	if err := d.run.Finish(); err != nil {
		return err
	}

	var errs []error
	for _, r := range d.renderers {
		if err := r.Render(d.run, d.facts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
