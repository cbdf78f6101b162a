package report

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/rs/zerolog/log"
)

// RunStore persists finished runs
type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
}

// BridgeConfig configures the report produced by a Bridge
type BridgeConfig struct {
	Path         string
	Title        string
	ReportName   string
	BrowserLabel string
}

// Bridge turns test lifecycle events into report entries
type Bridge struct {
	cfg   BridgeConfig
	store RunStore

	mu  sync.Mutex
	doc *Document
}

// NewBridge creates a bridge; store may be nil
func NewBridge(cfg BridgeConfig, store RunStore) *Bridge {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.ReportName == "" {
		cfg.ReportName = DefaultReportName
	}
	if cfg.BrowserLabel == "" {
		cfg.BrowserLabel = "Chrome"
	}
	return &Bridge{
		cfg:   cfg,
		store: store,
	}
}

// SuiteStarted creates the document and attaches the HTML renderer
func (b *Bridge) SuiteStarted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start()
}

func (b *Bridge) start() {
	b.doc = NewDocument(b.cfg.Title, b.cfg.ReportName)
	b.doc.AttachRenderer(NewHTMLRenderer(b.cfg.Path))
	b.doc.SetSystemInfo("Browser", b.cfg.BrowserLabel)
	b.doc.SetSystemInfo("OS", runtime.GOOS)
	log.Info().Str("report", b.cfg.Path).Msg("Report started")
}

// Document returns the current document, starting one if the suite start event was missed
func (b *Bridge) Document() *Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doc == nil {
		log.Warn().Msg("Test event received before suite start, starting report")
		b.start()
	}
	return b.doc
}

// TestStarted creates an entry in the worker's slot
func (b *Bridge) TestStarted(worker, name string) {
	if _, err := b.Document().CreateTest(worker, name); err != nil {
		log.Error().Err(err).Str("test", name).Msg("Failed to create report entry")
	}
}

// TestSucceeded records a pass
func (b *Bridge) TestSucceeded(worker, name string) {
	if err := b.Document().Pass(worker, name, name+" - PASSED"); err != nil {
		log.Error().Err(err).Str("test", name).Msg("Failed to record pass")
	}
}

// TestFailed records a failure with its cause
func (b *Bridge) TestFailed(worker, name string, cause error) {
	if err := b.Document().Fail(worker, name, cause); err != nil {
		log.Error().Err(err).Str("test", name).Msg("Failed to record failure")
	}
}

// TestSkipped records a skip
func (b *Bridge) TestSkipped(worker, name string) {
	if err := b.Document().Skip(worker, name, name+" - SKIPPED"); err != nil {
		log.Error().Err(err).Str("test", name).Msg("Failed to record skip")
	}
}

// SuiteFinished flushes the report and saves the run when a store is attached
func (b *Bridge) SuiteFinished(ctx context.Context) error {
	doc := b.Document()
	if err := doc.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}

	run := doc.Run()
	log.Info().Str("report", b.cfg.Path).Str("summary", run.Summary().String()).Msg("Report written")

	if b.store == nil {
		return nil
	}
	if err := b.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run history: %w", err)
	}
	log.Info().Str("run_id", run.ID).Msg("Run saved to history")
	return nil
}
