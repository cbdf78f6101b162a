package report

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/keyworddriven/loginharness/internal/models"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTemplate = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"lower": func(s models.Status) string { return strings.ToLower(string(s)) },
	"since": func(d time.Duration) string { return d.Round(time.Millisecond).String() },
	"stamp": func(t time.Time) string { return t.Format(time.RFC3339) },
}).ParseFS(templateFS, "templates/report.html"))

// HTMLRenderer writes the report as a single HTML file
type HTMLRenderer struct {
	path string
}

// NewHTMLRenderer creates a renderer targeting path
func NewHTMLRenderer(path string) *HTMLRenderer {
	if path == "" {
		path = DefaultPath
	}
	return &HTMLRenderer{path: path}
}

// Path returns the output file
func (r *HTMLRenderer) Path() string {
	return r.path
}

// ReportData is the data for the report template
type ReportData struct {
	Title      string
	ReportName string
	Facts      []Fact
	Summary    models.Summary
	Duration   time.Duration
	StartedAt  time.Time
	Entries    []*models.TestEntry
}

// Render writes the run to a temporary file and renames it over the target
func (r *HTMLRenderer) Render(run *models.Run, facts []Fact) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.html")
	if err != nil {
		return fmt.Errorf("failed to create temporary report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set report permissions: %w", err)
	}

	data := ReportData{
		Title:      run.Title,
		ReportName: run.ReportName,
		Facts:      facts,
		Summary:    run.Summary(),
		StartedAt:  run.StartedAt,
		Entries:    run.Entries,
	}
	if run.IsFinished() {
		data.Duration = run.FinishedAt.Sub(run.StartedAt)
	}

	if err := reportTemplate.Execute(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
