package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
)

// ReportHandler serves the most recent HTML report
type ReportHandler struct {
	path string
}

// NewReportHandler creates a handler serving the report at path
func NewReportHandler(path string) *ReportHandler {
	return &ReportHandler{path: path}
}

// ServeHTTP writes the report file
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "No report has been generated yet", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("report", h.path).Msg("Error opening report")
		http.Error(w, "Failed to read report", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error().Err(err).Str("report", h.path).Msg("Error reading report")
		http.Error(w, "Failed to read report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
