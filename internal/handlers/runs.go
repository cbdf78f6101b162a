package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/keyworddriven/loginharness/internal/repository"
	"github.com/rs/zerolog/log"
)

// RunStore reads persisted runs
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
}

// RunsHandler exposes run history as JSON
type RunsHandler struct {
	store RunStore
}

// NewRunsHandler creates a runs handler; store may be nil when history is disabled
func NewRunsHandler(store RunStore) *RunsHandler {
	return &RunsHandler{store: store}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EntryResponse is one test entry in a run response
type EntryResponse struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Cause      string     `json:"cause,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// RunResponse is a run with its summary
type RunResponse struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	ReportName string          `json:"reportName"`
	Browser    string          `json:"browser"`
	OS         string          `json:"os"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	Total      int             `json:"total"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	Entries    []EntryResponse `json:"entries"`
}

// ServeHTTP lists runs, or returns one run when the request carries an id
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		sendErrorResponse(w, "Run history is disabled", http.StatusServiceUnavailable)
		return
	}

	if id := r.PathValue("id"); id != "" {
		h.getRun(w, r, id)
		return
	}
	h.listRuns(w, r)
}

func (h *RunsHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			sendErrorResponse(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Error listing runs")
		sendErrorResponse(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, newRunResponse(run))
	}
	sendJSON(w, resp)
}

func (h *RunsHandler) getRun(w http.ResponseWriter, r *http.Request, id string) {
	run, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, repository.ErrRunNotFound) {
		sendErrorResponse(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("run_id", id).Msg("Error getting run")
		sendErrorResponse(w, "Failed to get run", http.StatusInternalServerError)
		return
	}
	sendJSON(w, newRunResponse(run))
}

func newRunResponse(run *models.Run) RunResponse {
	s := run.Summary()
	resp := RunResponse{
		ID:         run.ID,
		Title:      run.Title,
		ReportName: run.ReportName,
		Browser:    run.Browser,
		OS:         run.OS,
		StartedAt:  run.StartedAt,
		FinishedAt: optionalTime(run.FinishedAt),
		Total:      s.Total,
		Passed:     s.Passed,
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		Entries:    make([]EntryResponse, 0, len(run.Entries)),
	}
	for _, e := range run.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Name:       e.Name,
			Status:     string(e.Status),
			Cause:      e.Cause,
			StartedAt:  e.StartedAt,
			FinishedAt: optionalTime(e.FinishedAt),
		})
	}
	return resp
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
