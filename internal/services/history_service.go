package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/keyworddriven/loginharness/internal/models"
)

// ErrRunNotFinished is returned when an unfinished run is recorded
var ErrRunNotFinished = errors.New("run is not finished")

// RunRepository defines the interface for run persistence
type RunRepository interface {
	SaveRun(ctx context.Context, run *models.Run) error
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
}

// TestStat aggregates one test's outcomes across recent runs
type TestStat struct {
	Name       string
	Runs       int
	Passed     int
	Failed     int
	Skipped    int
	LastStatus models.Status
	LastCause  string
}

// PassRate returns the share of runs that passed
func (s TestStat) PassRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Runs)
}

// HistoryService handles run history business logic
type HistoryService struct {
	runRepo RunRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(runRepo RunRepository) *HistoryService {
	return &HistoryService{
		runRepo: runRepo,
	}
}

// SaveRun persists a finished run
func (s *HistoryService) SaveRun(ctx context.Context, run *models.Run) error {
	if run == nil || !run.IsFinished() {
		return ErrRunNotFinished
	}
	if err := s.runRepo.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs, newest first
func (s *HistoryService) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	runs, err := s.runRepo.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a run by ID
func (s *HistoryService) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run, err := s.runRepo.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// TestStats aggregates per-test outcomes over the most recent runs, sorted by name.
// LastStatus is taken from the newest run containing the test.
func (s *HistoryService) TestStats(ctx context.Context, limit int) ([]TestStat, error) {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*TestStat)
	for _, run := range runs {
		for _, e := range run.Entries {
			stat, ok := byName[e.Name]
			if !ok {
				stat = &TestStat{Name: e.Name, LastStatus: e.Status, LastCause: e.Cause}
				byName[e.Name] = stat
			}
			stat.Runs++
			switch e.Status {
			case models.StatusPass:
				stat.Passed++
			case models.StatusFail:
				stat.Failed++
			case models.StatusSkip:
				stat.Skipped++
			}
		}
	}

	stats := make([]TestStat, 0, len(byName))
	for _, stat := range byName {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}
