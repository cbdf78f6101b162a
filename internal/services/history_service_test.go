package services

import (
	"context"
	"errors"
	"testing"

	"github.com/keyworddriven/loginharness/internal/models"
)

// MockRunRepository is a mock implementation of RunRepository for testing
type MockRunRepository struct {
	SaveRunFunc  func(context.Context, *models.Run) error
	ListRunsFunc func(context.Context, int) ([]*models.Run, error)
	GetRunFunc   func(context.Context, string) (*models.Run, error)
	saved        []*models.Run
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run *models.Run) error {
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, run)
	}
	m.saved = append(m.saved, run)
	return nil
}

func (m *MockRunRepository) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx, limit)
	}
	return m.saved, nil
}

func (m *MockRunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, id)
	}
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

// runWith builds a finished run with one entry per outcome; a nil error passes,
// errSkip skips and anything else fails.
var errSkip = errors.New("skip")

func runWith(t *testing.T, outcomes map[string]error) *models.Run {
	t.Helper()
	run := models.NewRun("title", "report", "Chrome", "linux")
	for name, outcome := range outcomes {
		e, err := models.NewTestEntry(name)
		if err != nil {
			t.Fatalf("NewTestEntry() error = %v", err)
		}
		switch {
		case outcome == nil:
			e.Pass(name + " - PASSED")
		case errors.Is(outcome, errSkip):
			e.Skip(name + " - SKIPPED")
		default:
			e.Fail(outcome)
		}
		run.Entries = append(run.Entries, e)
	}
	run.Finish()
	return run
}

func TestHistoryService_SaveRun(t *testing.T) {
	tests := []struct {
		name      string
		run       func(t *testing.T) *models.Run
		mockError error
		wantErr   error
	}{
		{
			name:    "finished run is saved",
			run:     func(t *testing.T) *models.Run { return runWith(t, map[string]error{"NavigateToApp": nil}) },
			wantErr: nil,
		},
		{
			name:    "unfinished run is rejected",
			run:     func(t *testing.T) *models.Run { return models.NewRun("title", "report", "", "") },
			wantErr: ErrRunNotFinished,
		},
		{
			name:    "nil run is rejected",
			run:     func(t *testing.T) *models.Run { return nil },
			wantErr: ErrRunNotFinished,
		},
		{
			name:      "repository error",
			run:       func(t *testing.T) *models.Run { return runWith(t, nil) },
			mockError: errors.New("database error"),
			wantErr:   errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRunRepository{}
			if tt.mockError != nil {
				repo.SaveRunFunc = func(context.Context, *models.Run) error { return tt.mockError }
			}
			service := NewHistoryService(repo)

			err := service.SaveRun(context.Background(), tt.run(t))

			switch {
			case tt.wantErr == nil && err != nil:
				t.Fatalf("SaveRun() unexpected error = %v", err)
			case tt.wantErr == nil:
				if len(repo.saved) != 1 {
					t.Errorf("expected 1 saved run, got %d", len(repo.saved))
				}
			case tt.mockError != nil:
				if !errors.Is(err, tt.mockError) {
					t.Errorf("SaveRun() error = %v, want wrapped %v", err, tt.mockError)
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SaveRun() error = %v, want %v", err, tt.wantErr)
				}
				if len(repo.saved) != 0 {
					t.Error("rejected run should not reach the repository")
				}
			}
		})
	}
}

func TestHistoryService_GetRun(t *testing.T) {
	repo := &MockRunRepository{}
	service := NewHistoryService(repo)
	run := runWith(t, map[string]error{"NavigateToApp": nil})
	if err := service.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := service.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got != run {
		t.Errorf("GetRun() returned a different run")
	}

	if _, err := service.GetRun(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestHistoryService_TestStats(t *testing.T) {
	// Given two runs, newest first as the repository returns them
	newest := runWith(t, map[string]error{
		"NavigateToApp":    nil,
		"LoginFormVisible": errors.New("sign in disabled"),
	})
	older := runWith(t, map[string]error{
		"NavigateToApp":    nil,
		"LoginFormVisible": nil,
		"EnterUsername":    errSkip,
	})
	repo := &MockRunRepository{
		ListRunsFunc: func(_ context.Context, limit int) ([]*models.Run, error) {
			if limit != 10 {
				t.Errorf("expected limit 10, got %d", limit)
			}
			return []*models.Run{newest, older}, nil
		},
	}
	service := NewHistoryService(repo)

	// When stats are aggregated
	stats, err := service.TestStats(context.Background(), 10)
	if err != nil {
		t.Fatalf("TestStats() error = %v", err)
	}

	// Then each test is counted once per run, sorted by name
	if len(stats) != 3 {
		t.Fatalf("expected 3 stats, got %d", len(stats))
	}
	wantNames := []string{"EnterUsername", "LoginFormVisible", "NavigateToApp"}
	for i, name := range wantNames {
		if stats[i].Name != name {
			t.Errorf("stats[%d].Name = %s, want %s", i, stats[i].Name, name)
		}
	}

	form := stats[1]
	if form.Runs != 2 || form.Passed != 1 || form.Failed != 1 {
		t.Errorf("unexpected LoginFormVisible stat: %+v", form)
	}
	if form.LastStatus != models.StatusFail || form.LastCause != "sign in disabled" {
		t.Errorf("last status should come from the newest run: %+v", form)
	}
	if form.PassRate() != 0.5 {
		t.Errorf("PassRate() = %v, want 0.5", form.PassRate())
	}
	if stats[0].Skipped != 1 || stats[0].PassRate() != 0 {
		t.Errorf("unexpected EnterUsername stat: %+v", stats[0])
	}
	if stats[2].PassRate() != 1 {
		t.Errorf("NavigateToApp PassRate() = %v, want 1", stats[2].PassRate())
	}
}

func TestHistoryService_TestStats_RepositoryError(t *testing.T) {
	repo := &MockRunRepository{
		ListRunsFunc: func(context.Context, int) ([]*models.Run, error) {
			return nil, errors.New("database error")
		},
	}
	service := NewHistoryService(repo)

	if _, err := service.TestStats(context.Background(), 5); err == nil {
		t.Error("expected error from repository")
	}
}

func TestTestStat_PassRate_NoRuns(t *testing.T) {
	if (TestStat{}).PassRate() != 0 {
		t.Error("expected 0 pass rate with no runs")
	}
}
