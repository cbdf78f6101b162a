//go:build integration
// +build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/keyworddriven/loginharness/internal/repository/testutil"
)

func newFinishedRun(t *testing.T, title string, outcomes map[string]error) *models.Run {
	t.Helper()
	run := models.NewRun(title, "Test Execution Report", "Chrome", "linux")
	for _, name := range []string{"NavigateToApp", "LoginFormVisible", "EnterUsername"} {
		cause, ok := outcomes[name]
		if !ok {
			continue
		}
		entry, err := models.NewTestEntry(name)
		if err != nil {
			t.Fatalf("NewTestEntry() error = %v", err)
		}
		entry.RunID = run.ID
		if cause == nil {
			entry.Pass(name + " - PASSED")
		} else {
			entry.Fail(cause)
		}
		run.Entries = append(run.Entries, entry)
	}
	if err := run.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return run
}

func TestRunRepository_SaveAndGet_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepository(testDB.DB)
	ctx := context.Background()

	run := newFinishedRun(t, "suite", map[string]error{
		"NavigateToApp":    nil,
		"LoginFormVisible": errors.New("sign in disabled"),
		"EnterUsername":    nil,
	})

	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}

	if got.Title != run.Title || got.Browser != "Chrome" || got.OS != "linux" {
		t.Errorf("run metadata mismatch: got %+v", got)
	}
	if !got.IsFinished() {
		t.Error("FinishedAt should be set")
	}
	if len(got.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got.Entries))
	}
	for i, e := range got.Entries {
		if e.Name != run.Entries[i].Name {
			t.Errorf("entry %d: got %s, want %s (order must be preserved)", i, e.Name, run.Entries[i].Name)
		}
		if len(e.Logs) != 1 {
			t.Errorf("entry %d: expected 1 log line, got %d", i, len(e.Logs))
		}
	}
	if got.Entries[1].Status != models.StatusFail || got.Entries[1].Cause != "sign in disabled" {
		t.Errorf("failed entry mismatch: %+v", got.Entries[1])
	}
	if s := got.Summary(); s.Passed != 2 || s.Failed != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestRunRepository_SaveRun_Idempotent_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepository(testDB.DB)
	ctx := context.Background()

	run := newFinishedRun(t, "suite", map[string]error{"NavigateToApp": nil})
	for i := 0; i < 2; i++ {
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() attempt %d error = %v", i, err)
		}
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if len(got.Entries) != 1 {
		t.Errorf("expected 1 entry after saving twice, got %d", len(got.Entries))
	}
}

func TestRunRepository_GetRun_NotFound_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepository(testDB.DB)

	tests := []struct {
		name string
		id   string
	}{
		{name: "unknown id", id: uuid.New().String()},
		{name: "malformed id", id: "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.GetRun(context.Background(), tt.id)
			if !errors.Is(err, ErrRunNotFound) {
				t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
			}
		})
	}
}

func TestRunRepository_ListRuns_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepository(testDB.DB)
	ctx := context.Background()

	first := newFinishedRun(t, "first", map[string]error{"NavigateToApp": nil})
	second := newFinishedRun(t, "second", map[string]error{"NavigateToApp": nil, "EnterUsername": nil})
	second.StartedAt = first.StartedAt.Add(1)
	for _, run := range []*models.Run{first, second} {
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Errorf("expected newest run first, got %s", runs[0].Title)
	}
	if len(runs[0].Entries) != 2 || len(runs[1].Entries) != 1 {
		t.Errorf("entries not attached to their runs: %d, %d", len(runs[0].Entries), len(runs[1].Entries))
	}

	limited, err := repo.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d runs", len(limited))
	}
}
