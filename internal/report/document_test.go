package report

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	calls int
	run   *models.Run
	facts []Fact
	err   error
}

func (r *recordingRenderer) Render(run *models.Run, facts []Fact) error {
	r.calls++
	r.run = run
	r.facts = facts
	return r.err
}

func TestDocument_SetSystemInfo(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)

	doc.SetSystemInfo("Browser", "Chrome")
	doc.SetSystemInfo("OS", "linux")
	doc.SetSystemInfo("Browser", "Firefox")

	assert.Equal(t, []Fact{{Name: "Browser", Value: "Firefox"}, {Name: "OS", Value: "linux"}}, doc.Facts())
	assert.Equal(t, "Firefox", doc.Run().Browser)
	assert.Equal(t, "linux", doc.Run().OS)
}

func TestDocument_Lifecycle(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)
	renderer := &recordingRenderer{}
	doc.AttachRenderer(renderer)

	entry, err := doc.CreateTest("worker-1", "NavigateToApp")
	require.NoError(t, err)
	current, ok := doc.Current("worker-1")
	require.True(t, ok)
	assert.Same(t, entry, current)

	require.NoError(t, doc.Pass("worker-1", "NavigateToApp", "NavigateToApp - PASSED"))
	_, ok = doc.Current("worker-1")
	assert.False(t, ok, "slot is released once the entry is final")

	_, err = doc.CreateTest("worker-1", "EnterUsername")
	require.NoError(t, err)
	require.NoError(t, doc.Fail("worker-1", "EnterUsername", errors.New("expected user@example.com, got ''")))

	_, err = doc.CreateTest("worker-1", "EnterPassword")
	require.NoError(t, err)
	require.NoError(t, doc.Skip("worker-1", "EnterPassword", "EnterPassword - SKIPPED"))

	require.NoError(t, doc.Flush())
	assert.Equal(t, 1, renderer.calls)

	run := renderer.run
	require.Len(t, run.Entries, 3)
	assert.Equal(t, models.StatusPass, run.Entries[0].Status)
	assert.Equal(t, models.StatusFail, run.Entries[1].Status)
	assert.Equal(t, "expected user@example.com, got ''", run.Entries[1].Cause)
	assert.Equal(t, models.StatusSkip, run.Entries[2].Status)
	assert.True(t, run.IsFinished())
	for _, e := range run.Entries {
		assert.Equal(t, run.ID, e.RunID)
	}
}

func TestDocument_SkipWithoutStart(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)

	require.NoError(t, doc.Skip("worker-1", "RememberMeCheckbox", "RememberMeCheckbox - SKIPPED"))

	require.Equal(t, 1, doc.Len())
	assert.Equal(t, models.StatusSkip, doc.Run().Entries[0].Status)
}

func TestDocument_FinishMismatchedNameCreatesEntry(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)
	_, err := doc.CreateTest("worker-1", "A")
	require.NoError(t, err)

	require.NoError(t, doc.Pass("worker-1", "B", "B - PASSED"))
	require.NoError(t, doc.Flush())

	entries := doc.Run().Entries
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Name)
	assert.Equal(t, models.StatusFail, entries[0].Status, "orphaned entries are failed at flush")
	assert.Equal(t, unfinishedCause, entries[0].Cause)
	assert.Equal(t, models.StatusPass, entries[1].Status)
}

func TestDocument_FlushFinalizesDanglingEntries(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)
	_, err := doc.CreateTest("worker-1", "LoginWithValidCredentials")
	require.NoError(t, err)

	require.NoError(t, doc.Flush())

	entry := doc.Run().Entries[0]
	assert.Equal(t, models.StatusFail, entry.Status)
	assert.Equal(t, unfinishedCause, entry.Cause)
}

func TestDocument_FlushOnce(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)
	renderer := &recordingRenderer{}
	doc.AttachRenderer(renderer)

	require.NoError(t, doc.Flush())
	assert.ErrorIs(t, doc.Flush(), ErrAlreadyFlushed)
	assert.Equal(t, 1, renderer.calls)

	_, err := doc.CreateTest("worker-1", "late")
	assert.ErrorIs(t, err, ErrAlreadyFlushed)
	assert.ErrorIs(t, doc.Pass("worker-1", "late", "late"), ErrAlreadyFlushed)
}

func TestDocument_FlushRendererError(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)
	doc.AttachRenderer(&recordingRenderer{err: errors.New("disk full")})
	ok := &recordingRenderer{}
	doc.AttachRenderer(ok)

	err := doc.Flush()
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, ok.calls, "remaining renderers still run")
}

func TestDocument_ConcurrentWorkersKeepSeparateSlots(t *testing.T) {
	doc := NewDocument(DefaultTitle, DefaultReportName)

	const workers = 8
	const testsPerWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			worker := fmt.Sprintf("worker-%d", w)
			for i := 0; i < testsPerWorker; i++ {
				name := fmt.Sprintf("%s/test-%d", worker, i)
				if _, err := doc.CreateTest(worker, name); err != nil {
					t.Errorf("CreateTest(%s) error = %v", name, err)
					return
				}
				var err error
				if i%2 == 0 {
					err = doc.Pass(worker, name, name+" - PASSED")
				} else {
					err = doc.Fail(worker, name, errors.New("odd test"))
				}
				if err != nil {
					t.Errorf("finish(%s) error = %v", name, err)
				}
			}
		}(w)
	}
	wg.Wait()

	require.NoError(t, doc.Flush())

	run := doc.Run()
	require.Len(t, run.Entries, workers*testsPerWorker)
	summary := run.Summary()
	assert.Equal(t, 0, summary.Running)
	assert.Equal(t, workers*13, summary.Passed)
	assert.Equal(t, workers*12, summary.Failed)
	for _, e := range run.Entries {
		assert.Len(t, e.Logs, 1, "entry %s should have exactly one terminal log line", e.Name)
	}
}
