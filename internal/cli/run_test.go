package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/keyworddriven/loginharness/internal/browser"
	"github.com/keyworddriven/loginharness/internal/browser/browsertest"
	"github.com/keyworddriven/loginharness/internal/config"
	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/keyworddriven/loginharness/internal/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	sessions int
}

func (f *fakeFactory) Initialize(context.Context, string) (browser.Session, error) {
	f.sessions++
	return browsertest.NewLoginSession(), nil
}

type memoryStore struct {
	runs []*models.Run
}

func (m *memoryStore) SaveRun(_ context.Context, run *models.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func testHarnessConfig(t *testing.T) *config.HarnessConfig {
	t.Helper()
	return &config.HarnessConfig{
		Browser:        "chrome",
		Engine:         "webdriver",
		BaseURL:        browsertest.LoginURL,
		ElementTimeout: 200 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		ReportPath:     filepath.Join(t.TempDir(), "extent-report.html"),
	}
}

func passing(name string) suite.Scenario {
	return suite.Scenario{Name: name, Run: func(context.Context, *suite.Env) error { return nil }}
}

func TestRunSuite_AllPass(t *testing.T) {
	// GIVEN
	factory := &fakeFactory{}
	store := &memoryStore{}
	deps := RunDependencies{
		Harness:   testHarnessConfig(t),
		Factory:   factory,
		Store:     store,
		Scenarios: []suite.Scenario{passing("a"), passing("b")},
	}

	// WHEN
	result, err := RunSuite(context.Background(), deps)

	// THEN
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, factory.sessions)
	require.Len(t, store.runs, 1)
	assert.Equal(t, "Chrome", store.runs[0].Browser)
	assert.FileExists(t, deps.Harness.ReportPath)
}

func TestRunSuite_FailureIsReported(t *testing.T) {
	deps := RunDependencies{
		Harness: testHarnessConfig(t),
		Factory: &fakeFactory{},
		Scenarios: []suite.Scenario{
			passing("a"),
			{Name: "b", Run: func(context.Context, *suite.Env) error { return suite.AssertTrue(false, "b") }},
		},
	}

	result, err := RunSuite(context.Background(), deps)

	assert.ErrorIs(t, err, ErrScenariosFailed)
	assert.Equal(t, "scenarios failed: 1 of 2", err.Error())
	assert.Equal(t, 1, result.Failed())
	assert.FileExists(t, deps.Harness.ReportPath)
}

func TestRunSuite_BrowserLabel(t *testing.T) {
	cfg := testHarnessConfig(t)
	cfg.Browser = "firefox"
	cfg.ReportBrowser = ""
	store := &memoryStore{}

	_, err := RunSuite(context.Background(), RunDependencies{
		Harness:   cfg,
		Factory:   &fakeFactory{},
		Store:     store,
		Scenarios: []suite.Scenario{passing("a")},
	})

	require.NoError(t, err)
	assert.Equal(t, "Firefox", store.runs[0].Browser)
}

func TestRunSuite_ReportBrowserLiteralWins(t *testing.T) {
	cfg := testHarnessConfig(t)
	cfg.Browser = "firefox"
	cfg.ReportBrowser = "Chrome"
	store := &memoryStore{}

	_, err := RunSuite(context.Background(), RunDependencies{
		Harness:   cfg,
		Factory:   &fakeFactory{},
		Store:     store,
		Scenarios: []suite.Scenario{passing("a")},
	})

	require.NoError(t, err)
	assert.Equal(t, "Chrome", store.runs[0].Browser)
}

func TestSelectScenarios(t *testing.T) {
	all := suite.LoginScenarios()

	tests := []struct {
		name    string
		names   []string
		want    []string
		wantErr error
	}{
		{name: "none selects all", names: nil, want: []string{"NavigateToApp", "LoginFormVisible", "LoginWithValidCredentials", "EnterUsername", "EnterPassword", "RememberMeCheckbox"}},
		{name: "suite order is kept", names: []string{"RememberMeCheckbox", " NavigateToApp"}, want: []string{"NavigateToApp", "RememberMeCheckbox"}},
		{name: "unknown name", names: []string{"NavigateToApp", "Logout"}, wantErr: ErrUnknownScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectScenarios(all, tt.names)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "Logout")
				return
			}
			require.NoError(t, err)
			var names []string
			for _, sc := range got {
				names = append(names, sc.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRunSuite_ListenerErrorSurfaces(t *testing.T) {
	// A report path under a regular file cannot be created
	cfg := testHarnessConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, writeFile(blocker))
	cfg.ReportPath = filepath.Join(blocker, "extent-report.html")

	_, err := RunSuite(context.Background(), RunDependencies{
		Harness:   cfg,
		Factory:   &fakeFactory{},
		Scenarios: []suite.Scenario{passing("a")},
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrScenariosFailed))
}
