package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keyworddriven/loginharness/internal/config"
	"github.com/keyworddriven/loginharness/internal/driver"
	"github.com/keyworddriven/loginharness/internal/report"
	"github.com/keyworddriven/loginharness/internal/suite"
	"github.com/rs/zerolog/log"
)

// ErrScenariosFailed is returned when at least one scenario failed
var ErrScenariosFailed = errors.New("scenarios failed")

// ErrUnknownScenario is returned when a selected scenario does not exist
var ErrUnknownScenario = errors.New("unknown scenario")

// RunDependencies holds everything a suite run needs
type RunDependencies struct {
	Harness   *config.HarnessConfig
	Factory   suite.SessionFactory
	Store     report.RunStore
	Scenarios []suite.Scenario
}

// RunSuite executes the scenarios, writes the report and returns
// ErrScenariosFailed when any scenario failed.
func RunSuite(ctx context.Context, deps RunDependencies) (suite.Result, error) {
	cfg := deps.Harness
	// REPORT_BROWSER defaults to the literal "Chrome" the report always names, even under Firefox
	label := cfg.ReportBrowser
	if b, err := driver.ParseBrowser(cfg.Browser); err == nil && label == "" {
		label = b.Label()
	}

	bridge := report.NewBridge(report.BridgeConfig{
		Path:         cfg.ReportPath,
		BrowserLabel: label,
	}, deps.Store)

	fixture := &suite.Fixture{
		Factory:        deps.Factory,
		Browser:        cfg.Browser,
		BaseURL:        cfg.BaseURL,
		ElementTimeout: cfg.ElementTimeout,
		PollInterval:   cfg.PollInterval,
	}
	runner := suite.NewRunner(fixture, bridge)

	log.Info().
		Str("browser", cfg.Browser).
		Str("engine", cfg.Engine).
		Int("scenarios", len(deps.Scenarios)).
		Msg("Starting suite")

	result, err := runner.Run(ctx, deps.Scenarios)
	if err != nil {
		return result, err
	}
	if n := result.Failed(); n > 0 {
		return result, fmt.Errorf("%w: %d of %d", ErrScenariosFailed, n, len(result.Outcomes))
	}
	return result, nil
}

// SelectScenarios keeps the named scenarios in suite order. No names selects all.
func SelectScenarios(all []suite.Scenario, names []string) ([]suite.Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = true
	}

	var selected []suite.Scenario
	for _, sc := range all {
		if wanted[sc.Name] {
			selected = append(selected, sc)
			delete(wanted, sc.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for n := range wanted {
			missing = append(missing, n)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, strings.Join(missing, ", "))
	}
	return selected, nil
}
