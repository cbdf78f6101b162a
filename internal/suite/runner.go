// Package suite runs browser scenarios with a per-scenario browser session
// and reports their lifecycle to listeners.
package suite

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/keyworddriven/loginharness/internal/browser"
	"github.com/keyworddriven/loginharness/internal/driver"
	"github.com/keyworddriven/loginharness/internal/pages"
	"github.com/rs/zerolog/log"
)

// ErrSetup is returned when a scenario's fixture cannot be built
var ErrSetup = errors.New("scenario setup failed")

// ErrSkipped marks a scenario as skipped when returned from its body
var ErrSkipped = errors.New("scenario skipped")

// Skip returns an error that makes the runner report the scenario as skipped
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// Listener observes the suite lifecycle
type Listener interface {
	SuiteStarted()
	TestStarted(worker, name string)
	TestSucceeded(worker, name string)
	TestFailed(worker, name string, cause error)
	TestSkipped(worker, name string)
	SuiteFinished(ctx context.Context) error
}

// SessionFactory creates browser sessions by browser name
type SessionFactory interface {
	Initialize(ctx context.Context, name string) (browser.Session, error)
}

// Env is what a scenario body gets to work with
type Env struct {
	Session browser.Session
	Login   *pages.LoginPage
}

// Scenario is one independently scheduled test case
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Fixture builds and releases the per-scenario environment
type Fixture struct {
	Factory        SessionFactory
	Browser        string
	BaseURL        string
	ElementTimeout time.Duration
	PollInterval   time.Duration
}

// SetUp creates a fresh session and login page
func (f *Fixture) SetUp(ctx context.Context) (*Env, error) {
	log.Info().Msg("=== Starting Test Setup ===")

	name := f.Browser
	if name == "" {
		name = "chrome"
	}
	session, err := f.Factory.Initialize(ctx, name)
	if err != nil {
		log.Error().Err(err).Msg("Error during setup")
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}
	log.Info().Str("browser", name).Msg("WebDriver initialized and window maximized")

	wait := pages.NewWaiter(session, f.ElementTimeout, f.PollInterval)
	env := &Env{
		Session: session,
		Login:   pages.NewLoginPageWithWaiter(session, f.BaseURL, wait),
	}
	log.Info().Msg("LoginPage object initialized")
	return env, nil
}

// TearDown quits the session; failures are logged, never returned
func (f *Fixture) TearDown(env *Env) {
	log.Info().Msg("=== Tearing Down Test ===")
	if env == nil || env.Session == nil {
		return
	}
	if err := driver.Quit(env.Session); err != nil {
		log.Error().Err(err).Msg("Error during teardown")
		return
	}
	log.Info().Msg("WebDriver closed successfully")
}

// Outcome is the result of one scenario
type Outcome struct {
	Name    string
	Err     error
	Skipped bool
}

// Passed reports whether the scenario passed
func (o Outcome) Passed() bool {
	return o.Err == nil && !o.Skipped
}

// Result is the result of a suite run
type Result struct {
	Outcomes []Outcome
}

// Failed returns the number of failed scenarios
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil && !o.Skipped {
			n++
		}
	}
	return n
}

// Runner executes scenarios one after another on a single worker
type Runner struct {
	fixture   *Fixture
	listeners []Listener
	worker    string
}

// NewRunner creates a sequential runner
func NewRunner(fixture *Fixture, listeners ...Listener) *Runner {
	return &Runner{
		fixture:   fixture,
		listeners: listeners,
		worker:    "worker-1",
	}
}

// Run executes every scenario and notifies the listeners. The returned error
// only reports listener flush failures; scenario failures are in the Result.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (Result, error) {
	for _, l := range r.listeners {
		l.SuiteStarted()
	}

	var result Result
	for _, sc := range scenarios {
		outcome := r.RunScenario(ctx, sc)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	var errs []error
	for _, l := range r.listeners {
		if err := l.SuiteFinished(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return result, errors.Join(errs...)
}

// RunScenario runs one scenario with its own fixture
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) Outcome {
	for _, l := range r.listeners {
		l.TestStarted(r.worker, sc.Name)
	}

	err := r.execute(ctx, sc)

	outcome := Outcome{Name: sc.Name, Err: err}
	switch {
	case err == nil:
		log.Info().Str("test", sc.Name).Msg("Test passed")
		for _, l := range r.listeners {
			l.TestSucceeded(r.worker, sc.Name)
		}
	case errors.Is(err, ErrSkipped):
		outcome.Skipped = true
		log.Info().Str("test", sc.Name).Str("reason", err.Error()).Msg("Test skipped")
		for _, l := range r.listeners {
			l.TestSkipped(r.worker, sc.Name)
		}
	default:
		log.Error().Err(err).Str("test", sc.Name).Msg("Test failed")
		for _, l := range r.listeners {
			l.TestFailed(r.worker, sc.Name, err)
		}
	}
	return outcome
}

func (r *Runner) execute(ctx context.Context, sc Scenario) error {
	env, err := r.fixture.SetUp(ctx)
	if err != nil {
		return err
	}
	defer r.fixture.TearDown(env)

	return Invoke(ctx, sc, env)
}

// Invoke runs the scenario body, turning a panic into an error
func Invoke(ctx context.Context, sc Scenario, env *Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scenario panicked: %v\n%s", p, debug.Stack())
		}
	}()

	log.Info().Str("test", sc.Name).Msg(sc.Description)
	return sc.Run(ctx, env)
}
