package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keyworddriven/loginharness/internal/browser"
	"github.com/keyworddriven/loginharness/internal/config"
	"github.com/rs/zerolog/log"
)

// Browser is one of the supported browsers
type Browser int

// Supported browsers
const (
	Chrome Browser = iota + 1
	Firefox
	Edge
)

// String returns the lower-case browser name
func (b Browser) String() string {
	switch b {
	case Chrome:
		return "chrome"
	case Firefox:
		return "firefox"
	case Edge:
		return "edge"
	default:
		return fmt.Sprintf("browser(%d)", int(b))
	}
}

// Label returns the display name used in reports
func (b Browser) Label() string {
	switch b {
	case Chrome:
		return "Chrome"
	case Firefox:
		return "Firefox"
	case Edge:
		return "Edge"
	default:
		return b.String()
	}
}

// ParseBrowser resolves a case-insensitive browser name
func ParseBrowser(name string) (Browser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chrome":
		return Chrome, nil
	case "firefox":
		return Firefox, nil
	case "edge":
		return Edge, nil
	default:
		return 0, fmt.Errorf("%w: %q", browser.ErrUnknownBrowser, name)
	}
}

// Engine launches browser sessions
type Engine interface {
	Launch(ctx context.Context, b Browser) (browser.Session, error)
}

// Factory creates configured browser sessions
type Factory struct {
	engine       Engine
	implicitWait time.Duration
}

// NewFactory creates a factory that applies implicitWait to every session
func NewFactory(engine Engine, implicitWait time.Duration) *Factory {
	return &Factory{
		engine:       engine,
		implicitWait: implicitWait,
	}
}

// NewFactoryFromConfig picks the engine named by the configuration
func NewFactoryFromConfig(cfg *config.HarnessConfig) (*Factory, error) {
	var engine Engine
	switch strings.ToLower(cfg.Engine) {
	case "webdriver":
		engine = NewWebDriverEngine(cfg.WebDriverURL, cfg.DriverPath)
	case "playwright":
		engine = NewPlaywrightEngine(cfg.ViewportWidth, cfg.ViewportHeight)
	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.Engine)
	}
	return NewFactory(engine, cfg.ImplicitWait), nil
}

// Initialize launches the named browser, applies the implicit wait and maximizes the window
func (f *Factory) Initialize(ctx context.Context, name string) (browser.Session, error) {
	b, err := ParseBrowser(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := f.engine.Launch(ctx, b)
	if err != nil {
		if errors.Is(err, browser.ErrDriverStartup) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", browser.ErrDriverStartup, b, err)
	}

	if err := session.SetImplicitWait(f.implicitWait); err != nil {
		Quit(session)
		return nil, fmt.Errorf("failed to set implicit wait: %w", err)
	}
	if err := session.Maximize(); err != nil {
		Quit(session)
		return nil, fmt.Errorf("failed to maximize window: %w", err)
	}

	log.Info().Str("browser", b.String()).Dur("implicit_wait", f.implicitWait).Msg("Browser session initialized")
	return session, nil
}

// Quit ends the session; a nil or already closed session is a no-op
func Quit(session browser.Session) error {
	if session == nil {
		return nil
	}
	if err := session.Quit(); err != nil && !errors.Is(err, browser.ErrSessionClosed) {
		return fmt.Errorf("failed to quit browser session: %w", err)
	}
	return nil
}

// Close closes the active window only
func Close(session browser.Session) error {
	if session == nil {
		return nil
	}
	if err := session.CloseWindow(); err != nil {
		return fmt.Errorf("failed to close browser window: %w", err)
	}
	return nil
}
