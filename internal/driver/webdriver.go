package driver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/keyworddriven/loginharness/internal/browser"
	"github.com/rs/zerolog/log"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
)

// WebDriverEngine talks W3C WebDriver to a remote endpoint, or to a local
// driver binary it starts per session when driverPath is set.
type WebDriverEngine struct {
	url        string
	driverPath string
}

// NewWebDriverEngine creates a WebDriver engine
func NewWebDriverEngine(url, driverPath string) *WebDriverEngine {
	return &WebDriverEngine{
		url:        url,
		driverPath: driverPath,
	}
}

// Launch opens a new WebDriver session for b
func (e *WebDriverEngine) Launch(ctx context.Context, b Browser) (browser.Session, error) {
	addr := e.url

	var service *selenium.Service
	if e.driverPath != "" {
		port, err := pickUnusedPort()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", browser.ErrDriverStartup, err)
		}

		switch b {
		case Firefox:
			service, err = selenium.NewGeckoDriverService(e.driverPath, port)
		default:
			// msedgedriver speaks the same command line as chromedriver
			service, err = selenium.NewChromeDriverService(e.driverPath, port)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: starting %s: %v", browser.ErrDriverStartup, e.driverPath, err)
		}
		addr = fmt.Sprintf("http://127.0.0.1:%d", port)
	}

	if err := ctx.Err(); err != nil {
		stopService(service)
		return nil, err
	}

	wd, err := selenium.NewRemote(capabilitiesFor(b), addr)
	if err != nil {
		stopService(service)
		return nil, fmt.Errorf("%w: new %s session at %s: %v", browser.ErrDriverStartup, b, addr, err)
	}

	log.Debug().Str("browser", b.String()).Str("session", wd.SessionID()).Str("addr", addr).Msg("WebDriver session created")
	return &webDriverSession{wd: wd, service: service}, nil
}

func capabilitiesFor(b Browser) selenium.Capabilities {
	switch b {
	case Firefox:
		caps := selenium.Capabilities{"browserName": "firefox"}
		caps.AddFirefox(firefox.Capabilities{})
		return caps
	case Edge:
		return selenium.Capabilities{
			"browserName":    "MicrosoftEdge",
			"ms:edgeOptions": map[string]interface{}{},
		}
	default:
		caps := selenium.Capabilities{"browserName": "chrome"}
		caps.AddChrome(chrome.Capabilities{W3C: true})
		return caps
	}
}

func pickUnusedPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}

func stopService(service *selenium.Service) {
	if service == nil {
		return
	}
	if err := service.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop WebDriver service")
	}
}

type webDriverSession struct {
	mu      sync.Mutex
	wd      selenium.WebDriver
	service *selenium.Service
	closed  bool
}

func (s *webDriverSession) driver() (selenium.WebDriver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	return s.wd, nil
}

func (s *webDriverSession) Navigate(url string) error {
	wd, err := s.driver()
	if err != nil {
		return err
	}
	return translateWebDriverError(wd.Get(url))
}

func (s *webDriverSession) CurrentURL() (string, error) {
	wd, err := s.driver()
	if err != nil {
		return "", err
	}
	url, err := wd.CurrentURL()
	return url, translateWebDriverError(err)
}

func (s *webDriverSession) Find(loc browser.Locator) (browser.Element, error) {
	wd, err := s.driver()
	if err != nil {
		return nil, err
	}

	var by string
	switch loc.Strategy {
	case browser.ByID:
		by = selenium.ByID
	case browser.ByXPath:
		by = selenium.ByXPATH
	case browser.ByCSS:
		by = selenium.ByCSSSelector
	default:
		return nil, fmt.Errorf("unsupported locator strategy %q", loc.Strategy)
	}

	elem, err := wd.FindElement(by, loc.Value)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, translateWebDriverError(err))
	}
	return &webDriverElement{wd: wd, elem: elem}, nil
}

func (s *webDriverSession) SetImplicitWait(d time.Duration) error {
	wd, err := s.driver()
	if err != nil {
		return err
	}
	return translateWebDriverError(wd.SetImplicitWaitTimeout(d))
}

func (s *webDriverSession) Maximize() error {
	wd, err := s.driver()
	if err != nil {
		return err
	}
	return translateWebDriverError(wd.MaximizeWindow(""))
}

func (s *webDriverSession) CloseWindow() error {
	wd, err := s.driver()
	if err != nil {
		return err
	}
	return translateWebDriverError(wd.Close())
}

func (s *webDriverSession) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.closed = true

	err := s.wd.Quit()
	stopService(s.service)
	return translateWebDriverError(err)
}

type webDriverElement struct {
	wd   selenium.WebDriver
	elem selenium.WebElement
}

func (e *webDriverElement) Click() error {
	return translateWebDriverError(e.elem.Click())
}

func (e *webDriverElement) Clear() error {
	return translateWebDriverError(e.elem.Clear())
}

func (e *webDriverElement) SendKeys(text string) error {
	return translateWebDriverError(e.elem.SendKeys(text))
}

func (e *webDriverElement) IsDisplayed() (bool, error) {
	ok, err := e.elem.IsDisplayed()
	return ok, translateWebDriverError(err)
}

func (e *webDriverElement) IsEnabled() (bool, error) {
	ok, err := e.elem.IsEnabled()
	return ok, translateWebDriverError(err)
}

func (e *webDriverElement) IsSelected() (bool, error) {
	ok, err := e.elem.IsSelected()
	return ok, translateWebDriverError(err)
}

// Attribute reads a content attribute, except "value" which is read as the
// live property. W3C Get Element Attribute returns the markup value for
// inputs on geckodriver, so typed text would not show up.
func (e *webDriverElement) Attribute(name string) (string, error) {
	if name != "value" {
		v, err := e.elem.GetAttribute(name)
		return v, translateWebDriverError(err)
	}

	v, err := e.wd.ExecuteScript("return arguments[0].value", []interface{}{e.elem})
	if err != nil {
		return "", translateWebDriverError(err)
	}
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

// translateWebDriverError maps W3C error codes onto the browser error kinds
func translateWebDriverError(err error) error {
	if err == nil {
		return nil
	}

	var wdErr *selenium.Error
	if !errors.As(err, &wdErr) {
		return err
	}

	switch wdErr.Err {
	case "no such element":
		return fmt.Errorf("%w: %s", browser.ErrNoSuchElement, wdErr.Message)
	case "stale element reference":
		return fmt.Errorf("%w: %s", browser.ErrStaleElement, wdErr.Message)
	case "invalid session id", "no such window", "session not created":
		return fmt.Errorf("%w: %s", browser.ErrSessionClosed, wdErr.Message)
	default:
		return err
	}
}
