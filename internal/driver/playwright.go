package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keyworddriven/loginharness/internal/browser"
	"github.com/playwright-community/playwright-go"
)

// minPlaywrightTimeout replaces a zero implicit wait; Playwright treats 0 as no timeout
const minPlaywrightTimeout = time.Second

// PlaywrightEngine drives browsers installed by the Playwright CLI
type PlaywrightEngine struct {
	width  int
	height int
}

// NewPlaywrightEngine creates a Playwright engine whose maximized viewport is width x height
func NewPlaywrightEngine(width, height int) *PlaywrightEngine {
	return &PlaywrightEngine{
		width:  width,
		height: height,
	}
}

// Launch starts Playwright and opens one page in a new browser
func (e *PlaywrightEngine) Launch(ctx context.Context, b Browser) (browser.Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: starting playwright: %v", browser.ErrDriverStartup, err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	}
	browserType := pw.Chromium
	switch b {
	case Firefox:
		browserType = pw.Firefox
	case Edge:
		opts.Channel = playwright.String("msedge")
	}

	if err := ctx.Err(); err != nil {
		pw.Stop()
		return nil, err
	}

	pwBrowser, err := browserType.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("%w: launching %s: %v", browser.ErrDriverStartup, b, err)
	}

	page, err := pwBrowser.NewPage()
	if err != nil {
		pwBrowser.Close()
		pw.Stop()
		return nil, fmt.Errorf("%w: opening page: %v", browser.ErrDriverStartup, err)
	}

	return &playwrightSession{
		pw:      pw,
		browser: pwBrowser,
		page:    page,
		width:   e.width,
		height:  e.height,
	}, nil
}

type playwrightSession struct {
	mu           sync.Mutex
	pw           *playwright.Playwright
	browser      playwright.Browser
	page         playwright.Page
	implicitWait time.Duration
	width        int
	height       int
	closed       bool
}

func (s *playwrightSession) activePage() (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	return s.page, nil
}

func (s *playwrightSession) Navigate(url string) error {
	page, err := s.activePage()
	if err != nil {
		return err
	}
	_, err = page.Goto(url)
	return translatePlaywrightError(err)
}

func (s *playwrightSession) CurrentURL() (string, error) {
	page, err := s.activePage()
	if err != nil {
		return "", err
	}
	return page.URL(), nil
}

func (s *playwrightSession) Find(loc browser.Locator) (browser.Element, error) {
	page, err := s.activePage()
	if err != nil {
		return nil, err
	}

	// Playwright's id=, xpath= and css= selector engines accept our locator syntax as is
	locator := page.Locator(loc.String()).First()

	s.mu.Lock()
	wait := s.implicitWait
	s.mu.Unlock()

	if wait > 0 {
		err = locator.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(wait.Milliseconds())),
		})
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("find %s: %w", loc, browser.ErrNoSuchElement)
		}
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", loc, translatePlaywrightError(err))
		}
	} else {
		count, err := locator.Count()
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", loc, translatePlaywrightError(err))
		}
		if count == 0 {
			return nil, fmt.Errorf("find %s: %w", loc, browser.ErrNoSuchElement)
		}
	}

	return &playwrightElement{locator: locator}, nil
}

func (s *playwrightSession) SetImplicitWait(d time.Duration) error {
	page, err := s.activePage()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.implicitWait = d
	s.mu.Unlock()

	timeout := d
	if timeout < minPlaywrightTimeout {
		timeout = minPlaywrightTimeout
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))
	return nil
}

func (s *playwrightSession) Maximize() error {
	page, err := s.activePage()
	if err != nil {
		return err
	}
	return translatePlaywrightError(page.SetViewportSize(s.width, s.height))
}

func (s *playwrightSession) CloseWindow() error {
	page, err := s.activePage()
	if err != nil {
		return err
	}
	return translatePlaywrightError(page.Close())
}

func (s *playwrightSession) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.closed = true

	closeErr := s.browser.Close()
	if err := s.pw.Stop(); err != nil && closeErr == nil {
		closeErr = err
	}
	return translatePlaywrightError(closeErr)
}

type playwrightElement struct {
	locator playwright.Locator
}

func (e *playwrightElement) Click() error {
	return translatePlaywrightError(e.locator.Click())
}

func (e *playwrightElement) Clear() error {
	return translatePlaywrightError(e.locator.Clear())
}

func (e *playwrightElement) SendKeys(text string) error {
	return translatePlaywrightError(e.locator.PressSequentially(text))
}

func (e *playwrightElement) IsDisplayed() (bool, error) {
	ok, err := e.locator.IsVisible()
	return ok, translatePlaywrightError(err)
}

func (e *playwrightElement) IsEnabled() (bool, error) {
	ok, err := e.locator.IsEnabled()
	return ok, translatePlaywrightError(err)
}

func (e *playwrightElement) IsSelected() (bool, error) {
	ok, err := e.locator.IsChecked()
	return ok, translatePlaywrightError(err)
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	if name == "value" {
		v, err := e.locator.InputValue()
		return v, translatePlaywrightError(err)
	}
	v, err := e.locator.GetAttribute(name)
	return v, translatePlaywrightError(err)
}

func translatePlaywrightError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) {
		return fmt.Errorf("%w: %v", browser.ErrSessionClosed, err)
	}
	return err
}
