// Package browsertest provides an in-memory browser session that renders a
// stand-in for the ACME demo login page.
package browsertest

import (
	"strings"
	"sync"
	"time"

	"github.com/keyworddriven/loginharness/internal/browser"
)

// Demo page addresses
const (
	LoginURL = "https://demo.applitools.com/"
	AppURL   = "https://demo.applitools.com/app.html"
)

// Locator expressions rendered by the fake login page
const (
	UsernameField      = "id=username"
	PasswordField      = "id=password"
	SignInButton       = "id=log-in"
	RememberMeCheckbox = "xpath=//input[@type='checkbox']"
	LoginForm          = "xpath=//div[contains(text(), 'Login Form')]"
	AppLogo            = "xpath=//a[@href='/index.html']"
)

// FakeElement is a DOM element of the fake page
type FakeElement struct {
	session   *FakeSession
	displayed bool
	enabled   bool
	selected  bool
	checkbox  bool
	submit    bool
	value     string
	clicks    int
	// visibleAfter hides the element until this many Find calls have been made for it
	visibleAfter int
	finds        int
}

// FakeSession implements browser.Session in memory
type FakeSession struct {
	mu           sync.Mutex
	url          string
	elements     map[string]*FakeElement
	closed       bool
	quits        int
	windowCloses int
	maximized    bool
	implicitWait time.Duration
	navigateErr  error
	finds        int
}

// NewLoginSession returns a session whose login page is fully rendered once navigated to
func NewLoginSession() *FakeSession {
	s := &FakeSession{elements: make(map[string]*FakeElement)}
	s.elements[UsernameField] = &FakeElement{session: s, displayed: true, enabled: true}
	s.elements[PasswordField] = &FakeElement{session: s, displayed: true, enabled: true}
	s.elements[SignInButton] = &FakeElement{session: s, displayed: true, enabled: true, submit: true}
	s.elements[RememberMeCheckbox] = &FakeElement{session: s, displayed: true, enabled: true, checkbox: true}
	s.elements[LoginForm] = &FakeElement{session: s, displayed: true, enabled: true}
	s.elements[AppLogo] = &FakeElement{session: s, displayed: true, enabled: true}
	return s
}

// Element returns the element registered for a locator expression
func (s *FakeSession) Element(expr string) *FakeElement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elements[expr]
}

// Remove deletes an element from the page
func (s *FakeSession) Remove(expr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, expr)
}

// SetNavigateError makes Navigate fail with err
func (s *FakeSession) SetNavigateError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateErr = err
}

// Quits returns how many times Quit was called
func (s *FakeSession) Quits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quits
}

// Closed reports whether the session has been quit
func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Maximized reports whether Maximize was called
func (s *FakeSession) Maximized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maximized
}

// ImplicitWait returns the implicit wait last set on the session
func (s *FakeSession) ImplicitWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.implicitWait
}

// Finds returns the number of Find calls made
func (s *FakeSession) Finds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

func (s *FakeSession) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	if s.navigateErr != nil {
		return s.navigateErr
	}
	s.url = url
	return nil
}

func (s *FakeSession) CurrentURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", browser.ErrSessionClosed
	}
	return s.url, nil
}

func (s *FakeSession) Find(loc browser.Locator) (browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	s.finds++

	if !strings.HasPrefix(s.url, LoginURL) || s.url == AppURL {
		return nil, browser.ErrNoSuchElement
	}
	elem, ok := s.elements[loc.String()]
	if !ok {
		return nil, browser.ErrNoSuchElement
	}
	elem.finds++
	return elem, nil
}

func (s *FakeSession) SetImplicitWait(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.implicitWait = d
	return nil
}

func (s *FakeSession) Maximize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.maximized = true
	return nil
}

func (s *FakeSession) CloseWindow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.windowCloses++
	return nil
}

func (s *FakeSession) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quits++
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.closed = true
	return nil
}

// SetDisplayed changes the element's visibility
func (e *FakeElement) SetDisplayed(displayed bool) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	e.displayed = displayed
}

// SetEnabled changes whether the element is enabled
func (e *FakeElement) SetEnabled(enabled bool) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	e.enabled = enabled
}

// ShowAfter hides the element until it has been looked up n times
func (e *FakeElement) ShowAfter(n int) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	e.visibleAfter = n
}

// Clicks returns the number of clicks received
func (e *FakeElement) Clicks() int {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	return e.clicks
}

// Value returns the element's current value
func (e *FakeElement) Value() string {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	return e.value
}

func (e *FakeElement) Click() error {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return browser.ErrSessionClosed
	}
	e.clicks++
	if e.checkbox {
		e.selected = !e.selected
	}
	if e.submit {
		e.session.url = AppURL
	}
	return nil
}

func (e *FakeElement) Clear() error {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return browser.ErrSessionClosed
	}
	e.value = ""
	return nil
}

func (e *FakeElement) SendKeys(text string) error {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return browser.ErrSessionClosed
	}
	e.value += text
	return nil
}

func (e *FakeElement) IsDisplayed() (bool, error) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return false, browser.ErrSessionClosed
	}
	return e.displayed && e.finds > e.visibleAfter, nil
}

func (e *FakeElement) IsEnabled() (bool, error) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return false, browser.ErrSessionClosed
	}
	return e.enabled, nil
}

func (e *FakeElement) IsSelected() (bool, error) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return false, browser.ErrSessionClosed
	}
	return e.selected, nil
}

func (e *FakeElement) Attribute(name string) (string, error) {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	if e.session.closed {
		return "", browser.ErrSessionClosed
	}
	if name == "value" {
		return e.value, nil
	}
	return "", nil
}
