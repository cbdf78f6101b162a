package browser

import (
	"errors"
	"time"
)

// Driver error kinds shared by every engine
var (
	ErrUnknownBrowser = errors.New("unknown browser")
	ErrDriverStartup  = errors.New("browser driver failed to start")
	ErrNoSuchElement  = errors.New("no such element")
	ErrStaleElement   = errors.New("stale element reference")
	ErrSessionClosed  = errors.New("browser session is closed")
)

// Session is a live browser session owned by exactly one scenario.
type Session interface {
	// Navigate loads url in the active window.
	Navigate(url string) error
	// CurrentURL returns the URL of the active window.
	CurrentURL() (string, error)
	// Find locates the first element matching loc, honouring the implicit wait.
	Find(loc Locator) (Element, error)
	// SetImplicitWait sets the session-wide element location timeout.
	SetImplicitWait(d time.Duration) error
	// Maximize maximizes the active window.
	Maximize() error
	// CloseWindow closes the active window only.
	CloseWindow() error
	// Quit ends the session and releases the browser process.
	Quit() error
}

// Element is a handle to a located DOM element.
type Element interface {
	Click() error
	Clear() error
	SendKeys(text string) error
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
	IsSelected() (bool, error)
	// Attribute returns the named attribute; "value" reads the live form value.
	Attribute(name string) (string, error)
}

// IsTransient reports whether err describes an element that may still appear
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoSuchElement) || errors.Is(err, ErrStaleElement)
}
