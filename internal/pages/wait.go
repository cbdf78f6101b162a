package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/keyworddriven/loginharness/internal/browser"
)

// Explicit wait defaults
const (
	DefaultWaitTimeout  = 10 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// ErrElementWaitTimeout is returned when a wait condition does not hold before the deadline
var ErrElementWaitTimeout = errors.New("element wait timed out")

// errNotReady keeps the waiter polling
var errNotReady = errors.New("condition not met yet")

// Condition inspects the session and returns the element it waited for.
// Returning errNotReady or a transient browser error keeps the waiter polling;
// any other error stops it immediately.
type Condition func(s browser.Session) (browser.Element, error)

// Waiter polls a condition at a fixed interval until it holds or the timeout elapses
type Waiter struct {
	session  browser.Session
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a waiter over session
func NewWaiter(session browser.Session, timeout, interval time.Duration) *Waiter {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Waiter{
		session:  session,
		timeout:  timeout,
		interval: interval,
	}
}

// Timeout returns the wait ceiling
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Until waits for cond and returns the element it produced
func (w *Waiter) Until(ctx context.Context, what string, cond Condition) (browser.Element, error) {
	var elem browser.Element
	err := w.poll(ctx, what, func() error {
		e, err := cond(w.session)
		if err != nil {
			return err
		}
		elem = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elem, nil
}

func (w *Waiter) poll(ctx context.Context, what string, attempt func() error) error {
	waitCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var lastErr error
	err := retry.Do(
		func() error {
			err := attempt()
			if err != nil {
				lastErr = err
			}
			return err
		},
		retry.Context(waitCtx),
		retry.Attempts(0),
		retry.Delay(w.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
	)
	if err == nil {
		return nil
	}

	// A driver failure stays a driver failure even if it arrived after the deadline
	if lastErr != nil && !retryable(lastErr) {
		return lastErr
	}

	// The caller's context ending is not a wait timeout
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitCtx.Err() != nil {
		if lastErr == nil {
			lastErr = errNotReady
		}
		return fmt.Errorf("%w: %s after %s: %v", ErrElementWaitTimeout, what, w.timeout, lastErr)
	}
	return err
}

func retryable(err error) bool {
	return errors.Is(err, errNotReady) || browser.IsTransient(err)
}

// VisibilityOf holds once the element is present and displayed
func VisibilityOf(loc browser.Locator) Condition {
	return func(s browser.Session) (browser.Element, error) {
		elem, err := s.Find(loc)
		if err != nil {
			return nil, err
		}
		displayed, err := elem.IsDisplayed()
		if err != nil {
			return nil, err
		}
		if !displayed {
			return nil, fmt.Errorf("%s not visible: %w", loc, errNotReady)
		}
		return elem, nil
	}
}

// ElementToBeClickable holds once the element is displayed and enabled
func ElementToBeClickable(loc browser.Locator) Condition {
	visible := VisibilityOf(loc)
	return func(s browser.Session) (browser.Element, error) {
		elem, err := visible(s)
		if err != nil {
			return nil, err
		}
		enabled, err := elem.IsEnabled()
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, fmt.Errorf("%s not enabled: %w", loc, errNotReady)
		}
		return elem, nil
	}
}
