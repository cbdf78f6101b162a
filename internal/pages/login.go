// Package pages holds page objects for the ACME demo application.
package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/keyworddriven/loginharness/internal/browser"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the ACME demo login page
const DefaultBaseURL = "https://demo.applitools.com/"

// ErrNavigation is returned when the login page cannot be loaded
var ErrNavigation = errors.New("navigation failed")

// LoginSelectors maps the login page fields to their locators
type LoginSelectors struct {
	UsernameField      browser.Locator
	PasswordField      browser.Locator
	SignInButton       browser.Locator
	RememberMeCheckbox browser.Locator
	LoginForm          browser.Locator
	AppLogo            browser.Locator
}

// DefaultLoginSelectors returns the locators of the ACME demo login page
func DefaultLoginSelectors() LoginSelectors {
	return LoginSelectors{
		UsernameField:      browser.ID("username"),
		PasswordField:      browser.ID("password"),
		SignInButton:       browser.ID("log-in"),
		RememberMeCheckbox: browser.XPath("//input[@type='checkbox']"),
		LoginForm:          browser.XPath("//div[contains(text(), 'Login Form')]"),
		AppLogo:            browser.XPath("//a[@href='/index.html']"),
	}
}

// LoginPage is the page object for the ACME demo login page.
// It borrows the session; the scenario that created the session quits it.
type LoginPage struct {
	session   browser.Session
	wait      *Waiter
	selectors LoginSelectors
	baseURL   string
}

// NewLoginPage creates a login page with the default 10 second explicit wait
func NewLoginPage(session browser.Session, baseURL string) *LoginPage {
	return NewLoginPageWithWaiter(session, baseURL, NewWaiter(session, DefaultWaitTimeout, DefaultPollInterval))
}

// NewLoginPageWithWaiter creates a login page using a specific waiter
func NewLoginPageWithWaiter(session browser.Session, baseURL string, wait *Waiter) *LoginPage {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &LoginPage{
		session:   session,
		wait:      wait,
		selectors: DefaultLoginSelectors(),
		baseURL:   baseURL,
	}
}

// Selectors returns the locators used by the page
func (p *LoginPage) Selectors() LoginSelectors {
	return p.selectors
}

// Navigate loads the login page
func (p *LoginPage) Navigate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Debug().Str("url", p.baseURL).Msg("Navigating to login page")
	if err := p.session.Navigate(p.baseURL); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, p.baseURL, err)
	}
	return nil
}

// IsLoginPageDisplayed waits for the login form. Only a wait timeout is
// reported as false; driver failures are returned.
func (p *LoginPage) IsLoginPageDisplayed(ctx context.Context) (bool, error) {
	_, err := p.wait.Until(ctx, "login form visible", VisibilityOf(p.selectors.LoginForm))
	if errors.Is(err, ErrElementWaitTimeout) {
		log.Debug().Err(err).Msg("Login form not displayed")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsAppLogoDisplayed waits for the application logo link
func (p *LoginPage) IsAppLogoDisplayed(ctx context.Context) (bool, error) {
	_, err := p.wait.Until(ctx, "app logo visible", VisibilityOf(p.selectors.AppLogo))
	if errors.Is(err, ErrElementWaitTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnterUsername clears the username field and types username
func (p *LoginPage) EnterUsername(ctx context.Context, username string) error {
	return p.typeInto(ctx, "username field", p.selectors.UsernameField, username)
}

// EnterPassword clears the password field and types password
func (p *LoginPage) EnterPassword(ctx context.Context, password string) error {
	return p.typeInto(ctx, "password field", p.selectors.PasswordField, password)
}

func (p *LoginPage) typeInto(ctx context.Context, what string, loc browser.Locator, text string) error {
	elem, err := p.wait.Until(ctx, what+" visible", VisibilityOf(loc))
	if err != nil {
		return err
	}
	if err := elem.Clear(); err != nil {
		return fmt.Errorf("clear %s: %w", what, err)
	}
	if err := elem.SendKeys(text); err != nil {
		return fmt.Errorf("type into %s: %w", what, err)
	}
	return nil
}

// ClickSignIn clicks the Sign In button once it is clickable
func (p *LoginPage) ClickSignIn(ctx context.Context) error {
	elem, err := p.wait.Until(ctx, "sign in button clickable", ElementToBeClickable(p.selectors.SignInButton))
	if err != nil {
		return err
	}
	if err := elem.Click(); err != nil {
		return fmt.Errorf("click sign in button: %w", err)
	}
	return nil
}

// Login enters the credentials and submits the form
func (p *LoginPage) Login(ctx context.Context, username, password string) error {
	if err := p.EnterUsername(ctx, username); err != nil {
		return err
	}
	if err := p.EnterPassword(ctx, password); err != nil {
		return err
	}
	return p.ClickSignIn(ctx)
}

// CheckRememberMe selects the Remember Me checkbox if it is not already selected
func (p *LoginPage) CheckRememberMe(ctx context.Context) error {
	return p.setRememberMe(ctx, true)
}

// UncheckRememberMe clears the Remember Me checkbox if it is selected
func (p *LoginPage) UncheckRememberMe(ctx context.Context) error {
	return p.setRememberMe(ctx, false)
}

func (p *LoginPage) setRememberMe(ctx context.Context, want bool) error {
	elem, err := p.wait.Until(ctx, "remember me checkbox clickable", ElementToBeClickable(p.selectors.RememberMeCheckbox))
	if err != nil {
		return err
	}
	selected, err := elem.IsSelected()
	if err != nil {
		return fmt.Errorf("read remember me state: %w", err)
	}
	if selected == want {
		return nil
	}
	if err := elem.Click(); err != nil {
		return fmt.Errorf("toggle remember me: %w", err)
	}
	return nil
}

// IsRememberMeChecked reports whether the Remember Me checkbox is selected
func (p *LoginPage) IsRememberMeChecked(ctx context.Context) (bool, error) {
	elem, err := p.wait.Until(ctx, "remember me checkbox visible", VisibilityOf(p.selectors.RememberMeCheckbox))
	if err != nil {
		return false, err
	}
	return elem.IsSelected()
}

// UsernameValue returns the current value of the username field
func (p *LoginPage) UsernameValue(ctx context.Context) (string, error) {
	return p.valueOf(ctx, "username field", p.selectors.UsernameField)
}

// PasswordValue returns the current value of the password field
func (p *LoginPage) PasswordValue(ctx context.Context) (string, error) {
	return p.valueOf(ctx, "password field", p.selectors.PasswordField)
}

func (p *LoginPage) valueOf(ctx context.Context, what string, loc browser.Locator) (string, error) {
	elem, err := p.wait.Until(ctx, what+" visible", VisibilityOf(loc))
	if err != nil {
		return "", err
	}
	return elem.Attribute("value")
}

// IsSignInButtonEnabled reports whether the Sign In button is enabled
func (p *LoginPage) IsSignInButtonEnabled(ctx context.Context) (bool, error) {
	elem, err := p.wait.Until(ctx, "sign in button visible", VisibilityOf(p.selectors.SignInButton))
	if err != nil {
		return false, err
	}
	return elem.IsEnabled()
}

// CurrentURL returns the URL shown by the browser
func (p *LoginPage) CurrentURL() (string, error) {
	return p.session.CurrentURL()
}

// WaitForURLChange waits until the browser leaves from and returns the new URL
func (p *LoginPage) WaitForURLChange(ctx context.Context, from string) (string, error) {
	var current string
	err := p.wait.poll(ctx, "url change from "+from, func() error {
		url, err := p.session.CurrentURL()
		if err != nil {
			return err
		}
		if url == from {
			return errNotReady
		}
		current = url
		return nil
	})
	if err != nil {
		return "", err
	}
	return current, nil
}
