package browser

import (
	"fmt"
	"strings"
)

// Strategy is a locator strategy
type Strategy string

// Supported strategies
const (
	ByID    Strategy = "id"
	ByXPath Strategy = "xpath"
	ByCSS   Strategy = "css"
)

// Locator identifies a DOM element by strategy and expression.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID returns an id locator
func ID(id string) Locator {
	return Locator{Strategy: ByID, Value: id}
}

// XPath returns an xpath locator
func XPath(expr string) Locator {
	return Locator{Strategy: ByXPath, Value: expr}
}

// CSS returns a css selector locator
func CSS(selector string) Locator {
	return Locator{Strategy: ByCSS, Value: selector}
}

// String renders the locator as "strategy=value"
func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// ParseLocator parses a "strategy=value" expression
func ParseLocator(expr string) (Locator, error) {
	strategy, value, ok := strings.Cut(expr, "=")
	if !ok || value == "" {
		return Locator{}, fmt.Errorf("invalid locator %q: expected strategy=value", expr)
	}

	switch s := Strategy(strings.ToLower(strings.TrimSpace(strategy))); s {
	case ByID, ByXPath, ByCSS:
		return Locator{Strategy: s, Value: value}, nil
	default:
		return Locator{}, fmt.Errorf("invalid locator %q: unsupported strategy %q", expr, strategy)
	}
}
