package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// HarnessConfig holds configuration for driving the browser and writing the report
type HarnessConfig struct {
	Browser        string        `envconfig:"BROWSER" default:"chrome"`
	Engine         string        `envconfig:"ENGINE" default:"webdriver"`
	WebDriverURL   string        `envconfig:"WEBDRIVER_URL" default:"http://127.0.0.1:4444/wd/hub"`
	DriverPath     string        `envconfig:"DRIVER_PATH"`
	BaseURL        string        `envconfig:"BASE_URL" default:"https://demo.applitools.com/"`
	ImplicitWait   time.Duration `envconfig:"IMPLICIT_WAIT" default:"10s"`
	ElementTimeout time.Duration `envconfig:"ELEMENT_TIMEOUT" default:"10s"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"500ms"`
	ViewportWidth  int           `envconfig:"VIEWPORT_WIDTH" default:"1920"`
	ViewportHeight int           `envconfig:"VIEWPORT_HEIGHT" default:"1080"`
	ReportPath     string        `envconfig:"REPORT_PATH" default:"test-output/extent-report.html"`
	ReportBrowser  string        `envconfig:"REPORT_BROWSER" default:"Chrome"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	History        bool          `envconfig:"HISTORY" default:"false"`
	E2E            bool          `envconfig:"E2E" default:"false"`
}

// LoadHarnessConfig loads harness configuration from HARNESS_* environment variables
func LoadHarnessConfig() (*HarnessConfig, error) {
	var cfg HarnessConfig
	if err := envconfig.Process("harness", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process harness environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values
func (c *HarnessConfig) Validate() error {
	switch strings.ToLower(c.Engine) {
	case "webdriver", "playwright":
	default:
		return fmt.Errorf("HARNESS_ENGINE must be webdriver or playwright, got %q", c.Engine)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("HARNESS_BASE_URL is required")
	}
	if c.ReportPath == "" {
		return fmt.Errorf("HARNESS_REPORT_PATH is required")
	}
	if c.ImplicitWait < 0 {
		return fmt.Errorf("HARNESS_IMPLICIT_WAIT cannot be negative")
	}
	if c.ElementTimeout <= 0 {
		return fmt.Errorf("HARNESS_ELEMENT_TIMEOUT must be positive")
	}
	if c.PollInterval <= 0 || c.PollInterval > c.ElementTimeout {
		return fmt.Errorf("HARNESS_POLL_INTERVAL must be positive and no longer than the element timeout")
	}
	return nil
}
