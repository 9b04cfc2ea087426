package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file and default values.
const (
	EnvHeadless = "SITECHECK_HEADLESS"
	EnvEngines  = "SITECHECK_ENGINES"
	EnvBaseURL  = "SITECHECK_BASE_URL"
)

// Config describes one sitecheck run: the site under check, the values the
// scenarios expect from it, and how browsers are driven.
type Config struct {
	Site      SiteConfig     `yaml:"site" json:"site"`
	Browser   BrowserConfig  `yaml:"browser" json:"browser"`
	Expect    ExpectConfig   `yaml:"expect" json:"expect"`
	Run       RunConfig      `yaml:"run" json:"run"`
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
	Logging   LoggingConfig  `yaml:"logging" json:"logging"`
}

// SiteConfig holds the target URLs and the expected page facts.
type SiteConfig struct {
	BaseURL  string `yaml:"base_url" json:"base_url"`
	TipsPath string `yaml:"tips_path" json:"tips_path"`

	// Link navigation
	LinkName    string `yaml:"link_name" json:"link_name"`
	LinkExact   bool   `yaml:"link_exact" json:"link_exact"` // exact accessible name instead of substring
	PagePattern string `yaml:"page_pattern" json:"page_pattern"`

	// Cross-engine title
	ExpectedTitle string `yaml:"expected_title" json:"expected_title"`

	// Analytics cookie
	CookieName   string `yaml:"cookie_name" json:"cookie_name"`
	CookiePrefix string `yaml:"cookie_prefix" json:"cookie_prefix"`
	CookieDump   string `yaml:"cookie_dump" json:"cookie_dump"` // glob over cookie names, empty dumps all
}

// BrowserConfig controls engine selection and browser timeouts.
type BrowserConfig struct {
	Engines           []string      `yaml:"engines" json:"engines"`
	Headless          bool          `yaml:"headless" json:"headless"`
	InstallBrowsers   bool          `yaml:"install_browsers" json:"install_browsers"`
	MaxSessions       int           `yaml:"max_sessions" json:"max_sessions"`
	WaitUntil         string        `yaml:"wait_until" json:"wait_until"` // load, domcontentloaded or networkidle
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ActionTimeout     time.Duration `yaml:"action_timeout" json:"action_timeout"`
}

// ExpectConfig controls polling assertions.
type ExpectConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// RunConfig selects scenarios and how they are scheduled.
type RunConfig struct {
	Scenarios   []string      `yaml:"scenarios" json:"scenarios"` // globs over scenario names, empty runs all
	Parallelism int           `yaml:"parallelism" json:"parallelism"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// ArtifactConfig defines where run reports are written.
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	JSON      bool   `yaml:"json" json:"json"`
	Markdown  bool   `yaml:"markdown" json:"markdown"`
}

// LoggingConfig defines logging configuration.
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
	Directory string `yaml:"directory" json:"directory"`
}

// DefaultConfig returns the configuration for www.opravy-telefonu.cz.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:       "https://www.opravy-telefonu.cz/",
			TipsPath:      "/poradna-tipy-a-triky-pri-opravach-telefonu/",
			LinkName:      "Tipy a triky",
			PagePattern:   "(?i)opravy.*telefonu",
			ExpectedTitle: "opravy-telefonu.cz - opravy a servis telefonu",
			CookieName:    "_ga",
			CookiePrefix:  "GA1.2",
		},
		Browser: BrowserConfig{
			Engines:           []string{"chromium", "firefox"},
			Headless:          true,
			MaxSessions:       5,
			WaitUntil:         "load",
			NavigationTimeout: 30 * time.Second,
			ActionTimeout:     30 * time.Second,
		},
		Expect: ExpectConfig{
			Timeout:      5 * time.Second,
			PollInterval: 100 * time.Millisecond,
		},
		Run: RunConfig{
			Parallelism: 1,
			Timeout:     5 * time.Minute,
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".sitecheck/artifacts",
			JSON:      true,
			Markdown:  true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Load reads a YAML file on top of DefaultConfig and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if cfg.Logging.Verbosity == "" {
		cfg.Logging.Verbosity = "normal"
	}
	if cfg.Browser.WaitUntil == "" {
		cfg.Browser.WaitUntil = "load"
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies SITECHECK_* overrides using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvHeadless, v, err)
		}
		c.Browser.Headless = headless
	}
	if v, ok := lookup(EnvEngines); ok && v != "" {
		c.Browser.Engines = SplitList(v)
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Site.BaseURL = v
	}
	return nil
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid base_url: %q (must be an absolute URL)", c.Site.BaseURL)
	}
	if c.Site.LinkName == "" {
		return fmt.Errorf("link_name is required")
	}
	if _, err := regexp.Compile(c.Site.PagePattern); err != nil {
		return fmt.Errorf("invalid page_pattern: %w", err)
	}
	if c.Site.ExpectedTitle == "" {
		return fmt.Errorf("expected_title is required")
	}
	if c.Site.CookieName == "" {
		return fmt.Errorf("cookie_name is required")
	}
	if c.Site.CookiePrefix == "" {
		return fmt.Errorf("cookie_prefix is required")
	}

	if len(c.Browser.Engines) == 0 {
		return fmt.Errorf("at least one browser engine is required")
	}
	validEngines := map[string]bool{
		"chromium": true,
		"firefox":  true,
		"webkit":   true,
	}
	for _, e := range c.Browser.Engines {
		if !validEngines[strings.ToLower(e)] {
			return fmt.Errorf("invalid engine: %s (must be 'chromium', 'firefox', or 'webkit')", e)
		}
	}

	validWaits := map[string]bool{
		"load":             true,
		"domcontentloaded": true,
		"networkidle":      true,
	}
	if !validWaits[c.Browser.WaitUntil] {
		return fmt.Errorf("invalid wait_until: %s (must be 'load', 'domcontentloaded', or 'networkidle')", c.Browser.WaitUntil)
	}

	if c.Browser.NavigationTimeout < 0 || c.Browser.ActionTimeout < 0 {
		return fmt.Errorf("browser timeouts cannot be negative")
	}
	if c.Expect.Timeout <= 0 {
		return fmt.Errorf("expect timeout must be positive")
	}
	if c.Expect.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.Expect.PollInterval > c.Expect.Timeout {
		return fmt.Errorf("poll_interval (%s) cannot exceed expect timeout (%s)", c.Expect.PollInterval, c.Expect.Timeout)
	}

	if c.Run.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	if c.Browser.MaxSessions < c.Run.Parallelism {
		return fmt.Errorf("max_sessions (%d) must be at least parallelism (%d)", c.Browser.MaxSessions, c.Run.Parallelism)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run timeout cannot be negative")
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts output_dir is required when artifacts are enabled")
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// RootURL returns the site's base URL.
func (c *Config) RootURL() string {
	return c.Site.BaseURL
}

// TipsURL resolves the tips page path against the base URL.
func (c *Config) TipsURL() (string, error) {
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	ref, err := url.Parse(c.Site.TipsPath)
	if err != nil {
		return "", fmt.Errorf("invalid tips_path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
