package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://www.opravy-telefonu.cz/", cfg.RootURL())
	assert.Equal(t, "opravy-telefonu.cz - opravy a servis telefonu", cfg.Site.ExpectedTitle)
	assert.Equal(t, []string{"chromium", "firefox"}, cfg.Browser.Engines)
	assert.True(t, cfg.Browser.Headless)
}

func TestTipsURL(t *testing.T) {
	cfg := DefaultConfig()
	got, err := cfg.TipsURL()
	require.NoError(t, err)
	assert.Equal(t, "https://www.opravy-telefonu.cz/poradna-tipy-a-triky-pri-opravach-telefonu/", got)

	cfg.Site.BaseURL = "https://example.com/shop/"
	cfg.Site.TipsPath = "tips/"
	got, err = cfg.TipsURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/shop/tips/", got)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  expected_title: "Example"
browser:
  engines: [firefox]
  navigation_timeout: 45s
expect:
  timeout: 10s
  poll_interval: 250ms
run:
  parallelism: 3
logging:
  verbosity: debug
`), 0600))

	t.Setenv(EnvHeadless, "")
	t.Setenv(EnvEngines, "")
	t.Setenv(EnvBaseURL, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Example", cfg.Site.ExpectedTitle)
	// Unset keys keep their defaults.
	assert.Equal(t, "Tipy a triky", cfg.Site.LinkName)
	assert.Equal(t, []string{"firefox"}, cfg.Browser.Engines)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Expect.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Expect.PollInterval)
	assert.Equal(t, 3, cfg.Run.Parallelism)
	assert.Equal(t, "debug", cfg.Logging.Verbosity)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site: [unterminated"), 0600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvHeadless: "false",
		EnvEngines:  " webkit, ,chromium ",
		EnvBaseURL:  "https://staging.example.com/",
	})))

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"webkit", "chromium"}, cfg.Browser.Engines)
	assert.Equal(t, "https://staging.example.com/", cfg.Site.BaseURL)

	cfg = DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(noEnv))
	assert.Equal(t, DefaultConfig(), cfg)

	err := cfg.ApplyEnv(envMap(map[string]string{EnvHeadless: "maybe"}))
	assert.ErrorContains(t, err, EnvHeadless)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{"relative base url", func(c *Config) { c.Site.BaseURL = "/just/a/path" }, "invalid base_url"},
		{"missing link name", func(c *Config) { c.Site.LinkName = "" }, "link_name is required"},
		{"bad pattern", func(c *Config) { c.Site.PagePattern = "(" }, "invalid page_pattern"},
		{"missing title", func(c *Config) { c.Site.ExpectedTitle = "" }, "expected_title is required"},
		{"missing cookie", func(c *Config) { c.Site.CookieName = "" }, "cookie_name is required"},
		{"empty cookie prefix", func(c *Config) { c.Site.CookiePrefix = "" }, "cookie_prefix is required"},
		{"bad wait state", func(c *Config) { c.Browser.WaitUntil = "eventually" }, "invalid wait_until"},
		{"empty wait state", func(c *Config) { c.Browser.WaitUntil = "" }, "invalid wait_until"},
		{"too few sessions", func(c *Config) { c.Run.Parallelism = 3; c.Browser.MaxSessions = 2 }, "max_sessions (2) must be at least parallelism (3)"},
		{"no engines", func(c *Config) { c.Browser.Engines = nil }, "at least one browser engine"},
		{"unknown engine", func(c *Config) { c.Browser.Engines = []string{"chromium", "netscape"} }, "invalid engine: netscape"},
		{"negative nav timeout", func(c *Config) { c.Browser.NavigationTimeout = -time.Second }, "cannot be negative"},
		{"zero expect timeout", func(c *Config) { c.Expect.Timeout = 0 }, "expect timeout must be positive"},
		{"zero interval", func(c *Config) { c.Expect.PollInterval = 0 }, "poll_interval must be positive"},
		{"interval above timeout", func(c *Config) { c.Expect.PollInterval = time.Minute }, "cannot exceed expect timeout"},
		{"no parallelism", func(c *Config) { c.Run.Parallelism = 0 }, "parallelism must be at least 1"},
		{"artifacts without dir", func(c *Config) { c.Artifacts.OutputDir = "" }, "output_dir is required"},
		{"bad verbosity", func(c *Config) { c.Logging.Verbosity = "loud" }, "invalid logging verbosity"},
		{"empty verbosity", func(c *Config) { c.Logging.Verbosity = "" }, "invalid logging verbosity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.expectError)
		})
	}
}

func TestValidateDoesNotModifyConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Verbosity = ""
	require.Error(t, cfg.Validate())
	assert.Empty(t, cfg.Logging.Verbosity)
}

func TestLoadFillsEmptyDefaults(t *testing.T) {
	t.Setenv(EnvHeadless, "")
	t.Setenv(EnvEngines, "")
	t.Setenv(EnvBaseURL, "")

	path := filepath.Join(t.TempDir(), "sitecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  verbosity: \"\"\nbrowser:\n  wait_until: \"\"\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "normal", cfg.Logging.Verbosity)
	assert.Equal(t, "load", cfg.Browser.WaitUntil)
	assert.NoError(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList("a,b"))
	assert.Equal(t, []string{"a"}, SplitList(" a , "))
	assert.Nil(t, SplitList(""))
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	t.Setenv(EnvHeadless, "")
	t.Setenv(EnvEngines, "")
	t.Setenv(EnvBaseURL, "")

	cfg, err := Load(filepath.Join("..", "..", "configs", "sitecheck.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Empty(t, cfg.Run.Scenarios)
	cfg.Run.Scenarios = nil
	assert.Equal(t, DefaultConfig(), cfg)
}
