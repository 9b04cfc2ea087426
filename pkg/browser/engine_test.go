package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/sitecheck/pkg/browser/browsertest"
)

func TestParseEngine(t *testing.T) {
	tests := []struct {
		input string
		want  Engine
	}{
		{"chromium", Chromium},
		{"Chromium", Chromium},
		{" firefox ", Firefox},
		{"WEBKIT", WebKit},
	}
	for _, tt := range tests {
		got, err := ParseEngine(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseEngine("chrome")
	assert.ErrorContains(t, err, "unknown browser engine")
}

func TestEngineStringRoundTrip(t *testing.T) {
	for _, e := range Engines {
		got, err := ParseEngine(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
	assert.Equal(t, "Engine(7)", Engine(7).String())
}

func TestParseEngines(t *testing.T) {
	got, err := ParseEngines([]string{"chromium", "firefox"})
	require.NoError(t, err)
	assert.Equal(t, []Engine{Chromium, Firefox}, got)

	_, err = ParseEngines([]string{"firefox", "Firefox"})
	assert.ErrorContains(t, err, "listed twice")

	_, err = ParseEngines([]string{"chromium", "opera"})
	assert.ErrorContains(t, err, "opera")
}

func TestBrowserTypeFactory(t *testing.T) {
	chromium := browsertest.NewBrowserType("chromium")
	firefox := browsertest.NewBrowserType("firefox")
	webkit := browsertest.NewBrowserType("webkit")
	pw := &playwright.Playwright{Chromium: chromium, Firefox: firefox, WebKit: webkit}

	for e, want := range map[Engine]playwright.BrowserType{Chromium: chromium, Firefox: firefox, WebKit: webkit} {
		got, err := browserType(pw, e)
		require.NoError(t, err)
		assert.Same(t, want, got)
	}

	_, err := browserType(pw, Engine(42))
	assert.ErrorContains(t, err, "unsupported browser engine")
}
