package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Engine identifies a browser family Playwright can drive.
type Engine int

const (
	Chromium Engine = iota
	Firefox
	WebKit
)

// Engines lists every supported engine.
var Engines = []Engine{Chromium, Firefox, WebKit}

func (e Engine) String() string {
	switch e {
	case Chromium:
		return "chromium"
	case Firefox:
		return "firefox"
	case WebKit:
		return "webkit"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// ParseEngine maps an engine name to its variant, ignoring case.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chromium":
		return Chromium, nil
	case "firefox":
		return Firefox, nil
	case "webkit":
		return WebKit, nil
	default:
		return 0, fmt.Errorf("unknown browser engine: %q (must be 'chromium', 'firefox', or 'webkit')", name)
	}
}

// ParseEngines parses a list of engine names, rejecting duplicates.
func ParseEngines(names []string) ([]Engine, error) {
	seen := make(map[Engine]bool, len(names))
	engines := make([]Engine, 0, len(names))
	for _, name := range names {
		e, err := ParseEngine(name)
		if err != nil {
			return nil, err
		}
		if seen[e] {
			return nil, fmt.Errorf("browser engine %s listed twice", e)
		}
		seen[e] = true
		engines = append(engines, e)
	}
	return engines, nil
}

// browserType returns the Playwright launcher for e.
func browserType(pw *playwright.Playwright, e Engine) (playwright.BrowserType, error) {
	switch e {
	case Chromium:
		return pw.Chromium, nil
	case Firefox:
		return pw.Firefox, nil
	case WebKit:
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser engine: %s", e)
	}
}
