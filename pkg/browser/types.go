package browser

import (
	"errors"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrEngineStartup wraps failures to launch a browser engine.
	ErrEngineStartup = errors.New("browser engine failed to start")
	// ErrNavigation wraps navigation failures and timeouts.
	ErrNavigation = errors.New("navigation failed")
	// ErrLocatorNotFound wraps failures to find an element.
	ErrLocatorNotFound = errors.New("element not found")
	// ErrNotInitialized is returned when the manager has no Playwright driver.
	ErrNotInitialized = errors.New("session manager not initialized")
	// ErrSessionClosed is returned by page operations on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// Session is one running browser engine with its browsing context and page.
// A session owns its page: closing the session closes everything.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Engine is the browser family this session runs
	Engine Engine

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Page is the current active page
	Page playwright.Page

	// Headless indicates if the browser is running in headless mode
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	navigationTimeout time.Duration
	actionTimeout     time.Duration

	mu         sync.Mutex
	lastUsedAt time.Time
	currentURL string
	closed     bool

	closeOnce sync.Once
	closeErr  error
	onClose   func(*Session)
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Engine selects the browser family
	Engine Engine

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout is the default timeout for actions such as clicks
	Timeout time.Duration

	// NavigationTimeout is the default timeout for page loads
	NavigationTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// WaitUntil selects when navigation is considered complete.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// Valid reports whether w is a known wait state.
func (w WaitUntil) Valid() bool {
	switch w {
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle:
		return true
	}
	return false
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful (default load)
	WaitUntil WaitUntil

	// Timeout overrides the session's navigation timeout
	Timeout time.Duration
}

// ClickOptions configures element clicking behavior.
type ClickOptions struct {
	// Exact requires the accessible name to match exactly instead of as a
	// case-insensitive substring
	Exact bool

	// Timeout overrides the session's action timeout
	Timeout time.Duration
}

// SessionInfo contains metadata about a browser session.
type SessionInfo struct {
	Name       string
	Engine     Engine
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Default values for various operations
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
)

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
