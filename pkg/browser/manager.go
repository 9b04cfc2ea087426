package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionManager owns a Playwright driver and the browser sessions launched
// through it. It is created, initialized and shut down explicitly; nothing
// about it is process-global.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	starting    map[string]bool
	playwright  *playwright.Playwright
	maxSessions int
	initialized bool
}

// InitOptions configures the Playwright driver.
type InitOptions struct {
	// Install downloads the driver and the browsers for Engines first
	Install bool

	// Engines limits the browsers Install downloads; empty means all
	Engines []Engine

	// Output receives driver and installer output; nil discards it
	Output io.Writer
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		starting:    make(map[string]bool),
		maxSessions: DefaultMaxSessions,
	}
}

// Initialize starts the Playwright driver.
// This must be called before creating any sessions.
func (m *SessionManager) Initialize(opts InitOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  out,
		Stderr:  out,
	}
	for _, e := range opts.Engines {
		runOpts.Browsers = append(runOpts.Browsers, e.String())
	}

	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("%w: failed to start playwright: %v", ErrEngineStartup, err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// StartSession launches one browser of opts.Engine, opens a context and a
// page in it, and registers the session under name. The name is reserved
// while the browser starts, so other sessions can be used and closed in the
// meantime. On failure nothing stays running.
func (m *SessionManager) StartSession(ctx context.Context, name string, opts SessionOptions) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := m.reserve(name)
	if err != nil {
		return nil, err
	}

	session, err := launch(pw, name, opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.starting, name)

	if err != nil {
		return nil, err
	}
	if !m.initialized {
		_ = session.Close()
		return nil, ErrNotInitialized
	}

	session.onClose = m.forget
	m.sessions[name] = session
	return session, nil
}

// reserve claims name for a session about to start.
func (m *SessionManager) reserve(name string) (*playwright.Playwright, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[name]; exists || m.starting[name] {
		return nil, fmt.Errorf("session %q already exists", name)
	}
	if len(m.sessions)+len(m.starting) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	if !m.initialized {
		return nil, ErrNotInitialized
	}

	m.starting[name] = true
	return m.playwright, nil
}

func launch(pw *playwright.Playwright, name string, opts SessionOptions) (*Session, error) {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.NavigationTimeout == 0 {
		opts.NavigationTimeout = DefaultTimeout
	}

	bt, err := browserType(pw, opts.Engine)
	if err != nil {
		return nil, err
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineStartup, opts.Engine, err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(millis(opts.Timeout))
	page.SetDefaultNavigationTimeout(millis(opts.NavigationTimeout))

	now := time.Now()
	return &Session{
		Name:              name,
		Engine:            opts.Engine,
		Browser:           browser,
		Context:           bctx,
		Page:              page,
		Headless:          opts.Headless,
		CreatedAt:         now,
		navigationTimeout: opts.NavigationTimeout,
		actionTimeout:     opts.Timeout,
		lastUsedAt:        now,
		currentURL:        "about:blank",
	}, nil
}

// forget drops s from the registry if it is still the session under its name.
func (m *SessionManager) forget(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.Name] == s {
		delete(m.sessions, s.Name)
	}
}

// CloseSession closes and removes a browser session.
func (m *SessionManager) CloseSession(name string) error {
	m.mu.RLock()
	session, exists := m.sessions[name]
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("session %q not found", name)
	}
	return session.Close()
}

// ListSessions returns information about all active sessions, sorted by name.
func (m *SessionManager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// HasSessions returns true if there are any active sessions.
func (m *SessionManager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

func (m *SessionManager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// CloseAll closes all active sessions.
func (m *SessionManager) CloseAll() error {
	var errs []error
	for _, s := range m.snapshot() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %w", errors.Join(errs...))
	}
	return nil
}

// Shutdown closes all sessions and stops the Playwright driver.
func (m *SessionManager) Shutdown() error {
	closeErr := m.CloseAll()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return errors.Join(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		m.playwright = nil
		m.initialized = false
	}

	return closeErr
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}
