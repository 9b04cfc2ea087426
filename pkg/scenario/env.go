package scenario

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/entrhq/sitecheck/pkg/browser"
	"github.com/entrhq/sitecheck/pkg/config"
	"github.com/entrhq/sitecheck/pkg/expect"
	"github.com/entrhq/sitecheck/pkg/logging"
)

// SessionStarter launches browser sessions. *browser.SessionManager is the
// implementation used outside tests.
type SessionStarter interface {
	StartSession(ctx context.Context, name string, opts browser.SessionOptions) (*browser.Session, error)
	HasSessions() bool
}

// Env carries what scenarios need for one run. Scenarios never share a
// session: each acquires its own through the fixtures below.
type Env struct {
	Config  *config.Config
	Manager SessionStarter
	Logger  *logging.Logger
	Stdout  io.Writer
	Poller  expect.Poller

	// FixtureEngine is the engine used by single-browser scenarios.
	FixtureEngine browser.Engine

	seq atomic.Int64
}

// NewEnv builds an Env from cfg. The manager must already be initialized.
func NewEnv(cfg *config.Config, manager SessionStarter, logger *logging.Logger, stdout io.Writer) *Env {
	if stdout == nil {
		stdout = io.Discard
	}
	return &Env{
		Config:        cfg,
		Manager:       manager,
		Logger:        logger,
		Stdout:        &lockedWriter{w: stdout},
		Poller:        expect.NewPoller(cfg.Expect.Timeout, cfg.Expect.PollInterval),
		FixtureEngine: browser.Chromium,
	}
}

// AcquireSession launches a fresh browser of the given engine. The returned
// release func closes it and must be deferred by the caller.
func (e *Env) AcquireSession(ctx context.Context, label string, engine browser.Engine) (*browser.Session, func(), error) {
	name := fmt.Sprintf("%s-%s-%d", label, engine, e.seq.Add(1))

	session, err := e.Manager.StartSession(ctx, name, browser.SessionOptions{
		Engine:            engine,
		Headless:          e.Config.Browser.Headless,
		Timeout:           e.Config.Browser.ActionTimeout,
		NavigationTimeout: e.Config.Browser.NavigationTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	e.Logger.Verbosef("launched %s (%s, headless=%t)", name, engine, session.Headless)

	release := func() {
		if err := session.Close(); err != nil {
			e.Logger.Warnf("closing %s: %v", name, err)
			return
		}
		e.Logger.Verbosef("closed %s", name)
	}
	return session, release, nil
}

// AcquirePage launches a browser and loads the site's root URL in it.
func (e *Env) AcquirePage(ctx context.Context, label string, engine browser.Engine) (*browser.Session, func(), error) {
	session, release, err := e.AcquireSession(ctx, label, engine)
	if err != nil {
		return nil, nil, err
	}

	if _, err := session.OpenPage(e.Config.RootURL(), e.navigateOptions()); err != nil {
		release()
		return nil, nil, err
	}
	e.Logger.Verbosef("%s loaded %s", session.Name, session.CurrentURL())
	return session, release, nil
}

func (e *Env) navigateOptions() browser.NavigateOptions {
	return browser.NavigateOptions{WaitUntil: browser.WaitUntil(e.Config.Browser.WaitUntil)}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
