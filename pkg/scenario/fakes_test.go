package scenario

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/sitecheck/pkg/browser"
	"github.com/entrhq/sitecheck/pkg/browser/browsertest"
	"github.com/entrhq/sitecheck/pkg/config"
	"github.com/entrhq/sitecheck/pkg/expect"
	"github.com/entrhq/sitecheck/pkg/logging"
)

// fakeStarter hands out sessions backed by browsertest fakes.
type fakeStarter struct {
	newBrowser func(engine browser.Engine) *browsertest.Browser

	mu       sync.Mutex
	sessions []*browser.Session
	maxAlive int
}

func (f *fakeStarter) StartSession(ctx context.Context, name string, opts browser.SessionOptions) (*browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	alive := 1
	for _, s := range f.sessions {
		if s.Connected() {
			alive++
		}
	}
	f.maxAlive = max(f.maxAlive, alive)

	b := f.newBrowser(opts.Engine)
	s := &browser.Session{
		Name:      name,
		Engine:    opts.Engine,
		Browser:   b,
		Context:   b.Context,
		Page:      b.Context.Page,
		Headless:  opts.Headless,
		CreatedAt: time.Now(),
	}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeStarter) HasSessions() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Connected() {
			return true
		}
	}
	return false
}

func (f *fakeStarter) engines() []browser.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]browser.Engine, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s.Engine)
	}
	return out
}

func (f *fakeStarter) page(i int) *browsertest.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[i].Page.(*browsertest.Page)
}

// fakeSite builds a browser showing cfg's site: the home page carries the
// tips link and every page has its own title.
func fakeSite(cfg *config.Config, homeTitle, tipsTitle string) *browsertest.Browser {
	tips, err := cfg.TipsURL()
	if err != nil {
		panic(err)
	}
	page := browsertest.NewPage("about:blank", "")
	page.Titles[cfg.RootURL()] = homeTitle
	page.Titles[tips] = tipsTitle
	page.Links[cfg.Site.LinkName] = &browsertest.Link{Href: tips}
	return browsertest.NewBrowser(page)
}

func newFakeEnv(t *testing.T, cfg *config.Config, newBrowser func(browser.Engine) *browsertest.Browser) (*Env, *fakeStarter, *bytes.Buffer) {
	t.Helper()
	starter := &fakeStarter{newBrowser: newBrowser}
	var stdout bytes.Buffer
	env := NewEnv(cfg, starter, logging.NewWriterLogger("test", io.Discard), &stdout)
	env.Poller = expect.NewPoller(200*time.Millisecond, 5*time.Millisecond)
	return env, starter, &stdout
}
