// Package browsertest provides in-memory stand-ins for the Playwright browser
// interfaces, so sessions can be driven in tests without a browser or driver.
//
// Each fake embeds its Playwright interface; calling a method the fake does
// not implement panics with a nil dereference.
package browsertest

import (
	"errors"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// ErrNoSuchElement is returned by Locator.WaitFor when no link matches.
var ErrNoSuchElement = errors.New("timeout: waiting for locator to be attached")

// BrowserType is a fake launcher for one engine.
type BrowserType struct {
	playwright.BrowserType

	name string

	// LaunchErr makes Launch fail.
	LaunchErr error
	// NewBrowser builds the browser each Launch returns. Nil gives a browser
	// with an empty page.
	NewBrowser func() *Browser
	// Started, if set, receives a value when Launch begins.
	Started chan struct{}
	// Release, if set, blocks Launch until it is closed.
	Release chan struct{}

	mu       sync.Mutex
	launches []playwright.BrowserTypeLaunchOptions
}

// NewBrowserType creates a fake launcher reporting name.
func NewBrowserType(name string) *BrowserType {
	return &BrowserType{name: name}
}

func (t *BrowserType) Name() string { return t.name }

func (t *BrowserType) Launch(options ...playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	t.mu.Lock()
	if len(options) > 0 {
		t.launches = append(t.launches, options[0])
	} else {
		t.launches = append(t.launches, playwright.BrowserTypeLaunchOptions{})
	}
	t.mu.Unlock()

	if t.Started != nil {
		t.Started <- struct{}{}
	}
	if t.Release != nil {
		<-t.Release
	}
	if t.LaunchErr != nil {
		return nil, t.LaunchErr
	}
	if t.NewBrowser != nil {
		return t.NewBrowser(), nil
	}
	return NewBrowser(NewPage("", "")), nil
}

// Launches returns the options of every Launch call so far.
func (t *BrowserType) Launches() []playwright.BrowserTypeLaunchOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]playwright.BrowserTypeLaunchOptions(nil), t.launches...)
}

// Browser is a fake browser owning a single context.
type Browser struct {
	playwright.Browser

	Context       *Context
	NewContextErr error
	CloseErr      error

	mu     sync.Mutex
	closed bool
}

// NewBrowser creates a browser whose context holds page.
func NewBrowser(page *Page) *Browser {
	return &Browser{Context: &Context{Page: page}}
}

func (b *Browser) NewContext(...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	return b.Context, nil
}

func (b *Browser) Close(...playwright.BrowserCloseOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.CloseErr
}

func (b *Browser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool { return !b.IsConnected() }

// Context is a fake browsing context with one page and a cookie list.
type Context struct {
	playwright.BrowserContext

	Page       *Page
	NewPageErr error
	CookiesErr error
	// OnCookies, if set, runs at the start of every Cookies call.
	OnCookies func()

	mu      sync.Mutex
	cookies []playwright.Cookie
	closed  bool
}

func (c *Context) NewPage() (playwright.Page, error) {
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.Page, nil
}

// SetCookies replaces the context's cookies.
func (c *Context) SetCookies(cookies ...playwright.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = append([]playwright.Cookie(nil), cookies...)
}

func (c *Context) Cookies(...string) ([]playwright.Cookie, error) {
	if c.OnCookies != nil {
		c.OnCookies()
	}
	if c.CookiesErr != nil {
		return nil, c.CookiesErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]playwright.Cookie(nil), c.cookies...), nil
}

func (c *Context) Close(...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Link is a link on a fake page. Clicking it navigates to Href.
type Link struct {
	Href     string
	ClickErr error
}

// RoleQuery records one GetByRole call.
type RoleQuery struct {
	Role  playwright.AriaRole
	Name  string
	Exact bool
}

// Page is a fake page. Navigation sets the URL and, when Titles has an entry
// for it, the title. With Lag set, URL and Title keep reporting the previous
// values for that many reads after each navigation.
type Page struct {
	playwright.Page

	// Links maps accessible names to links. GetByRole matches names exactly.
	Links map[string]*Link
	// Titles maps URLs to the title the page has once loaded.
	Titles map[string]string
	// Lag delays URL and title updates by this many reads.
	Lag int

	GotoErr  error
	CloseErr error

	mu        sync.Mutex
	url       string
	title     string
	prevURL   string
	prevTitle string
	urlLag    int
	titleLag  int
	gotos     []string
	waits     []playwright.WaitUntilState
	queries   []RoleQuery
	closed    bool
}

// NewPage creates a page showing url with title.
func NewPage(url, title string) *Page {
	return &Page{
		url:    url,
		title:  title,
		Links:  make(map[string]*Link),
		Titles: make(map[string]string),
	}
}

func (p *Page) navigate(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prevURL, p.prevTitle = p.url, p.title
	p.url = url
	if title, ok := p.Titles[url]; ok {
		p.title = title
	}
	p.urlLag, p.titleLag = p.Lag, p.Lag
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	p.gotos = append(p.gotos, url)
	if len(options) > 0 && options[0].WaitUntil != nil {
		p.waits = append(p.waits, *options[0].WaitUntil)
	}
	p.mu.Unlock()

	if p.GotoErr != nil {
		return nil, p.GotoErr
	}
	p.navigate(url)
	return nil, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.urlLag > 0 {
		p.urlLag--
		return p.prevURL
	}
	return p.url
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titleLag > 0 {
		p.titleLag--
		return p.prevTitle, nil
	}
	return p.title, nil
}

func (p *Page) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	q := RoleQuery{Role: role}
	if len(options) > 0 {
		q.Name, _ = options[0].Name.(string)
		q.Exact = options[0].Exact != nil && *options[0].Exact
	}

	p.mu.Lock()
	p.queries = append(p.queries, q)
	link := p.Links[q.Name]
	p.mu.Unlock()

	return &Locator{page: p, link: link}
}

func (p *Page) SetDefaultTimeout(float64) {}

func (p *Page) SetDefaultNavigationTimeout(float64) {}

func (p *Page) Close(...playwright.PageCloseOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.CloseErr
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Gotos returns every URL passed to Goto.
func (p *Page) Gotos() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.gotos...)
}

// WaitStates returns the wait state of every Goto that set one.
func (p *Page) WaitStates() []playwright.WaitUntilState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]playwright.WaitUntilState(nil), p.waits...)
}

// RoleQueries returns every GetByRole call.
func (p *Page) RoleQueries() []RoleQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RoleQuery(nil), p.queries...)
}

// pwLocator lets Locator embed playwright.Locator without the embedded field
// name shadowing the interface's Locator method.
type pwLocator = playwright.Locator

// Locator resolves to at most one link.
type Locator struct {
	pwLocator

	page *Page
	link *Link
}

func (l *Locator) First() playwright.Locator { return l }

func (l *Locator) WaitFor(...playwright.LocatorWaitForOptions) error {
	if l.link == nil {
		return ErrNoSuchElement
	}
	return nil
}

func (l *Locator) Click(...playwright.LocatorClickOptions) error {
	if l.link == nil {
		return ErrNoSuchElement
	}
	if l.link.ClickErr != nil {
		return l.link.ClickErr
	}
	l.page.navigate(l.link.Href)
	return nil
}
