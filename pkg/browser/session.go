package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/sitecheck/pkg/cookies"
)

func (s *Session) touch(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()
	if url != "" {
		s.currentURL = url
	}
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.Name)
	}
	return nil
}

// CurrentURL returns the URL recorded after the last navigation or click.
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

// Info returns a metadata snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		Name:       s.Name,
		Engine:     s.Engine,
		CurrentURL: s.currentURL,
		Headless:   s.Headless,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.lastUsedAt,
	}
}

// Navigate navigates the session's page to url and waits for opts.WaitUntil.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch("")

	if opts.WaitUntil == "" {
		opts.WaitUntil = WaitLoad
	}
	if !opts.WaitUntil.Valid() {
		return fmt.Errorf("invalid wait_until value: %s (must be 'load', 'domcontentloaded', or 'networkidle')", opts.WaitUntil)
	}
	if opts.Timeout == 0 {
		opts.Timeout = s.navigationTimeout
	}

	waitUntil := playwright.WaitUntilState(opts.WaitUntil)
	gotoOpts := playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(millis(opts.Timeout))
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}

	s.touch(s.Page.URL())
	return nil
}

// OpenPage loads url in the session's page and returns the page once
// navigation completes.
func (s *Session) OpenPage(url string, opts NavigateOptions) (playwright.Page, error) {
	if err := s.Navigate(url, opts); err != nil {
		return nil, err
	}
	return s.Page, nil
}

// ClickLink clicks the first element with accessible role "link" whose
// accessible name matches name, in document order.
func (s *Session) ClickLink(name string, opts ClickOptions) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch("")

	if opts.Timeout == 0 {
		opts.Timeout = s.actionTimeout
	}

	roleOpts := playwright.PageGetByRoleOptions{Name: name}
	if opts.Exact {
		roleOpts.Exact = playwright.Bool(true)
	}
	link := s.Page.GetByRole(*playwright.AriaRoleLink, roleOpts).First()

	waitOpts := playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateAttached,
	}
	clickOpts := playwright.LocatorClickOptions{}
	if opts.Timeout > 0 {
		waitOpts.Timeout = playwright.Float(millis(opts.Timeout))
		clickOpts.Timeout = playwright.Float(millis(opts.Timeout))
	}

	if err := link.WaitFor(waitOpts); err != nil {
		return fmt.Errorf("%w: link %q: %v", ErrLocatorNotFound, name, err)
	}
	if err := link.Click(clickOpts); err != nil {
		return fmt.Errorf("click on link %q failed: %w", name, err)
	}

	s.touch(s.Page.URL())
	return nil
}

// URL returns the page's live URL.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Title returns the page's live title.
func (s *Session) Title() (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	title, err := s.Page.Title()
	if err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// Cookies returns a snapshot of the browsing context's cookies.
func (s *Session) Cookies() (*cookies.Jar, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.touch("")

	list, err := s.Context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies.FromPlaywright(list), nil
}

// Connected reports whether the browser process is still reachable.
func (s *Session) Connected() bool {
	return s.Browser != nil && s.Browser.IsConnected()
}

// Close closes the page, the context and the browser, in that order, and
// deregisters the session. Every step runs even if an earlier one fails.
// Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if s.Page != nil {
			if err := s.Page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.Context != nil {
			if err := s.Context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close context: %w", err))
			}
		}
		if s.Browser != nil {
			if err := s.Browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}

		if s.onClose != nil {
			s.onClose(s)
		}
		if len(errs) > 0 {
			s.closeErr = fmt.Errorf("session %q: %w", s.Name, errors.Join(errs...))
		}
	})
	return s.closeErr
}
