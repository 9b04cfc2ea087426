package scenario

import (
	"context"
	"fmt"

	"github.com/entrhq/sitecheck/pkg/browser"
	"github.com/entrhq/sitecheck/pkg/expect"
)

// runLinkNavigation clicks the first "Tipy a triky" link, then waits for the
// URL and afterwards the title to match the site pattern.
func runLinkNavigation(ctx context.Context, env *Env) error {
	site := env.Config.Site

	pattern, err := expect.CompilePattern(site.PagePattern)
	if err != nil {
		return err
	}

	session, release, err := env.AcquirePage(ctx, LinkNavigation, env.FixtureEngine)
	if err != nil {
		return err
	}
	defer release()

	if err := session.ClickLink(site.LinkName, browser.ClickOptions{Exact: site.LinkExact}); err != nil {
		return err
	}
	env.Logger.Verbosef("clicked link %q", site.LinkName)

	urlResult := env.Poller.Until(ctx, "page URL", expect.Value(session.URL), pattern)
	if err := urlResult.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	env.Logger.Verbosef("URL %s matched after %d attempt(s)", urlResult.Actual, urlResult.Attempts)

	titleResult := env.Poller.Until(ctx, "page title", titleSample(session), pattern)
	if err := titleResult.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	env.Logger.Verbosef("title %q matched after %d attempt(s)", titleResult.Actual, titleResult.Attempts)

	return nil
}

func titleSample(s *browser.Session) expect.Sample {
	return func(context.Context) (string, error) {
		return s.Title()
	}
}
