package scenario

import (
	"context"
	"fmt"

	"github.com/entrhq/sitecheck/pkg/cookies"
	"github.com/entrhq/sitecheck/pkg/expect"
)

// runAnalyticsCookie opens the tips page, dumps the browsing context's
// cookies to stdout and checks the analytics cookie and its prefix.
func runAnalyticsCookie(ctx context.Context, env *Env) error {
	site := env.Config.Site

	tipsURL, err := env.Config.TipsURL()
	if err != nil {
		return err
	}
	filter, err := cookies.NewFilter(site.CookieDump)
	if err != nil {
		return err
	}

	session, release, err := env.AcquirePage(ctx, AnalyticsCookie, env.FixtureEngine)
	if err != nil {
		return err
	}
	defer release()

	if err := session.Navigate(tipsURL, env.navigateOptions()); err != nil {
		return err
	}

	// The analytics cookie is set by script after the load event. Poll for it,
	// then dump and assert on the last snapshot taken.
	var jar *cookies.Jar
	res := env.Poller.Until(ctx, "cookie "+site.CookieName, func(context.Context) (string, error) {
		j, err := session.Cookies()
		if err != nil {
			return "", expect.Stop(err)
		}
		jar = j
		if _, ok := j.Get(site.CookieName); ok {
			return "present", nil
		}
		return "absent", nil
	}, expect.Equal("present"))
	// Failed means the run was cancelled or the cookies became unreadable;
	// only a timeout leaves a snapshot worth reporting on.
	if jar == nil || res.Status == expect.Failed {
		return res.Err()
	}

	fmt.Fprintf(env.Stdout, "# cookies on %s (%s, %d total)\n", tipsURL, session.Engine, jar.Len())
	if err := jar.Dump(env.Stdout, filter); err != nil {
		env.Logger.Warnf("cookie dump: %v", err)
	}

	cookie, err := jar.Require(site.CookieName)
	if err != nil {
		return err
	}
	if err := cookies.RequirePrefix(cookie, site.CookiePrefix); err != nil {
		return fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	env.Logger.Verbosef("cookie %s=%s", cookie.Name, cookie.Value)
	return nil
}
