package scenario

import (
	"context"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/sitecheck/pkg/browser"
	"github.com/entrhq/sitecheck/pkg/browser/browsertest"
	"github.com/entrhq/sitecheck/pkg/config"
	"github.com/entrhq/sitecheck/pkg/expect"
)

// shopConfig points the site at a host whose home page does not match the
// page pattern, so only the tips page can satisfy it.
func shopConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = "https://shop.example.com/"
	cfg.Site.TipsPath = "/opravy-telefonu/"
	return cfg
}

func TestLinkNavigationWaitsForURLAndTitle(t *testing.T) {
	cfg := shopConfig()
	env, starter, _ := newFakeEnv(t, cfg, func(browser.Engine) *browsertest.Browser {
		b := fakeSite(cfg, "Shop", "Opravy telefonu | rady")
		b.Context.Page.Lag = 3
		return b
	})

	require.NoError(t, runLinkNavigation(context.Background(), env))

	assert.Equal(t, []browser.Engine{browser.Chromium}, starter.engines())
	page := starter.page(0)
	assert.Equal(t, []string{"https://shop.example.com/"}, page.Gotos())
	assert.Equal(t, "https://shop.example.com/opravy-telefonu/", page.URL())
	title, _ := page.Title()
	assert.Equal(t, "Opravy telefonu | rady", title)

	queries := page.RoleQueries()
	require.Len(t, queries, 1)
	assert.Equal(t, *playwright.AriaRoleLink, queries[0].Role)
	assert.Equal(t, "Tipy a triky", queries[0].Name)
	assert.False(t, queries[0].Exact)
	assert.False(t, starter.HasSessions())
}

func TestLinkNavigationTitleMismatch(t *testing.T) {
	cfg := shopConfig()
	env, starter, _ := newFakeEnv(t, cfg, func(browser.Engine) *browsertest.Browser {
		return fakeSite(cfg, "Shop", "Kontakt")
	})

	err := runLinkNavigation(context.Background(), env)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.ErrorIs(t, err, expect.ErrTimeout)
	assert.Contains(t, err.Error(), "page title")
	assert.Contains(t, err.Error(), `last value "Kontakt"`)
	assert.Equal(t, "assertion", Kind(err))
	assert.False(t, starter.HasSessions())
}

func TestLinkNavigationURLMismatch(t *testing.T) {
	cfg := shopConfig()
	cfg.Site.TipsPath = "/rady/"
	env, _, _ := newFakeEnv(t, cfg, func(browser.Engine) *browsertest.Browser {
		return fakeSite(cfg, "Shop", "Opravy telefonu")
	})

	err := runLinkNavigation(context.Background(), env)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.Contains(t, err.Error(), "page URL")
	assert.Contains(t, err.Error(), `last value "https://shop.example.com/rady/"`)
}

func TestLinkNavigationMissingLink(t *testing.T) {
	cfg := config.DefaultConfig()
	env, starter, _ := newFakeEnv(t, cfg, func(browser.Engine) *browsertest.Browser {
		b := fakeSite(cfg, cfg.Site.ExpectedTitle, "")
		delete(b.Context.Page.Links, cfg.Site.LinkName)
		return b
	})

	err := runLinkNavigation(context.Background(), env)
	assert.ErrorIs(t, err, ErrLocatorNotFound)
	assert.ErrorIs(t, err, browsertest.ErrNoSuchElement)
	assert.Equal(t, "locator-not-found", Kind(err))
	assert.False(t, starter.HasSessions())
}

func TestLinkNavigationNavigationFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	env, starter, _ := newFakeEnv(t, cfg, func(browser.Engine) *browsertest.Browser {
		b := fakeSite(cfg, "", "")
		b.Context.Page.GotoErr = assert.AnError
		return b
	})

	err := runLinkNavigation(context.Background(), env)
	assert.ErrorIs(t, err, ErrNavigation)
	assert.Contains(t, err.Error(), cfg.RootURL())
	assert.Equal(t, "navigation", Kind(err))
	assert.Empty(t, starter.page(0).RoleQueries())
	assert.False(t, starter.HasSessions())
}

func TestLinkNavigationUsesConfiguredOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Site.LinkExact = true
	cfg.Browser.WaitUntil = "networkidle"
	env, starter, _ := newFakeEnv(t, cfg, func(browser.Engine) *browsertest.Browser {
		return fakeSite(cfg, cfg.Site.ExpectedTitle, "Poradna | opravy-telefonu.cz")
	})

	require.NoError(t, runLinkNavigation(context.Background(), env))

	page := starter.page(0)
	assert.Equal(t, []playwright.WaitUntilState{"networkidle"}, page.WaitStates())
	require.Len(t, page.RoleQueries(), 1)
	assert.True(t, page.RoleQueries()[0].Exact)
}
