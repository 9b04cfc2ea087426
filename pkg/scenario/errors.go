package scenario

import (
	"errors"

	"github.com/entrhq/sitecheck/pkg/browser"
	"github.com/entrhq/sitecheck/pkg/cookies"
)

// Failure kinds. Every scenario error wraps exactly one of them.
var (
	ErrEngineStartup   = browser.ErrEngineStartup
	ErrNavigation      = browser.ErrNavigation
	ErrLocatorNotFound = browser.ErrLocatorNotFound
	ErrAssertion       = errors.New("assertion failed")
	ErrCookieNotFound  = cookies.ErrCookieNotFound
)

// Kind names the failure kind of err, or "error" for anything unclassified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEngineStartup):
		return "engine-startup"
	case errors.Is(err, ErrNavigation):
		return "navigation"
	case errors.Is(err, ErrLocatorNotFound):
		return "locator-not-found"
	case errors.Is(err, ErrCookieNotFound):
		return "cookie-not-found"
	case errors.Is(err, ErrAssertion):
		return "assertion"
	default:
		return "error"
	}
}
