// Package scenario holds sitecheck's end-to-end checks against the live site
// and the runner that executes them.
package scenario

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
)

// Scenario is one independent acquire, act, assert, release sequence.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Scenario names.
const (
	LinkNavigation   = "link-navigation"
	CrossEngineTitle = "cross-engine-title"
	AnalyticsCookie  = "analytics-cookie"
)

// All returns every scenario in a stable order.
func All() []Scenario {
	return []Scenario{
		{
			Name:        LinkNavigation,
			Description: "following the tips link lands on a page whose URL and title match the site pattern",
			Run:         runLinkNavigation,
		},
		{
			Name:        CrossEngineTitle,
			Description: "every configured engine renders the exact home page title",
			Run:         runCrossEngineTitle,
		},
		{
			Name:        AnalyticsCookie,
			Description: "the tips page sets the analytics cookie with the expected prefix",
			Run:         runAnalyticsCookie,
		},
	}
}

// Lookup returns the scenario with the given name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range All() {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Select returns the scenarios whose names match any of the glob patterns,
// in registry order. No patterns selects everything.
func Select(patterns []string) ([]Scenario, error) {
	all := All()
	if len(patterns) == 0 {
		return all, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario pattern '%s': %w", p, err)
		}
		globs = append(globs, g)
	}

	var out []Scenario
	for _, s := range all {
		for _, g := range globs {
			if g.Match(s.Name) {
				out = append(out, s)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario matches %v", patterns)
	}
	return out, nil
}
