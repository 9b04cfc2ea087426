// Package cookies inspects read-only snapshots of a browsing context's
// cookies.
package cookies

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

var (
	// ErrCookieNotFound is returned when a required cookie is absent.
	ErrCookieNotFound = errors.New("cookie not found")
	// ErrPrefixMismatch is returned when a cookie value lacks the required prefix.
	ErrPrefixMismatch = errors.New("prefix mismatch")
)

// Cookie is one cookie as seen by the browser.
type Cookie struct {
	Name     string  `yaml:"name" json:"name"`
	Value    string  `yaml:"value" json:"value"`
	Domain   string  `yaml:"domain" json:"domain"`
	Path     string  `yaml:"path" json:"path"`
	Expires  float64 `yaml:"expires" json:"expires"` // unix seconds, -1 for session cookies
	HTTPOnly bool    `yaml:"http_only" json:"http_only"`
	Secure   bool    `yaml:"secure" json:"secure"`
	SameSite string  `yaml:"same_site,omitempty" json:"same_site,omitempty"`
}

// Jar is an immutable snapshot of cookies keyed by name.
type Jar struct {
	order  []string
	byName map[string][]Cookie
}

// NewJar builds a snapshot, preserving the browser's order.
func NewJar(cookies []Cookie) *Jar {
	j := &Jar{byName: make(map[string][]Cookie)}
	for _, c := range cookies {
		if _, seen := j.byName[c.Name]; !seen {
			j.order = append(j.order, c.Name)
		}
		j.byName[c.Name] = append(j.byName[c.Name], c)
	}
	return j
}

// FromPlaywright converts cookies returned by BrowserContext.Cookies.
func FromPlaywright(in []playwright.Cookie) *Jar {
	out := make([]Cookie, 0, len(in))
	for _, c := range in {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		out = append(out, cookie)
	}
	return NewJar(out)
}

// Len returns the number of cookies, counting duplicates.
func (j *Jar) Len() int {
	n := 0
	for _, cs := range j.byName {
		n += len(cs)
	}
	return n
}

// Names returns the distinct cookie names in browser order.
func (j *Jar) Names() []string {
	return append([]string(nil), j.order...)
}

// Get returns the first cookie with the given name.
func (j *Jar) Get(name string) (Cookie, bool) {
	cs := j.byName[name]
	if len(cs) == 0 {
		return Cookie{}, false
	}
	return cs[0], true
}

// All returns every cookie with the given name.
func (j *Jar) All(name string) []Cookie {
	return append([]Cookie(nil), j.byName[name]...)
}

// Require returns the named cookie or ErrCookieNotFound.
func (j *Jar) Require(name string) (Cookie, error) {
	c, ok := j.Get(name)
	if !ok {
		return Cookie{}, fmt.Errorf("%w: %s (have %s)", ErrCookieNotFound, name, strings.Join(j.order, ", "))
	}
	return c, nil
}

// RequirePrefix checks that the cookie value starts with prefix.
func RequirePrefix(c Cookie, prefix string) error {
	if !strings.HasPrefix(c.Value, prefix) {
		return fmt.Errorf("%s %w, got: %s", c.Name, ErrPrefixMismatch, c.Value)
	}
	return nil
}

// RegistrableDomain returns the eTLD+1 a cookie belongs to, falling back to
// the bare domain for hosts publicsuffix cannot classify.
func RegistrableDomain(domain string) string {
	host := strings.TrimPrefix(strings.ToLower(domain), ".")
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// Filter selects cookies for Dump. The zero value selects everything.
type Filter struct {
	match glob.Glob
}

// NewFilter compiles a glob over cookie names. An empty pattern selects all.
func NewFilter(pattern string) (Filter, error) {
	if pattern == "" {
		return Filter{}, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return Filter{}, fmt.Errorf("invalid cookie filter '%s': %w", pattern, err)
	}
	return Filter{match: g}, nil
}

// Match reports whether name passes the filter.
func (f Filter) Match(name string) bool {
	return f.match == nil || f.match.Match(name)
}

// Grouped returns the filtered cookies keyed by registrable domain.
func (j *Jar) Grouped(f Filter) map[string][]Cookie {
	groups := make(map[string][]Cookie)
	for _, name := range j.order {
		if !f.Match(name) {
			continue
		}
		for _, c := range j.byName[name] {
			d := RegistrableDomain(c.Domain)
			groups[d] = append(groups[d], c)
		}
	}
	return groups
}

// Dump writes the filtered cookies as YAML grouped by registrable domain.
// It is diagnostic output only.
func (j *Jar) Dump(w io.Writer, f Filter) error {
	groups := j.Grouped(f)

	domains := make([]string, 0, len(groups))
	for d := range groups {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	doc := make([]domainGroup, 0, len(domains))
	for _, d := range domains {
		doc = append(doc, domainGroup{Domain: d, Cookies: groups[d]})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	return enc.Close()
}

type domainGroup struct {
	Domain  string   `yaml:"domain"`
	Cookies []Cookie `yaml:"cookies"`
}
