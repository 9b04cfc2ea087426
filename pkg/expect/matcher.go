package expect

import (
	"fmt"
	"regexp"
)

// Matcher decides whether an observed value satisfies an expectation.
type Matcher interface {
	Match(actual string) bool
	// String describes the expected value, used in failure messages.
	String() string
}

type equalMatcher string

// Equal matches the exact, case-sensitive string.
func Equal(expected string) Matcher {
	return equalMatcher(expected)
}

func (m equalMatcher) Match(actual string) bool { return string(m) == actual }
func (m equalMatcher) String() string           { return string(m) }

type patternMatcher struct {
	re *regexp.Regexp
}

// Pattern matches values containing a match of re.
func Pattern(re *regexp.Regexp) Matcher {
	return patternMatcher{re: re}
}

// MustPattern compiles expr and returns a pattern matcher. It panics on an
// invalid expression.
func MustPattern(expr string) Matcher {
	return Pattern(regexp.MustCompile(expr))
}

// CompilePattern compiles expr and returns a pattern matcher.
func CompilePattern(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Pattern(re), nil
}

func (m patternMatcher) Match(actual string) bool { return m.re.MatchString(actual) }
func (m patternMatcher) String() string           { return "/" + m.re.String() + "/" }
