// Package expect implements polling assertions: a check is re-evaluated
// against live page state until it matches or a deadline passes.
package expect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// Defaults mirror Playwright's own expect() timing.
const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// ErrTimeout is wrapped by Result.Err when the deadline passed without a match.
var ErrTimeout = errors.New("timed out waiting for expectation")

// ErrMismatch is wrapped by Result.Err when the check failed without timing out.
var ErrMismatch = errors.New("expectation failed")

// Status is the outcome of a polling assertion.
type Status int

const (
	Passed Status = iota
	Failed
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Sample reads the current value under test. It must not change page state.
type Sample func(ctx context.Context) (string, error)

type stopError struct{ err error }

func (e stopError) Error() string { return e.err.Error() }
func (e stopError) Unwrap() error { return e.err }

// Stop marks a sample error as permanent: polling ends with Failed instead of
// retrying.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return stopError{err: err}
}

// Result describes one polling assertion.
type Result struct {
	Status   Status
	What     string // what was checked, e.g. "page URL"
	Expected string
	Actual   string // last observed value
	LastErr  error  // last sample error, if the last attempt failed
	Attempts int
	Elapsed  time.Duration
}

// Passed reports whether the expectation was met.
func (r Result) Passed() bool { return r.Status == Passed }

// Diff renders a unified diff of the expected and last observed values.
func (r Result) Diff() string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(r.Expected + "\n"),
		B:        difflib.SplitLines(r.Actual + "\n"),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  1,
	})
	if err != nil {
		return fmt.Sprintf("expected: %q\nactual:   %q\n", r.Expected, r.Actual)
	}
	return diff
}

// Err returns nil for a passed result and a descriptive error otherwise.
func (r Result) Err() error {
	if r.Status == Passed {
		return nil
	}

	kind := ErrMismatch
	if r.Status == TimedOut {
		kind = ErrTimeout
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: expected %s to match %q, last value %q after %d attempt(s) in %s",
		kind, r.What, r.Expected, r.Actual, r.Attempts, r.Elapsed.Round(time.Millisecond))
	if r.LastErr != nil {
		fmt.Fprintf(&b, " (last error: %v)", r.LastErr)
	}
	b.WriteString("\n")
	b.WriteString(r.Diff())
	return &resultError{kind: kind, msg: b.String(), cause: r.LastErr}
}

type resultError struct {
	kind  error
	msg   string
	cause error
}

func (e *resultError) Error() string { return e.msg }

func (e *resultError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Poller re-runs a sample until its value matches or Timeout elapses.
type Poller struct {
	Timeout  time.Duration
	Interval time.Duration
}

// NewPoller returns a poller, substituting defaults for zero values.
func NewPoller(timeout, interval time.Duration) Poller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Poller{Timeout: timeout, Interval: interval}
}

// Until polls sample until m matches, the deadline passes, ctx is done, or the
// sample returns a Stop error. The sample always runs at least once.
func (p Poller) Until(ctx context.Context, what string, sample Sample, m Matcher) Result {
	p = NewPoller(p.Timeout, p.Interval)

	start := time.Now()
	deadline := start.Add(p.Timeout)
	res := Result{What: what, Expected: m.String()}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		res.Attempts++
		actual, err := sample(ctx)
		now := time.Now()
		res.Elapsed = now.Sub(start)
		res.LastErr = err

		if err == nil {
			res.Actual = actual
			if m.Match(actual) {
				res.Status = Passed
				return res
			}
		}

		var stop stopError
		if errors.As(err, &stop) {
			res.Status = Failed
			return res
		}

		if !now.Before(deadline) {
			res.Status = TimedOut
			return res
		}

		select {
		case <-ctx.Done():
			res.Status = Failed
			res.LastErr = ctx.Err()
			res.Elapsed = time.Since(start)
			return res
		case <-ticker.C:
		}
	}
}

// Value is a convenience for samples that cannot fail.
func Value(f func() string) Sample {
	return func(context.Context) (string, error) {
		return f(), nil
	}
}
