package scenario

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is a scenario outcome.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome records one scenario run.
type Outcome struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Kind      string        `json:"kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Err error `json:"-"`
}

// Summary aggregates a run.
type Summary struct {
	RunID     string        `json:"run_id"`
	BaseURL   string        `json:"base_url"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Outcomes  []Outcome     `json:"outcomes"`
}

// Count returns how many outcomes have status s.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Passed reports whether no scenario failed.
func (s *Summary) Passed() bool {
	return s.Count(StatusFailed) == 0
}

// Runner executes scenarios against an Env.
type Runner struct {
	env         *Env
	parallelism int
}

// NewRunner creates a runner. Parallelism below 1 means sequential.
func NewRunner(env *Env, parallelism int) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{env: env, parallelism: parallelism}
}

// Run executes every scenario and collects the outcomes in input order. A
// failing scenario does not stop the others; scenarios not started before
// ctx is done are reported as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) *Summary {
	summary := &Summary{
		RunID:     r.env.Logger.RunID(),
		BaseURL:   r.env.Config.RootURL(),
		StartTime: time.Now(),
		Outcomes:  make([]Outcome, len(scenarios)),
	}

	var g errgroup.Group
	g.SetLimit(r.parallelism)

	for i, sc := range scenarios {
		g.Go(func() error {
			summary.Outcomes[i] = r.runOne(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	return summary
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) (out Outcome) {
	log := r.env.Logger.Component(sc.Name)
	out = Outcome{Name: sc.Name, StartedAt: time.Now()}

	if err := ctx.Err(); err != nil {
		out.Status = StatusSkipped
		out.Err = err
		out.Error = err.Error()
		log.Warnf("skipped: %v", err)
		return out
	}

	log.Infof("running: %s", sc.Description)

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("panic: %v\n%s", p, debug.Stack())
			out.Err = fmt.Errorf("scenario panicked: %v", p)
		}

		out.Duration = time.Since(out.StartedAt)
		if out.Err != nil {
			out.Status = StatusFailed
			out.Kind = Kind(out.Err)
			out.Error = out.Err.Error()
			log.Errorf("failed after %s: %v", out.Duration.Round(time.Millisecond), out.Err)
			return
		}
		out.Status = StatusPassed
		log.Infof("passed in %s", out.Duration.Round(time.Millisecond))
	}()

	out.Err = sc.Run(ctx, r.env)
	return out
}
