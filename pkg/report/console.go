package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/sitecheck/pkg/scenario"
)

var (
	mintGreen = lipgloss.Color("#A8E6CF")
	softRed   = lipgloss.Color("203")
	amber     = lipgloss.Color("#FFD580")
	mutedGray = lipgloss.Color("#6B7280")
)

// Console prints run progress and results for a terminal. Colours follow
// the writer's detected profile, so piped output stays plain.
type Console struct {
	w io.Writer

	header  lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	skip    lipgloss.Style
	detail  lipgloss.Style
	verbose bool
}

// NewConsole creates a console that writes to w. When verbose is set the
// full error of every failed scenario is printed under its line.
func NewConsole(w io.Writer, verbose bool) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		header:  r.NewStyle().Bold(true),
		pass:    r.NewStyle().Foreground(mintGreen).Bold(true),
		fail:    r.NewStyle().Foreground(softRed).Bold(true),
		skip:    r.NewStyle().Foreground(amber),
		detail:  r.NewStyle().Foreground(mutedGray).PaddingLeft(4),
		verbose: verbose,
	}
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(c.w, "\n%s\n%s\n%s\n", c.header.Render(rule), c.header.Render("  "+message), c.header.Render(rule))
}

// Outcome prints one scenario result line.
func (c *Console) Outcome(o scenario.Outcome) {
	took := o.Duration.Round(time.Millisecond)
	switch o.Status {
	case scenario.StatusPassed:
		fmt.Fprintf(c.w, "%s %s (%s)\n", c.pass.Render("✓"), o.Name, took)
	case scenario.StatusSkipped:
		fmt.Fprintf(c.w, "%s %s skipped\n", c.skip.Render("-"), o.Name)
	default:
		fmt.Fprintf(c.w, "%s %s [%s] (%s)\n", c.fail.Render("✗"), o.Name, o.Kind, took)
		msg := o.Error
		if !c.verbose {
			msg, _, _ = strings.Cut(msg, "\n")
		}
		fmt.Fprintln(c.w, c.detail.Render(msg))
	}
}

// Summary prints every outcome followed by a totals footer.
func (c *Console) Summary(s *scenario.Summary) {
	for _, o := range s.Outcomes {
		c.Outcome(o)
	}

	totals := fmt.Sprintf("%d passed, %d failed, %d skipped in %s",
		s.Count(scenario.StatusPassed), s.Count(scenario.StatusFailed),
		s.Count(scenario.StatusSkipped), s.Duration.Round(time.Millisecond))

	fmt.Fprintln(c.w)
	if s.Passed() {
		fmt.Fprintln(c.w, c.pass.Render("PASS")+" "+totals)
	} else {
		fmt.Fprintln(c.w, c.fail.Render("FAIL")+" "+totals)
	}
}
