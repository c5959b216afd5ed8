// Package reporter prints run progress, results and summaries to the console
// and writes result documents to disk.
package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/giantswarm/cts/internal/runner"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/query"
)

// Options configures a Reporter.
type Options struct {
	// Out receives results and summaries.
	Out io.Writer
	// ProgressOut receives the spinner. It defaults to Out.
	ProgressOut io.Writer
	// Verbose prints every finished case.
	Verbose bool
	// Progress shows a spinner while cases run. Ignored when Verbose.
	Progress bool
	// Color enables ANSI colours.
	Color bool
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Reporter implements runner.Observer and renders results.
type Reporter struct {
	opts Options

	mu       sync.Mutex
	spinner  *spinner.Spinner
	total    int
	finished int
	warned   int
	failed   int
}

var _ runner.Observer = (*Reporter)(nil)

func New(opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ProgressOut == nil {
		opts.ProgressOut = opts.Out
	}
	return &Reporter{opts: opts}
}

func (r *Reporter) RunStarted(runID string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total

	if r.opts.Verbose {
		fmt.Fprintf(r.opts.Out, "%s run %s: %d cases\n", r.paint(text.FgHiCyan, "▶"), runID, total)
		return
	}
	if r.opts.Progress {
		r.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.opts.ProgressOut))
		r.spinner.Suffix = r.progressLine()
		r.spinner.Start()
	}
}

func (r *Reporter) CaseStarted(id query.CaseID) {}

func (r *Reporter) CaseFinished(id query.CaseID, res logger.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
	switch res.Status {
	case logger.StatusWarn:
		r.warned++
	case logger.StatusFail:
		r.failed++
	}

	if r.opts.Verbose {
		fmt.Fprintf(r.opts.Out, "%s %s (%.3fms)\n", r.statusIcon(res.Status), id, res.TimeMS)
		return
	}
	if r.spinner != nil {
		r.spinner.Lock()
		r.spinner.Suffix = r.progressLine()
		r.spinner.Unlock()
	}
}

// Stop stops the spinner, if any. It is safe to call more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}

func (r *Reporter) progressLine() string {
	return fmt.Sprintf(" %d/%d cases (%d warned, %d failed)", r.finished, r.total, r.warned, r.failed)
}

// Report prints the warnings and failures with their logs, then the summary
// table.
func (r *Reporter) Report(s *runner.Summary) {
	r.Stop()
	out := r.opts.Out

	r.printCases("Warnings", text.FgYellow, s.Warned)
	r.printCases("Failures", text.FgRed, s.Failed)

	total := s.Total()
	t := r.newTable()
	t.AppendHeader(table.Row{r.header("RESULT"), r.header("CASES"), r.header("PERCENT")})
	t.AppendRow(table.Row{"Passed w/o warnings", len(s.Passed), percent(len(s.Passed), total)})
	t.AppendRow(table.Row{"Passed with warnings", len(s.Warned), percent(len(s.Warned), total)})
	t.AppendRow(table.Row{"Failed", len(s.Failed), percent(len(s.Failed), total)})
	t.AppendFooter(table.Row{"Total", total, ""})
	fmt.Fprintln(out)
	t.Render()

	fmt.Fprintf(out, "\n%s Run %s finished in %v\n", r.paint(text.FgHiBlue, "⏱️"), s.RunID, s.Duration.Round(time.Millisecond))
	if s.OK() {
		fmt.Fprintf(out, "%s\n", r.paint(text.FgGreen, "🎉 All tests passed!"))
	} else {
		fmt.Fprintf(out, "%s\n", r.paint(text.FgRed, "💔 Some tests failed or warned"))
	}
}

func (r *Reporter) printCases(title string, color text.Color, cases []CaseReport) {
	if len(cases) == 0 {
		return
	}
	out := r.opts.Out
	fmt.Fprintf(out, "\n%s\n", r.paint(color, fmt.Sprintf("** %s **", title)))
	for _, c := range cases {
		fmt.Fprintf(out, "%s\n", c.ID)
		for _, line := range c.Result.Logs {
			fmt.Fprintf(out, "  - %s\n", strings.ReplaceAll(line, "\n", "\n    "))
		}
	}
}

// CaseReport is re-exported so callers do not need the runner import for
// formatting helpers.
type CaseReport = runner.CaseReport

// GroupInfo is one row of the list output.
type GroupInfo struct {
	Suite       string
	Path        string
	Description string
	Tests       int
	Cases       int
	HasTests    bool
}

// List prints the selected groups.
func (r *Reporter) List(groups []GroupInfo) {
	out := r.opts.Out
	if len(groups) == 0 {
		fmt.Fprintf(out, "%s %s\n", r.paint(text.FgYellow, "📋"), r.paint(text.FgYellow, "No groups found"))
		return
	}

	t := r.newTable()
	t.AppendHeader(table.Row{r.header("SUITE"), r.header("GROUP"), r.header("DESCRIPTION"), r.header("TESTS"), r.header("CASES")})
	cases := 0
	for _, g := range groups {
		tests, count := "-", "-"
		if g.HasTests {
			tests, count = fmt.Sprint(g.Tests), fmt.Sprint(g.Cases)
			cases += g.Cases
		}
		path := g.Path
		if path == "" {
			path = "(root)"
		}
		t.AppendRow(table.Row{g.Suite, path, truncate(g.Description, 60), tests, count})
	}
	t.Render()

	fmt.Fprintf(out, "\n%s %s %s %s %s\n",
		r.paint(text.FgHiBlue, "Total:"),
		r.paint(text.FgHiWhite, fmt.Sprint(len(groups))),
		r.paint(text.FgHiBlue, "groups,"),
		r.paint(text.FgHiWhite, fmt.Sprint(cases)),
		r.paint(text.FgHiBlue, "cases"))
}

func (r *Reporter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.opts.Out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (r *Reporter) header(s string) string {
	return r.paint(text.FgHiCyan, s)
}

func (r *Reporter) paint(c text.Color, s string) string {
	if !r.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func (r *Reporter) statusIcon(s logger.Status) string {
	switch s {
	case logger.StatusPass:
		return r.paint(text.FgGreen, "✅")
	case logger.StatusWarn:
		return r.paint(text.FgYellow, "⚠️")
	default:
		return r.paint(text.FgRed, "❌")
	}
}

func percent(n, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)*100/float64(total))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// WriteDocument writes the logger's result document to path, as YAML when
// the extension is .yaml or .yml and as JSON otherwise.
func WriteDocument(path string, log *logger.Logger) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = log.YAML()
	default:
		data, err = log.JSON("  ")
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
