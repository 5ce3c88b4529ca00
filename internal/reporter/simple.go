// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize" // MIT License
	"github.com/mgutz/ansi"

	"github.com/leaf-ai/testme-runner/internal/model"
)

var (
	passColor    = ansi.ColorFunc("green+b")
	failColor    = ansi.ColorFunc("red+b")
	skipColor    = ansi.ColorFunc("yellow")
	timeoutColor = ansi.ColorFunc("magenta+b")
	errorColor   = ansi.ColorFunc("red")
)

// SimpleReporter writes line-oriented progress to a single writer. All
// methods serialize on an internal mutex so in-flight tests can stream
// results concurrently.
type SimpleReporter struct {
	mu       sync.Mutex
	w        io.Writer
	colors   bool
	detailed bool
	verbose  bool
	quiet    bool
}

// NewSimple builds a reporter honoring the resolved output section: the
// detailed format adds captured stdout/stderr to every non-passing line,
// verbose adds it to passing lines too.
func NewSimple(w io.Writer, out model.OutputConfig) *SimpleReporter {
	return &SimpleReporter{
		w:        w,
		colors:   out.Colors,
		detailed: out.Format == model.FormatDetailed,
		verbose:  out.Verbose,
		quiet:    out.Quiet,
	}
}

func (r *SimpleReporter) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "running %d %s\n", total, plural(total, "test", "tests"))
}

func (r *SimpleReporter) OnResult(res *model.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quiet && res.Status == model.StatusPass {
		return
	}

	line := fmt.Sprintf("%-7s %s (%s)", r.paint(res.Status), res.TestFile.Base,
		res.Duration.Round(time.Millisecond))
	if res.AssertionCounts != nil {
		line += fmt.Sprintf(" [%d passed, %d failed]",
			res.AssertionCounts.Passed, res.AssertionCounts.Failed)
	}
	fmt.Fprintln(r.w, line)

	if res.ErrorMessage != "" {
		fmt.Fprintf(r.w, "        %s\n", res.ErrorMessage)
	}
	if r.verbose || (r.detailed && res.Status != model.StatusPass) {
		r.dump("stdout", res.Stdout)
		r.dump("stderr", res.Stderr)
	}
}

func (r *SimpleReporter) OnGroupSkipped(dir string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quiet {
		return
	}
	line := fmt.Sprintf("%-7s %s", r.paint(model.StatusSkip), dir)
	if reason != "" && r.verbose {
		line += " (" + reason + ")"
	}
	fmt.Fprintln(r.w, line)
}

func (r *SimpleReporter) OnSummary(summary *model.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%d %s, %d passed, %d failed, %d skipped, %d errors, %d timeouts in %sms\n",
		summary.Total, plural(summary.Total, "test", "tests"),
		summary.Passed, summary.Failed, summary.Skipped, summary.Errored, summary.TimedOut,
		humanize.Comma(summary.Duration.Milliseconds()))
}

// paint colors a status label when colors are enabled, leaving the label
// width stable either way so columns line up.
func (r *SimpleReporter) paint(status model.TestStatus) string {
	label := strings.ToUpper(string(status))
	if !r.colors {
		return label
	}
	switch status {
	case model.StatusPass:
		return passColor(label)
	case model.StatusFail, model.StatusCrash:
		return failColor(label)
	case model.StatusSkip:
		return skipColor(label)
	case model.StatusTimeout:
		return timeoutColor(label)
	default:
		return errorColor(label)
	}
}

func (r *SimpleReporter) dump(name, content string) {
	if content == "" {
		return
	}
	fmt.Fprintf(r.w, "  %s:\n", name)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(r.w, "    %s\n", line)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
