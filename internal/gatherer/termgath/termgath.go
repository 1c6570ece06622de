package termgath

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/grader/api"
)

var (
	passLabel = color.New(color.FgHiGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgHiRed, color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

// TerminalGatherer prints grading progress for a human at a terminal.
type TerminalGatherer struct {
	out       io.Writer
	verbose   bool
	StartedAt time.Time
}

func New(out io.Writer, verbose bool) *TerminalGatherer {
	return &TerminalGatherer{out: out, verbose: verbose, StartedAt: time.Now()}
}

func (t *TerminalGatherer) StartJob(language string, testCount int) {
	fmt.Fprintf(t.out, "== Grading started (%s, %d tests) ==\n", language, testCount)
}

func (t *TerminalGatherer) FinishSample(input string, output string) {
	fmt.Fprintln(t.out, "-- Sample run --")
	fmt.Fprintf(t.out, "%s\n%s", dim("input:"), withNewline(input))
	fmt.Fprintf(t.out, "%s\n%s", dim("output:"), withNewline(output))
}

func (t *TerminalGatherer) ReachTest(testId int64, input string, answer string) {
	if t.verbose {
		fmt.Fprintf(t.out, "-> Test %d reached\n", testId)
	}
}

func (t *TerminalGatherer) FinishTest(outcome api.TestOutcome) {
	label := passLabel("PASS")
	if !outcome.Passed {
		label = failLabel("FAIL")
	}
	fmt.Fprintf(t.out, "<- Test %d %s\n", outcome.ID, label)
	if !outcome.Passed || t.verbose {
		fmt.Fprintf(t.out, "  %s %s", dim("input:   "), indent(outcome.Input))
		fmt.Fprintf(t.out, "  %s %s", dim("expected:"), indent(outcome.ExpectedOutput))
		fmt.Fprintf(t.out, "  %s %s", dim("actual:  "), indent(outcome.ActualOutput))
	}
}

func (t *TerminalGatherer) FinishJob(allPassed bool) {
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	verdict := passLabel("ALL TESTS PASSED")
	if !allPassed {
		verdict = failLabel("SOME TESTS FAILED")
	}
	fmt.Fprintf(t.out, "== %s in %s ==\n", verdict, dur)
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// indent aligns continuation lines under the first one.
func indent(s string) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	return strings.Join(lines, "\n"+strings.Repeat(" ", 12)) + "\n"
}
