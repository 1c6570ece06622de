package grading

import (
	"context"
	"log/slog"
	"strings"

	"github.com/programme-lv/grader/api"
)

// Runner executes code against a standard input and returns what it printed,
// or an error marker followed by a trace. It never fails.
type Runner interface {
	Run(ctx context.Context, code string, stdin string) string
}

// Submission is everything needed to evaluate one piece of code.
type Submission struct {
	Code        string
	SampleInput string
	Tests       []api.TestCase
}

type Grader struct {
	runner   Runner
	language string
	logger   *slog.Logger
}

func NewGrader(runner Runner, language string, logger *slog.Logger) *Grader {
	return &Grader{
		runner:   runner,
		language: language,
		logger:   logger,
	}
}

func (g *Grader) Language() string {
	return g.language
}

// Grade runs code once per test case, in order, and compares trimmed outputs.
// Every test case runs even after a failure. An empty list passes.
func (g *Grader) Grade(ctx context.Context, code string, tests []api.TestCase) (bool, []api.TestOutcome) {
	return g.grade(ctx, code, tests, Multi())
}

// Evaluate runs the sample input (when there is one) and then grades all tests,
// reporting every step to gath.
func (g *Grader) Evaluate(ctx context.Context, sub Submission, gath ResultGatherer) (bool, []api.TestOutcome) {
	if gath == nil {
		gath = Multi()
	}
	gath.StartJob(g.language, len(sub.Tests))

	if sub.SampleInput != "" {
		output := g.runner.Run(ctx, sub.Code, sub.SampleInput)
		gath.FinishSample(sub.SampleInput, output)
	}

	allPassed, outcomes := g.grade(ctx, sub.Code, sub.Tests, gath)
	gath.FinishJob(allPassed)
	return allPassed, outcomes
}

func (g *Grader) grade(ctx context.Context, code string, tests []api.TestCase, gath ResultGatherer) (bool, []api.TestOutcome) {
	allPassed := true
	outcomes := make([]api.TestOutcome, 0, len(tests))

	for i, test := range tests {
		id := i + 1
		gath.ReachTest(int64(id), test.Input, test.ExpectedOutput)

		actual := g.runner.Run(ctx, code, test.Input)
		passed := Matches(test.ExpectedOutput, actual)
		if !passed {
			allPassed = false
		}

		outcome := api.TestOutcome{
			ID:             id,
			Input:          test.Input,
			ExpectedOutput: test.ExpectedOutput,
			ActualOutput:   actual,
			Passed:         passed,
		}
		g.logger.Debug("test finished", "test_id", id, "passed", passed)
		gath.FinishTest(outcome)
		outcomes = append(outcomes, outcome)
	}

	return allPassed, outcomes
}

// Matches reports whether actual equals expected once leading and trailing
// white space is removed from both. Interior white space and case matter.
func Matches(expected string, actual string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}
