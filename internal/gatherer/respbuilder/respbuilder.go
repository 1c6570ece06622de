package respbuilder

import (
	"time"

	"github.com/programme-lv/grader/api"
)

// Builder gathers grading events and builds a complete api.GradeReport.
type Builder struct {
	evalUuid string
	language string

	started  time.Time
	finished *time.Time

	sampleInput  *string
	sampleOutput *string

	testResults []api.TestOutcome
	allPassed   bool
}

func New(evalUuid string) *Builder {
	return &Builder{
		evalUuid:    evalUuid,
		started:     time.Now(),
		testResults: []api.TestOutcome{},
		allPassed:   true,
	}
}

// StartJob implements grading.ResultGatherer.
func (b *Builder) StartJob(language string, testCount int) {
	b.language = language
	b.testResults = make([]api.TestOutcome, 0, testCount)
}

// FinishSample implements grading.ResultGatherer.
func (b *Builder) FinishSample(input string, output string) {
	b.sampleInput = &input
	b.sampleOutput = &output
}

// ReachTest implements grading.ResultGatherer.
func (b *Builder) ReachTest(testId int64, input string, answer string) {}

// FinishTest implements grading.ResultGatherer.
func (b *Builder) FinishTest(outcome api.TestOutcome) {
	if !outcome.Passed {
		b.allPassed = false
	}
	b.testResults = append(b.testResults, outcome)
}

// FinishJob implements grading.ResultGatherer.
func (b *Builder) FinishJob(allPassed bool) {
	now := time.Now()
	b.finished = &now
	b.allPassed = allPassed
}

// Report builds the api.GradeReport from gathered data.
func (b *Builder) Report() api.GradeReport {
	start := b.started.Format(time.RFC3339)
	finish := start
	total := int64(0)
	if b.finished != nil {
		finish = b.finished.Format(time.RFC3339)
		total = b.finished.Sub(b.started).Milliseconds()
	}

	passed := 0
	for _, res := range b.testResults {
		if res.Passed {
			passed++
		}
	}

	results := make([]api.TestOutcome, len(b.testResults))
	copy(results, b.testResults)

	return api.GradeReport{
		EvalUuid:     b.evalUuid,
		Language:     b.language,
		SampleInput:  b.sampleInput,
		SampleOutput: b.sampleOutput,
		AllPassed:    b.allPassed,
		TestResults:  results,
		PassedCount:  passed,
		TotalCount:   len(results),
		StartTime:    start,
		FinishTime:   finish,
		TotalTimeMs:  total,
	}
}
