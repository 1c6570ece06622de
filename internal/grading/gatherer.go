package grading

import "github.com/programme-lv/grader/api"

// ResultGatherer receives grading progress as it happens.
type ResultGatherer interface {
	StartJob(language string, testCount int)
	FinishSample(input string, output string)

	ReachTest(testId int64, input string, answer string)
	FinishTest(outcome api.TestOutcome)

	FinishJob(allPassed bool)
}

// Multi fans every event out to all gatherers in order. Nil entries are skipped.
func Multi(gatherers ...ResultGatherer) ResultGatherer {
	nonNil := make(multiGatherer, 0, len(gatherers))
	for _, g := range gatherers {
		if g != nil {
			nonNil = append(nonNil, g)
		}
	}
	return nonNil
}

type multiGatherer []ResultGatherer

func (m multiGatherer) StartJob(language string, testCount int) {
	for _, g := range m {
		g.StartJob(language, testCount)
	}
}

func (m multiGatherer) FinishSample(input string, output string) {
	for _, g := range m {
		g.FinishSample(input, output)
	}
}

func (m multiGatherer) ReachTest(testId int64, input string, answer string) {
	for _, g := range m {
		g.ReachTest(testId, input, answer)
	}
}

func (m multiGatherer) FinishTest(outcome api.TestOutcome) {
	for _, g := range m {
		g.FinishTest(outcome)
	}
}

func (m multiGatherer) FinishJob(allPassed bool) {
	for _, g := range m {
		g.FinishJob(allPassed)
	}
}
