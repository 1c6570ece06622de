package natsgath

import (
	"log/slog"

	"github.com/programme-lv/grader/api"
)

type natsGatherer struct {
	pub      Publisher
	subject  string
	evalUuid string
	logger   *slog.Logger
}

// StartJob implements grading.ResultGatherer.
func (s *natsGatherer) StartJob(language string, testCount int) {
	s.send(api.NewStartJob(s.evalUuid, language, testCount))
}

// FinishSample implements grading.ResultGatherer.
func (s *natsGatherer) FinishSample(input string, output string) {
	s.send(api.NewFinishSample(s.evalUuid, trimmed(input), trimmed(output)))
}

// ReachTest implements grading.ResultGatherer.
func (s *natsGatherer) ReachTest(testId int64, input string, answer string) {
	var inputStrPtr *string = nil
	if trimmedInput := trimmed(input); trimmedInput != "" {
		inputStrPtr = &trimmedInput
	}
	var answerStrPtr *string = nil
	if trimmedAnswer := trimmed(answer); trimmedAnswer != "" {
		answerStrPtr = &trimmedAnswer
	}
	s.send(api.NewReachTest(s.evalUuid, testId, inputStrPtr, answerStrPtr))
}

// FinishTest implements grading.ResultGatherer.
func (s *natsGatherer) FinishTest(outcome api.TestOutcome) {
	s.send(api.NewFinishTest(s.evalUuid, int64(outcome.ID), outcome.Passed, trimmed(outcome.ActualOutput)))
}

// FinishJob implements grading.ResultGatherer.
func (s *natsGatherer) FinishJob(allPassed bool) {
	s.send(api.NewFinishJob(s.evalUuid, allPassed))
}
