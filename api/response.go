package api

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// TestOutcome represents the result of a single test case
type TestOutcome struct {
	ID             int    `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         bool   `json:"passed"`
}

// GradeReport is a simple, complete response for one graded submission
type GradeReport struct {
	EvalUuid string `json:"eval_uuid"`
	Language string `json:"language"`

	// Sample run, only present when the question has a sample input
	SampleInput  *string `json:"sample_input,omitempty"`
	SampleOutput *string `json:"sample_output,omitempty"`

	AllPassed   bool          `json:"all_passed"`
	TestResults []TestOutcome `json:"test_results"`
	PassedCount int           `json:"passed_count"`
	TotalCount  int           `json:"total_count"`

	StartTime   string `json:"start_time"`
	FinishTime  string `json:"finish_time"`
	TotalTimeMs int64  `json:"total_time_ms"`
}

// FailedIDs returns the ids of the test cases that did not pass.
func (r *GradeReport) FailedIDs() mapset.Set[int] {
	failed := mapset.NewThreadUnsafeSet[int]()
	for _, res := range r.TestResults {
		if !res.Passed {
			failed.Add(res.ID)
		}
	}
	return failed
}
