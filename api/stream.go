package api

import "time"

// MsgType is a message type for streaming responses
type MsgType string

// Streaming message type constants
const (
	StartJobMsg     MsgType = "job_start"
	FinishSampleMsg MsgType = "sample_finish"
	ReachTestMsg    MsgType = "test_reach"
	FinishTestMsg   MsgType = "test_finish"
	FinishJobMsg    MsgType = "job_finish"
)

// Size constraints for text carried in streaming messages
const (
	MaxStreamTextHeight = 40
	MaxStreamTextWidth  = 80
)

// Header is the common header for all streaming response messages
type Header struct {
	EvalUuid string  `json:"eval_uuid"`
	MsgType  MsgType `json:"msg_type"`
}

// StartJob message sent when grading begins
type StartJob struct {
	Header
	Language    string `json:"language"`
	TestCount   int    `json:"test_count"`
	StartedTime string `json:"started_time"`
}

// FinishSample message sent after the sample input has been run
type FinishSample struct {
	Header
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ReachTest message sent when a test is reached
type ReachTest struct {
	Header
	TestId int64   `json:"test_id"`
	Input  *string `json:"input"`
	Answer *string `json:"answer"`
}

// FinishTest message sent when a test completes
type FinishTest struct {
	Header
	TestId int64  `json:"test_id"`
	Passed bool   `json:"passed"`
	Actual string `json:"actual"`
}

// FinishJob message sent when grading completes
type FinishJob struct {
	Header
	AllPassed bool `json:"all_passed"`
}

func NewHeader(evalUuid string, msgType MsgType) Header {
	return Header{
		EvalUuid: evalUuid,
		MsgType:  msgType,
	}
}

func NewStartJob(evalUuid, language string, testCount int) StartJob {
	return StartJob{
		Header:      NewHeader(evalUuid, StartJobMsg),
		Language:    language,
		TestCount:   testCount,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewFinishSample(evalUuid, input, output string) FinishSample {
	return FinishSample{
		Header: NewHeader(evalUuid, FinishSampleMsg),
		Input:  input,
		Output: output,
	}
}

func NewReachTest(evalUuid string, testId int64, input, answer *string) ReachTest {
	return ReachTest{
		Header: NewHeader(evalUuid, ReachTestMsg),
		TestId: testId,
		Input:  input,
		Answer: answer,
	}
}

func NewFinishTest(evalUuid string, testId int64, passed bool, actual string) FinishTest {
	return FinishTest{
		Header: NewHeader(evalUuid, FinishTestMsg),
		TestId: testId,
		Passed: passed,
		Actual: actual,
	}
}

func NewFinishJob(evalUuid string, allPassed bool) FinishJob {
	return FinishJob{
		Header:    NewHeader(evalUuid, FinishJobMsg),
		AllPassed: allPassed,
	}
}
