package api

// GradeReq is a submission to grade against the configured question.
type GradeReq struct {
	EvalUuid string `json:"eval_uuid"`
	Code     string `json:"code"`
}

// TestCase is a single (input, expected output) pair.
// The toml tags follow the short in/ans naming of test files.
type TestCase struct {
	Input          string `json:"input" toml:"in"`
	ExpectedOutput string `json:"expected_output" toml:"ans"`
}
