package questions

import (
	"encoding/json"
	"fmt"
)

// Question is the task shown to the user.
type Question struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	SampleInput string `json:"sample_input"`
}

func ParseQuestion(data []byte) (*Question, error) {
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse question JSON: %w", err)
	}
	return &q, nil
}
