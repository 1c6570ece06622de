package questions

import (
	"context"
	"fmt"
	"slices"

	"github.com/programme-lv/grader/api"
)

// Store serves the question, re-read on every call, and the test cases,
// read once when the store is created.
type Store struct {
	fetcher      *Fetcher
	questionPath string
	tests        []api.TestCase
}

func NewStore(ctx context.Context, fetcher *Fetcher, questionPath string, testsPath string) (*Store, error) {
	data, err := fetcher.Fetch(ctx, testsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load test cases: %w", err)
	}
	tests, err := ParseTests(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load test cases from %s: %w", testsPath, err)
	}

	return &Store{
		fetcher:      fetcher,
		questionPath: questionPath,
		tests:        tests,
	}, nil
}

func (s *Store) Question(ctx context.Context) (*Question, error) {
	data, err := s.fetcher.Fetch(ctx, s.questionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	q, err := ParseQuestion(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load question from %s: %w", s.questionPath, err)
	}
	return q, nil
}

// Tests returns a copy of the test cases in file order.
func (s *Store) Tests() []api.TestCase {
	return slices.Clone(s.tests)
}
