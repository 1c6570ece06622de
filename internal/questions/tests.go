package questions

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/grader/api"
)

// ParseTests reads the [[tests]] array of a TOML document:
//
//	[[tests]]
//	in = "3\n5\n"
//	ans = "8"
func ParseTests(data []byte) ([]api.TestCase, error) {
	var root struct {
		Tests []api.TestCase `toml:"tests"`
	}
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if root.Tests == nil {
		return []api.TestCase{}, nil
	}
	return root.Tests, nil
}
