package natsgath

import (
	"strings"

	"github.com/programme-lv/grader/api"
)

// trimStrToRect cuts s down to at most maxHeight lines of at most maxWidth bytes.
func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	var res strings.Builder
	for i, line := range lines {
		if i > 0 {
			res.WriteByte('\n')
		}
		if len(line) > maxWidth {
			res.WriteString(line[:maxWidth] + "[...]")
		} else {
			res.WriteString(line)
		}
	}
	return res.String()
}

func trimmed(s string) string {
	return trimStrToRect(s, api.MaxStreamTextHeight, api.MaxStreamTextWidth)
}
