package execute

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type Health int

const (
	HealthOK Health = iota
	HealthWarn
	HealthError
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "OKAY"
	case HealthWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

type HealthRow struct {
	Language Language
	Health   Health
	Message  string
}

// CheckLanguages runs every language's hello world program and reports
// which toolchains are usable. Rows keep the order of langs.
func CheckLanguages(ctx context.Context, langs []Language, timeLimit time.Duration, logger *slog.Logger) []HealthRow {
	rows := make([]HealthRow, len(langs))

	var g errgroup.Group
	g.SetLimit(4)
	for i, lang := range langs {
		g.Go(func() error {
			rows[i] = checkLanguage(ctx, lang, timeLimit, logger)
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func checkLanguage(ctx context.Context, lang Language, timeLimit time.Duration, logger *slog.Logger) HealthRow {
	row := HealthRow{Language: lang}
	if lang.HelloWorldCode == "" {
		row.Health = HealthWarn
		row.Message = "no hello world program configured"
		return row
	}

	data := NewEngine(lang, timeLimit, logger).Execute(ctx, lang.HelloWorldCode, "")
	switch {
	case data.Fault != nil:
		row.Health = HealthError
		row.Message = strings.TrimSpace(*data.Fault)
	case strings.TrimSpace(data.Stdout) != "hello world":
		row.Health = HealthWarn
		row.Message = "unexpected output: " + strings.TrimSpace(data.Stdout)
	default:
		row.Health = HealthOK
		row.Message = strings.TrimSpace(data.Stdout)
	}
	return row
}
