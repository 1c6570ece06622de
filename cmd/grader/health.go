package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/programme-lv/grader/internal/execute"
	"github.com/urfave/cli/v3"
)

func health(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	rows := execute.CheckLanguages(ctx, a.registry.List(), a.cfg.TimeLimit, a.logger)
	outputHealth(rows)

	for _, row := range rows {
		if row.Language.ID == a.cfg.Language && row.Health == execute.HealthError {
			return cli.Exit("configured language "+row.Language.ID+" is not usable", 1)
		}
	}
	return nil
}

func outputHealth(rows []execute.HealthRow) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Language", "Health", "Message"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Language.Name, row.Health.String(), row.Message})
	}
	t.SetStyle(table.StyleColoredDark)
	healthColor := text.Transformer(func(s interface{}) string {
		switch s.(string) {
		case "OKAY":
			return text.FgHiGreen.Sprint(s)
		case "WARN":
			return text.FgHiYellow.Sprint(s)
		case "ERROR":
			return text.FgHiRed.Sprint(s)
		}
		return ""
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{
			Name:        "Health",
			Transformer: healthColor,
			Align:       text.AlignCenter,
		},
	})
	t.Render()
}
