package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/grader/internal/execute"
	"github.com/programme-lv/grader/internal/gatherer/respbuilder"
	"github.com/programme-lv/grader/internal/gatherer/termgath"
	"github.com/programme-lv/grader/internal/grading"
	"github.com/programme-lv/grader/internal/metrics"
	"github.com/programme-lv/grader/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "grader",
		Usage: "run submitted programs against predefined test cases",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "language id (overrides LANGUAGE)"},
			&cli.DurationFlag{Name: "time-limit", Usage: "wall time limit per run, 0 disables (overrides EXEC_TIME_LIMIT)"},
			&cli.StringFlag{Name: "question", Usage: "question JSON location (overrides QUESTION_PATH)"},
			&cli.StringFlag{Name: "tests", Usage: "test case TOML location (overrides TESTS_PATH)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the grading page and JSON API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "worker", Usage: "also consume the SQS request queue"},
				},
				Action: serve,
			},
			{
				Name:      "grade",
				Usage:     "grade a source file against the test cases",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print input and output of every test"},
					&cli.BoolFlag{Name: "json", Usage: "print the report as JSON instead"},
				},
				Action: grade,
			},
			{
				Name:      "run",
				Usage:     "run a source file once and print its output",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "stdin", Usage: "file to use as standard input, - for this process's stdin"},
				},
				Action: run,
			},
			{
				Name:   "worker",
				Usage:  "grade submissions from the SQS request queue",
				Action: worker,
			},
			{
				Name:   "health",
				Usage:  "check that every configured language toolchain works",
				Action: health,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	events, closeEvents, err := a.events()
	if err != nil {
		return err
	}
	defer closeEvents()

	srv := server.New(server.Config{
		Addr:           a.cfg.ListenAddr,
		RateLimitRPS:   a.cfg.RateLimitRPS,
		RateLimitBurst: a.cfg.RateLimitBurst,
		MaxConcurrent:  a.cfg.MaxConcurrent,
	}, store, a.grader, events, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if cmd.Bool("worker") {
		w, err := a.worker(ctx, store, events)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	return g.Wait()
}

func worker(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	events, closeEvents, err := a.events()
	if err != nil {
		return err
	}
	defer closeEvents()

	w, err := a.worker(ctx, store, events)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func grade(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("missing source file argument", 2)
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	q, err := store.Question(ctx)
	if err != nil {
		return err
	}

	builder := respbuilder.New(uuid.NewString())
	var term grading.ResultGatherer
	if !cmd.Bool("json") {
		term = termgath.New(os.Stdout, cmd.Bool("verbose"))
	}
	sub := grading.Submission{
		Code:        string(code),
		SampleInput: q.SampleInput,
		Tests:       store.Tests(),
	}
	allPassed, _ := a.grader.Evaluate(ctx, sub, grading.Multi(builder, term))
	metrics.SubmissionsTotal.WithLabelValues("cli", metrics.Verdict(allPassed)).Inc()

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(builder.Report()); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	}
	if !allPassed {
		return cli.Exit("", 1)
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("missing source file argument", 2)
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	var stdin []byte
	switch src := cmd.String("stdin"); src {
	case "":
	case "-":
		stdin, err = io.ReadAll(os.Stdin)
	default:
		stdin, err = os.ReadFile(src)
	}
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	output := a.engine.Run(ctx, string(code), string(stdin))
	a.logger.Debug("run finished", "elapsed", time.Since(start))

	fmt.Print(output)
	if strings.HasPrefix(output, execute.ErrorMarker) {
		return cli.Exit("", 1)
	}
	return nil
}
