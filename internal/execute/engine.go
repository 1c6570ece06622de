// Package execute runs submitted source code as a child process.
//
// Every run gets its own working directory and its own stdin/stdout/stderr
// buffers, so concurrent runs never share streams. Nothing here restricts what
// the submitted program may do: it runs with the privileges of the server.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/metrics"
)

// ErrorMarker prefixes the output of every run that ended in a fault.
const ErrorMarker = "ERROR:"

// waitDelay bounds how long Wait keeps the output pipes open after the
// process has been killed, in case it left children behind.
const waitDelay = time.Second

type Engine struct {
	lang      Language
	timeLimit time.Duration
	tmpRoot   string
	logger    *slog.Logger
}

// NewEngine creates an engine for lang. A zero timeLimit disables the limit.
func NewEngine(lang Language, timeLimit time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		lang:      lang,
		timeLimit: timeLimit,
		tmpRoot:   os.TempDir(),
		logger:    logger,
	}
}

func (e *Engine) Language() Language {
	return e.lang
}

// Run executes code with stdin as its standard input. It returns standard
// output verbatim on success, or ErrorMarker followed by the fault trace.
func (e *Engine) Run(ctx context.Context, code string, stdin string) string {
	return Output(e.Execute(ctx, code, stdin))
}

// Output converts run data into the text the grader compares.
func Output(data *api.RunData) string {
	if data.Fault != nil {
		return ErrorMarker + "\n" + *data.Fault
	}
	return data.Stdout
}

// Execute runs code and collects everything known about the run.
func (e *Engine) Execute(ctx context.Context, code string, stdin string) *api.RunData {
	data := e.execute(ctx, code, stdin)

	status := "ok"
	switch {
	case data.TimedOut:
		status = "timeout"
	case data.Fault != nil:
		status = "fault"
	}
	metrics.ExecutionsTotal.WithLabelValues(e.lang.ID, status).Inc()
	metrics.ExecutionDuration.WithLabelValues(e.lang.ID).Observe(float64(data.WallMillis))

	e.logger.Debug("execution finished",
		"language", e.lang.ID,
		"status", status,
		"exit", data.ExitCode,
		"wall_ms", data.WallMillis,
		"stderr_bytes", len(data.Stderr))
	return data
}

func (e *Engine) execute(ctx context.Context, code string, stdin string) *api.RunData {
	dir, err := os.MkdirTemp(e.tmpRoot, "grader-run-*")
	if err != nil {
		return faulted(stdin, fmt.Sprintf("failed to create run directory: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove run directory", "dir", dir, "error", err)
		}
	}()

	err = os.WriteFile(filepath.Join(dir, e.lang.CodeFname), []byte(code), 0o644)
	if err != nil {
		return faulted(stdin, fmt.Sprintf("failed to write source file: %v", err))
	}

	if e.lang.CompileCmd != "" {
		compile := e.command(ctx, dir, e.lang.CompileCmd, "")
		if compile.Fault != nil {
			trace := "compilation failed\n" + *compile.Fault
			compile.Fault = &trace
			compile.Stdin = stdin
			return compile
		}
	}

	return e.command(ctx, dir, e.lang.ExecCmd, stdin)
}

func (e *Engine) command(ctx context.Context, dir string, cmdline string, stdin string) *api.RunData {
	args := strings.Fields(cmdline)
	if len(args) == 0 {
		return faulted(stdin, "empty command")
	}

	if e.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeLimit)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()

	data := &api.RunData{
		Stdin:      stdin,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		WallMillis: time.Since(start).Milliseconds(),
	}
	if cmd.ProcessState != nil {
		data.ExitCode = int64(cmd.ProcessState.ExitCode())
	}
	if err == nil || (errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil) {
		return data
	}

	var trace string
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) && e.timeLimit > 0:
		data.TimedOut = true
		trace = data.Stderr + fmt.Sprintf("time limit exceeded (%s)", e.timeLimit)
	case ctx.Err() != nil:
		trace = data.Stderr + fmt.Sprintf("execution cancelled: %v", ctx.Err())
	case errors.As(err, &exitErr):
		trace = data.Stderr
		if trace == "" {
			trace = exitErr.Error()
		}
	default:
		trace = fmt.Sprintf("failed to run %q: %v", args[0], err)
	}
	data.Fault = &trace
	return data
}

func faulted(stdin string, trace string) *api.RunData {
	return &api.RunData{
		Stdin:    stdin,
		ExitCode: -1,
		Fault:    &trace,
	}
}
