package execute_test

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/programme-lv/grader/internal/execute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func shellEngine(t *testing.T, limit time.Duration) *execute.Engine {
	t.Helper()
	lang, err := execute.NewRegistry().Get("sh")
	require.NoError(t, err)
	return execute.NewEngine(lang, limit, discard)
}

func TestRun_ReturnsStdoutVerbatim(t *testing.T) {
	e := shellEngine(t, 0)

	out := e.Run(context.Background(), "printf 'hello\\n  world  \\n'", "")
	assert.Equal(t, "hello\n  world  \n", out)
}

func TestRun_FeedsStdin(t *testing.T) {
	e := shellEngine(t, 0)

	code := "read a\nread b\necho $((a + b))\n"
	out := e.Run(context.Background(), code, "3\n5\n")
	assert.Equal(t, "8\n", out)
}

func TestRun_FaultStartsWithErrorMarker(t *testing.T) {
	e := shellEngine(t, 0)

	out := e.Run(context.Background(), "echo partial\necho 'boom' >&2\nexit 3\n", "1\n")
	require.True(t, strings.HasPrefix(out, execute.ErrorMarker), out)
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "partial")
}

func TestRun_FaultWithoutStderrStillHasTrace(t *testing.T) {
	e := shellEngine(t, 0)

	out := e.Run(context.Background(), "exit 2\n", "")
	require.True(t, strings.HasPrefix(out, execute.ErrorMarker+"\n"), out)
	assert.Contains(t, out, "exit status 2")
}

func TestRun_TimeLimit(t *testing.T) {
	e := shellEngine(t, 200*time.Millisecond)

	start := time.Now()
	out := e.Run(context.Background(), "exec sleep 5\n", "")
	require.True(t, strings.HasPrefix(out, execute.ErrorMarker), out)
	assert.Contains(t, out, "time limit exceeded")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRun_MissingInterpreter(t *testing.T) {
	lang := execute.Language{
		ID:        "ghost",
		CodeFname: "main.ghost",
		ExecCmd:   "grader-no-such-interpreter main.ghost",
	}
	e := execute.NewEngine(lang, 0, discard)

	out := e.Run(context.Background(), "whatever", "")
	require.True(t, strings.HasPrefix(out, execute.ErrorMarker), out)
	assert.Contains(t, out, "grader-no-such-interpreter")
}

func TestRun_CompileFailure(t *testing.T) {
	lang := execute.Language{
		ID:         "broken",
		CodeFname:  "main.txt",
		CompileCmd: "false",
		ExecCmd:    "cat main.txt",
	}
	e := execute.NewEngine(lang, 0, discard)

	out := e.Run(context.Background(), "never printed", "")
	require.True(t, strings.HasPrefix(out, execute.ErrorMarker), out)
	assert.Contains(t, out, "compilation failed")
}

func TestRun_CompileStepThenExec(t *testing.T) {
	lang := execute.Language{
		ID:         "copy",
		CodeFname:  "main.txt",
		CompileCmd: "cp main.txt built.txt",
		ExecCmd:    "cat built.txt",
	}
	e := execute.NewEngine(lang, 0, discard)

	assert.Equal(t, "compiled text", e.Run(context.Background(), "compiled text", ""))
}

func TestRun_FreshDirectoryPerRun(t *testing.T) {
	e := shellEngine(t, 0)
	ctx := context.Background()

	first := e.Run(ctx, "echo leftover > state.txt\necho done\n", "")
	require.Equal(t, "done\n", first)

	second := e.Run(ctx, "if [ -e state.txt ]; then echo found; else echo clean; fi\n", "")
	assert.Equal(t, "clean\n", second)
}

func TestRun_ConcurrentRunsKeepStreamsApart(t *testing.T) {
	e := shellEngine(t, 0)
	code := "read x\necho \"got $x\"\n"

	var wg sync.WaitGroup
	outs := make([]string, 8)
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i] = e.Run(context.Background(), code, strings.Repeat("x", i+1)+"\n")
		}(i)
	}
	wg.Wait()

	for i, out := range outs {
		assert.Equal(t, "got "+strings.Repeat("x", i+1)+"\n", out)
	}
}

func TestExecute_CollectsStderrAndExitCode(t *testing.T) {
	e := shellEngine(t, 0)

	data := e.Execute(context.Background(), "echo out\necho err >&2\n", "in")
	assert.Nil(t, data.Fault)
	assert.Equal(t, "in", data.Stdin)
	assert.Equal(t, "out\n", data.Stdout)
	assert.Equal(t, "err\n", data.Stderr)
	assert.EqualValues(t, 0, data.ExitCode)
}

func requirePython(t *testing.T) *execute.Engine {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found on PATH")
	}
	lang, err := execute.NewRegistry().Get("python3")
	require.NoError(t, err)
	return execute.NewEngine(lang, 10*time.Second, discard)
}

func TestRun_PythonSum(t *testing.T) {
	e := requirePython(t)

	code := "a = int(input())\nb = int(input())\nprint(a + b)\n"
	assert.Equal(t, "8\n", e.Run(context.Background(), code, "3\n5\n"))
}

func TestRun_PythonTraceback(t *testing.T) {
	e := requirePython(t)

	out := e.Run(context.Background(), "raise ValueError('bad input')\n", "")
	require.True(t, strings.HasPrefix(out, execute.ErrorMarker), out)
	assert.Contains(t, out, "Traceback")
	assert.Contains(t, out, "ValueError: bad input")
}
