// Package runner executes a single external task, capturing exit status,
// duration, and interleaved stdout/stderr output. A non-zero exit is a
// normal TaskResult; only inability to spawn the process is an error.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/checkpipe/checkpipe/internal/config"
	"github.com/checkpipe/checkpipe/internal/model"
)

// SpawnError reports that a task's process could not be started at all
// (binary missing, permission denied). It halts the pipeline at that task.
type SpawnError struct {
	Task string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("task %s: cannot spawn process: %v", e.Task, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Runner executes tasks against one resolved config.
type Runner struct {
	Cfg    config.Config
	DryRun bool
}

// New creates a Runner for the given config.
func New(cfg config.Config) *Runner {
	return &Runner{Cfg: cfg}
}

// Expand substitutes config fields into the task's argv template. Each
// template token is either passed through verbatim or expanded:
//
//	{python}   -> the configured interpreter
//	{package}  -> first target path (the package dir)
//	{targets}  -> all target paths, one token each
//	{ignore}   -> IgnoreFlag+pattern, one token per ignore pattern
//	{flags}    -> the task's extra flags, whitespace-split
func Expand(t model.Task, cfg config.Config) []string {
	ignoreFlag := t.IgnoreFlag
	if ignoreFlag == "" {
		ignoreFlag = "--ignore="
	}

	var argv []string
	for _, tok := range t.Argv {
		switch tok {
		case "{python}":
			argv = append(argv, cfg.Python)
		case "{package}":
			argv = append(argv, cfg.Targets[0])
		case "{targets}":
			argv = append(argv, cfg.Targets...)
		case "{ignore}":
			for _, p := range cfg.Ignore {
				argv = append(argv, ignoreFlag+p)
			}
		case "{flags}":
			argv = append(argv, strings.Fields(cfg.ExtraFlags[t.Name])...)
		default:
			argv = append(argv, tok)
		}
	}
	return argv
}

// Run executes the task and blocks until it exits. Stdout and stderr are
// captured interleaved in emission order. Context cancellation kills the
// process; the result then holds whatever was captured before termination.
func (r *Runner) Run(ctx context.Context, t model.Task) (model.TaskResult, error) {
	argv := Expand(t, r.Cfg)
	res := model.TaskResult{Name: t.Name, Argv: argv}

	if r.DryRun {
		res.Output = []string{"(dry-run) " + strings.Join(argv, " ")}
		return res, nil
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	lw := &lineWriter{}
	cmd.Stdout = lw
	cmd.Stderr = lw

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Output = lw.Lines()

	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
			if ctx.Err() != nil {
				// Killed by cancellation, not a task verdict.
				return res, ctx.Err()
			}
			return res, nil
		}
		res.ExitCode = -1
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, &SpawnError{Task: t.Name, Err: err}
	}

	return res, nil
}

// lineWriter collects interleaved output line by line. It is shared between
// stdout and stderr so lines land in emission order.
type lineWriter struct {
	mu    sync.Mutex
	buf   []byte
	lines []string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		w.lines = append(w.lines, string(w.buf[:idx]))
		w.buf = w.buf[idx+1:]
	}
	return len(p), nil
}

// Lines returns captured lines, flushing any trailing partial line.
func (w *lineWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := append([]string(nil), w.lines...)
	if len(w.buf) > 0 {
		out = append(out, string(w.buf))
	}
	return out
}
