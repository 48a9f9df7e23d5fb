// Package pipeline orders task execution for the named pipelines and
// enforces short-circuit-on-failure. Tasks run strictly sequentially; a
// later task is never started once an earlier fatal task has failed.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/checkpipe/checkpipe/internal/coverage"
	"github.com/checkpipe/checkpipe/internal/model"
	"github.com/checkpipe/checkpipe/internal/runner"
	"github.com/checkpipe/checkpipe/internal/ui"
)

// TaskFailure reports a non-zero exit from a fatal task. The pipeline halts
// at that task; prior results are preserved in the PipelineResult.
type TaskFailure struct {
	Result model.TaskResult
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task %s failed with exit code %d", e.Result.Name, e.Result.ExitCode)
}

// Engine runs named pipelines against one resolved config.
type Engine struct {
	Runner *runner.Runner
	Out    io.Writer
	Colors *ui.Colors
	// Verbose echoes the expanded argv on the RUN line.
	Verbose bool
	// LogPath, when set, receives the combined interleaved output of all
	// executed tasks in pipeline order. The file is overwritten per run.
	LogPath string
}

// New creates an Engine around the given runner.
func New(r *runner.Runner, out io.Writer, colors *ui.Colors) *Engine {
	return &Engine{Runner: r, Out: out, Colors: colors}
}

// Run executes the named pipeline. The returned PipelineResult contains one
// TaskResult per executed task; tasks after the first fatal failure are
// absent. The error is non-nil for TaskFailure, SpawnError, and cancellation.
func (e *Engine) Run(ctx context.Context, name string) (model.PipelineResult, error) {
	tasks, ok := Pipelines()[name]
	if !ok {
		return model.PipelineResult{}, fmt.Errorf("unknown pipeline: %s", name)
	}
	return e.RunTasks(ctx, tasks)
}

// RunTasks executes an explicit task sequence with pipeline semantics.
func (e *Engine) RunTasks(ctx context.Context, tasks []model.Task) (model.PipelineResult, error) {
	var log io.WriteCloser
	if e.LogPath != "" {
		f, err := os.Create(e.LogPath)
		if err != nil {
			return model.PipelineResult{}, fmt.Errorf("cannot create log file %s: %w", e.LogPath, err)
		}
		log = f
		defer f.Close()
	}

	var pr model.PipelineResult
	for _, t := range tasks {
		e.renderStart(t)

		res, err := e.Runner.Run(ctx, t)
		if t.Coverage {
			if pct, ok := coverage.Extract(".", res.Output); ok {
				res.Coverage = &pct
			}
		}
		pr.Results = append(pr.Results, res)
		e.appendLog(log, res)
		e.renderOutput(res)
		e.renderDone(res, err)

		if err != nil {
			// SpawnError or cancellation: the pipeline stops here.
			return pr, err
		}
		if t.Fatal && res.ExitCode != 0 {
			return pr, &TaskFailure{Result: res}
		}
	}

	pr.Success = true
	return pr, nil
}

func (e *Engine) appendLog(log io.Writer, res model.TaskResult) {
	if log == nil {
		return
	}
	for _, line := range res.Output {
		fmt.Fprintln(log, line)
	}
}

// renderOutput echoes the captured lines with the task prefix, after the
// task finished, so interleaved output stays in emission order.
func (e *Engine) renderOutput(res model.TaskResult) {
	for _, line := range res.Output {
		fmt.Fprintf(e.Out, "[%-10s] %s\n", res.Name, line)
	}
}

func (e *Engine) renderStart(t model.Task) {
	if e.Verbose {
		argv := runner.Expand(t, e.Runner.Cfg)
		fmt.Fprintf(e.Out, "[%-10s] %s    %v\n", t.Name, e.Colors.Blue("RUN"), argv)
		return
	}
	fmt.Fprintf(e.Out, "[%-10s] %s\n", t.Name, e.Colors.Blue("RUN"))
}

func (e *Engine) renderDone(res model.TaskResult, err error) {
	dur := res.Duration.Round(time.Millisecond)
	switch {
	case err != nil:
		fmt.Fprintf(e.Out, "[%-10s] %s %s (%v)\n", res.Name, e.Colors.StatusSymbol(false), e.Colors.Red("ERROR"), dur)
	case res.ExitCode != 0:
		fmt.Fprintf(e.Out, "[%-10s] %s %s (exit %d, %v)\n", res.Name, e.Colors.StatusSymbol(false), e.Colors.Red("FAIL"), res.ExitCode, dur)
	default:
		fmt.Fprintf(e.Out, "[%-10s] %s %s (%v)\n", res.Name, e.Colors.StatusSymbol(true), e.Colors.Green("PASS"), dur)
	}
}

// RenderSummary prints the closing status block for a pipeline run.
func (e *Engine) RenderSummary(pr model.PipelineResult) {
	fmt.Fprintln(e.Out)
	for _, r := range pr.Results {
		status := e.Colors.Green("PASS")
		if r.ExitCode != 0 {
			status = e.Colors.Red("FAIL")
		}
		fmt.Fprintf(e.Out, "  %-10s %s (%v)\n", r.Name, status, r.Duration.Round(time.Millisecond))
	}
	if pr.Success {
		fmt.Fprintln(e.Out, e.Colors.Bold(e.Colors.Green("All tasks passed")))
	} else {
		fmt.Fprintln(e.Out, e.Colors.Bold(e.Colors.Red("Pipeline failed")))
	}
}
