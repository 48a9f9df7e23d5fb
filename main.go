// checkpipe - quality-gate pipeline runner
//
// Sequences lint, type-check, and test tasks for a Python project, enforces
// a coverage threshold as an independent gate, guards env-mutating commands
// behind a venv isolation check, and handles artifact cleanup and README
// conversion for packaging.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/checkpipe/checkpipe/internal/config"
	"github.com/checkpipe/checkpipe/internal/coverage"
	"github.com/checkpipe/checkpipe/internal/docs"
	"github.com/checkpipe/checkpipe/internal/envguard"
	"github.com/checkpipe/checkpipe/internal/metrics"
	"github.com/checkpipe/checkpipe/internal/model"
	"github.com/checkpipe/checkpipe/internal/pipeline"
	"github.com/checkpipe/checkpipe/internal/runner"
	"github.com/checkpipe/checkpipe/internal/sweep"
	"github.com/checkpipe/checkpipe/internal/ui"
)

const (
	exitOK = 0
	// exitFailure covers config, environment, spawn, and conversion errors.
	exitFailure = 1
	// exitCoverage is used only when the test task exited 0 but the
	// coverage gate failed.
	exitCoverage = 2
)

const usageText = `usage: checkpipe [flags] command [KEY=VALUE ...]

Commands:
  help         Show this help
  reqs         Install dependencies (requires an isolated environment)
  clean        Remove generated artifacts
  lint         Run the lint task
  typecheck    Run the type-check task
  test         Run the test task and enforce the coverage threshold
  test_no_cov  Run the test task without the coverage gate
  test_fails   Re-run previously failed test cases, no coverage gate
  check        lint -> typecheck -> test, with the coverage gate
  help_venv    Show virtual environment guidance
  pypi         Convert docs, run check, and publish the package

Overrides (after the command): project=NAME cover_min=N python=BIN
ignore=PAT[,PAT...] log_path=FILE

Flags:
`

// docSource/docDest are the packaging document pair: the distribution format
// is rebuilt from the markdown source only when stale.
const (
	docSource = "README.md"
	docDest   = "README.rst"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checkpipe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	var (
		flagConfig  string
		flagNoColor bool
		flagVerbose bool
		flagDryRun  bool
	)
	fs.StringVar(&flagConfig, "config", "", "Path to config file (default: checkpipe.toml)")
	fs.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&flagVerbose, "verbose", false, "Verbose logging")
	fs.BoolVar(&flagDryRun, "dry-run", false, "Print commands without executing them")

	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	rest := fs.Args()
	command := "help"
	var assigns []string
	if len(rest) > 0 {
		command = rest[0]
		assigns = rest[1:]
	}

	colors := ui.NewColors(!flagNoColor && ui.IsColorEnabled())

	// Commands that never touch config or subprocesses.
	switch command {
	case "help":
		fs.Usage()
		return exitOK
	case "help_venv":
		fmt.Fprintln(stdout, envguard.Guidance)
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Resolve(ctx, flagConfig, envconfig.OsLookuper(), assigns)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitFailure
	}

	r := runner.New(cfg)
	r.DryRun = flagDryRun
	engine := pipeline.New(r, stdout, colors)
	engine.Verbose = flagVerbose

	switch command {
	case "clean":
		res := sweep.Sweep(".", sweep.Patterns())
		fmt.Fprintf(stdout, "removed %d artifacts\n", res.Removed)
		for _, w := range res.Warnings {
			fmt.Fprintf(stderr, "WARNING: %s\n", w)
		}
		if n := len(res.Warnings); n > 0 {
			fmt.Fprintf(stderr, "%d cleanup warnings\n", n)
		}
		return exitOK

	case "reqs":
		if !flagDryRun {
			if err := envguard.Validate(); err != nil {
				fmt.Fprintf(stderr, "ERROR: %v\n", err)
				return exitFailure
			}
		}
		return runPipeline(ctx, engine, "reqs", cfg, command, false, stdout, stderr, colors)

	case "lint", "typecheck":
		return runPipeline(ctx, engine, command, cfg, command, false, stdout, stderr, colors)

	case "test":
		engine.LogPath = cfg.LogPath
		return runPipeline(ctx, engine, "test", cfg, command, !flagDryRun, stdout, stderr, colors)

	case "test_no_cov":
		engine.LogPath = cfg.LogPath
		return runPipeline(ctx, engine, "test", cfg, command, false, stdout, stderr, colors)

	case "test_fails":
		engine.LogPath = cfg.LogPath
		return runPipeline(ctx, engine, "test_fails", cfg, command, false, stdout, stderr, colors)

	case "check":
		engine.LogPath = cfg.LogPath
		return runPipeline(ctx, engine, "check", cfg, command, !flagDryRun, stdout, stderr, colors)

	case "pypi":
		if !flagDryRun {
			converter := &docs.Converter{}
			if err := converter.Convert(ctx, docSource, docDest); err != nil {
				fmt.Fprintf(stderr, "ERROR: %v\n", err)
				return exitFailure
			}
		}
		engine.LogPath = cfg.LogPath
		if code := runPipeline(ctx, engine, "check", cfg, command, !flagDryRun, stdout, stderr, colors); code != exitOK {
			return code
		}
		if !flagDryRun {
			if err := envguard.Validate(); err != nil {
				fmt.Fprintf(stderr, "ERROR: %v\n", err)
				return exitFailure
			}
		}
		engine.LogPath = ""
		return runPipeline(ctx, engine, "publish", cfg, command, false, stdout, stderr, colors)

	default:
		fmt.Fprintf(stderr, "ERROR: unknown command %q\n", command)
		fs.Usage()
		return exitFailure
	}
}

// runPipeline executes one named pipeline and maps its outcome to a process
// exit code. When gated, the coverage gate is evaluated after the test task
// completed, independent of the task's own exit status: both must pass.
func runPipeline(ctx context.Context, engine *pipeline.Engine, name string, cfg config.Config, command string, gated bool, stdout, stderr io.Writer, colors *ui.Colors) int {
	pr, err := engine.Run(ctx, name)
	engine.RenderSummary(pr)

	code := exitOK
	if err != nil {
		var tf *pipeline.TaskFailure
		switch {
		case errors.As(err, &tf):
			code = tf.Result.ExitCode
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(stderr, "interrupted")
			code = exitFailure
		default:
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			code = exitFailure
		}
	}

	var stats *model.TestStats
	if gated || strings.HasPrefix(command, "test") {
		stats = metrics.CollectStats("")
	}

	if gated {
		if gateErr := enforceGate(pr, cfg.CoverMin); gateErr != nil {
			fmt.Fprintf(stderr, "%s %v\n", colors.Red("COVERAGE:"), gateErr)
			if code == exitOK {
				code = exitCoverage
			}
		} else if covered, ok := pipelineCoverage(pr); ok {
			fmt.Fprintf(stdout, "coverage %.1f%% meets the %d%% threshold\n", covered, cfg.CoverMin)
		}
	}

	if engine.LogPath != "" {
		writeRunRecord(cfg, command, pr, stats, stderr)
	}
	return code
}

// enforceGate applies the coverage gate once the test task has completed.
// A pipeline that halted before the test task is not gated.
func enforceGate(pr model.PipelineResult, threshold int) error {
	for _, res := range pr.Results {
		if res.Name != "test" {
			continue
		}
		if res.Coverage == nil {
			return &coverage.Error{Threshold: threshold, Missing: true}
		}
		return coverage.Enforce(*res.Coverage, threshold)
	}
	return nil
}

func pipelineCoverage(pr model.PipelineResult) (float64, bool) {
	for _, res := range pr.Results {
		if res.Coverage != nil {
			return *res.Coverage, true
		}
	}
	return 0, false
}

// writeRunRecord persists the run record next to the log artifact.
func writeRunRecord(cfg config.Config, command string, pr model.PipelineResult, stats *model.TestStats, stderr io.Writer) {
	record := model.RunRecord{
		Command:   command,
		Project:   cfg.Project,
		CoverMin:  cfg.CoverMin,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Pipeline:  pr,
		Stats:     stats,
	}

	path := strings.TrimSuffix(cfg.LogPath, ".log") + ".json"
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "WARNING: failed to encode run record: %v\n", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "WARNING: failed to write run record: %v\n", err)
	}
}
