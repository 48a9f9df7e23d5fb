// Package model provides shared data types used across the internal packages.
package model

import "time"

// Task is a single external quality-gate step. Argv is a template: tokens
// may be placeholders ({python}, {package}, {targets}, {ignore}, {flags})
// that the runner expands against the resolved config.
type Task struct {
	Name string
	Argv []string
	// IgnoreFlag is prepended to each ignore pattern when {ignore} expands,
	// e.g. "--ignore=" yields one --ignore=PATTERN token per pattern.
	IgnoreFlag string
	// Fatal tasks halt the pipeline on a non-zero exit.
	Fatal bool
	// Coverage marks tasks whose output carries a coverage percentage.
	Coverage bool
}

// TaskResult is the record of one executed task.
type TaskResult struct {
	Name     string        `json:"name"`
	Argv     []string      `json:"argv"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	// Output holds stdout and stderr interleaved in emission order.
	Output []string `json:"-"`
	// Coverage is set only for tasks that emitted a coverage percentage.
	Coverage *float64 `json:"coverage,omitempty"`
}

// PipelineResult is the ordered outcome of one pipeline invocation. Tasks
// after the first fatal failure are absent, not recorded as skipped.
type PipelineResult struct {
	Results []TaskResult `json:"tasks"`
	Success bool         `json:"success"`
}

// TestStats summarizes a JUnit report produced by the test task.
type TestStats struct {
	Tests    int `json:"tests"`
	Failures int `json:"failures"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// RunRecord is the top-level JSON written next to the log artifact after
// test-family invocations.
type RunRecord struct {
	Command   string         `json:"command"`
	Project   string         `json:"project"`
	CoverMin  int            `json:"coverMin"`
	Timestamp string         `json:"timestamp"`
	Pipeline  PipelineResult `json:"pipeline"`
	Stats     *TestStats     `json:"testStats,omitempty"`
}
