// Package coverage extracts the coverage percentage produced by the test
// task and enforces the configured minimum. The gate is independent of the
// test task's own exit status: a passing test run can still fail the gate,
// and a passing gate never overrides a failing test run.
package coverage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/acarl005/stripansi"
)

// Error reports a coverage gate failure: either the measured percentage was
// below the threshold, or no coverage data could be found at all.
type Error struct {
	Actual    float64
	Threshold int
	Missing   bool
}

func (e *Error) Error() string {
	if e.Missing {
		return fmt.Sprintf("coverage: no coverage data found (threshold %d%%)", e.Threshold)
	}
	return fmt.Sprintf("coverage: %.1f%% is below the %d%% threshold", e.Actual, e.Threshold)
}

// ReportFile is the JSON report the test task writes when coverage is
// collected with a JSON reporter.
const ReportFile = "coverage.json"

// totalLine matches the terminal summary row, e.g. "TOTAL  120  10  92%"
// or "TOTAL  120  10  91.67%".
var totalLine = regexp.MustCompile(`^TOTAL\s+.*?(\d+(?:\.\d+)?)%\s*$`)

// Extract finds the coverage percentage for a test run. The JSON report is
// preferred; the TOTAL summary line of the captured output is the fallback.
// Output lines are ANSI-stripped before matching, since the test tool may
// colorize its summary.
func Extract(dir string, output []string) (float64, bool) {
	if pct, ok := fromReport(dir); ok {
		return pct, true
	}
	return fromOutput(output)
}

func fromReport(dir string) (float64, bool) {
	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		return 0, false
	}
	var report struct {
		Totals struct {
			PercentCovered *float64 `json:"percent_covered"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(data, &report); err != nil || report.Totals.PercentCovered == nil {
		return 0, false
	}
	return *report.Totals.PercentCovered, true
}

func fromOutput(output []string) (float64, bool) {
	// Last TOTAL line wins if the output contains several.
	found := false
	var pct float64
	for _, line := range output {
		m := totalLine.FindStringSubmatch(stripansi.Strip(line))
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			pct = v
			found = true
		}
	}
	return pct, found
}

// Enforce applies the gate: it passes iff actual >= threshold.
func Enforce(actual float64, threshold int) error {
	if actual < float64(threshold) {
		return &Error{Actual: actual, Threshold: threshold}
	}
	return nil
}

// Gate extracts and enforces in one step. A missing percentage is a distinct
// failure, never a silent pass.
func Gate(dir string, output []string, threshold int) (float64, error) {
	actual, ok := Extract(dir, output)
	if !ok {
		return 0, &Error{Threshold: threshold, Missing: true}
	}
	return actual, Enforce(actual, threshold)
}
