// Package metrics parses structured reports emitted by the test task.
package metrics

import (
	"os"

	"github.com/joshdk/go-junit"

	"github.com/checkpipe/checkpipe/internal/model"
)

// ReportFile is where the test task writes its JUnit XML when the
// --junitxml flag is wired in via extra_flags.
const ReportFile = "report.xml"

// ParseJUnitReport parses a JUnit XML file into aggregate test counts.
// It handles single <testsuite>, <testsuites>, and multi-root variants.
func ParseJUnitReport(path string) (*model.TestStats, error) {
	suites, err := junit.IngestFile(path)
	if err != nil {
		return nil, err
	}

	stats := &model.TestStats{}
	for _, suite := range suites {
		stats.Tests += len(suite.Tests)
		for _, test := range suite.Tests {
			switch test.Status {
			case junit.StatusFailed:
				stats.Failures++
			case junit.StatusError:
				stats.Errors++
			case junit.StatusSkipped:
				stats.Skipped++
			}
		}
	}
	return stats, nil
}

// CollectStats parses the report if it exists. No report is not an error;
// the test task only writes one when asked to.
func CollectStats(path string) *model.TestStats {
	if path == "" {
		path = ReportFile
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	stats, err := ParseJUnitReport(path)
	if err != nil {
		return nil
	}
	return stats
}
