// Package sweep removes generated artifacts matching a fixed glob pattern
// list. Removal failures are collected as warnings, never fatal: the sweep
// always continues through the remaining patterns.
package sweep

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Patterns is the cleanup pattern list. It is separate from the lint/test
// ignore-pattern set: these are artifacts to delete, not paths to skip.
func Patterns() []string {
	return []string{
		"**/*.pyc",
		"**/__pycache__",
		"**/*~",
		"**/#*#",
		"**/.#*",
		"*.log",
		".coverage",
		"coverage.json",
		"report.xml",
		".pytest_cache",
		".mypy_cache",
		"build",
		"dist",
		"*.egg-info",
	}
}

// Result aggregates one sweep.
type Result struct {
	Removed  int
	Warnings []string
}

// Sweep matches every pattern under root and removes matches. Patterns fan
// out through a bounded worker group; results are merged and returned
// deterministically. Running twice with nothing newly created removes zero
// entries on the second pass and is not an error.
func Sweep(root string, patterns []string) Result {
	var (
		mu  sync.Mutex
		res Result
	)

	g := new(errgroup.Group)
	g.SetLimit(4)

	for _, pattern := range patterns {
		pattern := pattern
		g.Go(func() error {
			removed, warnings := sweepPattern(root, pattern)
			mu.Lock()
			res.Removed += removed
			res.Warnings = append(res.Warnings, warnings...)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; warnings carry the failures.
	_ = g.Wait()

	sort.Strings(res.Warnings)
	return res
}

func sweepPattern(root, pattern string) (int, []string) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return 0, []string{pattern + ": " + err.Error()}
	}

	removed := 0
	var warnings []string
	for _, m := range matches {
		path := filepath.Join(root, m)
		if err := os.RemoveAll(path); err != nil {
			// Already gone (e.g. a parent matched by another pattern was
			// removed first) is not worth a warning.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			warnings = append(warnings, path+": "+err.Error())
			continue
		}
		removed++
	}
	return removed, warnings
}
