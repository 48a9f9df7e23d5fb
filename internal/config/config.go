// Package config handles loading, merging, and validation of checkpipe
// configuration. The effective Config is built once per invocation from
// built-in defaults, an optional TOML file, CHECKPIPE_* environment
// variables, and KEY=VALUE command-line assignments, in that precedence
// order. Ignore patterns are unioned across all layers rather than replaced.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the resolved, effective configuration. It is immutable after
// Resolve returns; no component mutates it.
type Config struct {
	// Project is the importable package name of the project under check.
	Project string
	// CoverMin is the minimum acceptable coverage percentage, 0-100.
	CoverMin int
	// Python selects the interpreter used to launch every tool.
	Python string
	// Ignore is the deduplicated, sorted union of ignore patterns from
	// all layers.
	Ignore []string
	// Targets are the paths handed to lint/type-check/test, package dir
	// first, test dir second.
	Targets []string
	// ExtraFlags maps a task name to flags appended verbatim to that task.
	ExtraFlags map[string]string
	// LogPath is the combined-output log artifact for test-family runs.
	LogPath string
}

// FileConfig mirrors the TOML file layout.
type FileConfig struct {
	Project    string            `toml:"project"`
	CoverMin   *int              `toml:"cover_min"`
	Python     string            `toml:"python"`
	Ignore     []string          `toml:"ignore"`
	PackageDir string            `toml:"package_dir"`
	TestDir    string            `toml:"test_dir"`
	LogPath    string            `toml:"log_path"`
	ExtraFlags map[string]string `toml:"extra_flags"`
}

// DefaultConfigFile is looked for in the working directory when no -config
// flag is given. Its absence is not an error.
const DefaultConfigFile = "checkpipe.toml"

// LoadFile loads the TOML config file. A missing file is an error only when
// the path was explicitly requested; the default location may be absent.
func LoadFile(path string) (*FileConfig, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, &Error{Field: "config", Message: fmt.Sprintf("config file not found: %s", path)}
		}
		return nil, nil
	}

	var fc FileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, &Error{Field: "config", Message: fmt.Sprintf("failed to parse %s: %v", path, err)}
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var unknown []string
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		return nil, &Error{Field: "config", Message: "unknown fields in config: " + strings.Join(unknown, ", ")}
	}

	return &fc, nil
}

// unionPatterns merges pattern layers into one sorted, deduplicated set.
func unionPatterns(layers ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, layer := range layers {
		for _, p := range layer {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
