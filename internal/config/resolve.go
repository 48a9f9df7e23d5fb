package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// envOverrides is the environment layer. CoverMin stays a string here so an
// out-of-range or non-numeric value surfaces as a ConfigError rather than a
// decode failure.
type envOverrides struct {
	Project  string   `env:"CHECKPIPE_PROJECT"`
	CoverMin string   `env:"CHECKPIPE_COVER_MIN"`
	Python   string   `env:"CHECKPIPE_PYTHON"`
	Ignore   []string `env:"CHECKPIPE_IGNORE"`
	LogPath  string   `env:"CHECKPIPE_LOG_PATH"`
}

// Resolve builds the effective Config. Precedence per field: defaults, then
// the TOML file, then environment variables, then KEY=VALUE assignments.
// Ignore patterns are unioned across all four layers.
func Resolve(ctx context.Context, configPath string, lookuper envconfig.Lookuper, assigns []string) (Config, error) {
	cfg := Defaults()

	fc, err := LoadFile(configPath)
	if err != nil {
		return Config{}, err
	}

	var fileIgnore []string
	packageDir := ""
	testDir := "tests"
	if fc != nil {
		if fc.Project != "" {
			cfg.Project = fc.Project
		}
		if fc.CoverMin != nil {
			cfg.CoverMin = *fc.CoverMin
		}
		if fc.Python != "" {
			cfg.Python = fc.Python
		}
		if fc.LogPath != "" {
			cfg.LogPath = fc.LogPath
		}
		for task, flags := range fc.ExtraFlags {
			cfg.ExtraFlags[task] = flags
		}
		fileIgnore = fc.Ignore
		packageDir = fc.PackageDir
		if fc.TestDir != "" {
			testDir = fc.TestDir
		}
	}

	var env envOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return Config{}, &Error{Field: "env", Message: err.Error()}
	}
	if env.Project != "" {
		cfg.Project = env.Project
	}
	if env.CoverMin != "" {
		n, err := parseCoverMin(env.CoverMin)
		if err != nil {
			return Config{}, err
		}
		cfg.CoverMin = n
	}
	if env.Python != "" {
		cfg.Python = env.Python
	}
	if env.LogPath != "" {
		cfg.LogPath = env.LogPath
	}

	cliIgnore, err := applyAssigns(&cfg, assigns)
	if err != nil {
		return Config{}, err
	}

	cfg.Ignore = unionPatterns(builtinIgnore, fileIgnore, env.Ignore, cliIgnore)

	if packageDir == "" {
		packageDir = cfg.Project
	}
	cfg.Targets = []string{packageDir, testDir}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyAssigns applies make-style KEY=VALUE overrides from the command line.
// Returned patterns are unioned into the ignore set by the caller.
func applyAssigns(cfg *Config, assigns []string) ([]string, error) {
	var ignore []string
	for _, a := range assigns {
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			return nil, &Error{Field: key, Message: fmt.Sprintf("expected KEY=VALUE assignment, got %q", a)}
		}
		switch key {
		case "project":
			cfg.Project = val
		case "cover_min":
			n, err := parseCoverMin(val)
			if err != nil {
				return nil, err
			}
			cfg.CoverMin = n
		case "python":
			cfg.Python = val
		case "ignore":
			ignore = append(ignore, strings.Split(val, ",")...)
		case "log_path":
			cfg.LogPath = val
		default:
			return nil, &Error{Field: key, Message: "unknown configuration key"}
		}
	}
	return ignore, nil
}

func parseCoverMin(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &Error{Field: "cover_min", Message: fmt.Sprintf("not a number: %q", s)}
	}
	if n < 0 || n > 100 {
		return 0, &Error{Field: "cover_min", Message: fmt.Sprintf("must be between 0 and 100, got %d", n)}
	}
	return n, nil
}
