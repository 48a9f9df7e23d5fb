package config

import (
	"os"
	"path/filepath"
)

// builtinIgnore are patterns every layer starts from. User-supplied patterns
// are appended, never substituted.
var builtinIgnore = []string{
	"venv",
	".venv",
	"__pycache__",
	"*.egg-info",
	".git",
}

// Defaults returns the built-in base layer. The project name falls back to
// the working directory name, matching the convention that the package dir
// is named after the project.
func Defaults() Config {
	project := "project"
	if cwd, err := os.Getwd(); err == nil {
		project = filepath.Base(cwd)
	}

	return Config{
		Project:    project,
		CoverMin:   90,
		Python:     "python3",
		Ignore:     append([]string(nil), builtinIgnore...),
		ExtraFlags: map[string]string{},
		LogPath:    "test_output.log",
	}
}
