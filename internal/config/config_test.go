package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sethvargo/go-envconfig"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpipe.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resolve(t *testing.T, path string, env map[string]string, assigns []string) (Config, error) {
	t.Helper()
	return Resolve(context.Background(), path, envconfig.MapLookuper(env), assigns)
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := resolve(t, "", nil, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.CoverMin != 90 {
		t.Errorf("CoverMin = %d, want 90", cfg.CoverMin)
	}
	if cfg.Python != "python3" {
		t.Errorf("Python = %q, want python3", cfg.Python)
	}
	if len(cfg.Targets) != 2 || cfg.Targets[1] != "tests" {
		t.Errorf("Targets = %v, want [project tests]", cfg.Targets)
	}
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfig(t, `
project = "mypkg"
cover_min = 80
python = "python3.12"
`)

	tests := []struct {
		name     string
		env      map[string]string
		assigns  []string
		wantMin  int
		wantPy   string
		wantProj string
	}{
		{
			name:     "file only",
			wantMin:  80,
			wantPy:   "python3.12",
			wantProj: "mypkg",
		},
		{
			name:     "env overrides file",
			env:      map[string]string{"CHECKPIPE_COVER_MIN": "85", "CHECKPIPE_PYTHON": "python3.13"},
			wantMin:  85,
			wantPy:   "python3.13",
			wantProj: "mypkg",
		},
		{
			name:     "cli overrides env",
			env:      map[string]string{"CHECKPIPE_COVER_MIN": "85"},
			assigns:  []string{"cover_min=95", "project=other"},
			wantMin:  95,
			wantPy:   "python3.12",
			wantProj: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := resolve(t, path, tt.env, tt.assigns)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if cfg.CoverMin != tt.wantMin {
				t.Errorf("CoverMin = %d, want %d", cfg.CoverMin, tt.wantMin)
			}
			if cfg.Python != tt.wantPy {
				t.Errorf("Python = %q, want %q", cfg.Python, tt.wantPy)
			}
			if cfg.Project != tt.wantProj {
				t.Errorf("Project = %q, want %q", cfg.Project, tt.wantProj)
			}
		})
	}
}

func TestResolveIgnoreUnion(t *testing.T) {
	path := writeConfig(t, `ignore = ["migrations", "venv"]`)

	cfg, err := resolve(t, path,
		map[string]string{"CHECKPIPE_IGNORE": "migrations,generated"},
		[]string{"ignore=generated"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	counts := map[string]int{}
	for _, p := range cfg.Ignore {
		counts[p]++
	}
	for _, p := range []string{"migrations", "generated", "venv", "__pycache__"} {
		if counts[p] != 1 {
			t.Errorf("pattern %q appears %d times, want exactly 1", p, counts[p])
		}
	}
}

func TestResolveIgnoreOrderIndependent(t *testing.T) {
	a, err := resolve(t, "", nil, []string{"ignore=b,a"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := resolve(t, "", nil, []string{"ignore=a", "ignore=b"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Ignore, b.Ignore) {
		t.Errorf("merge order changed the set: %v vs %v", a.Ignore, b.Ignore)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		assigns []string
	}{
		{name: "non-numeric threshold", env: map[string]string{"CHECKPIPE_COVER_MIN": "lots"}},
		{name: "threshold above range", assigns: []string{"cover_min=101"}},
		{name: "threshold below range", assigns: []string{"cover_min=-1"}},
		{name: "unknown key", assigns: []string{"nope=1"}},
		{name: "malformed assignment", assigns: []string{"cover_min"}},
		{name: "empty target path", assigns: []string{"project= "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(t, "", tt.env, tt.assigns)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("Resolve() error = %v, want *config.Error", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
		if err == nil {
			t.Fatal("LoadFile() expected error for missing explicit path")
		}
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		path := writeConfig(t, `coverage_minimum = 90`)
		_, err := LoadFile(path)
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Fatalf("LoadFile() error = %v, want *config.Error", err)
		}
	})

	t.Run("extra flags decoded", func(t *testing.T) {
		path := writeConfig(t, "[extra_flags]\ntest = \"--junitxml=report.xml\"\n")
		fc, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if fc.ExtraFlags["test"] != "--junitxml=report.xml" {
			t.Errorf("ExtraFlags[test] = %q", fc.ExtraFlags["test"])
		}
	})
}
