package features

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// sharedContext holds all state for a scenario.
type sharedContext struct {
	output   string
	exitCode int
	tempDir  string
	binary   string
}

var (
	buildOnce sync.Once
	buildPath string
	buildErr  error
)

// binaryPath builds the checkpipe binary once per test run.
func binaryPath() (string, error) {
	buildOnce.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			buildErr = err
			return
		}
		buildPath = filepath.Join(os.TempDir(), fmt.Sprintf("checkpipe-acceptance-%d", os.Getpid()))
		cmd := exec.Command("go", "build", "-o", buildPath, filepath.Dir(wd))
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build failed: %v\n%s", err, out)
		}
	})
	return buildPath, buildErr
}

func (c *sharedContext) initWorkspace() error {
	bin, err := binaryPath()
	if err != nil {
		return err
	}
	c.binary = bin

	c.tempDir, err = os.MkdirTemp("", "checkpipe-scenario-")
	return err
}

// writeStubToolchain writes a fake interpreter whose behavior depends on the
// tool it is asked to launch, and a config pointing checkpipe at it.
func (c *sharedContext) writeStubToolchain(lintExit int, coverageLine string) error {
	if err := c.initWorkspace(); err != nil {
		return err
	}

	stub := filepath.Join(c.tempDir, "fakepython")
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
  *pylint*) echo "lint output"; exit %d;;
  *mypy*) echo "type check output"; exit 0;;
  *pytest*) echo "collected 3 items"; echo "%s"; exit 0;;
esac
exit 0
`, lintExit, coverageLine)
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		return err
	}

	config := fmt.Sprintf(`project = "stubproj"
python = %q
package_dir = "."
test_dir = "."
`, stub)
	return os.WriteFile(filepath.Join(c.tempDir, "checkpipe.toml"), []byte(config), 0o644)
}

// runCheckpipe executes the binary inside the scenario workspace.
func (c *sharedContext) runCheckpipe(argLine string) error {
	cmd := exec.Command(c.binary, strings.Fields(argLine)...)
	cmd.Dir = c.tempDir

	out, err := cmd.CombinedOutput()
	c.output = string(out)
	c.exitCode = 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return err
		}
		c.exitCode = exitErr.ExitCode()
	}
	return nil
}

func (c *sharedContext) theExitCodeShouldBe(want int) error {
	if c.exitCode != want {
		return fmt.Errorf("exit code = %d, want %d\noutput:\n%s", c.exitCode, want, c.output)
	}
	return nil
}

func (c *sharedContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(c.output, expected) {
		return fmt.Errorf("output does not contain %q:\n%s", expected, c.output)
	}
	return nil
}

func (c *sharedContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(c.output, unexpected) {
		return fmt.Errorf("output unexpectedly contains %q:\n%s", unexpected, c.output)
	}
	return nil
}

func (c *sharedContext) cleanup() {
	if c.tempDir != "" {
		_ = os.RemoveAll(c.tempDir)
	}
}
