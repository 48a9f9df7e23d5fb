// Package envguard validates that the active package-install context is an
// isolated environment before any command installs dependencies or publishes
// a package. It is a precondition gate: the guarded command never partially
// executes.
package envguard

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Error reports an unsafe install context. It is fatal and carries
// remediation guidance.
type Error struct {
	Tool string
	Path string
}

func (e *Error) Error() string {
	return fmt.Sprintf("environment: %s resolves to %s, which is not inside an isolated environment\n%s", e.Tool, e.Path, Guidance)
}

// Guidance is the remediation text shown on guard failure and by help_venv.
const Guidance = `Commands that install or publish must run inside a virtual environment.
Create and activate one first:

    python3 -m venv venv
    . venv/bin/activate

then re-run the command.`

// InstallTool is the dependency-install tool whose resolved path is
// inspected.
const InstallTool = "pip"

// markers are directory names that identify an isolated environment on the
// resolved tool path.
var markers = map[string]struct{}{
	"venv":       {},
	".venv":      {},
	"virtualenv": {},
	"envs":       {},
}

// Validate resolves the install tool on PATH and checks that it lives in an
// isolated environment. Deterministic for a fixed tool path and environment.
func Validate() error {
	path, err := exec.LookPath(InstallTool)
	if err != nil {
		return &Error{Tool: InstallTool, Path: "(not found on PATH)"}
	}
	return ValidatePath(path, os.Getenv("VIRTUAL_ENV"), os.Getenv("CONDA_PREFIX"))
}

// ValidatePath applies the isolation check to a resolved tool path. The
// path is isolated when it sits under the active virtualenv or conda prefix,
// or when one of its directory segments is a recognized environment marker.
func ValidatePath(toolPath, virtualEnv, condaPrefix string) error {
	if virtualEnv != "" && within(toolPath, virtualEnv) {
		return nil
	}
	if condaPrefix != "" && within(toolPath, condaPrefix) {
		return nil
	}

	for _, seg := range strings.Split(filepath.ToSlash(toolPath), "/") {
		if _, ok := markers[seg]; ok {
			return nil
		}
	}
	return &Error{Tool: InstallTool, Path: toolPath}
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
