// Package docs produces the distribution-format document from the source
// document via an external converter, only when the target is stale.
package docs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ConversionError reports a failed document conversion. It is fatal to any
// dependent packaging step.
type ConversionError struct {
	Source string
	Dest   string
	Output string
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("docs: converting %s to %s: %v", e.Source, e.Dest, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// DefaultConverter is the external transform invoked to turn the markdown
// source into the distribution format.
const DefaultConverter = "pandoc"

// Converter invokes an external document transform.
type Converter struct {
	// Binary is the converter executable; DefaultConverter when empty.
	Binary string
}

// Convert produces dest from source. It is a no-op (and a success) when dest
// already exists and is not older than source.
func (c *Converter) Convert(ctx context.Context, source, dest string) error {
	stale, err := isStale(source, dest)
	if err != nil {
		return &ConversionError{Source: source, Dest: dest, Err: err}
	}
	if !stale {
		return nil
	}

	binary := c.Binary
	if binary == "" {
		binary = DefaultConverter
	}

	cmd := exec.CommandContext(ctx, binary, "-f", "markdown", "-t", "rst", "-o", dest, source)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ConversionError{
			Source: source,
			Dest:   dest,
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return nil
}

// isStale reports whether dest is absent or older than source.
func isStale(source, dest string) (bool, error) {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return false, err
	}
	dstInfo, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return dstInfo.ModTime().Before(srcInfo.ModTime()), nil
}
