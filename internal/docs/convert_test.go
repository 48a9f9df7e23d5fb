package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestConvertSkipsFreshDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "README.md")
	dst := filepath.Join(dir, "README.rst")

	now := time.Now()
	write(t, src, "# hi", now.Add(-time.Hour))
	write(t, dst, "hi", now)

	// A converter binary that cannot exist proves no invocation happens.
	c := &Converter{Binary: "no-such-converter-zz"}
	if err := c.Convert(context.Background(), src, dst); err != nil {
		t.Fatalf("Convert() = %v, want success without invoking the converter", err)
	}
}

func TestConvertRunsWhenDestStale(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "README.md")
	dst := filepath.Join(dir, "README.rst")

	now := time.Now()
	write(t, src, "# hi", now)
	write(t, dst, "old", now.Add(-time.Hour))

	c := &Converter{Binary: "no-such-converter-zz"}
	err := c.Convert(context.Background(), src, dst)
	var cerr *ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Convert() = %v, want *ConversionError from the missing converter", err)
	}
}

func TestConvertRunsWhenDestAbsent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "README.md")
	write(t, src, "# hi", time.Now())

	c := &Converter{Binary: "no-such-converter-zz"}
	if err := c.Convert(context.Background(), src, filepath.Join(dir, "README.rst")); err == nil {
		t.Fatal("Convert() = nil, want error: absent dest requires conversion")
	}
}

func TestConvertFailureSurfacesConverterOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "README.md")
	write(t, src, "# hi", time.Now())

	// sh plays the converter: it prints a diagnostic and exits non-zero.
	c := &Converter{Binary: "sh"}
	// The fixed flags land in argv; sh ignores them and fails, which is all
	// this test needs.
	err := c.Convert(context.Background(), src, filepath.Join(dir, "README.rst"))
	var cerr *ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Convert() = %v, want *ConversionError", err)
	}
	if cerr.Source != src {
		t.Errorf("ConversionError.Source = %q, want %q", cerr.Source, src)
	}
}

func TestConvertMissingSource(t *testing.T) {
	dir := t.TempDir()
	c := &Converter{}
	err := c.Convert(context.Background(), filepath.Join(dir, "absent.md"), filepath.Join(dir, "out.rst"))
	if err == nil {
		t.Fatal("Convert() = nil, want error for missing source")
	}
}
