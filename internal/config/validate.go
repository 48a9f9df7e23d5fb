package config

import (
	"fmt"
	"strings"
)

// Error reports an invalid configuration value. It is fatal and surfaced
// before any task runs.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return "config: " + e.Message
}

// Validate checks the invariants of a resolved Config.
func Validate(cfg Config) error {
	if cfg.CoverMin < 0 || cfg.CoverMin > 100 {
		return &Error{Field: "cover_min", Message: fmt.Sprintf("must be between 0 and 100, got %d", cfg.CoverMin)}
	}
	if len(cfg.Targets) == 0 {
		return &Error{Field: "targets", Message: "no target paths configured"}
	}
	for _, t := range cfg.Targets {
		if strings.TrimSpace(t) == "" {
			return &Error{Field: "targets", Message: "target path is empty"}
		}
	}
	return nil
}
