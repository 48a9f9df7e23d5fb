// Package ui provides terminal output helpers: ANSI colors with TTY
// detection and the per-task status line format.
package ui

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[94m" // bright blue, readable on dark backgrounds
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Colors holds color functions gated by an enabled switch.
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance.
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

func (c *Colors) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return code + s + colorReset
}

// Red returns red colored text
func (c *Colors) Red(s string) string { return c.wrap(colorRed, s) }

// Green returns green colored text
func (c *Colors) Green(s string) string { return c.wrap(colorGreen, s) }

// Yellow returns yellow colored text
func (c *Colors) Yellow(s string) string { return c.wrap(colorYellow, s) }

// Blue returns blue colored text
func (c *Colors) Blue(s string) string { return c.wrap(colorBlue, s) }

// Gray returns gray colored text
func (c *Colors) Gray(s string) string { return c.wrap(colorGray, s) }

// Bold returns bold text
func (c *Colors) Bold(s string) string { return c.wrap(colorBold, s) }

// StatusSymbol returns a colored symbol for the status
func (c *Colors) StatusSymbol(pass bool) string {
	if pass {
		return c.Green("✓")
	}
	return c.Red("✗")
}
