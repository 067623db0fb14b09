// Package color provides ANSI styling for the terminal summaries the
// commands print on stderr.
package color

import "os"

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
}

// New creates a new Color instance
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// shouldEnableColor determines if color should be enabled based on environment
func shouldEnableColor() bool {
	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}

// Add colors a string green, for additions and clean results
func (c *Color) Add(text string) string {
	if !c.enabled {
		return text
	}
	return Green + text + Reset
}

// Change colors a string yellow, for output that needs a second look
func (c *Color) Change(text string) string {
	if !c.enabled {
		return text
	}
	return Yellow + text + Reset
}

// Destroy colors a string red, for destructive operations
func (c *Color) Destroy(text string) string {
	if !c.enabled {
		return text
	}
	return Red + text + Reset
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	if !c.enabled {
		return text
	}
	return Bold + text + Reset
}
