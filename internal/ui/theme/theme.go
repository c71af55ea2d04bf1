package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette. Calm enough to sit next to for an hour.
var (
	Primary   = lipgloss.Color("#8B5CF6") // Violet, focus phase
	Secondary = lipgloss.Color("#14B8A6") // Teal, break phase
	Accent    = lipgloss.Color("#F97316") // Orange, coins
	Success   = lipgloss.Color("#22C55E") // Green
	Warn      = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Text styles
var (
	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Bold(true)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Done = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)
)

// SubjectColor parses a subject's "#rrggbb" color, falling back to Primary.
func SubjectColor(hex string) color.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return Primary
	}
	for _, c := range hex[1:] {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return Primary
		}
	}
	return lipgloss.Color(hex)
}
