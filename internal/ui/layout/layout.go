package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/focuscycle/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	CompactWidthThreshold  = 100
	CompactHeightThreshold = 30
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Header is what the top bar shows.
type Header struct {
	Title string
	Coins int
	Level int

	// XP within the level and the XP needed for the next one. The
	// level gauge is hidden when XPNeeded is zero.
	XP       int
	XPNeeded int
}

// IsCompactWidth returns true if the terminal width is in compact range.
func IsCompactWidth(width int) bool {
	return width < CompactWidthThreshold
}

// IsCompactHeight returns true if the terminal height is in compact range.
func IsCompactHeight(height int) bool {
	return height < CompactHeightThreshold
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to grow the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Warn).
		Width(width).
		Height(height).
		Render(fmt.Sprintf("Terminal is %dx%d.\nfocuscycle needs at least %dx%d.",
			width, height, MinWidth, MinHeight))
}

// bar is the bordered box used for header and footer.
func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// RenderHeader renders the title bar: app name, screen title and wallet.
func RenderHeader(h Header, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(" focuscycle")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(h.Title)

	wallet := []string{
		lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("● %d", h.Coins)),
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("Lv %d", h.Level)),
	}
	if h.XPNeeded > 0 && !IsCompactWidth(width) {
		wallet = append(wallet, theme.Hint.Render(levelGauge(h.XP, h.XPNeeded, 10)))
	}
	right := strings.Join(wallet, "  ") + " "

	// Border takes two columns.
	inner := max(0, width-2)
	used := lipgloss.Width(left) + lipgloss.Width(center) + lipgloss.Width(right)
	leftGap := max(1, (inner-lipgloss.Width(center))/2-lipgloss.Width(left))
	rightGap := max(1, inner-used-leftGap)

	return bar(width).Render(left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right)
}

// levelGauge draws xp/need as a small bar with the raw numbers.
func levelGauge(xp, need, cells int) string {
	filled := min(cells, max(0, xp*cells/need))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", cells-filled) +
		fmt.Sprintf(" %d/%d xp", xp, need)
}

// RenderFooter renders the key hints. Hints that do not fit the width are
// dropped from the end.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	content := " "
	for i, h := range hints {
		part := keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
		if i > 0 {
			part = "   " + part
		}
		if lipgloss.Width(content)+lipgloss.Width(part) > width-2 {
			break
		}
		content += part
	}
	return bar(width).Render(content)
}

// RenderFrame stacks header, content and footer, padding content so the
// frame fills height.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(0, height-lipgloss.Height(header)-lipgloss.Height(footer))
	body := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
