package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/focuscycle/internal/ui/layout"
)

// Screen is one page of the TUI. Screens read engine state and turn keys
// into engine commands; they never own timer state.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens that show their own footer
// key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that need to catch up when they
// become active again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}
