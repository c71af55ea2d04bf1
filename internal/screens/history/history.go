package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/focuscycle/internal/router"
	"github.com/abhisek/focuscycle/internal/screen"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/ui/layout"
	"github.com/abhisek/focuscycle/internal/ui/theme"
)

// Limit is how many events the screen loads.
const Limit = 50

type historyLoadedMsg struct {
	Events []store.SessionEventRecord
	Totals store.Totals
	Err    error
}

// HistoryScreen displays the local session event log, newest first.
type HistoryScreen struct {
	eventRepo store.EventRepo
	events    []store.SessionEventRecord
	totals    store.Totals
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		if repo == nil {
			return historyLoadedMsg{}
		}
		ctx := context.Background()

		events, err := repo.QuerySessionEvents(ctx, store.QueryOpts{Limit: Limit})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		totals, err := repo.Totals(ctx)
		if err != nil {
			return historyLoadedMsg{Events: events, Err: err}
		}
		return historyLoadedMsg{Events: events, Totals: totals}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.events = msg.Events
			s.totals = msg.Totals
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.events)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.events) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions yet. Start a focus block!")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderTotals()))
	b.WriteString("\n\n")

	// Keep the selected row on screen.
	rows := max(1, height-4)
	start := 0
	if s.selected >= rows {
		start = s.selected - rows + 1
	}

	for i := start; i < len(s.events) && i < start+rows; i++ {
		ev := s.events[i]
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %-8s %s", prefix, ev.Timestamp.Local().Format("Jan 02 15:04"), ev.Action, describe(ev))
		style := lipgloss.NewStyle().Foreground(actionColor(ev))
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				theme.Hint.Render(details(ev))))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderTotals() string {
	t := s.totals
	return lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(
		"%d blocks  %d min studied  %d flushed  %d undone  %s  %d xp",
		t.Blocks, t.StudiedMinutes, t.Flushed, t.Undone,
		lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("● %d", t.Coins)),
		t.XP))
}

// describe summarizes one event on a single line.
func describe(ev store.SessionEventRecord) string {
	switch ev.Action {
	case store.ActionClose:
		if ev.Skipped {
			return fmt.Sprintf("%s  %d min, skipped", ev.SubjectID, ev.Minutes)
		}
		if ev.Coins > 0 || ev.XP > 0 {
			return fmt.Sprintf("%s  %d min  +%d coins +%d xp", ev.SubjectID, ev.Minutes, ev.Coins, ev.XP)
		}
		return fmt.Sprintf("%s  %d min", ev.SubjectID, ev.Minutes)
	case store.ActionFlush, store.ActionRecover:
		return fmt.Sprintf("%s  %d min, closed on exit", ev.SubjectID, ev.Minutes)
	case store.ActionUndo:
		return fmt.Sprintf("%s  -%d min", ev.SubjectID, ev.Minutes)
	case store.ActionVisual:
		return fmt.Sprintf("%s  %d min, not saved", ev.SubjectID, ev.Minutes)
	case store.ActionFailed:
		return fmt.Sprintf("%s  close failed", ev.SubjectID)
	default:
		return ev.SubjectID
	}
}

func details(ev store.SessionEventRecord) string {
	parts := []string{fmt.Sprintf("#%d", ev.Sequence)}
	if ev.SessionID != "" {
		parts = append(parts, "session "+ev.SessionID)
	}
	if ev.Detail != "" {
		parts = append(parts, ev.Detail)
	}
	return "    " + strings.Join(parts, "  ")
}

func actionColor(ev store.SessionEventRecord) color.Color {
	switch ev.Action {
	case store.ActionClose:
		if ev.Skipped {
			return theme.TextDim
		}
		return theme.Success
	case store.ActionFailed:
		return theme.Error
	case store.ActionUndo:
		return theme.Warn
	case store.ActionVisual:
		return theme.Secondary
	default:
		return theme.Text
	}
}
