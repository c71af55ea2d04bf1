package focus

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/progress"
	"github.com/abhisek/focuscycle/internal/quest"
	"github.com/abhisek/focuscycle/internal/timer"
	"github.com/abhisek/focuscycle/internal/ui/components"
	"github.com/abhisek/focuscycle/internal/ui/layout"
	"github.com/abhisek/focuscycle/internal/ui/theme"
)

func (s *FocusScreen) View(width, height int) string {
	compact := layout.IsCompactHeight(height)
	barWidth := min(60, width-8)
	if layout.IsCompactWidth(width) {
		barWidth = width - 8
	}

	var sections []string
	sections = append(sections, s.renderTimer(width, compact))
	sections = append(sections, s.renderProgress(width, barWidth, compact))
	if !compact {
		sections = append(sections, s.renderQuests(width, barWidth))
	}
	if line := s.renderNotice(width); line != "" {
		sections = append(sections, line)
	}

	sep := "\n\n"
	if compact {
		sep = "\n"
	}
	return strings.Join(sections, sep)
}

func (s *FocusScreen) renderTimer(width int, compact bool) string {
	st := s.engine.State()
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	name := "No subject"
	subjectColor := theme.Primary
	if sub, ok := s.subjectByID(s.subject(st)); ok {
		name = sub.Name
		subjectColor = theme.SubjectColor(sub.Color)
	}

	var b strings.Builder
	if !compact {
		b.WriteString("\n")
	}
	b.WriteString(center.Foreground(subjectColor).Bold(true).Render(name))
	b.WriteString("\n")
	b.WriteString(center.Foreground(phaseColor(st)).Render(phaseLabel(st)))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Text).Bold(true).Render(countdown(st.Remaining)))
	if status := sessionStatus(st); status != "" {
		b.WriteString("\n")
		b.WriteString(center.Inherit(theme.Hint).Render(status))
	}
	return b.String()
}

func (s *FocusScreen) renderProgress(width, barWidth int, compact bool) string {
	var lines []string

	cycle := components.NewProgressBar("Cycle", s.engine.CycleProgress(), true, barWidth)
	cycle.Color = theme.Primary
	lines = append(lines, cycle.View())

	for _, p := range s.engine.Progress() {
		label := fmt.Sprintf("%-12s %4d/%d", truncate(p.Name, 12), p.Studied, p.GoalMinutes)
		bar := components.NewProgressBar(label, p.Percent(), true, barWidth)
		bar.Color = theme.SubjectColor(p.Color)
		lines = append(lines, bar.View())
	}

	if !compact {
		if coins, xp := s.engine.Earned(); coins > 0 || xp > 0 {
			lines = append(lines, theme.Hint.Render(fmt.Sprintf("This run: +%d coins, +%d xp", coins, xp)))
		}
	}

	block := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}

func (s *FocusScreen) renderQuests(width, barWidth int) string {
	quests := s.engine.Quests()
	if len(quests) == 0 {
		return ""
	}

	lines := []string{theme.Subtitle.Render("Weekly quests")}
	for _, q := range quests {
		lines = append(lines, questLine(q, barWidth))
	}
	block := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}

func questLine(q quest.Quest, width int) string {
	mark := "○"
	style := theme.Unselected
	if q.Completed {
		mark = "●"
		style = theme.Done
	}
	reward := lipgloss.NewStyle().Foreground(theme.Accent).
		Render(fmt.Sprintf("+%d● +%dxp", q.Coins, q.XP))
	text := fmt.Sprintf("%s %s  %d/%d  [%s]", mark, q.Title, q.Progress, q.Target, q.Difficulty)
	return style.MaxWidth(max(10, width-lipgloss.Width(reward)-2)).Render(text) + "  " + reward
}

func (s *FocusScreen) renderNotice(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.confirmReset {
		return center.Foreground(theme.Warn).Bold(true).
			Render("Reset the cycle? Local progress adjustments will be cleared. (y/N)")
	}

	n, ok := s.engine.Notice()
	if !ok {
		return ""
	}
	text := n.Text
	if n.Retryable {
		text += "  (press u to retry)"
	}
	return center.Foreground(noticeColor(n.Level)).Render(text)
}

func (s *FocusScreen) subjectByID(id string) (progress.Subject, bool) {
	for _, sub := range s.engine.Subjects() {
		if sub.ID == id {
			return sub, true
		}
	}
	return progress.Subject{}, false
}

func countdown(secs int) string {
	secs = max(0, secs)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func phaseLabel(st timer.State) string {
	switch st.Phase {
	case timer.PhaseFocus:
		return "FOCUS"
	case timer.PhaseBreak:
		return "BREAK"
	case timer.PhasePaused:
		if st.PausedFrom == timer.PhaseBreak {
			return "PAUSED (break)"
		}
		if st.AtBlockStart() {
			return "READY"
		}
		return "PAUSED"
	default:
		return "IDLE"
	}
}

func phaseColor(st timer.State) color.Color {
	switch st.Phase {
	case timer.PhaseFocus:
		return theme.Primary
	case timer.PhaseBreak:
		return theme.Secondary
	case timer.PhasePaused:
		return theme.Warn
	default:
		return theme.TextDim
	}
}

func sessionStatus(st timer.State) string {
	switch {
	case st.Opening:
		return "Opening session..."
	case st.Session != nil && st.Session.OpenFailed:
		return "Offline: this block will not be credited"
	case st.Session != nil && st.Session.ID != "":
		return fmt.Sprintf("%d min recorded", st.Session.ElapsedMinutes())
	}
	return ""
}

func noticeColor(l engine.NoticeLevel) color.Color {
	switch l {
	case engine.NoticeSuccess:
		return theme.Success
	case engine.NoticeWarn:
		return theme.Warn
	case engine.NoticeError:
		return theme.Error
	default:
		return theme.TextDim
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
