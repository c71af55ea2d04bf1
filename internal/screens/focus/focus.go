package focus

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/router"
	"github.com/abhisek/focuscycle/internal/screen"
	"github.com/abhisek/focuscycle/internal/screens/history"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/timer"
	"github.com/abhisek/focuscycle/internal/ui/layout"
)

// FocusScreen shows the timer, reconciled progress and quests, and turns
// key presses into engine commands. The app delivers every message to the
// engine, so this screen only reads engine state.
type FocusScreen struct {
	engine    *engine.Engine
	eventRepo store.EventRepo
	keys      keyMap

	// pick is the subject chosen with tab; it may differ from the timer's
	// subject while paused.
	pick string

	confirmReset bool
}

var _ screen.Screen = (*FocusScreen)(nil)
var _ screen.KeyHintProvider = (*FocusScreen)(nil)
var _ screen.Resumer = (*FocusScreen)(nil)

// New creates a FocusScreen over e.
func New(e *engine.Engine, eventRepo store.EventRepo) *FocusScreen {
	return &FocusScreen{
		engine:    e,
		eventRepo: eventRepo,
		keys:      defaultKeyMap(),
	}
}

func (s *FocusScreen) Init() tea.Cmd {
	return nil
}

// Resume drops a picked subject that a refresh removed while another
// screen was on top.
func (s *FocusScreen) Resume() tea.Cmd {
	if s.pick != "" {
		if _, ok := s.subjectByID(s.pick); !ok {
			s.pick = ""
		}
	}
	return nil
}

func (s *FocusScreen) Title() string {
	return "Focus"
}

func (s *FocusScreen) KeyHints() []layout.KeyHint {
	if s.confirmReset {
		return []layout.KeyHint{
			{Key: "Y", Description: "Reset cycle"},
			{Key: "any key", Description: "Cancel"},
		}
	}

	st := s.engine.State()
	start := s.keys.Start.Help()
	toggle := s.keys.Toggle.Help()
	switch st.Phase {
	case timer.PhaseFocus, timer.PhaseBreak:
		toggle.Desc = "Pause"
	case timer.PhasePaused:
		start.Desc = "Resume"
		toggle.Desc = "Resume"
	default:
		toggle.Desc = "Start"
	}

	hints := []layout.KeyHint{
		{Key: start.Key, Description: start.Desc},
		{Key: toggle.Key, Description: toggle.Desc},
	}
	bindings := []key.Binding{s.keys.Skip, s.keys.ResetBlock}
	if s.engine.CanUndo() {
		bindings = append(bindings, s.keys.Back)
	}
	bindings = append(bindings, s.keys.NextSubject, s.keys.History, s.keys.Quit)
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, layout.KeyHint{Key: h.Key, Description: h.Desc})
	}
	return hints
}

func (s *FocusScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirmReset {
		s.confirmReset = false
		if key.Matches(km, s.keys.Confirm) {
			return s, send(engine.ResetCycleMsg{})
		}
		return s, nil
	}

	st := s.engine.State()
	switch {
	case key.Matches(km, s.keys.Start):
		return s, s.startOrResume(st)

	case key.Matches(km, s.keys.Toggle):
		switch st.Phase {
		case timer.PhaseFocus, timer.PhaseBreak:
			return s, send(engine.PauseMsg{})
		default:
			return s, s.startOrResume(st)
		}

	case key.Matches(km, s.keys.Skip):
		return s, send(engine.SkipMsg{})

	case key.Matches(km, s.keys.Back):
		return s, send(engine.BackBlockMsg{})

	case key.Matches(km, s.keys.ResetBlock):
		return s, send(engine.ResetBlockMsg{})

	case key.Matches(km, s.keys.ResetCycle):
		s.confirmReset = true
		return s, nil

	case key.Matches(km, s.keys.NextSubject):
		return s, s.cycleSubject(st, 1)

	case key.Matches(km, s.keys.PrevSubject):
		return s, s.cycleSubject(st, -1)

	case key.Matches(km, s.keys.Refresh):
		return s, send(engine.RefreshMsg{})

	case key.Matches(km, s.keys.History):
		h := history.New(s.eventRepo)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: h} }

	case key.Matches(km, s.keys.Dismiss):
		s.engine.DismissNotice()
		return s, nil

	case key.Matches(km, s.keys.Quit):
		return s, tea.Quit
	}
	return s, nil
}

// subject is the subject the next start applies to.
func (s *FocusScreen) subject(st timer.State) string {
	if s.pick != "" {
		return s.pick
	}
	return st.SubjectID
}

func (s *FocusScreen) startOrResume(st timer.State) tea.Cmd {
	switch st.Phase {
	case timer.PhaseIdle:
		return send(engine.StartMsg{SubjectID: s.subject(st)})
	case timer.PhasePaused:
		// A different subject while paused starts fresh.
		if id := s.subject(st); id != st.SubjectID {
			s.pick = ""
			return send(engine.StartMsg{SubjectID: id})
		}
		return send(engine.ResumeMsg{})
	}
	return nil
}

func (s *FocusScreen) cycleSubject(st timer.State, step int) tea.Cmd {
	subjects := s.engine.Subjects()
	if len(subjects) == 0 {
		return nil
	}
	if st.Phase == timer.PhaseFocus || st.Phase == timer.PhaseBreak {
		return nil
	}

	current := s.subject(st)
	idx := 0
	for i, sub := range subjects {
		if sub.ID == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(subjects)) % len(subjects)
	s.pick = subjects[idx].ID

	if st.Phase == timer.PhaseIdle {
		id := s.pick
		s.pick = ""
		return send(engine.SelectMsg{SubjectID: id})
	}
	return nil
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
