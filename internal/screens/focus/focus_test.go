package focus

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/router"
	"github.com/abhisek/focuscycle/internal/screens/history"
	"github.com/abhisek/focuscycle/internal/timer"
)

type stubAPI struct{}

func (stubAPI) Stats(context.Context) (backend.Stats, error) {
	return backend.Stats{
		Subjects: []backend.SubjectStats{
			{ID: "math", Name: "Math", Color: "#ff0000", TimeGoal: 200, TimeStudied: 50},
			{ID: "physics", Name: "Physics", Color: "#00ff00", TimeGoal: 100},
			{ID: "chem", Name: "Chemistry", Color: "#0000ff", TimeGoal: 100},
		},
		Level: 1,
	}, nil
}

func (stubAPI) Settings(context.Context) (backend.Settings, error) {
	return backend.Settings{StudyDuration: 25, BreakDuration: 5}, nil
}

func (stubAPI) Subjects(context.Context) ([]backend.Subject, error) { return nil, nil }
func (stubAPI) Quests(context.Context) ([]backend.Quest, error)     { return nil, nil }

func (stubAPI) LevelBonus(context.Context, backend.LevelBonusRequest) error { return nil }

// drain runs cmd and feeds what it produces back into e. Commands that
// block, like a tick wait, are abandoned after a short grace period.
func drain(e *engine.Engine, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return
	}

	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(e, c)
		}
	default:
		drain(e, e.Handle(msg))
	}
}

func newScreen(t *testing.T) (*FocusScreen, *engine.Engine) {
	t.Helper()
	e := engine.New(engine.Deps{
		Ledger:    &ledger.MockLedger{},
		API:       stubAPI{},
		Clock:     clockwork.NewFakeClock(),
		Durations: timer.DefaultDurations(),
		Log:       zerolog.Nop(),
	})
	drain(e, e.Init())
	require.Len(t, e.Subjects(), 3)
	return New(e, nil), e
}

func press(s *FocusScreen, k tea.KeyPressMsg) tea.Msg {
	_, cmd := s.Update(k)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func char(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

var (
	enter    = tea.KeyPressMsg{Code: tea.KeyEnter}
	space    = tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	tab      = tea.KeyPressMsg{Code: tea.KeyTab}
	shiftTab = tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}
)

func TestIdleEnterStartsSelectedSubject(t *testing.T) {
	s, _ := newScreen(t)

	assert.Equal(t, engine.StartMsg{SubjectID: "math"}, press(s, enter))
	assert.Equal(t, engine.StartMsg{SubjectID: "math"}, press(s, space))
}

func TestTabSelectsWhileIdle(t *testing.T) {
	s, e := newScreen(t)

	msg := press(s, tab)
	assert.Equal(t, engine.SelectMsg{SubjectID: "physics"}, msg)
	e.Handle(msg)
	assert.Equal(t, "physics", e.State().SubjectID)

	msg = press(s, shiftTab)
	assert.Equal(t, engine.SelectMsg{SubjectID: "math"}, msg)
	e.Handle(msg)
	assert.Equal(t, engine.SelectMsg{SubjectID: "chem"}, press(s, shiftTab))
}

func TestSpacePausesAndResumes(t *testing.T) {
	s, e := newScreen(t)

	drain(e, e.Handle(press(s, enter)))
	require.Equal(t, timer.PhaseFocus, e.State().Phase)

	msg := press(s, space)
	assert.Equal(t, engine.PauseMsg{}, msg)
	drain(e, e.Handle(msg))
	require.Equal(t, timer.PhasePaused, e.State().Phase)

	assert.Equal(t, engine.ResumeMsg{}, press(s, space))
	assert.Equal(t, engine.ResumeMsg{}, press(s, enter))
}

func TestPausedSubjectSwitchStartsFresh(t *testing.T) {
	s, e := newScreen(t)

	drain(e, e.Handle(press(s, enter)))
	drain(e, e.Handle(engine.PauseMsg{}))
	require.Equal(t, timer.PhasePaused, e.State().Phase)

	assert.Nil(t, press(s, tab), "tab while paused only changes the pick")
	assert.Equal(t, engine.StartMsg{SubjectID: "physics"}, press(s, enter))
	assert.Empty(t, s.pick)
}

func TestTabIgnoredWhileRunning(t *testing.T) {
	s, e := newScreen(t)

	drain(e, e.Handle(press(s, enter)))
	require.Equal(t, timer.PhaseFocus, e.State().Phase)

	assert.Nil(t, press(s, tab))
	assert.Empty(t, s.pick)
}

func TestCommandKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyPressMsg
		want tea.Msg
	}{
		{char('s'), engine.SkipMsg{}},
		{char('b'), engine.BackBlockMsg{}},
		{char('r'), engine.ResetBlockMsg{}},
		{char('u'), engine.RefreshMsg{}},
		{char('q'), tea.QuitMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			s, _ := newScreen(t)
			assert.Equal(t, tt.want, press(s, tt.key))
		})
	}
}

func TestResetCycleNeedsConfirmation(t *testing.T) {
	s, _ := newScreen(t)

	assert.Nil(t, press(s, char('R')))
	assert.True(t, s.confirmReset)
	assert.Contains(t, s.View(120, 40), "Reset the cycle?")
	assert.Equal(t, engine.ResetCycleMsg{}, press(s, char('y')))
	assert.False(t, s.confirmReset)

	assert.Nil(t, press(s, char('R')))
	assert.Nil(t, press(s, char('n')))
	assert.False(t, s.confirmReset)
}

func TestHistoryKeyPushesScreen(t *testing.T) {
	s, _ := newScreen(t)

	msg := press(s, char('h'))
	push, ok := msg.(router.PushScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &history.HistoryScreen{}, push.Screen)
}

func TestDismissClearsNotice(t *testing.T) {
	s, e := newScreen(t)

	e.Handle(engine.BackBlockMsg{})
	_, ok := e.Notice()
	require.True(t, ok)

	assert.Nil(t, press(s, char('x')))
	_, ok = e.Notice()
	assert.False(t, ok)
}

func TestViewShowsTimerAndProgress(t *testing.T) {
	s, _ := newScreen(t)

	view := s.View(120, 40)
	assert.Contains(t, view, "Math")
	assert.Contains(t, view, "IDLE")
	assert.Contains(t, view, "25:00")
	assert.Contains(t, view, "Cycle")
	assert.Contains(t, view, "Physics")
	assert.Contains(t, view, "Weekly quests")
}

func TestViewCompact(t *testing.T) {
	s, _ := newScreen(t)

	view := s.View(90, 24)
	assert.Contains(t, view, "25:00")
	assert.NotContains(t, view, "Weekly quests")
}

func TestKeyHintsFollowPhase(t *testing.T) {
	s, e := newScreen(t)

	hints := s.KeyHints()
	require.GreaterOrEqual(t, len(hints), 2)
	assert.Equal(t, "Start", hints[1].Description)

	drain(e, e.Handle(press(s, enter)))
	assert.Equal(t, "Pause", s.KeyHints()[1].Description)
}

func TestResumeDropsUnknownPick(t *testing.T) {
	s, _ := newScreen(t)

	s.pick = "physics"
	assert.Nil(t, s.Resume())
	assert.Equal(t, "physics", s.pick)

	s.pick = "deleted"
	s.Resume()
	assert.Empty(t, s.pick)
}
