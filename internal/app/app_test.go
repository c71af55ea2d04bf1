package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/router"
	"github.com/abhisek/focuscycle/internal/screens/history"
	"github.com/abhisek/focuscycle/internal/timer"
)

func newTestModel(t *testing.T) AppModel {
	t.Helper()
	e := engine.New(engine.Deps{
		Ledger:    &ledger.MockLedger{},
		Clock:     clockwork.NewFakeClock(),
		Durations: timer.DefaultDurations(),
		Log:       zerolog.Nop(),
	})
	m := newAppModel(Options{Engine: e})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(AppModel)
}

func TestEngineSeesMessagesUnderAnyScreen(t *testing.T) {
	m := newTestModel(t)

	m.Update(router.PushScreenMsg{Screen: history.New(nil)})
	require.Equal(t, 2, m.router.Depth())

	m.engine.Handle(engine.SelectMsg{SubjectID: "math"})
	m.Update(engine.StartMsg{SubjectID: "math"})
	assert.True(t, m.engine.State().Opening)
}

func TestCtrlCQuits(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestEscPopsOnlyAboveRoot(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)

	m.Update(router.PushScreenMsg{Screen: history.New(nil)})
	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())
}

func TestViewRendersFrame(t *testing.T) {
	m := newTestModel(t)
	out := m.render()
	assert.Contains(t, out, "focuscycle")
	assert.Contains(t, out, "Focus")
	assert.Contains(t, out, "Lv 1")
}

func TestViewTooSmall(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, updated.(AppModel).render(), "needs at least 80x24")
}
