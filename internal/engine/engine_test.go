package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/clock"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/timer"
)

type fakeAPI struct {
	mu       sync.Mutex
	stats    backend.Stats
	statsErr error
	settings backend.Settings
	subjects []backend.Subject
	quests   []backend.Quest
	bonuses  []backend.LevelBonusRequest
}

func (f *fakeAPI) Stats(context.Context) (backend.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, f.statsErr
}

func (f *fakeAPI) Settings(context.Context) (backend.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, nil
}

func (f *fakeAPI) Subjects(context.Context) ([]backend.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subjects, nil
}

func (f *fakeAPI) Quests(context.Context) ([]backend.Quest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quests, nil
}

func (f *fakeAPI) LevelBonus(_ context.Context, req backend.LevelBonusRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bonuses = append(f.bonuses, req)
	return nil
}

// mathAPI serves one subject with 100 of 200 minutes studied and 50/10
// minute phases.
func mathAPI() *fakeAPI {
	return &fakeAPI{
		stats: backend.Stats{
			Subjects: []backend.SubjectStats{
				{ID: "math", Name: "Math", Color: "#ff0000", TimeGoal: 200, TimeStudied: 100},
			},
			SessionsCompleted: 2,
			Level:             1,
		},
		settings: backend.Settings{StudyDuration: 50, BreakDuration: 10},
	}
}

// harness drives an Engine the way the Bubble Tea runtime does, but runs
// every command synchronously and delivers ticks by hand.
type harness struct {
	t      *testing.T
	e      *Engine
	ledger *ledger.MockLedger
	api    *fakeAPI
	store  *store.Store
	clk    *clockwork.FakeClock
	queue  []tea.Msg
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newHarness(t *testing.T, api *fakeAPI) *harness {
	return newHarnessWithStore(t, api, openStore(t), &ledger.MockLedger{})
}

func newHarnessWithStore(t *testing.T, api *fakeAPI, st *store.Store, l *ledger.MockLedger) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		ledger: l,
		api:    api,
		store:  st,
		clk:    clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)),
	}
	deps := Deps{
		Ledger:    h.ledger,
		Journal:   st.SessionJournal(),
		Events:    st.EventRepo(),
		Snapshots: st.SnapshotRepo(),
		Clock:     h.clk,
		Durations: timer.Durations{FocusMinutes: 50, BreakMinutes: 10},
		Log:       zerolog.Nop(),
	}
	if api != nil {
		deps.API = api
	}
	h.e = New(deps)
	h.e.waitTick = func(*clock.Ticker) tea.Cmd { return nil }
	h.exec(h.e.Init())
	h.settle()
	return h
}

// exec runs cmd and queues the messages it produces.
func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.exec(c)
		}
	default:
		h.queue = append(h.queue, msg)
	}
}

// settle delivers queued messages until nothing is left.
func (h *harness) settle() {
	for len(h.queue) > 0 {
		msg := h.queue[0]
		h.queue = h.queue[1:]
		h.exec(h.e.Handle(msg))
	}
}

// send handles msg and everything it causes.
func (h *harness) send(msg tea.Msg) {
	h.exec(h.e.Handle(msg))
	h.settle()
}

// hold handles msg but leaves the messages it causes queued.
func (h *harness) hold(msg tea.Msg) {
	h.exec(h.e.Handle(msg))
}

// tick delivers n pulses of the running ticker.
func (h *harness) tick(n int) {
	h.t.Helper()
	for range n {
		require.NotNil(h.t, h.e.ticker, "ticker not running")
		h.clk.Advance(time.Second)
		h.send(tickMsg{Gen: h.e.ticker.Generation(), At: h.clk.Now()})
	}
}

func (h *harness) pending() []store.OpenSession {
	h.t.Helper()
	open, err := h.store.SessionJournal().Pending(context.Background())
	require.NoError(h.t, err)
	return open
}

func TestInit_SelectsFirstSubjectAndProjects(t *testing.T) {
	h := newHarness(t, mathAPI())

	st := h.e.State()
	assert.Equal(t, timer.PhaseIdle, st.Phase)
	assert.Equal(t, "math", st.SubjectID)
	assert.Equal(t, 50*60, st.Remaining)
	assert.Equal(t, 100, h.e.StudiedMinutes("math"))
	assert.InDelta(t, 50.0, h.e.CycleProgress(), 0.001)

	quests := h.e.Quests()
	require.Len(t, quests, 4)
	assert.Equal(t, "local-study-300", quests[1].ID)
	assert.Equal(t, 100, quests[1].Progress)
	assert.Equal(t, "Study Math for 120 min", quests[2].Title)
}

func TestCompleteBlockCreditsPlannedMinutes(t *testing.T) {
	h := newHarness(t, mathAPI())

	h.send(StartMsg{SubjectID: "math"})
	require.Equal(t, timer.PhaseFocus, h.e.State().Phase)
	require.Len(t, h.pending(), 1)

	h.tick(50 * 60)

	st := h.e.State()
	assert.Equal(t, timer.PhaseBreak, st.Phase)
	assert.Equal(t, 10*60, st.Remaining)

	require.Len(t, h.ledger.Closed, 1)
	assert.Equal(t, ledger.CloseRequest{SessionID: "sess-1", SubjectID: "math", Minutes: 50}, h.ledger.Closed[0])

	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
	assert.InDelta(t, 75.0, h.e.CycleProgress(), 0.001)
	require.Len(t, h.e.History(), 1)
	assert.Equal(t, 50, h.e.History()[0].RealMinutes)
	assert.Empty(t, h.pending())

	n, ok := h.e.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeSuccess, n.Level)
}

func TestStartFailureStaysIdle(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.ledger.OpenErrs = []error{&backend.ErrUnavailable{Err: errors.New("connection refused")}}

	h.send(StartMsg{SubjectID: "math"})

	st := h.e.State()
	assert.Equal(t, timer.PhaseIdle, st.Phase)
	assert.False(t, st.Opening)
	assert.Nil(t, h.e.ticker)

	n, ok := h.e.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeError, n.Level)
	assert.True(t, n.Retryable)

	// Repeating the action is the retry.
	h.send(StartMsg{SubjectID: "math"})
	assert.Equal(t, timer.PhaseFocus, h.e.State().Phase)
}

func TestSkipInFocusCreditsFullBlock(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.tick(90)

	h.send(SkipMsg{})

	assert.Equal(t, timer.PhaseBreak, h.e.State().Phase)
	require.Len(t, h.ledger.Closed, 1)
	assert.Equal(t, 50, h.ledger.Closed[0].Minutes)
	assert.False(t, h.ledger.Closed[0].Skipped)
	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
}

func TestSkipInBreakOpensNextSession(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	require.Equal(t, timer.PhaseBreak, h.e.State().Phase)

	h.send(SkipMsg{})

	st := h.e.State()
	assert.Equal(t, timer.PhaseFocus, st.Phase)
	require.NotNil(t, st.Session)
	assert.Equal(t, "sess-2", st.Session.ID)
	assert.Len(t, h.ledger.Closed, 1, "break skip never commits")
}

func TestBackBlockRoundTrip(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	before := h.e.StudiedMinutes("math")
	require.Equal(t, 150, before)

	h.send(BackBlockMsg{})

	st := h.e.State()
	assert.True(t, st.AtBlockStart())
	assert.Equal(t, "math", st.SubjectID)
	assert.Equal(t, 50*60, st.Remaining)
	assert.Equal(t, 100, h.e.StudiedMinutes("math"))
	assert.False(t, h.e.CanUndo())
	assert.Len(t, h.ledger.Closed, 1, "undo never contacts the ledger")

	h.send(ResumeMsg{})
	require.Equal(t, timer.PhaseFocus, h.e.State().Phase)
	h.send(SkipMsg{})

	assert.Equal(t, before, h.e.StudiedMinutes("math"))
}

func TestBackBlockWithEmptyHistory(t *testing.T) {
	h := newHarness(t, mathAPI())

	h.send(BackBlockMsg{})

	assert.Equal(t, timer.PhaseIdle, h.e.State().Phase)
	n, ok := h.e.Notice()
	require.True(t, ok)
	assert.Equal(t, "Nothing to undo", n.Text)
}

func TestBackBlockWaitsForInFlightClose(t *testing.T) {
	api := mathAPI()
	api.stats.Subjects = append(api.stats.Subjects,
		backend.SubjectStats{ID: "bio", Name: "Biology", Color: "#00ff00", TimeGoal: 200})
	h := newHarness(t, api)

	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	h.send(ResetBlockMsg{})
	require.Equal(t, 150, h.e.StudiedMinutes("math"))

	h.send(StartMsg{SubjectID: "bio"})
	h.hold(SkipMsg{})
	require.Len(t, h.queue, 1, "close response held back")

	h.hold(BackBlockMsg{})
	assert.Equal(t, timer.PhaseBreak, h.e.State().Phase)
	assert.Equal(t, 150, h.e.StudiedMinutes("math"), "settled block must not be undone")
	n, ok := h.e.Notice()
	require.True(t, ok)
	assert.Contains(t, n.Text, "Still saving")

	h.settle()
	require.Equal(t, 50, h.e.StudiedMinutes("bio"))

	h.send(BackBlockMsg{})
	st := h.e.State()
	assert.Equal(t, "bio", st.SubjectID)
	assert.True(t, st.AtBlockStart())
	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
	assert.Equal(t, 0, h.e.StudiedMinutes("bio"))
	assert.Len(t, h.e.History(), 1)
}

func TestBackBlockWaitsForDeferredClose(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	require.Equal(t, timer.PhaseBreak, h.e.State().Phase)

	h.hold(SkipMsg{})
	require.Len(t, h.queue, 1, "open response held back")
	h.hold(SkipMsg{})
	require.Equal(t, timer.PhaseBreak, h.e.State().Phase)

	h.hold(BackBlockMsg{})
	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
	assert.Len(t, h.e.History(), 1)

	h.settle()
	require.Equal(t, 200, h.e.StudiedMinutes("math"))

	h.send(BackBlockMsg{})
	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
	assert.Len(t, h.e.History(), 1)
}

func TestResetBlockCommitsMeasuredMinutesWithoutCredit(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.tick(125)

	h.send(ResetBlockMsg{})

	st := h.e.State()
	assert.Equal(t, timer.PhaseIdle, st.Phase)
	assert.Equal(t, 50*60, st.Remaining)
	assert.Nil(t, h.e.ticker)

	require.Len(t, h.ledger.Closed, 1)
	assert.Equal(t, 2, h.ledger.Closed[0].Minutes)
	assert.True(t, h.ledger.Closed[0].Skipped)
	assert.Equal(t, 100, h.e.StudiedMinutes("math"))
	assert.Empty(t, h.e.History())
}

func TestResetCycleClearsLocalDeltas(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	require.Equal(t, 150, h.e.StudiedMinutes("math"))

	h.send(ResetCycleMsg{})

	assert.Equal(t, timer.PhaseIdle, h.e.State().Phase)
	assert.Equal(t, 100, h.e.StudiedMinutes("math"))
	assert.False(t, h.e.CanUndo())
}

func TestStaleOpenResponseIsClosedAsOrphan(t *testing.T) {
	h := newHarness(t, mathAPI())

	h.hold(StartMsg{SubjectID: "math"})
	require.Len(t, h.queue, 1, "open response held back")

	h.hold(ResetBlockMsg{})
	h.settle()

	assert.Equal(t, timer.PhaseIdle, h.e.State().Phase)
	require.Len(t, h.ledger.Closed, 1)
	assert.Equal(t, ledger.CloseRequest{SessionID: "sess-1", SubjectID: "math", Minutes: 0, Skipped: true}, h.ledger.Closed[0])
	assert.Empty(t, h.pending())
}

func TestTickFromStoppedTickerIsDropped(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.tick(10)
	gen := h.e.ticker.Generation()

	h.send(PauseMsg{})
	remaining := h.e.State().Remaining
	h.send(tickMsg{Gen: gen, At: h.clk.Now()})

	assert.Equal(t, remaining, h.e.State().Remaining)
	assert.Equal(t, timer.PhasePaused, h.e.State().Phase)

	h.send(ResumeMsg{})
	require.NotNil(t, h.e.ticker)
	assert.NotEqual(t, gen, h.e.ticker.Generation())
	h.send(tickMsg{Gen: gen, At: h.clk.Now()})
	assert.Equal(t, remaining, h.e.State().Remaining, "old generation still dropped")
}

func TestPauseTouchesJournal(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.tick(45)

	h.send(PauseMsg{})

	open := h.pending()
	require.Len(t, open, 1)
	assert.Equal(t, 45, open[0].ElapsedSecs)
}

func TestCloseFailureWithholdsCredit(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.ledger.CloseErrs = []error{&backend.ErrUnavailable{Err: errors.New("timeout")}}
	h.send(StartMsg{SubjectID: "math"})

	h.send(SkipMsg{})

	assert.Equal(t, timer.PhaseBreak, h.e.State().Phase, "timer keeps working")
	assert.Equal(t, 100, h.e.StudiedMinutes("math"))
	assert.Empty(t, h.e.History())

	n, ok := h.e.Notice()
	require.True(t, ok)
	assert.Equal(t, NoticeError, n.Level)
	assert.True(t, n.Retryable)

	// Left in the journal for recovery.
	assert.Len(t, h.pending(), 1)
}

func TestOpenFailureAfterBreakSkipWithholdsCredit(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	h.ledger.OpenErrs = []error{&backend.APIError{Status: 500}}

	h.send(SkipMsg{})
	require.Equal(t, timer.PhaseFocus, h.e.State().Phase)
	h.send(SkipMsg{})

	assert.Len(t, h.ledger.Closed, 1)
	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
	n, _ := h.e.Notice()
	assert.Equal(t, NoticeWarn, n.Level)
}

func TestVisualSkipAtBlockStart(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	h.tick(10 * 60)

	st := h.e.State()
	require.True(t, st.AtBlockStart())
	n, _ := h.e.Notice()
	assert.Contains(t, n.Text, "Break over")

	h.send(SkipMsg{})

	assert.Len(t, h.ledger.Closed, 1, "visual completion never reaches the ledger")
	assert.Equal(t, 200, h.e.StudiedMinutes("math"))
	require.Len(t, h.e.History(), 2)
	assert.Equal(t, 50, h.e.History()[1].VisualMinutes)
	assert.True(t, h.e.State().AtBlockStart())

	h.send(BackBlockMsg{})
	assert.Equal(t, 150, h.e.StudiedMinutes("math"))
}

func TestSettingsAdoptedWhileIdle(t *testing.T) {
	api := mathAPI()
	api.settings = backend.Settings{StudyDuration: 25, BreakDuration: 5}

	h := newHarness(t, api)

	assert.Equal(t, 25*60, h.e.State().Remaining)
}

func TestRewardsAndLevelUp(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.ledger.Rewards = []ledger.Reward{{Coins: 10, XP: 150}}
	h.send(StartMsg{SubjectID: "math"})

	h.send(SkipMsg{})

	w := h.e.Wallet()
	assert.Equal(t, 10, w.Coins)
	assert.Equal(t, 2, w.Level)
	assert.Equal(t, 50, w.XP)

	n, _ := h.e.Notice()
	assert.Contains(t, n.Text, "Level up")

	coins, xp := h.e.Earned()
	assert.Equal(t, 10, coins)
	assert.Equal(t, 150, xp)
}

func TestMilestoneBonusPosted(t *testing.T) {
	api := mathAPI()
	api.stats.Level = 9
	api.stats.XP = 0
	h := newHarness(t, api)
	h.ledger.Rewards = []ledger.Reward{{Coins: 5, XP: 1000}}
	h.send(StartMsg{SubjectID: "math"})

	h.send(SkipMsg{})

	assert.Equal(t, 10, h.e.Wallet().Level)
	require.Len(t, api.bonuses, 1)
	assert.Equal(t, backend.LevelBonusRequest{Level: 10, BonusCoins: 3}, api.bonuses[0])
}

func TestStatsFailureSurfacesRetryableNotice(t *testing.T) {
	api := mathAPI()
	api.statsErr = &backend.ErrUnavailable{Err: errors.New("dial tcp")}
	api.subjects = []backend.Subject{{ID: "math", Name: "Math", TimeGoal: 200}}

	h := newHarness(t, api)

	n, ok := h.e.Notice()
	require.True(t, ok)
	assert.True(t, n.Retryable)
	assert.Equal(t, "math", h.e.State().SubjectID, "subjects endpoint still answered")
}

func TestTerminateFlushesMeasuredMinutes(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.tick(125)

	require.NoError(t, h.e.Terminate(context.Background()))

	require.Len(t, h.ledger.Flushed, 1)
	assert.Equal(t, ledger.CloseRequest{SessionID: "sess-1", SubjectID: "math", Minutes: 2, Skipped: true}, h.ledger.Flushed[0])
	assert.Empty(t, h.ledger.Closed)
	assert.Empty(t, h.pending())
	assert.Nil(t, h.e.ticker)

	require.NoError(t, h.e.Terminate(context.Background()))
	assert.Len(t, h.ledger.Flushed, 1, "flushed once")
}

func TestTerminateUnderOneMinuteLeavesJournal(t *testing.T) {
	h := newHarness(t, mathAPI())
	h.send(StartMsg{SubjectID: "math"})
	h.tick(30)

	require.NoError(t, h.e.Terminate(context.Background()))

	assert.Empty(t, h.ledger.Flushed)
	open := h.pending()
	require.Len(t, open, 1)
	assert.Equal(t, 30, open[0].ElapsedSecs)
}

func TestInitRecoversJournaledSessions(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	require.NoError(t, st.SessionJournal().Track(ctx, store.OpenSession{
		SessionID:   "crashed-1",
		SubjectID:   "math",
		StartedAt:   time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		ElapsedSecs: 17 * 60,
		UpdatedAt:   time.Date(2026, 3, 1, 20, 17, 0, 0, time.UTC),
	}))

	h := newHarnessWithStore(t, mathAPI(), st, &ledger.MockLedger{})

	require.Len(t, h.ledger.Closed, 1)
	assert.Equal(t, ledger.CloseRequest{SessionID: "crashed-1", SubjectID: "math", Minutes: 17, Skipped: true}, h.ledger.Closed[0])
	assert.Empty(t, h.pending())
	n, _ := h.e.Notice()
	assert.Contains(t, n.Text, "Closed 1 unfinished")
}

func TestRecoverKeepsSessionsOnTransientFailure(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	j := st.SessionJournal()
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	require.NoError(t, j.Track(ctx, store.OpenSession{SessionID: "a", SubjectID: "math", StartedAt: now, UpdatedAt: now}))
	require.NoError(t, j.Track(ctx, store.OpenSession{SessionID: "b", SubjectID: "math", StartedAt: now.Add(time.Minute), UpdatedAt: now}))
	require.NoError(t, j.Track(ctx, store.OpenSession{SessionID: "c", SubjectID: "math", StartedAt: now.Add(2 * time.Minute), UpdatedAt: now}))

	l := &ledger.MockLedger{CloseErrs: []error{
		&backend.ErrUnavailable{Err: errors.New("down")},
		&backend.APIError{Status: 404, Body: "unknown session"},
		nil,
	}}
	n, err := Recover(ctx, l, j, st.EventRepo(), zerolog.Nop())

	assert.Error(t, err)
	assert.Equal(t, 1, n)
	open, err := j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a", open[0].SessionID)
}

func TestSnapshotRestoresUndoHistory(t *testing.T) {
	st := openStore(t)
	h := newHarnessWithStore(t, mathAPI(), st, &ledger.MockLedger{})
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})
	require.Equal(t, 150, h.e.StudiedMinutes("math"))

	// A new run before the backend absorbed the block.
	h2 := newHarnessWithStore(t, mathAPI(), st, &ledger.MockLedger{})

	assert.True(t, h2.e.CanUndo())
	assert.Equal(t, 150, h2.e.StudiedMinutes("math"))

	h2.send(BackBlockMsg{})
	assert.Equal(t, 100, h2.e.StudiedMinutes("math"))
}

func TestRefreshAbsorbsPendingCredit(t *testing.T) {
	api := mathAPI()
	h := newHarness(t, api)
	h.send(StartMsg{SubjectID: "math"})
	h.send(SkipMsg{})

	api.mu.Lock()
	api.stats.Subjects[0].TimeStudied = 150
	api.stats.SessionsCompleted = 3
	api.mu.Unlock()
	h.send(RefreshMsg{})

	assert.Equal(t, 150, h.e.StudiedMinutes("math"), "no double count after the backend caught up")
	assert.Equal(t, 3, h.e.Quests()[3].Progress)
}

func TestSampleFollowsTimer(t *testing.T) {
	h := newHarness(t, mathAPI())
	assert.Equal(t, "idle", h.e.Sample().State)

	h.send(StartMsg{SubjectID: "math"})
	h.tick(5)

	s := h.e.Sample()
	assert.Equal(t, "focus", s.State)
	assert.Equal(t, 50*60-5, s.SecondsLeft)
	assert.Equal(t, "math", s.SubjectID)
	assert.True(t, s.Running())
}

func TestActivityHook(t *testing.T) {
	var calls int
	h := newHarness(t, mathAPI())
	h.e.deps.OnActivity = func() { calls++ }

	h.send(StartMsg{SubjectID: "math"})
	h.send(PauseMsg{})
	h.send(tickMsg{})

	assert.Equal(t, 2, calls, "ticks are not activity")
}

func TestNoSessionClosedTwice(t *testing.T) {
	cmds := []func(h *harness){
		func(h *harness) { h.send(StartMsg{SubjectID: "math"}) },
		func(h *harness) { h.send(StartMsg{SubjectID: "art"}) },
		func(h *harness) { h.send(PauseMsg{}) },
		func(h *harness) { h.send(ResumeMsg{}) },
		func(h *harness) { h.send(SkipMsg{}) },
		func(h *harness) { h.send(BackBlockMsg{}) },
		func(h *harness) { h.send(ResetBlockMsg{}) },
		func(h *harness) { h.send(ResetCycleMsg{}) },
		func(h *harness) {
			for range 61 {
				if h.e.ticker == nil {
					return
				}
				h.tick(1)
			}
		},
		func(h *harness) { h.hold(StartMsg{SubjectID: "math"}) },
		func(h *harness) { h.settle() },
	}

	api := mathAPI()
	api.stats.Subjects = append(api.stats.Subjects, backend.SubjectStats{ID: "art", Name: "Art", TimeGoal: 100})
	api.settings = backend.Settings{StudyDuration: 1, BreakDuration: 1}

	r := rand.New(rand.NewPCG(11, 0))
	for run := range 40 {
		h := newHarness(t, api)
		for range 30 {
			cmds[r.IntN(len(cmds))](h)
		}
		h.settle()
		require.NoError(t, h.e.Terminate(context.Background()))

		seen := make(map[string]bool)
		for _, req := range append(h.ledger.Closed, h.ledger.Flushed...) {
			assert.False(t, seen[req.SessionID], "run %d: session %s closed twice", run, req.SessionID)
			seen[req.SessionID] = true
		}
	}
}
