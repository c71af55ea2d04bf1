// Package engine serializes user commands, clock ticks and backend
// responses onto the Bubble Tea event loop. It owns the single timer
// state, applies each transition's effects, and keeps progress, rewards
// and quests in step with the ledger.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/clock"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/presence"
	"github.com/abhisek/focuscycle/internal/progress"
	"github.com/abhisek/focuscycle/internal/quest"
	"github.com/abhisek/focuscycle/internal/rewards"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/timer"
)

const (
	// touchEvery is how many focus seconds pass between journal updates.
	touchEvery = 30

	snapshotsKept   = 5
	snapshotVersion = 1

	defaultRequestTimeout = 10 * time.Second
	storeTimeout          = 2 * time.Second
)

// API is the part of the backend client the engine reads from.
type API interface {
	Stats(ctx context.Context) (backend.Stats, error)
	Settings(ctx context.Context) (backend.Settings, error)
	Subjects(ctx context.Context) ([]backend.Subject, error)
	Quests(ctx context.Context) ([]backend.Quest, error)
	LevelBonus(ctx context.Context, req backend.LevelBonusRequest) error
}

// Deps are the collaborators an Engine drives. Journal, Events, Snapshots
// and API may be nil.
type Deps struct {
	Ledger    ledger.Ledger
	API       API
	Journal   store.SessionJournal
	Events    store.EventRepo
	Snapshots store.SnapshotRepo
	Rewards   *rewards.Service
	Clock     clockwork.Clock
	Durations timer.Durations
	Log       zerolog.Logger

	// OnActivity is called for every user command.
	OnActivity func()

	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration
}

// Engine is the event-loop side of focuscycle. Every method except Sample
// must be called from the loop goroutine.
type Engine struct {
	deps    Deps
	log     zerolog.Logger
	source  *clock.Source
	machine *timer.Machine
	tracker *progress.Tracker
	rewards *rewards.Service
	timeout time.Duration

	ticker   *clock.Ticker
	waitTick func(*clock.Ticker) tea.Cmd

	// crediting holds sessions whose completed block is being closed.
	crediting map[string]bool

	provided []quest.Provided
	quests   []quest.Quest
	notice   *Notice

	// seeded is set once the wallet came from a snapshot or stats read.
	seeded bool

	sample atomic.Pointer[presence.Sample]
}

// New creates an Engine in the idle phase.
func New(deps Deps) *Engine {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Rewards == nil {
		deps.Rewards = rewards.NewService(deps.Events, deps.Clock)
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	e := &Engine{
		deps:     deps,
		log:      deps.Log.With().Str("component", "engine").Str("run_id", uuid.NewString()).Logger(),
		source:   clock.NewSource(deps.Clock),
		machine:  timer.New(deps.Durations),
		tracker:  progress.NewTracker(),
		rewards:  deps.Rewards,
		timeout:  timeout,
		waitTick: waitTick,

		crediting: make(map[string]bool),
	}
	e.reproject()
	e.publish()
	return e
}

// Init restores persisted progress, picks up sessions a crash left open
// and starts the first refresh.
func (e *Engine) Init() tea.Cmd {
	e.restore()
	e.publish()
	return tea.Batch(e.recoverCmd(), e.refresh())
}

// Handle applies one message and returns the work it started.
func (e *Engine) Handle(msg tea.Msg) tea.Cmd {
	cmd := e.handle(msg)
	e.publish()
	return cmd
}

func (e *Engine) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case StartMsg:
		e.activity()
		eff, err := e.machine.Start(msg.SubjectID)
		if err != nil {
			return e.reject("start", err)
		}
		return e.apply(eff)

	case PauseMsg:
		e.activity()
		eff, err := e.machine.Pause()
		if err != nil {
			return e.reject("pause", err)
		}
		e.touch()
		return e.apply(eff)

	case ResumeMsg:
		e.activity()
		eff, err := e.machine.Resume()
		if err != nil {
			return e.reject("resume", err)
		}
		return e.apply(eff)

	case SkipMsg:
		e.activity()
		eff, err := e.machine.Skip()
		if err != nil {
			return e.reject("skip", err)
		}
		return e.apply(eff)

	case BackBlockMsg:
		e.activity()
		return e.backBlock()

	case ResetBlockMsg:
		e.activity()
		return e.apply(e.machine.ResetBlock())

	case ResetCycleMsg:
		e.activity()
		eff := e.machine.ResetBlock()
		e.tracker.ResetCycle()
		e.reproject()
		e.saveSnapshot()
		e.notify(Notice{Level: NoticeInfo, Text: "Cycle reset"})
		return e.apply(eff)

	case RefreshMsg:
		e.activity()
		return e.refresh()

	case SelectMsg:
		e.activity()
		e.machine.Select(msg.SubjectID)
		return nil

	case tickMsg:
		return e.handleTick(msg)
	case sessionOpenedMsg:
		return e.handleOpened(msg)
	case sessionClosedMsg:
		return e.handleClosed(msg)
	case statsLoadedMsg:
		return e.handleStats(msg)
	case settingsLoadedMsg:
		return e.handleSettings(msg)
	case subjectsLoadedMsg:
		return e.handleSubjects(msg)
	case questsLoadedMsg:
		return e.handleQuests(msg)
	case recoveredMsg:
		return e.handleRecovered(msg)
	}
	return nil
}

// Terminate flushes the open session through the fire-and-forget path.
// Call it once the loop has stopped.
func (e *Engine) Terminate(ctx context.Context) error {
	e.stopTicker()
	e.touch()

	req := e.machine.Terminate()
	e.publish()
	e.saveSnapshot()
	if req == nil {
		return nil
	}

	lreq := ledger.CloseRequest(*req)
	if err := e.deps.Ledger.Flush(ctx, lreq); err != nil {
		e.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("termination flush failed")
		return err
	}
	e.forget(req.SessionID)
	e.recordEvent(store.SessionEventData{
		Action:    store.ActionFlush,
		SessionID: req.SessionID,
		SubjectID: req.SubjectID,
		Minutes:   req.Minutes,
		Skipped:   true,
	})
	e.log.Info().Str("session_id", req.SessionID).Int("minutes", req.Minutes).Msg("flushed open session")
	return nil
}

// State returns a copy of the timer state.
func (e *Engine) State() timer.State {
	return e.machine.State()
}

// Subjects returns the known subjects in display order.
func (e *Engine) Subjects() []progress.Subject {
	return e.tracker.Subjects()
}

// Progress returns the reconciled per-subject progress.
func (e *Engine) Progress() []progress.SubjectProgress {
	return e.tracker.Progress()
}

// CycleProgress returns the reconciled cycle percentage.
func (e *Engine) CycleProgress() float64 {
	return e.tracker.CycleProgressPercent()
}

// StudiedMinutes returns the reconciled minutes of one subject.
func (e *Engine) StudiedMinutes(subjectID string) int {
	return e.tracker.StudiedMinutes(subjectID)
}

// History returns the undo history, oldest first.
func (e *Engine) History() []progress.Entry {
	return e.tracker.History()
}

// CanUndo reports whether a back-block command would do anything.
func (e *Engine) CanUndo() bool {
	return e.tracker.CanUndo()
}

// Quests returns the current quest projection.
func (e *Engine) Quests() []quest.Quest {
	return e.quests
}

// Wallet returns the rewards wallet.
func (e *Engine) Wallet() rewards.Wallet {
	return e.rewards.Wallet()
}

// Earned sums coins and xp granted since the program started.
func (e *Engine) Earned() (coins, xp int) {
	return e.rewards.Earned()
}

// Notice returns the latest notice, if any.
func (e *Engine) Notice() (Notice, bool) {
	if e.notice == nil {
		return Notice{}, false
	}
	return *e.notice, true
}

// DismissNotice clears the latest notice.
func (e *Engine) DismissNotice() {
	e.notice = nil
}

// Sample returns what presence reports about the timer. Safe to call from
// any goroutine.
func (e *Engine) Sample() presence.Sample {
	if s := e.sample.Load(); s != nil {
		return *s
	}
	return presence.Sample{State: timer.PhaseIdle.String()}
}

func (e *Engine) publish() {
	st := e.machine.State()
	e.sample.Store(&presence.Sample{
		State:       st.DisplayPhase(),
		SecondsLeft: st.Remaining,
		SubjectID:   st.SubjectID,
	})
}

func (e *Engine) activity() {
	if e.deps.OnActivity != nil {
		e.deps.OnActivity()
	}
}

func (e *Engine) notify(n Notice) {
	e.notice = &n
}

func (e *Engine) reject(op string, err error) tea.Cmd {
	e.log.Debug().Err(err).Str("op", op).Msg("command rejected")
	e.notify(Notice{Level: NoticeWarn, Text: err.Error()})
	return nil
}

func (e *Engine) backBlock() tea.Cmd {
	// The newest block only joins the history once its close lands.
	if len(e.crediting) > 0 || e.machine.CreditPending() {
		e.notify(Notice{Level: NoticeInfo, Text: "Still saving the last block. Try undo again in a moment"})
		return nil
	}
	entry, err := e.tracker.PopBlock()
	if err != nil {
		e.notify(Notice{Level: NoticeInfo, Text: "Nothing to undo"})
		return nil
	}
	e.recordEvent(store.SessionEventData{
		Action:    store.ActionUndo,
		SessionID: entry.SessionID,
		SubjectID: entry.SubjectID,
		Minutes:   entry.Minutes(),
	})
	eff := e.machine.BackBlock(entry.SubjectID)
	e.reproject()
	e.saveSnapshot()
	return e.apply(eff)
}

// ensureSubject selects the first subject when none (or a deleted one)
// is selected.
func (e *Engine) ensureSubject() {
	subjects := e.tracker.Subjects()
	if len(subjects) == 0 {
		return
	}
	if id := e.machine.State().SubjectID; id != "" {
		if _, ok := e.tracker.Subject(id); ok {
			return
		}
	}
	e.machine.Select(subjects[0].ID)
}

func (e *Engine) reproject() {
	in := quest.Input{
		CycleProgressPercent: e.tracker.CycleProgressPercent(),
		TotalStudiedMinutes:  e.tracker.TotalStudied(),
		SessionsCompleted:    e.tracker.SessionsCompleted(),
		Provided:             e.provided,
	}
	if low, ok := e.tracker.Lowest(); ok {
		in.LowestSubjectName = low.Name
		in.LowestSubjectMinutes = e.tracker.StudiedMinutes(low.ID)
	}
	e.quests = quest.Project(in)
}
