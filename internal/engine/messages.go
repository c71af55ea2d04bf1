package engine

import (
	"time"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/store"
)

// Commands. Screens send these through the Bubble Tea loop.

// StartMsg starts a focus block for a subject.
type StartMsg struct {
	SubjectID string
}

// PauseMsg freezes the countdown.
type PauseMsg struct{}

// ResumeMsg continues a paused phase, opening a session at a block start.
type ResumeMsg struct{}

// SkipMsg fast-forwards the current phase.
type SkipMsg struct{}

// BackBlockMsg undoes the most recent block.
type BackBlockMsg struct{}

// ResetBlockMsg discards the current block.
type ResetBlockMsg struct{}

// ResetCycleMsg clears all local progress annotations and the undo history.
type ResetCycleMsg struct{}

// RefreshMsg reloads stats, settings, subjects and quests.
type RefreshMsg struct{}

// SelectMsg chooses the subject shown while idle.
type SelectMsg struct {
	SubjectID string
}

// Completions. These carry the results of asynchronous work back onto the
// loop.

// tickMsg is one pulse of the clock source. Gen identifies the ticker run
// that produced it.
type tickMsg struct {
	Gen uint64
	At  time.Time
}

// sessionOpenedMsg is the ledger's answer to an open request.
type sessionOpenedMsg struct {
	Token     uint64
	SubjectID string
	SessionID string
	At        time.Time
	Err       error
}

// sessionClosedMsg is the ledger's answer to a close request.
type sessionClosedMsg struct {
	Req    ledger.CloseRequest
	Reward ledger.Reward
	Err    error
}

// statsLoadedMsg carries an authoritative stats snapshot.
type statsLoadedMsg struct {
	Stats backend.Stats
	Err   error
}

// settingsLoadedMsg carries the configured phase lengths.
type settingsLoadedMsg struct {
	Settings backend.Settings
	Err      error
}

// subjectsLoadedMsg carries the subject catalog.
type subjectsLoadedMsg struct {
	Subjects []backend.Subject
	Err      error
}

// questsLoadedMsg carries backend-provided quests.
type questsLoadedMsg struct {
	Quests []backend.Quest
	Err    error
}

// recoveredMsg reports sessions closed at startup after a crash.
type recoveredMsg struct {
	Sessions []store.OpenSession
	Closed   int
	Err      error
}
