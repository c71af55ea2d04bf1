package timer

import "time"

// Phase is the current phase of the focus timer.
type Phase int

const (
	PhaseIdle   Phase = iota // No block running
	PhaseFocus               // Studying, counts toward the open session
	PhaseBreak               // Resting, never credited
	PhasePaused              // Frozen; see State.PausedFrom
)

// String returns the wire name of the phase, as reported to presence.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFocus:
		return "focus"
	case PhaseBreak:
		return "break"
	case PhasePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Durations holds the configured phase lengths in minutes.
type Durations struct {
	FocusMinutes int
	BreakMinutes int
}

// DefaultDurations are used until the backend settings arrive.
func DefaultDurations() Durations {
	return Durations{FocusMinutes: 50, BreakMinutes: 10}
}

func (d Durations) focusSecs() int { return d.FocusMinutes * 60 }
func (d Durations) breakSecs() int { return d.BreakMinutes * 60 }

// Session is the client-side view of one StudySession.
type Session struct {
	// ID is assigned by the ledger. Empty while the open request is in flight.
	ID string

	// Token correlates the open request with its response.
	Token uint64

	SubjectID   string
	StartedAt   time.Time
	ElapsedSecs int

	// OpenFailed is set when the ledger refused to open the session. The
	// countdown keeps running but nothing can be credited.
	OpenFailed bool
}

// ElapsedMinutes returns the measured study time in whole minutes.
func (s *Session) ElapsedMinutes() int {
	return s.ElapsedSecs / 60
}

// State is a copy of the timer state at one instant.
type State struct {
	Phase      Phase
	PausedFrom Phase
	Remaining  int
	SubjectID  string
	Session    *Session
	Durations  Durations

	// Opening is true while a start or resume waits on the ledger.
	Opening bool
}

// AtBlockStart reports whether the timer is paused before a focus block
// with no session open yet.
func (s State) AtBlockStart() bool {
	return s.Phase == PhasePaused && s.PausedFrom == PhaseFocus && s.Session == nil
}

// DisplayPhase is the phase shown to the user and to presence.
func (s State) DisplayPhase() string {
	return s.Phase.String()
}

// ClockAction tells the caller what to do with the tick source.
type ClockAction int

const (
	ClockKeep  ClockAction = iota // Leave the tick source as it is
	ClockStart                    // Ensure ticking
	ClockStop                     // Cancel ticking
)

// OpenRequest asks the ledger to open a session.
type OpenRequest struct {
	Token     uint64
	SubjectID string
}

// CloseRequest asks the ledger to commit a session.
type CloseRequest struct {
	SessionID string
	SubjectID string
	Minutes   int
	Skipped   bool
}

// VisualCredit marks a block complete without touching the ledger.
type VisualCredit struct {
	SubjectID string
	Minutes   int
}

// Effect describes the side effects a transition asks the caller to run.
// The machine itself never performs IO.
type Effect struct {
	Open   *OpenRequest
	Close  *CloseRequest
	Clock  ClockAction
	Visual *VisualCredit

	// Withheld is set when a completed block could not be committed because
	// its session never got an id.
	Withheld bool

	// BreakOver is set when a break ran out and the next block is waiting.
	BreakOver bool
}
