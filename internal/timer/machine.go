// Package timer implements the focus/break state machine. Transitions are
// pure: each one mutates the machine and returns an Effect describing the
// ledger calls and clock changes the caller must perform.
package timer

import "time"

// pendingOpen is a start or resume waiting for its session id.
type pendingOpen struct {
	token     uint64
	subjectID string
}

// Machine owns the single TimerState of the process. It is not safe for
// concurrent use; callers serialize access on one event loop.
type Machine struct {
	phase      Phase
	pausedFrom Phase
	remaining  int
	subjectID  string
	session    *Session
	durations  Durations

	pending   *pendingOpen
	nextToken uint64

	// deferred holds closes for sessions whose id had not arrived yet.
	deferred map[uint64]CloseRequest
}

// New creates an idle machine with a full focus countdown.
func New(d Durations) *Machine {
	d = sanitize(d)
	return &Machine{
		phase:     PhaseIdle,
		remaining: d.focusSecs(),
		durations: d,
		deferred:  make(map[uint64]CloseRequest),
	}
}

func sanitize(d Durations) Durations {
	def := DefaultDurations()
	if d.FocusMinutes <= 0 {
		d.FocusMinutes = def.FocusMinutes
	}
	if d.BreakMinutes <= 0 {
		d.BreakMinutes = def.BreakMinutes
	}
	return d
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	st := State{
		Phase:      m.phase,
		PausedFrom: m.pausedFrom,
		Remaining:  m.remaining,
		SubjectID:  m.subjectID,
		Durations:  m.durations,
		Opening:    m.pending != nil,
	}
	if m.session != nil {
		s := *m.session
		st.Session = &s
	}
	return st
}

// Select changes the subject shown while idle. It is ignored in other
// phases; use Start to switch subjects mid-cycle.
func (m *Machine) Select(subjectID string) {
	if m.phase == PhaseIdle && m.pending == nil {
		m.subjectID = subjectID
	}
}

// SetDurations adopts new phase lengths. An idle timer, or one waiting at
// the start of a block, picks up the new focus length at once; running
// phases keep their countdown.
func (m *Machine) SetDurations(d Durations) {
	m.durations = sanitize(d)
	if m.phase == PhaseIdle || m.State().AtBlockStart() {
		m.remaining = m.durations.focusSecs()
	}
}

func (m *Machine) token() uint64 {
	m.nextToken++
	return m.nextToken
}

// Start begins a focus block for subjectID. The machine stays where it is
// until OpenResolved confirms the session.
func (m *Machine) Start(subjectID string) (Effect, error) {
	if subjectID == "" {
		return Effect{}, ErrNoSubject
	}
	if m.pending != nil {
		return Effect{}, ErrOpenPending
	}

	var eff Effect
	switch m.phase {
	case PhaseIdle:
	case PhasePaused:
		if subjectID == m.subjectID {
			return m.Resume()
		}
		// Switching subjects mid-cycle starts fresh.
		eff.Close = m.abandon()
		m.phase = PhaseIdle
		m.remaining = m.durations.focusSecs()
	default:
		return Effect{}, &ErrInvalidTransition{Op: "start", Phase: m.phase}
	}

	m.subjectID = subjectID
	m.pending = &pendingOpen{token: m.token(), subjectID: subjectID}
	eff.Open = &OpenRequest{Token: m.pending.token, SubjectID: subjectID}
	eff.Clock = ClockStop
	return eff, nil
}

// Pause freezes the countdown. The open session stays uncommitted.
func (m *Machine) Pause() (Effect, error) {
	if m.phase != PhaseFocus && m.phase != PhaseBreak {
		return Effect{}, &ErrInvalidTransition{Op: "pause", Phase: m.phase}
	}
	m.pausedFrom = m.phase
	m.phase = PhasePaused
	return Effect{Clock: ClockStop}, nil
}

// Resume continues the phase the timer was paused from. At the start of a
// block a new session must be opened first.
func (m *Machine) Resume() (Effect, error) {
	if m.phase != PhasePaused {
		return Effect{}, &ErrInvalidTransition{Op: "resume", Phase: m.phase}
	}
	if m.pending != nil {
		return Effect{}, ErrOpenPending
	}
	if m.State().AtBlockStart() {
		if m.subjectID == "" {
			return Effect{}, ErrNoSubject
		}
		m.pending = &pendingOpen{token: m.token(), subjectID: m.subjectID}
		return Effect{Open: &OpenRequest{Token: m.pending.token, SubjectID: m.subjectID}}, nil
	}
	m.phase = m.pausedFrom
	return Effect{Clock: ClockStart}, nil
}

// Tick advances the countdown by one second.
func (m *Machine) Tick() Effect {
	switch m.phase {
	case PhaseFocus:
		if m.remaining > 0 {
			m.remaining--
		}
		if m.session != nil {
			m.session.ElapsedSecs++
		}
		if m.remaining == 0 {
			return m.completeFocus()
		}
	case PhaseBreak:
		if m.remaining > 0 {
			m.remaining--
		}
		if m.remaining == 0 {
			m.toBlockStart()
			return Effect{Clock: ClockStop, BreakOver: true}
		}
	}
	return Effect{}
}

// Skip fast-forwards. In focus the block completes with full credit; in a
// break the next focus block begins immediately; paused at a block start
// the block is marked complete visually without a ledger call.
func (m *Machine) Skip() (Effect, error) {
	if m.pending != nil {
		return Effect{}, ErrOpenPending
	}
	switch m.phase {
	case PhaseFocus:
		return m.completeFocus(), nil
	case PhaseBreak:
		return m.skipBreak(), nil
	case PhasePaused:
		if m.State().AtBlockStart() {
			if m.subjectID == "" {
				return Effect{}, ErrNoSubject
			}
			return Effect{Visual: &VisualCredit{SubjectID: m.subjectID, Minutes: m.durations.FocusMinutes}}, nil
		}
		if m.pausedFrom == PhaseBreak {
			return m.skipBreak(), nil
		}
		return m.completeFocus(), nil
	default:
		return Effect{}, &ErrInvalidTransition{Op: "skip", Phase: m.phase}
	}
}

// BackBlock rewinds to a paused, full focus block for subjectID. Any open
// session is committed as skipped with its measured minutes.
func (m *Machine) BackBlock(subjectID string) Effect {
	eff := Effect{Close: m.abandon(), Clock: ClockStop}
	m.pending = nil
	if subjectID != "" {
		m.subjectID = subjectID
	}
	m.toBlockStart()
	return eff
}

// ResetBlock discards the current block and returns to idle. The open
// session is committed as skipped with its measured minutes.
func (m *Machine) ResetBlock() Effect {
	eff := Effect{Close: m.abandon(), Clock: ClockStop}
	m.pending = nil
	m.phase = PhaseIdle
	m.pausedFrom = PhaseIdle
	m.remaining = m.durations.focusSecs()
	return eff
}

// Terminate returns the flush for the open session, if it has at least one
// measured minute. The session is considered committed afterwards.
func (m *Machine) Terminate() *CloseRequest {
	s := m.session
	if s == nil || s.ID == "" || s.OpenFailed {
		return nil
	}
	m.session = nil
	if s.ElapsedMinutes() < 1 {
		return nil
	}
	return &CloseRequest{
		SessionID: s.ID,
		SubjectID: s.SubjectID,
		Minutes:   s.ElapsedMinutes(),
		Skipped:   true,
	}
}

// OpenResolved applies the ledger's answer to an OpenRequest. A response
// nobody is waiting for any more yields a zero-minute skipped close so the
// orphaned session is committed.
func (m *Machine) OpenResolved(token uint64, sessionID, subjectID string, at time.Time) Effect {
	if p := m.pending; p != nil && p.token == token {
		m.pending = nil
		m.subjectID = p.subjectID
		m.session = &Session{ID: sessionID, Token: token, SubjectID: p.subjectID, StartedAt: at}
		m.phase = PhaseFocus
		m.pausedFrom = PhaseIdle
		m.remaining = m.durations.focusSecs()
		return Effect{Clock: ClockStart}
	}
	if s := m.session; s != nil && s.Token == token && s.ID == "" {
		s.ID = sessionID
		return Effect{}
	}
	if req, ok := m.deferred[token]; ok {
		delete(m.deferred, token)
		req.SessionID = sessionID
		return Effect{Close: &req}
	}
	return Effect{Close: &CloseRequest{SessionID: sessionID, SubjectID: subjectID, Minutes: 0, Skipped: true}}
}

// CreditPending reports whether a completed block is waiting for its
// session id before its close can be sent.
func (m *Machine) CreditPending() bool {
	for _, req := range m.deferred {
		if !req.Skipped {
			return true
		}
	}
	return false
}

// OpenFailed applies a failed OpenRequest.
func (m *Machine) OpenFailed(token uint64) Effect {
	if p := m.pending; p != nil && p.token == token {
		m.pending = nil
		return Effect{}
	}
	if s := m.session; s != nil && s.Token == token && s.ID == "" {
		s.OpenFailed = true
		return Effect{}
	}
	if _, ok := m.deferred[token]; ok {
		delete(m.deferred, token)
		return Effect{Withheld: true}
	}
	return Effect{}
}

func (m *Machine) completeFocus() Effect {
	eff := Effect{Clock: ClockStart}
	if s := m.session; s != nil {
		req := CloseRequest{
			SessionID: s.ID,
			SubjectID: s.SubjectID,
			Minutes:   m.durations.FocusMinutes,
			Skipped:   false,
		}
		switch {
		case s.OpenFailed:
			eff.Withheld = true
		case s.ID == "":
			m.deferred[s.Token] = req
		default:
			eff.Close = &req
		}
	} else {
		eff.Withheld = true
	}
	m.session = nil
	m.phase = PhaseBreak
	m.pausedFrom = PhaseIdle
	m.remaining = m.durations.breakSecs()
	return eff
}

func (m *Machine) skipBreak() Effect {
	tok := m.token()
	m.session = &Session{Token: tok, SubjectID: m.subjectID}
	m.phase = PhaseFocus
	m.pausedFrom = PhaseIdle
	m.remaining = m.durations.focusSecs()
	return Effect{
		Open:  &OpenRequest{Token: tok, SubjectID: m.subjectID},
		Clock: ClockStart,
	}
}

func (m *Machine) toBlockStart() {
	m.phase = PhasePaused
	m.pausedFrom = PhaseFocus
	m.remaining = m.durations.focusSecs()
}

// abandon detaches the open session and returns its skipped close, if one
// can be sent now.
func (m *Machine) abandon() *CloseRequest {
	s := m.session
	m.session = nil
	if s == nil || s.OpenFailed {
		return nil
	}
	req := CloseRequest{
		SessionID: s.ID,
		SubjectID: s.SubjectID,
		Minutes:   s.ElapsedMinutes(),
		Skipped:   true,
	}
	if s.ID == "" {
		m.deferred[s.Token] = req
		return nil
	}
	return &req
}
