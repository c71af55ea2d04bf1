// Package progress reconciles authoritative per-subject study minutes with
// local, not yet confirmed deltas and keeps the block undo history.
//
// studied(subject) = max(0, authoritative + pending + visual - reversal)
//
// Pending real credit is absorbed as the backend's own total advances past
// the value it was measured against. Visual credit and reversals stay until
// the cycle is reset.
package progress

import (
	"errors"
	"time"
)

// ErrEmptyHistory is returned by PopBlock when there is nothing to undo.
var ErrEmptyHistory = errors.New("no block to undo")

// Tracker holds the reconciled progress. It is not safe for concurrent use.
type Tracker struct {
	subjects []Subject
	snap     Snapshot
	deltas   map[string]*Delta
	history  []Entry

	pendingSessions int
	sessionsBase    int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		snap:   Snapshot{Minutes: map[string]int{}},
		deltas: make(map[string]*Delta),
	}
}

// SetSubjects replaces the subject list. Order is preserved for display.
func (t *Tracker) SetSubjects(subjects []Subject) {
	t.subjects = append([]Subject(nil), subjects...)
}

// Subjects returns the subject list.
func (t *Tracker) Subjects() []Subject {
	return append([]Subject(nil), t.subjects...)
}

// Subject looks a subject up by id.
func (t *Tracker) Subject(id string) (Subject, bool) {
	for _, s := range t.subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

func (t *Tracker) deltaFor(id string) *Delta {
	d, ok := t.deltas[id]
	if !ok {
		d = &Delta{Base: t.snap.Minutes[id]}
		t.deltas[id] = d
	}
	return d
}

// ApplySnapshot installs a fresh authoritative read. Deltas are not
// cleared; pending credit shrinks only by what the backend has absorbed.
func (t *Tracker) ApplySnapshot(s Snapshot) {
	if s.Minutes == nil {
		s.Minutes = map[string]int{}
	}
	for id, d := range t.deltas {
		now := s.Minutes[id]
		if advance := now - d.Base; advance > 0 && d.Pending > 0 {
			d.Pending -= min(d.Pending, advance)
		}
		d.Base = now
		if d.zero() {
			delete(t.deltas, id)
		}
	}
	if advance := s.SessionsCompleted - t.sessionsBase; advance > 0 && t.pendingSessions > 0 {
		t.pendingSessions -= min(t.pendingSessions, advance)
	}
	t.sessionsBase = s.SessionsCompleted
	t.snap = s
}

// CreditBlock records a committed block and pushes it onto the history.
func (t *Tracker) CreditBlock(subjectID, sessionID string, minutes int, at time.Time) Entry {
	d := t.deltaFor(subjectID)
	if d.Pending == 0 {
		d.Base = t.snap.Minutes[subjectID]
	}
	d.Pending += minutes
	if t.pendingSessions == 0 {
		t.sessionsBase = t.snap.SessionsCompleted
	}
	t.pendingSessions++

	e := Entry{SubjectID: subjectID, RealMinutes: minutes, SessionID: sessionID, At: at}
	t.history = append(t.history, e)
	return e
}

// CreditVisual marks a block complete without a ledger commit.
func (t *Tracker) CreditVisual(subjectID string, minutes int, at time.Time) Entry {
	t.deltaFor(subjectID).Visual += minutes
	e := Entry{SubjectID: subjectID, VisualMinutes: minutes, At: at}
	t.history = append(t.history, e)
	return e
}

// PopBlock undoes the most recent block. Real minutes become a reversal;
// the ledger keeps the session and its rewards.
func (t *Tracker) PopBlock() (Entry, error) {
	if len(t.history) == 0 {
		return Entry{}, ErrEmptyHistory
	}
	e := t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]

	d := t.deltaFor(e.SubjectID)
	if e.VisualMinutes > 0 {
		d.Visual = max(0, d.Visual-e.VisualMinutes)
	}
	if e.RealMinutes > 0 {
		d.Reversal += e.RealMinutes
	}
	return e, nil
}

// CanUndo reports whether PopBlock would succeed.
func (t *Tracker) CanUndo() bool {
	return len(t.history) > 0
}

// History returns the undo stack, oldest first.
func (t *Tracker) History() []Entry {
	return append([]Entry(nil), t.history...)
}

// ResetCycle clears every local delta and the history.
func (t *Tracker) ResetCycle() {
	t.deltas = make(map[string]*Delta)
	t.history = nil
	t.pendingSessions = 0
	t.sessionsBase = t.snap.SessionsCompleted
}

// StudiedMinutes returns the reconciled minutes for a subject.
func (t *Tracker) StudiedMinutes(subjectID string) int {
	v := t.snap.Minutes[subjectID]
	if d, ok := t.deltas[subjectID]; ok {
		v += d.Pending + d.Visual - d.Reversal
	}
	return max(0, v)
}

// AuthoritativeMinutes returns the backend value for a subject.
func (t *Tracker) AuthoritativeMinutes(subjectID string) int {
	return t.snap.Minutes[subjectID]
}

// TotalStudied sums reconciled minutes over the known subjects.
func (t *Tracker) TotalStudied() int {
	total := 0
	for _, s := range t.subjects {
		total += t.StudiedMinutes(s.ID)
	}
	return total
}

// TotalGoal sums the subject goals.
func (t *Tracker) TotalGoal() int {
	total := 0
	for _, s := range t.subjects {
		total += s.GoalMinutes
	}
	return total
}

// CycleProgressPercent returns total studied against total goal, clamped
// to [0, 100]. It is 0 when no goal is set.
func (t *Tracker) CycleProgressPercent() float64 {
	return clampPercent(t.TotalStudied(), t.TotalGoal())
}

// SessionsCompleted returns the authoritative count plus committed blocks
// the backend has not reflected yet.
func (t *Tracker) SessionsCompleted() int {
	return t.snap.SessionsCompleted + t.pendingSessions
}

// Progress returns the reconciled view of every subject, in list order.
func (t *Tracker) Progress() []SubjectProgress {
	out := make([]SubjectProgress, len(t.subjects))
	for i, s := range t.subjects {
		out[i] = SubjectProgress{
			Subject:       s,
			Authoritative: t.snap.Minutes[s.ID],
			Studied:       t.StudiedMinutes(s.ID),
		}
	}
	return out
}

// Lowest returns the subject with the fewest reconciled minutes. Ties go to
// the subject listed first.
func (t *Tracker) Lowest() (Subject, bool) {
	if len(t.subjects) == 0 {
		return Subject{}, false
	}
	best := t.subjects[0]
	bestMin := t.StudiedMinutes(best.ID)
	for _, s := range t.subjects[1:] {
		if m := t.StudiedMinutes(s.ID); m < bestMin {
			best, bestMin = s, m
		}
	}
	return best, true
}

// State exports the local deltas and history for persistence.
func (t *Tracker) State() State {
	st := State{
		Deltas:          make(map[string]Delta, len(t.deltas)),
		History:         t.History(),
		PendingSessions: t.pendingSessions,
		SessionsBase:    t.sessionsBase,
	}
	for id, d := range t.deltas {
		st.Deltas[id] = *d
	}
	return st
}

// Restore replaces the local deltas and history with a persisted State.
func (t *Tracker) Restore(st State) {
	t.deltas = make(map[string]*Delta, len(st.Deltas))
	for id, d := range st.Deltas {
		t.deltas[id] = &d
	}
	t.history = append([]Entry(nil), st.History...)
	t.pendingSessions = st.PendingSessions
	t.sessionsBase = st.SessionsBase
}

func clampPercent(studied, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	p := float64(studied) / float64(goal) * 100
	return min(100, max(0, p))
}
