package progress

import "time"

// Subject is a study subject with its weekly goal.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	GoalMinutes int    `json:"goal_minutes"`
}

// Snapshot is an authoritative stats read from the backend.
type Snapshot struct {
	Minutes           map[string]int
	SessionsCompleted int
	FetchedAt         time.Time
}

// Entry is one block in the undo history.
type Entry struct {
	SubjectID     string    `json:"subject_id"`
	RealMinutes   int       `json:"real_minutes"`
	VisualMinutes int       `json:"visual_minutes"`
	SessionID     string    `json:"session_id,omitempty"`
	At            time.Time `json:"at"`
}

// Minutes returns everything the entry credited.
func (e Entry) Minutes() int {
	return e.RealMinutes + e.VisualMinutes
}

// SubjectProgress is the reconciled view of one subject.
type SubjectProgress struct {
	Subject
	Authoritative int
	Studied       int
}

// Percent returns studied minutes against the goal, clamped to [0, 100].
func (p SubjectProgress) Percent() float64 {
	return clampPercent(p.Studied, p.GoalMinutes)
}

// Delta holds the local annotations for one subject.
type Delta struct {
	// Pending is real credit the backend has not reflected yet; Base is the
	// authoritative value it was measured against.
	Pending int `json:"pending"`
	Base    int `json:"base"`

	Visual   int `json:"visual"`
	Reversal int `json:"reversal"`
}

func (d Delta) zero() bool {
	return d.Pending == 0 && d.Visual == 0 && d.Reversal == 0
}

// State is the persistable part of a Tracker.
type State struct {
	Deltas          map[string]Delta `json:"deltas"`
	History         []Entry          `json:"history"`
	PendingSessions int              `json:"pending_sessions"`
	SessionsBase    int              `json:"sessions_base"`
}
