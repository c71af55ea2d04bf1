package store

import (
	"context"
	"time"

	"github.com/abhisek/focuscycle/internal/progress"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// OpenSession is a session the ledger opened and has not seen committed.
type OpenSession struct {
	SessionID   string
	SubjectID   string
	StartedAt   time.Time
	ElapsedSecs int
	UpdatedAt   time.Time
}

// ElapsedMinutes returns the journaled study time in whole minutes.
func (o OpenSession) ElapsedMinutes() int {
	return o.ElapsedSecs / 60
}

// SessionJournal tracks open sessions so a crash never loses one.
type SessionJournal interface {
	// Track records a newly opened session.
	Track(ctx context.Context, s OpenSession) error

	// Touch updates the measured elapsed seconds of a session.
	Touch(ctx context.Context, sessionID string, elapsedSecs int, at time.Time) error

	// Forget removes a committed session.
	Forget(ctx context.Context, sessionID string) error

	// Pending lists sessions still open, oldest first.
	Pending(ctx context.Context) ([]OpenSession, error)
}

// Session event actions.
const (
	ActionOpen    = "open"
	ActionClose   = "close"
	ActionFlush   = "flush"
	ActionRecover = "recover"
	ActionUndo    = "undo"
	ActionVisual  = "visual"
	ActionFailed  = "failed"
)

// SessionEventData captures one session lifecycle event.
type SessionEventData struct {
	Action    string
	SessionID string
	SubjectID string
	Minutes   int
	Skipped   bool
	Coins     int
	XP        int
	Detail    string
	Timestamp time.Time
}

// SessionEventRecord is a persisted session event.
type SessionEventRecord struct {
	SessionEventData
	Sequence int64
}

// Reward event kinds.
const (
	RewardSession   = "session"
	RewardLevelUp   = "level_up"
	RewardMilestone = "milestone"
)

// RewardEventData captures one reward grant.
type RewardEventData struct {
	Kind      string
	SessionID string
	Coins     int
	XP        int
	Level     int
	Timestamp time.Time
}

// RewardEventRecord is a persisted reward event.
type RewardEventRecord struct {
	RewardEventData
	Sequence int64
}

// Totals aggregates the local event log.
type Totals struct {
	Blocks         int
	StudiedMinutes int
	SkippedMinutes int
	Flushed        int
	Undone         int
	Coins          int
	XP             int
	LevelUps       int
}

// EventRepo provides append and query access to the local event log.
type EventRepo interface {
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEventRecord, error)

	AppendRewardEvent(ctx context.Context, data RewardEventData) error
	QueryRewardEvents(ctx context.Context, opts QueryOpts) ([]RewardEventRecord, error)

	// Totals sums the event log.
	Totals(ctx context.Context) (Totals, error)

	// LatestSequence returns the highest sequence handed out, or 0.
	LatestSequence(ctx context.Context) (int64, error)
}

// WalletData is the persisted wallet.
type WalletData struct {
	Coins int `json:"coins"`
	XP    int `json:"xp"`
	Level int `json:"level"`
}

// SnapshotData captures the local client state at a point in time.
type SnapshotData struct {
	Version  int             `json:"version"`
	Progress *progress.State `json:"progress,omitempty"`
	Wallet   *WalletData     `json:"wallet,omitempty"`
}

// Snapshot represents a point-in-time capture of client state.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages client state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}
