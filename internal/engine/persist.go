package engine

import (
	"context"

	"github.com/abhisek/focuscycle/internal/store"
)

// Journal and event writes are local SQLite calls made on the loop so
// their order matches the order of the transitions that caused them.

func (e *Engine) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func (e *Engine) track(s store.OpenSession) {
	if e.deps.Journal == nil {
		return
	}
	ctx, cancel := e.storeCtx()
	defer cancel()
	if err := e.deps.Journal.Track(ctx, s); err != nil {
		e.log.Warn().Err(err).Str("session_id", s.SessionID).Msg("journal track")
	}
}

// touch records the measured seconds of the open session.
func (e *Engine) touch() {
	s := e.machine.State().Session
	if e.deps.Journal == nil || s == nil || s.ID == "" {
		return
	}
	ctx, cancel := e.storeCtx()
	defer cancel()
	if err := e.deps.Journal.Touch(ctx, s.ID, s.ElapsedSecs, e.source.Now()); err != nil {
		e.log.Warn().Err(err).Str("session_id", s.ID).Msg("journal touch")
	}
}

func (e *Engine) forget(sessionID string) {
	if e.deps.Journal == nil || sessionID == "" {
		return
	}
	ctx, cancel := e.storeCtx()
	defer cancel()
	if err := e.deps.Journal.Forget(ctx, sessionID); err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("journal forget")
	}
}

func (e *Engine) recordEvent(data store.SessionEventData) {
	if e.deps.Events == nil {
		return
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = e.source.Now()
	}
	ctx, cancel := e.storeCtx()
	defer cancel()
	if err := e.deps.Events.AppendSessionEvent(ctx, data); err != nil {
		e.log.Warn().Err(err).Str("action", data.Action).Msg("append session event")
	}
}

// saveSnapshot persists the reconciliation state and the wallet.
func (e *Engine) saveSnapshot() {
	if e.deps.Snapshots == nil {
		return
	}
	ctx, cancel := e.storeCtx()
	defer cancel()

	var seq int64
	if e.deps.Events != nil {
		s, err := e.deps.Events.LatestSequence(ctx)
		if err != nil {
			e.log.Warn().Err(err).Msg("read latest sequence")
		}
		seq = s
	}

	st := e.tracker.State()
	snap := &store.Snapshot{
		Sequence:  seq,
		Timestamp: e.source.Now(),
		Data: store.SnapshotData{
			Version:  snapshotVersion,
			Progress: &st,
			Wallet:   e.rewards.SnapshotData(),
		},
	}
	if err := e.deps.Snapshots.Save(ctx, snap); err != nil {
		e.log.Warn().Err(err).Msg("save snapshot")
		return
	}
	if err := e.deps.Snapshots.Prune(ctx, snapshotsKept); err != nil {
		e.log.Warn().Err(err).Msg("prune snapshots")
	}
}

func (e *Engine) restore() {
	if e.deps.Snapshots == nil {
		return
	}
	ctx, cancel := e.storeCtx()
	defer cancel()

	snap, err := e.deps.Snapshots.Latest(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("load snapshot")
		return
	}
	if snap == nil {
		return
	}
	if snap.Data.Progress != nil {
		e.tracker.Restore(*snap.Data.Progress)
	}
	if snap.Data.Wallet != nil {
		e.rewards.Restore(snap.Data.Wallet)
		e.seeded = true
	}
	e.reproject()
	e.log.Debug().Int("snapshot_id", snap.ID).Int("history", len(e.tracker.History())).Msg("restored snapshot")
}
