package engine

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/store"
)

// Recover closes every session the journal still lists as open. Each is
// committed as skipped with its journaled elapsed minutes. It returns the
// number of sessions closed; sessions that could not be closed stay in the
// journal for the next attempt.
func Recover(ctx context.Context, l ledger.Ledger, j store.SessionJournal, events store.EventRepo, log zerolog.Logger) (int, error) {
	pending, err := j.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open sessions: %w", err)
	}
	return recoverSessions(ctx, l, j, events, log, pending)
}

func recoverSessions(ctx context.Context, l ledger.Ledger, j store.SessionJournal, events store.EventRepo, log zerolog.Logger, pending []store.OpenSession) (int, error) {
	var (
		closed int
		errs   []error
	)
	for _, s := range pending {
		req := ledger.CloseRequest{
			SessionID: s.SessionID,
			SubjectID: s.SubjectID,
			Minutes:   s.ElapsedMinutes(),
			Skipped:   true,
		}
		_, err := l.CloseSession(ctx, req)

		var apiErr *backend.APIError
		switch {
		case err == nil:
			closed++
		case errors.Is(err, ledger.ErrAlreadyClosed):
		case errors.As(err, &apiErr) && !backend.IsTransient(err):
			// The backend refused the session for good; keeping it would
			// retry forever.
			log.Warn().Err(err).Str("session_id", s.SessionID).Msg("dropping unrecoverable session")
		default:
			errs = append(errs, fmt.Errorf("close session %s: %w", s.SessionID, err))
			continue
		}

		if err := j.Forget(ctx, s.SessionID); err != nil {
			errs = append(errs, fmt.Errorf("forget session %s: %w", s.SessionID, err))
		}
		if events != nil {
			data := store.SessionEventData{
				Action:    store.ActionRecover,
				SessionID: s.SessionID,
				SubjectID: s.SubjectID,
				Minutes:   req.Minutes,
				Skipped:   true,
				Timestamp: s.UpdatedAt,
			}
			if err != nil {
				data.Detail = err.Error()
			}
			if err := events.AppendSessionEvent(ctx, data); err != nil {
				log.Warn().Err(err).Msg("append recover event")
			}
		}
		log.Info().Str("session_id", s.SessionID).Int("minutes", req.Minutes).Msg("recovered open session")
	}
	return closed, errors.Join(errs...)
}

// recoverCmd reads the journal now, before this run tracks anything, and
// closes what it found in the background.
func (e *Engine) recoverCmd() tea.Cmd {
	if e.deps.Journal == nil {
		return nil
	}
	ctx, cancel := e.storeCtx()
	pending, err := e.deps.Journal.Pending(ctx)
	cancel()
	if err != nil {
		e.log.Warn().Err(err).Msg("list open sessions")
		return nil
	}
	if len(pending) == 0 {
		return nil
	}

	l, j, events, log := e.deps.Ledger, e.deps.Journal, e.deps.Events, e.log
	timeout := e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := recoverSessions(ctx, l, j, events, log, pending)
		return recoveredMsg{Sessions: pending, Closed: n, Err: err}
	}
}

func (e *Engine) handleRecovered(msg recoveredMsg) tea.Cmd {
	if msg.Err != nil {
		e.notify(failure("Some unfinished sessions could not be closed", msg.Err))
		return nil
	}
	if msg.Closed > 0 {
		e.notify(Notice{
			Level: NoticeInfo,
			Text:  fmt.Sprintf("Closed %d unfinished session(s) from a previous run", msg.Closed),
		})
	}
	return nil
}
