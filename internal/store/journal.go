package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// sessionJournal implements SessionJournal over the open_sessions table.
type sessionJournal struct {
	drv *entsql.Driver
}

func (j *sessionJournal) Track(ctx context.Context, s OpenSession) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.StartedAt
	}
	q, args := builder().Insert(tableOpenSessions).
		Columns("session_id", "subject_id", "started_at", "elapsed_secs", "updated_at").
		Values(s.SessionID, s.SubjectID, toMillis(s.StartedAt), s.ElapsedSecs, toMillis(s.UpdatedAt)).
		OnConflict(entsql.ConflictColumns("session_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := exec(ctx, j.drv, q, args); err != nil {
		return fmt.Errorf("track session %s: %w", s.SessionID, err)
	}
	return nil
}

func (j *sessionJournal) Touch(ctx context.Context, sessionID string, elapsedSecs int, at time.Time) error {
	q, args := builder().Update(tableOpenSessions).
		Set("elapsed_secs", elapsedSecs).
		Set("updated_at", toMillis(at)).
		Where(entsql.EQ("session_id", sessionID)).
		Query()
	if _, err := exec(ctx, j.drv, q, args); err != nil {
		return fmt.Errorf("touch session %s: %w", sessionID, err)
	}
	return nil
}

func (j *sessionJournal) Forget(ctx context.Context, sessionID string) error {
	q, args := builder().Delete(tableOpenSessions).
		Where(entsql.EQ("session_id", sessionID)).
		Query()
	if _, err := exec(ctx, j.drv, q, args); err != nil {
		return fmt.Errorf("forget session %s: %w", sessionID, err)
	}
	return nil
}

func (j *sessionJournal) Pending(ctx context.Context) ([]OpenSession, error) {
	q, args := builder().
		Select("session_id", "subject_id", "started_at", "elapsed_secs", "updated_at").
		From(entsql.Table(tableOpenSessions)).
		OrderBy(entsql.Asc("started_at")).
		Query()

	var out []OpenSession
	err := query(ctx, j.drv, q, args, func(rows *entsql.Rows) error {
		var (
			s                OpenSession
			started, updated int64
		)
		if err := rows.Scan(&s.SessionID, &s.SubjectID, &started, &s.ElapsedSecs, &updated); err != nil {
			return err
		}
		s.StartedAt = fromMillis(started)
		s.UpdatedAt = fromMillis(updated)
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query open sessions: %w", err)
	}
	return out, nil
}
