package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	q, args := builder().Insert(tableSessionEvents).
		Columns("sequence", "timestamp", "action", "session_id", "subject_id",
			"minutes", "skipped", "coins", "xp", "detail").
		Values(seqNum, toMillis(ts), data.Action, data.SessionID, data.SubjectID,
			data.Minutes, data.Skipped, data.Coins, data.XP, data.Detail).
		Query()
	if _, err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEventRecord, error) {
	sel := builder().
		Select("sequence", "timestamp", "action", "session_id", "subject_id",
			"minutes", "skipped", "coins", "xp", "detail").
		From(entsql.Table(tableSessionEvents)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts)
	q, args := sel.Query()

	var records []SessionEventRecord
	err := query(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			rec     SessionEventRecord
			ts      int64
			skipped int
		)
		if err := rows.Scan(&rec.Sequence, &ts, &rec.Action, &rec.SessionID, &rec.SubjectID,
			&rec.Minutes, &skipped, &rec.Coins, &rec.XP, &rec.Detail); err != nil {
			return err
		}
		rec.Timestamp = fromMillis(ts)
		rec.Skipped = skipped != 0
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	return records, nil
}

func (r *eventRepo) Totals(ctx context.Context) (Totals, error) {
	q, args := builder().
		Select("action", "skipped", entsql.Count("*"), entsql.Sum("minutes")).
		From(entsql.Table(tableSessionEvents)).
		GroupBy("action", "skipped").
		Query()

	var t Totals
	err := query(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			action  string
			skipped int
			count   int
			minutes sql.NullInt64
		)
		if err := rows.Scan(&action, &skipped, &count, &minutes); err != nil {
			return err
		}
		mins := int(minutes.Int64)
		switch action {
		case ActionClose:
			if skipped != 0 {
				t.SkippedMinutes += mins
			} else {
				t.Blocks += count
				t.StudiedMinutes += mins
			}
		case ActionFlush, ActionRecover:
			t.Flushed += count
			t.SkippedMinutes += mins
		case ActionUndo:
			t.Undone += count
		}
		return nil
	})
	if err != nil {
		return Totals{}, fmt.Errorf("query session totals: %w", err)
	}

	q, args = builder().
		Select("kind", entsql.Count("*"), entsql.Sum("coins"), entsql.Sum("xp")).
		From(entsql.Table(tableRewardEvents)).
		GroupBy("kind").
		Query()
	err = query(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			kind      string
			count     int
			coins, xp sql.NullInt64
		)
		if err := rows.Scan(&kind, &count, &coins, &xp); err != nil {
			return err
		}
		t.Coins += int(coins.Int64)
		t.XP += int(xp.Int64)
		if kind == RewardLevelUp {
			t.LevelUps += count
		}
		return nil
	})
	if err != nil {
		return Totals{}, fmt.Errorf("query reward totals: %w", err)
	}
	return t, nil
}

func (r *eventRepo) LatestSequence(ctx context.Context) (int64, error) {
	return r.seq.Current(ctx)
}

// applyOpts adds the QueryOpts filters to a selector.
func applyOpts(sel *entsql.Selector, opts QueryOpts) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", toMillis(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", toMillis(opts.To)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
