package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendRewardEvent(ctx context.Context, data RewardEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	q, args := builder().Insert(tableRewardEvents).
		Columns("sequence", "timestamp", "kind", "session_id", "coins", "xp", "level").
		Values(seqNum, toMillis(ts), data.Kind, data.SessionID, data.Coins, data.XP, data.Level).
		Query()
	if _, err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save reward event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryRewardEvents(ctx context.Context, opts QueryOpts) ([]RewardEventRecord, error) {
	sel := builder().
		Select("sequence", "timestamp", "kind", "session_id", "coins", "xp", "level").
		From(entsql.Table(tableRewardEvents)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts)
	q, args := sel.Query()

	var records []RewardEventRecord
	err := query(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			rec RewardEventRecord
			ts  int64
		)
		if err := rows.Scan(&rec.Sequence, &ts, &rec.Kind, &rec.SessionID, &rec.Coins, &rec.XP, &rec.Level); err != nil {
			return err
		}
		rec.Timestamp = fromMillis(ts)
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query reward events: %w", err)
	}
	return records, nil
}
