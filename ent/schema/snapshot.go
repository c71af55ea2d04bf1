package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Snapshot captures the local progress state and wallet at a point in
// time, so undo history and visual credit survive a restart.
type Snapshot struct {
	ent.Schema
}

func (Snapshot) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Comment("Event sequence number at the time of snapshot"),
		field.Int64("timestamp").
			Comment("When the snapshot was taken, unix milliseconds"),
		field.JSON("data", map[string]any{}).
			Comment("Progress deltas, undo history and wallet as JSON"),
	}
}

func (Snapshot) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("timestamp"),
		index.Fields("sequence"),
	}
}
