package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SessionEvent records one step in the life of a study session.
type SessionEvent struct {
	ent.Schema
}

func (SessionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (SessionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("action").
			NotEmpty().
			Comment("open, close, flush, recover, undo, visual or failed"),
		field.String("session_id").
			Default("").
			Comment("Ledger session id; empty for visual credit"),
		field.String("subject_id").
			Default(""),
		field.Int("minutes").
			Default(0),
		field.Bool("skipped").
			Default(false),
		field.Int("coins").
			Default(0).
			Comment("Coins the ledger granted (close only)"),
		field.Int("xp").
			Default(0),
		field.String("detail").
			Default("").
			Comment("Error text for failed closes"),
	}
}

func (SessionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("action"),
	}
}
