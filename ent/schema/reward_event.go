package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RewardEvent records coins and xp granted to the wallet.
type RewardEvent struct {
	ent.Schema
}

func (RewardEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (RewardEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("kind").
			NotEmpty().
			Comment("session, level_up or milestone"),
		field.String("session_id").
			Default(""),
		field.Int("coins").
			Default(0),
		field.Int("xp").
			Default(0),
		field.Int("level").
			Default(0).
			Comment("Level reached (level_up and milestone only)"),
	}
}

func (RewardEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("kind"),
	}
}
