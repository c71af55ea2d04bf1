package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// OpenSession is a ledger session that was opened and not yet committed.
// Rows are removed once the close or flush succeeds.
type OpenSession struct {
	ent.Schema
}

func (OpenSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Unique(),
		field.String("subject_id").
			NotEmpty(),
		field.Int64("started_at").
			Comment("Unix milliseconds"),
		field.Int("elapsed_secs").
			Default(0).
			Comment("Focus seconds measured so far"),
		field.Int64("updated_at").
			Comment("Unix milliseconds of the last touch"),
	}
}
