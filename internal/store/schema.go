package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/abhisek/focuscycle/ent/schema"
)

// Table names.
const (
	tableOpenSessions  = "open_sessions"
	tableSessionEvents = "session_events"
	tableRewardEvents  = "reward_events"
	tableSnapshots     = "snapshots"
)

// tables lists every table and the ent schema describing its columns.
// Timestamps are stored as unix milliseconds.
var tables = []struct {
	name   string
	schema ent.Interface
}{
	{tableOpenSessions, schema.OpenSession{}},
	{tableSessionEvents, schema.SessionEvent{}},
	{tableRewardEvents, schema.RewardEvent{}},
	{tableSnapshots, schema.Snapshot{}},
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	defs, err := schemaTables()
	if err != nil {
		return err
	}
	m, err := entschema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, defs...)
}

func schemaTables() ([]*entschema.Table, error) {
	defs := make([]*entschema.Table, 0, len(tables))
	for _, t := range tables {
		def, err := table(t.name, t.schema)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// table describes one schema as a migration table. Every table gets an
// autoincrement id; mixin fields come first. Indexes are named
// <table>_<fields>.
func table(name string, s ent.Interface) (*entschema.Table, error) {
	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	t := entschema.NewTable(name).
		AddPrimary(&entschema.Column{Name: "id", Type: field.TypeInt, Increment: true})
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", name, d.Name, d.Err)
		}
		col, err := column(d)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", name, d.Name, err)
		}
		t.AddColumn(col)
	}
	for _, idx := range indexes {
		d := idx.Descriptor()
		for _, f := range d.Fields {
			if !t.HasColumn(f) {
				return nil, fmt.Errorf("index on %s: unknown column %s", name, f)
			}
		}
		t.AddIndex(name+"_"+strings.Join(d.Fields, "_"), d.Unique, d.Fields)
	}
	return t, nil
}

func column(d *field.Descriptor) (*entschema.Column, error) {
	switch d.Info.Type {
	case field.TypeString, field.TypeJSON, field.TypeInt, field.TypeInt64, field.TypeBool, field.TypeFloat64:
	default:
		return nil, fmt.Errorf("unsupported column type %s", d.Info.Type)
	}
	col := &entschema.Column{
		Name:     d.Name,
		Type:     d.Info.Type,
		Unique:   d.Unique,
		Nullable: d.Optional,
	}
	if d.Default != nil {
		switch d.Default.(type) {
		case string, bool, int, int64, float64:
			col.Default = d.Default
		default:
			return nil, fmt.Errorf("unsupported default %T", d.Default)
		}
	}
	return col, nil
}

// builder returns a SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// exec runs a built statement.
func exec(ctx context.Context, drv *entsql.Driver, query string, args []any) (sql.Result, error) {
	var res sql.Result
	if err := drv.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// query runs a built select and hands every row to scan.
func query(ctx context.Context, drv *entsql.Driver, q string, args []any, scan func(*entsql.Rows) error) error {
	var rows entsql.Rows
	if err := drv.Query(ctx, q, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
