// Package inspect reads the live schema of a database through atlas.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/roach88/strata/internal/store"
)

// Column is a live column.
type Column struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	Nullable   bool   `json:"nullable" yaml:"nullable"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
}

// Index is a live index. Expression parts are rendered as written.
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
}

// ForeignKey is a live foreign key.
type ForeignKey struct {
	Columns    []string `json:"columns" yaml:"columns"`
	RefTable   string   `json:"ref_table" yaml:"ref_table"`
	RefColumns []string `json:"ref_columns" yaml:"ref_columns"`
	OnDelete   string   `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate   string   `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// Table is a live table.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	PrimaryKey  []string     `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

// Column returns the column called name.
func (t Table) Column(name string) (Column, bool) {
	i := slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Tables inspects the named tables, or every table when names is empty,
// sorted by name. SQLite's internal tables are left out. The inspection
// runs as one store job.
func Tables(ctx context.Context, db *store.DB, names ...string) ([]Table, error) {
	var out []Table
	err := db.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		drv, err := sqlite.Open(conn)
		if err != nil {
			return fmt.Errorf("open atlas driver: %w", err)
		}
		s, err := drv.InspectSchema(ctx, "", &schema.InspectOptions{Tables: names})
		if err != nil {
			return fmt.Errorf("inspect schema: %w", err)
		}
		for _, t := range s.Tables {
			if strings.HasPrefix(t.Name, "sqlite_") {
				continue
			}
			out = append(out, convertTable(t))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b Table) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Lookup inspects a single table.
func Lookup(ctx context.Context, db *store.DB, name string) (Table, error) {
	tables, err := Tables(ctx, db, name)
	if err != nil {
		return Table{}, err
	}
	if len(tables) == 0 {
		return Table{}, fmt.Errorf("inspect: table %q does not exist", name)
	}
	return tables[0], nil
}

func convertTable(t *schema.Table) Table {
	out := Table{Name: t.Name}
	if t.PrimaryKey != nil {
		out.PrimaryKey = partNames(t.PrimaryKey.Parts)
	}
	for _, c := range t.Columns {
		col := Column{
			Name:       c.Name,
			Default:    exprString(c.Default),
			PrimaryKey: slices.Contains(out.PrimaryKey, c.Name),
		}
		if c.Type != nil {
			col.Type = c.Type.Raw
			col.Nullable = c.Type.Null
		}
		out.Columns = append(out.Columns, col)
	}
	for _, idx := range t.Indexes {
		out.Indexes = append(out.Indexes, Index{
			Name:    idx.Name,
			Unique:  idx.Unique,
			Columns: partNames(idx.Parts),
		})
	}
	for _, fk := range t.ForeignKeys {
		ref := ForeignKey{
			OnDelete: string(fk.OnDelete),
			OnUpdate: string(fk.OnUpdate),
		}
		for _, c := range fk.Columns {
			ref.Columns = append(ref.Columns, c.Name)
		}
		if fk.RefTable != nil {
			ref.RefTable = fk.RefTable.Name
		}
		for _, c := range fk.RefColumns {
			ref.RefColumns = append(ref.RefColumns, c.Name)
		}
		out.ForeignKeys = append(out.ForeignKeys, ref)
	}
	return out
}

func partNames(parts []*schema.IndexPart) []string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.C != nil:
			names = append(names, p.C.Name)
		case p.X != nil:
			names = append(names, exprString(p.X))
		}
	}
	return names
}

func exprString(x schema.Expr) string {
	switch x := x.(type) {
	case *schema.Literal:
		return x.V
	case *schema.RawExpr:
		return x.X
	default:
		return ""
	}
}
