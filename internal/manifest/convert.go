package manifest

import (
	"fmt"
	"strings"

	"github.com/roach88/strata/internal/migrate"
	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/value"
)

// Error is a manifest entry that does not describe a change.
type Error struct {
	Path    string
	Message string
}

// Error returns the error string.
func (e *Error) Error() string {
	return e.Path + ": " + e.Message
}

func errorf(path, format string, args ...any) error {
	return &Error{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Migration converts the manifest. Conversion checks only shape; run
// migrate.Migration.Validate for diagnostics.
func (m *Manifest) Migration() (migrate.Migration, error) {
	sets := make([]schema.ChangeSet, 0, len(m.ChangeSets))
	for i, cs := range m.ChangeSets {
		path := fmt.Sprintf("changesets[%d]", i)
		set := schema.NewChangeSet(cs.ID)
		for j, ch := range cs.Changes {
			c, err := ch.change(fmt.Sprintf("%s.changes[%d]", path, j))
			if err != nil {
				return migrate.Migration{}, err
			}
			set = set.Add(c)
		}
		if cs.AlwaysRun {
			set = set.AlwaysRun()
		}
		sets = append(sets, set)
	}
	return migrate.New(sets...), nil
}

func (c Change) ops() []string {
	var ops []string
	add := func(set bool, name string) {
		if set {
			ops = append(ops, name)
		}
	}
	add(c.CreateTable != nil, "create_table")
	add(c.DropTable != nil, "drop_table")
	add(c.RenameTable != nil, "rename_table")
	add(c.RenameColumn != nil, "rename_column")
	add(c.AddColumn != nil, "add_column")
	add(c.DropColumn != nil, "drop_column")
	add(c.CreateIndex != nil, "create_index")
	add(c.DropIndex != nil, "drop_index")
	add(c.SQL != "", "sql")
	return ops
}

func (c Change) change(path string) (schema.Change, error) {
	switch ops := c.ops(); len(ops) {
	case 0:
		return nil, errorf(path, "no operation")
	case 1:
	default:
		return nil, errorf(path, "more than one operation (%s)", strings.Join(ops, ", "))
	}

	switch {
	case c.CreateTable != nil:
		return c.CreateTable.change(path + ".create_table")
	case c.DropTable != nil:
		d := schema.Drop(c.DropTable.Name)
		if c.DropTable.IfExists {
			d = d.IfExists()
		}
		return d, nil
	case c.RenameTable != nil:
		return schema.Alter(c.RenameTable.Table).RenameTo(c.RenameTable.To), nil
	case c.RenameColumn != nil:
		r := c.RenameColumn
		return schema.Alter(r.Table).RenameColumn(r.From, r.To), nil
	case c.AddColumn != nil:
		col, err := c.AddColumn.Column.column(path + ".add_column.column")
		if err != nil {
			return nil, err
		}
		return schema.Alter(c.AddColumn.Table).AddColumn(col), nil
	case c.DropColumn != nil:
		return schema.Alter(c.DropColumn.Table).DropColumn(c.DropColumn.Column), nil
	case c.CreateIndex != nil:
		ci := c.CreateIndex
		idx := schema.NewIndex(ci.Name, ci.Table, ci.Columns...)
		if ci.Unique {
			idx = idx.Unique()
		}
		if ci.IfNotExists {
			idx = idx.IfNotExists()
		}
		if ci.Where != "" {
			idx = idx.Where(ci.Where)
		}
		return idx, nil
	case c.DropIndex != nil:
		d := schema.DropIndexNamed(c.DropIndex.Name)
		if c.DropIndex.IfExists {
			d = d.IfExists()
		}
		return d, nil
	default:
		return schema.ExecuteSQL(c.SQL), nil
	}
}

func (t *CreateTable) change(path string) (schema.Change, error) {
	cols := make([]schema.Column, len(t.Columns))
	for i, c := range t.Columns {
		col, err := c.column(fmt.Sprintf("%s.columns[%d]", path, i))
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	ct := schema.NewTable(t.Name, cols...)
	if t.Schema != "" {
		ct = ct.InSchema(t.Schema)
	}
	if t.IfNotExists {
		ct = ct.IfNotExists()
	}
	if t.Strict {
		ct = ct.Strict()
	}
	if t.WithoutRowID {
		ct = ct.WithoutRowID()
	}
	if len(t.PrimaryKey) > 0 {
		ct = ct.Constraint(schema.TablePrimaryKey{Columns: t.PrimaryKey})
	}
	for _, u := range t.Unique {
		ct = ct.Constraint(schema.TableUnique{Columns: u})
	}
	for i, fk := range t.ForeignKeys {
		p := fmt.Sprintf("%s.foreign_keys[%d]", path, i)
		onDelete, err := parseAction(p+".on_delete", fk.OnDelete)
		if err != nil {
			return nil, err
		}
		onUpdate, err := parseAction(p+".on_update", fk.OnUpdate)
		if err != nil {
			return nil, err
		}
		ct = ct.Constraint(schema.TableForeignKey{
			Columns:    fk.Columns,
			Table:      fk.Table,
			RefColumns: fk.RefColumns,
			OnDelete:   onDelete,
			OnUpdate:   onUpdate,
		})
	}
	for _, expr := range t.Checks {
		ct = ct.Constraint(schema.TableCheck{Expr: expr})
	}
	return ct, nil
}

func (c Column) column(path string) (schema.Column, error) {
	kind, err := value.ParseKind(strings.ToLower(strings.TrimSpace(c.Type)))
	if err != nil {
		return schema.Column{}, errorf(path+".type", "%v", err)
	}
	t := value.Of(kind)
	if c.Optional {
		t = t.Nullable()
	}

	col := schema.NewColumn(c.Name, t)
	if c.Storage != "" {
		col = col.As(schema.ParseStorage(c.Storage))
	}
	if c.PrimaryKey {
		col = col.PrimaryKey()
	}
	if c.Autoincrement {
		col = col.Autoincrement()
	}
	if c.Unique {
		col = col.Unique()
	}
	if c.Default != "" {
		col = col.Default(c.Default)
	}
	if c.Check != "" {
		col = col.Check(c.Check)
	}
	if c.Collate != "" {
		col = col.Collate(c.Collate)
	}
	if r := c.References; r != nil {
		onDelete, err := parseAction(path+".references.on_delete", r.OnDelete)
		if err != nil {
			return schema.Column{}, err
		}
		onUpdate, err := parseAction(path+".references.on_update", r.OnUpdate)
		if err != nil {
			return schema.Column{}, err
		}
		col = col.With(schema.References{Table: r.Table, Column: r.Column, OnDelete: onDelete, OnUpdate: onUpdate})
	}
	return col, nil
}

// parseAction accepts "cascade", "set null", "set_null", "SET NULL" and
// so on.
func parseAction(path, s string) (schema.Action, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
	switch a := schema.Action(norm); a {
	case schema.ActionDefault, schema.NoAction, schema.Restrict, schema.SetNull, schema.SetDefault, schema.Cascade:
		return a, nil
	}
	return schema.ActionDefault, errorf(path, "unknown action %q", s)
}
