package migrate

import (
	"slices"
	"strings"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/validate"
)

// Migration is an ordered list of change-sets.
type Migration struct {
	changeSets []schema.ChangeSet
}

// New returns a migration applying sets in order.
func New(sets ...schema.ChangeSet) Migration {
	return Migration{changeSets: slices.Clone(sets)}
}

// ChangeSets returns the change-sets in declaration order.
func (m Migration) ChangeSets() []schema.ChangeSet {
	return slices.Clone(m.changeSets)
}

// Add appends change-sets.
func (m Migration) Add(sets ...schema.ChangeSet) Migration {
	m.changeSets = append(slices.Clone(m.changeSets), sets...)
	return m
}

// checkUnique returns an ErrCodeDuplicateChangeSet error for the first
// repeated id.
func (m Migration) checkUnique() error {
	seen := make(map[string]int, len(m.changeSets))
	for i, cs := range m.changeSets {
		if first, ok := seen[cs.ID()]; ok {
			return newError(ErrCodeDuplicateChangeSet, map[string]string{
				"id":          cs.ID(),
				"first_index": validate.Position(first),
				"index":       validate.Position(i),
			}, "change-set %q declared at positions %d and %d", cs.ID(), first, i)
		}
		seen[cs.ID()] = i
	}
	return nil
}

// Validate checks every change-set plus the migration-level rules: at
// least one change-set, unique ids, and no change touching the bookkeeping
// tables.
func (m Migration) Validate(v validate.Validation) {
	v = v.With(validate.Migration())
	if len(m.changeSets) == 0 {
		v.Warning(validate.EmptyMigration)
	}

	seen := make(map[string]int, len(m.changeSets))
	for i, cs := range m.changeSets {
		if first, ok := seen[cs.ID()]; ok {
			v.With(validate.ChangeSet(cs.ID())).Error(validate.DuplicateChangeSetID,
				validate.InfoID, cs.ID(),
				validate.InfoFirstIndex, validate.Position(first))
		} else {
			seen[cs.ID()] = i
		}

		cs.Validate(v)
		checkReserved(v.With(validate.ChangeSet(cs.ID())), cs)
	}
}

// checkReserved reports changes that name LogTable or ChecksumTable.
func checkReserved(v validate.Validation, cs schema.ChangeSet) {
	for i, ch := range cs.Changes() {
		if nested, ok := ch.(schema.ChangeSet); ok {
			checkReserved(v.With(validate.ChangeSet(nested.ID())), nested)
			continue
		}
		for _, name := range tablesOf(ch) {
			if reserved(name) {
				v.Error(validate.ReservedLogTable,
					validate.InfoChangeIndex, validate.Position(i),
					"table", name)
				break
			}
		}
	}
}

func reserved(name string) bool {
	return strings.EqualFold(name, LogTable) || strings.EqualFold(name, ChecksumTable)
}

// tablesOf returns the table names a change names.
func tablesOf(ch schema.Change) []string {
	switch c := ch.(type) {
	case schema.CreateTable:
		return []string{c.Name()}
	case schema.DropTable:
		return []string{c.Name()}
	case schema.RenameTable:
		return []string{c.Base().Table(), c.To()}
	case schema.RenameColumn:
		return []string{c.Base().Table()}
	case schema.AddColumn:
		return []string{c.Base().Table()}
	case schema.DropColumn:
		return []string{c.Base().Table()}
	case schema.CreateIndex:
		return []string{c.Table()}
	}
	return nil
}
