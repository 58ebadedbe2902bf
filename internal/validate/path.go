package validate

import (
	"fmt"
	"strings"
)

// ComponentKind names the structural level of a path component.
type ComponentKind string

const (
	KindMigration  ComponentKind = "migration"
	KindChangeSet  ComponentKind = "changeset"
	KindTable      ComponentKind = "table"
	KindIndex      ComponentKind = "index"
	KindOperation  ComponentKind = "operation"
	KindColumn     ComponentKind = "column"
	KindConstraint ComponentKind = "constraint"
)

// Component is one step of a validation path. Detail carries the operation
// kind for KindOperation and the constraint type for KindConstraint.
type Component struct {
	Kind   ComponentKind `json:"kind" yaml:"kind"`
	Name   string        `json:"name,omitempty" yaml:"name,omitempty"`
	Detail string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String renders the component for humans.
func (c Component) String() string {
	switch {
	case c.Name != "" && c.Detail != "":
		return fmt.Sprintf("%s %q (%s)", c.Kind, c.Name, c.Detail)
	case c.Name != "":
		return fmt.Sprintf("%s %q", c.Kind, c.Name)
	case c.Detail != "":
		return fmt.Sprintf("%s %s", c.Kind, c.Detail)
	}
	return string(c.Kind)
}

// Migration returns the migration root component.
func Migration() Component {
	return Component{Kind: KindMigration}
}

// ChangeSet returns a change-set component.
func ChangeSet(id string) Component {
	return Component{Kind: KindChangeSet, Name: id}
}

// Table returns a table component.
func Table(name string) Component {
	return Component{Kind: KindTable, Name: name}
}

// Index returns an index component.
func Index(name string) Component {
	return Component{Kind: KindIndex, Name: name}
}

// Column returns a column component.
func Column(name string) Component {
	return Component{Kind: KindColumn, Name: name}
}

// Operation returns an alter-table operation component.
func Operation(kind string) Component {
	return Component{Kind: KindOperation, Detail: kind}
}

// Constraint returns a constraint component. name may be empty.
func Constraint(name, typ string) Component {
	return Component{Kind: KindConstraint, Name: name, Detail: typ}
}

// Path is an ordered list of components, outermost first.
type Path []Component

// String joins the components with " > ".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, " > ")
}
