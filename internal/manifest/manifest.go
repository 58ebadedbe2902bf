// Package manifest loads migrations written as YAML or CUE documents.
package manifest

// Manifest is a migration as written in a file.
type Manifest struct {
	ChangeSets []ChangeSet `json:"changesets" yaml:"changesets"`
}

// ChangeSet is one change-set entry.
type ChangeSet struct {
	ID        string   `json:"id" yaml:"id"`
	AlwaysRun bool     `json:"always_run,omitempty" yaml:"always_run,omitempty"`
	Changes   []Change `json:"changes" yaml:"changes"`
}

// Change holds exactly one of its fields.
type Change struct {
	CreateTable  *CreateTable  `json:"create_table,omitempty" yaml:"create_table,omitempty"`
	DropTable    *DropTable    `json:"drop_table,omitempty" yaml:"drop_table,omitempty"`
	RenameTable  *RenameTable  `json:"rename_table,omitempty" yaml:"rename_table,omitempty"`
	RenameColumn *RenameColumn `json:"rename_column,omitempty" yaml:"rename_column,omitempty"`
	AddColumn    *AddColumn    `json:"add_column,omitempty" yaml:"add_column,omitempty"`
	DropColumn   *DropColumn   `json:"drop_column,omitempty" yaml:"drop_column,omitempty"`
	CreateIndex  *CreateIndex  `json:"create_index,omitempty" yaml:"create_index,omitempty"`
	DropIndex    *DropIndex    `json:"drop_index,omitempty" yaml:"drop_index,omitempty"`
	SQL          string        `json:"sql,omitempty" yaml:"sql,omitempty"`
}

// Column declares a column.
type Column struct {
	Name          string     `json:"name" yaml:"name"`
	Type          string     `json:"type" yaml:"type"`
	Optional      bool       `json:"optional,omitempty" yaml:"optional,omitempty"`
	Storage       string     `json:"storage,omitempty" yaml:"storage,omitempty"`
	PrimaryKey    bool       `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Autoincrement bool       `json:"autoincrement,omitempty" yaml:"autoincrement,omitempty"`
	Unique        bool       `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default       string     `json:"default,omitempty" yaml:"default,omitempty"`
	Check         string     `json:"check,omitempty" yaml:"check,omitempty"`
	Collate       string     `json:"collate,omitempty" yaml:"collate,omitempty"`
	References    *Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

// Reference is a column-level foreign key.
type Reference struct {
	Table    string `json:"table" yaml:"table"`
	Column   string `json:"column,omitempty" yaml:"column,omitempty"`
	OnDelete string `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate string `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// ForeignKey is a table-level foreign key.
type ForeignKey struct {
	Columns    []string `json:"columns" yaml:"columns"`
	Table      string   `json:"table" yaml:"table"`
	RefColumns []string `json:"ref_columns,omitempty" yaml:"ref_columns,omitempty"`
	OnDelete   string   `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate   string   `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

type CreateTable struct {
	Name         string       `json:"name" yaml:"name"`
	Schema       string       `json:"schema,omitempty" yaml:"schema,omitempty"`
	IfNotExists  bool         `json:"if_not_exists,omitempty" yaml:"if_not_exists,omitempty"`
	Strict       bool         `json:"strict,omitempty" yaml:"strict,omitempty"`
	WithoutRowID bool         `json:"without_rowid,omitempty" yaml:"without_rowid,omitempty"`
	Columns      []Column     `json:"columns" yaml:"columns"`
	PrimaryKey   []string     `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique       [][]string   `json:"unique,omitempty" yaml:"unique,omitempty"`
	ForeignKeys  []ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Checks       []string     `json:"checks,omitempty" yaml:"checks,omitempty"`
}

type DropTable struct {
	Name     string `json:"name" yaml:"name"`
	IfExists bool   `json:"if_exists,omitempty" yaml:"if_exists,omitempty"`
}

type RenameTable struct {
	Table string `json:"table" yaml:"table"`
	To    string `json:"to" yaml:"to"`
}

type RenameColumn struct {
	Table string `json:"table" yaml:"table"`
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
}

type AddColumn struct {
	Table  string `json:"table" yaml:"table"`
	Column Column `json:"column" yaml:"column"`
}

type DropColumn struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

type CreateIndex struct {
	Name        string   `json:"name" yaml:"name"`
	Table       string   `json:"table" yaml:"table"`
	Columns     []string `json:"columns" yaml:"columns"`
	Unique      bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	IfNotExists bool     `json:"if_not_exists,omitempty" yaml:"if_not_exists,omitempty"`
	Where       string   `json:"where,omitempty" yaml:"where,omitempty"`
}

type DropIndex struct {
	Name     string `json:"name" yaml:"name"`
	IfExists bool   `json:"if_exists,omitempty" yaml:"if_exists,omitempty"`
}
