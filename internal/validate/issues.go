package validate

// Issue is a coded diagnostic message.
type Issue struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Issue codes.
//
// V1xx names, V2xx columns, V3xx constraints, V4xx tables and indexes,
// V5xx migrations and change-sets.
var (
	// Names (V101-V199)
	EmptyTableName      = Issue{"V101", "table name is empty"}
	EmptySchemaName     = Issue{"V102", "schema name is empty"}
	EmptyColumnName     = Issue{"V103", "column name is empty"}
	EmptyConstraintName = Issue{"V104", "constraint name is empty"}
	EmptyChangeSetID    = Issue{"V105", "change-set id is empty"}
	EmptyIndexName      = Issue{"V106", "index name is empty"}
	EmptyReferenceTable = Issue{"V107", "referenced table name is empty"}
	EmptyNewName        = Issue{"V108", "new name is empty"}
	ReservedTableName   = Issue{"V109", "table name uses the reserved sqlite_ prefix"}

	// Columns (V201-V299)
	DuplicateColumn       = Issue{"V201", "column declared more than once"}
	NotNullOnOptional     = Issue{"V202", "NOT NULL contradicts optional value type"}
	NullableNonOptional   = Issue{"V203", "non-optional value type declared nullable"}
	EmptyStorageType      = Issue{"V204", "unsafe storage type is empty"}
	InvalidVarcharLength  = Issue{"V205", "varchar length must be positive"}
	InvalidDecimalPrecise = Issue{"V206", "decimal precision must be positive and not less than scale"}
	RenameToSameName      = Issue{"V207", "rename target equals the current name"}

	// Constraints (V301-V399)
	UnknownColumn             = Issue{"V301", "constraint references an undeclared column"}
	ForeignKeyCountMismatch   = Issue{"V302", "foreign key column count does not match referenced column count"}
	EmptyKeyColumns           = Issue{"V303", "constraint has no columns"}
	AutoincrementNonInteger   = Issue{"V304", "AUTOINCREMENT on non-INTEGER storage type"}
	EmptyCheckExpression      = Issue{"V306", "CHECK expression is empty"}
	EmptyDefaultExpression    = Issue{"V307", "DEFAULT expression is empty"}
	DuplicateKeyColumn        = Issue{"V308", "column listed more than once in constraint"}
	AddColumnPrimaryKey       = Issue{"V309", "ADD COLUMN cannot add a PRIMARY KEY column"}
	AddColumnUnique           = Issue{"V310", "ADD COLUMN cannot add a UNIQUE column"}
	AddColumnNotNullNoDefault = Issue{"V311", "ADD COLUMN with NOT NULL requires a non-NULL default"}
	EmptyCollation            = Issue{"V312", "collation name is empty"}

	// Tables and indexes (V401-V499)
	NoColumns                = Issue{"V401", "table has no columns"}
	MultiplePrimaryKeys      = Issue{"V402", "table has more than one primary key"}
	WithoutRowIDNoPrimaryKey = Issue{"V403", "WITHOUT ROWID table has no primary key"}
	StrictStorageType        = Issue{"V404", "storage type not allowed in STRICT table"}
	AutoincrementWithoutRow  = Issue{"V405", "AUTOINCREMENT not allowed on WITHOUT ROWID table"}
	TemporaryInSchema        = Issue{"V406", "temporary table cannot be created in a named schema"}
	IndexNoColumns           = Issue{"V407", "index has no columns"}

	// Migrations (V501-V599)
	DuplicateChangeSetID = Issue{"V501", "change-set id declared more than once"}
	EmptyChangeSet       = Issue{"V502", "change-set has no changes"}
	EmptyMigration       = Issue{"V503", "migration has no change-sets"}
	ReservedLogTable     = Issue{"V504", "change touches the migration log table"}
)

// Info keys.
const (
	InfoColumnIndex     = "column index"
	InfoConstraintIndex = "constraint index"
	InfoChangeIndex     = "change index"
	InfoColumn          = "column"
	InfoStorage         = "storage"
	InfoID              = "id"
	InfoFirstIndex      = "first index"
)
