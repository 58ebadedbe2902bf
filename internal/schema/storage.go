package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/strata/internal/validate"
	"github.com/roach88/strata/internal/value"
)

type storageKind int

const (
	storageInteger storageKind = iota + 1
	storageReal
	storageDouble
	storageText
	storageBlob
	storageAny
	storageVarchar
	storageDecimal
	storageUnsafe
)

// StorageType is the declared SQL type of a column.
type StorageType struct {
	kind      storageKind
	length    int
	precision int
	scale     int
	raw       string
}

// Integer is INTEGER.
func Integer() StorageType { return StorageType{kind: storageInteger} }

// Real is REAL.
func Real() StorageType { return StorageType{kind: storageReal} }

// Double is DOUBLE.
func Double() StorageType { return StorageType{kind: storageDouble} }

// Text is TEXT.
func Text() StorageType { return StorageType{kind: storageText} }

// Blob is BLOB.
func Blob() StorageType { return StorageType{kind: storageBlob} }

// Any is ANY, meaningful in STRICT tables.
func Any() StorageType { return StorageType{kind: storageAny} }

// Varchar is VARCHAR(length).
func Varchar(length int) StorageType {
	return StorageType{kind: storageVarchar, length: length}
}

// Decimal is DECIMAL(precision, scale).
func Decimal(precision, scale int) StorageType {
	return StorageType{kind: storageDecimal, precision: precision, scale: scale}
}

// Unsafe splices raw into the column definition verbatim. It is not
// checked.
func Unsafe(raw string) StorageType {
	return StorageType{kind: storageUnsafe, raw: raw}
}

// DefaultStorage maps a logical type to its default storage type.
func DefaultStorage(t value.Type) StorageType {
	switch t.Storage() {
	case value.StorageInteger:
		return Integer()
	case value.StorageReal:
		return Real()
	case value.StorageText:
		return Text()
	case value.StorageBlob:
		return Blob()
	default:
		return Any()
	}
}

// SQL renders the type name.
func (s StorageType) SQL() string {
	switch s.kind {
	case storageInteger:
		return "INTEGER"
	case storageReal:
		return "REAL"
	case storageDouble:
		return "DOUBLE"
	case storageText:
		return "TEXT"
	case storageBlob:
		return "BLOB"
	case storageAny:
		return "ANY"
	case storageVarchar:
		return fmt.Sprintf("VARCHAR(%d)", s.length)
	case storageDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", s.precision, s.scale)
	case storageUnsafe:
		return s.raw
	}
	return ""
}

func (s StorageType) String() string {
	return s.SQL()
}

// IsZero reports whether no storage type was set.
func (s StorageType) IsZero() bool {
	return s.kind == 0
}

// IsInteger reports whether the type is exactly INTEGER, the only type that
// makes a primary key a rowid alias and permits AUTOINCREMENT.
func (s StorageType) IsInteger() bool {
	return strings.EqualFold(strings.TrimSpace(s.SQL()), "INTEGER")
}

// strictTypes are the type names STRICT tables accept.
var strictTypes = map[string]bool{
	"INT":     true,
	"INTEGER": true,
	"REAL":    true,
	"TEXT":    true,
	"BLOB":    true,
	"ANY":     true,
}

// StrictAllowed reports whether a STRICT table accepts the type.
func (s StorageType) StrictAllowed() bool {
	return strictTypes[strings.ToUpper(strings.TrimSpace(s.SQL()))]
}

func (s StorageType) validate(v validate.Validation) {
	switch s.kind {
	case storageVarchar:
		if s.length <= 0 {
			v.Error(validate.InvalidVarcharLength, validate.InfoStorage, s.SQL())
		}
	case storageDecimal:
		if s.precision <= 0 || s.scale < 0 || s.scale > s.precision {
			v.Error(validate.InvalidDecimalPrecise, validate.InfoStorage, s.SQL())
		}
	case storageUnsafe:
		if strings.TrimSpace(s.raw) == "" {
			v.Error(validate.EmptyStorageType)
		}
	}
}

var (
	varcharPattern = regexp.MustCompile(`^(?i)varchar\s*\(\s*(\d+)\s*\)$`)
	decimalPattern = regexp.MustCompile(`^(?i)decimal\s*\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)
)

// ParseStorage reads a storage type name as written in manifests. Names it
// does not recognise become Unsafe.
func ParseStorage(name string) StorageType {
	trimmed := strings.TrimSpace(name)
	switch strings.ToLower(trimmed) {
	case "integer":
		return Integer()
	case "real":
		return Real()
	case "double":
		return Double()
	case "text":
		return Text()
	case "blob":
		return Blob()
	case "any":
		return Any()
	}
	if m := varcharPattern.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Varchar(n)
	}
	if m := decimalPattern.FindStringSubmatch(trimmed); m != nil {
		p, _ := strconv.Atoi(m[1])
		s, _ := strconv.Atoi(m[2])
		return Decimal(p, s)
	}
	return Unsafe(trimmed)
}
