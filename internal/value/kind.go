package value

import "fmt"

// Kind is a logical value kind.
type Kind uint8

const (
	Invalid Kind = iota
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Float32
	Float64
	Bool
	String
	Bytes
	Time
	// Custom is a user type implementing driver.Valuer / sql.Scanner.
	// Its storage class is carried by the Type.
	Custom
)

var kindNames = [...]string{
	Invalid: "invalid",
	Int:     "int",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint:    "uint",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
	String:  "string",
	Bytes:   "bytes",
	Time:    "time",
	Custom:  "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// StorageClass is an SQLite storage class.
type StorageClass string

const (
	StorageInteger StorageClass = "INTEGER"
	StorageReal    StorageClass = "REAL"
	StorageText    StorageClass = "TEXT"
	StorageBlob    StorageClass = "BLOB"
	StorageAny     StorageClass = "ANY"
)

// storageTable is the kind -> storage class decision table.
var storageTable = map[Kind]StorageClass{
	Int:     StorageInteger,
	Int8:    StorageInteger,
	Int16:   StorageInteger,
	Int32:   StorageInteger,
	Int64:   StorageInteger,
	Uint:    StorageInteger,
	Uint8:   StorageInteger,
	Uint16:  StorageInteger,
	Uint32:  StorageInteger,
	Float32: StorageReal,
	Float64: StorageReal,
	Bool:    StorageInteger,
	String:  StorageText,
	Bytes:   StorageBlob,
	Time:    StorageText,
}

// Storage returns the default storage class for k. Custom and Invalid kinds
// report StorageAny.
func (k Kind) Storage() StorageClass {
	if s, ok := storageTable[k]; ok {
		return s
	}
	return StorageAny
}

// ParseKind resolves a kind name as used in manifests. Aliases "integer",
// "text", "real", "double", "blob" and "boolean" are accepted.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "integer":
		return Int64, nil
	case "text":
		return String, nil
	case "real", "double", "float":
		return Float64, nil
	case "blob":
		return Bytes, nil
	case "boolean":
		return Bool, nil
	case "datetime", "timestamp":
		return Time, nil
	}
	for k, n := range kindNames {
		if n == name && Kind(k) != Invalid && Kind(k) != Custom {
			return Kind(k), nil
		}
	}
	return Invalid, fmt.Errorf("unknown value kind %q", name)
}
