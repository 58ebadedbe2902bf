package value

// Type is a logical column type.
type Type struct {
	Kind     Kind
	Optional bool

	// custom is the storage class of a Custom kind.
	custom StorageClass
}

// Of returns the non-optional type of kind k.
func Of(k Kind) Type {
	return Type{Kind: k}
}

// Optional returns the optional type of kind k.
func Optional(k Kind) Type {
	return Type{Kind: k, Optional: true}
}

// CustomType returns a user type stored with the given storage class.
func CustomType(storage StorageClass) Type {
	return Type{Kind: Custom, custom: storage}
}

// Nullable returns a copy of t marked optional.
func (t Type) Nullable() Type {
	t.Optional = true
	return t
}

// Required returns a copy of t marked non-optional.
func (t Type) Required() Type {
	t.Optional = false
	return t
}

// Storage returns the default storage class of t.
func (t Type) Storage() StorageClass {
	if t.Kind == Custom && t.custom != "" {
		return t.custom
	}
	return t.Kind.Storage()
}

func (t Type) String() string {
	if t.Optional {
		return "optional " + t.Kind.String()
	}
	return t.Kind.String()
}

// Common types.
var (
	Integer  = Of(Int64)
	Real     = Of(Float64)
	Text     = Of(String)
	Blob     = Of(Bytes)
	Boolean  = Of(Bool)
	DateTime = Of(Time)
)
