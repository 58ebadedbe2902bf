// Package value is the scalar marshalling contract shared by DDL generation
// and the typed query layer.
//
// A logical Type is a Kind plus an optionality flag. Kinds map to SQLite
// storage classes through a fixed decision table (see Kind.Storage); there is
// no runtime type introspection for storage inference. Bind normalises Go
// values into driver arguments, Assign decodes driver values back into typed
// destinations, and Literal renders a value as inline SQL.
package value
