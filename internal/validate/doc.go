// Package validate is the static check pass over schema change trees.
//
// Validation never executes SQL and never stops early: every issue found is
// recorded as a Diagnostic and traversal continues. A Validation carries the
// structural path to the node being checked; With returns a new Validation
// one component deeper and never touches the receiver's path, so siblings
// can be validated from the same parent value.
//
// A clean result does not guarantee the changes will apply: constraints that
// only the engine can check (existing data, names already taken) surface at
// execution time.
package validate
