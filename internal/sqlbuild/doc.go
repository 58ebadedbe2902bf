// Package sqlbuild accumulates SQL text and parameter binders.
//
// A Builder collects tokens in order and joins them with single spaces when
// rendered; it never reformats or validates what it is given. Parameters are
// not values but Binders: closures that are handed a placeholder cursor and
// append exactly the values for the placeholders their fragment declared.
// Composing binders in accumulation order keeps argument order identical to
// the left-to-right placeholder order of the rendered text.
//
// Malformed SQL is only detected when the statement is executed.
package sqlbuild
