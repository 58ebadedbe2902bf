// Package migrate applies ordered change-sets to a database and records
// them in a log table.
//
// A run reconciles the declared change-sets against the log before touching
// the schema: logged ids must match the declared sequence position by
// position. Matching entries are skipped, the remainder applied and logged
// in order. Any divergence aborts the run with a *Error.
//
// Change-sets marked AlwaysRun are applied on every run and never logged.
package migrate
