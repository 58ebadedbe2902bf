// Package schema models SQLite DDL as data.
//
// A Change is one unit of schema mutation: CreateTable, the AlterTable
// variants (RenameTable, RenameColumn, AddColumn, DropColumn), DropTable,
// CreateIndex, DropIndex, Execute, and ChangeSet, which groups other changes
// under an id. The set of variants is closed.
//
// Every Change is immutable. Builder methods have value receivers and copy
// any slice they extend, so a partially built change can be shared and
// extended in different directions safely.
//
// Each change can
//
//   - Append its SQL to a sqlbuild.Builder, quoting every identifier,
//   - Validate itself without touching a database, and
//   - Apply itself by executing the rendered statement. Apply never opens a
//     transaction of its own.
package schema
