package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/value"
)

// Bookkeeping tables.
const (
	LogTable      = "__strata_migration_log"
	ChecksumTable = "__strata_migration_checksum"
)

var logTable = schema.NewTable(LogTable,
	schema.NewColumn("id", value.Text).PrimaryKey(),
	schema.NewColumn("order", value.Integer),
	schema.NewColumn("started_at", value.DateTime),
	schema.NewColumn("completed_at", value.DateTime),
).IfNotExists()

var checksumTable = schema.NewTable(ChecksumTable,
	schema.NewColumn("id", value.Text).PrimaryKey(),
	schema.NewColumn("checksum", value.Text),
).IfNotExists()

// LogEntry is one row of the migration log.
type LogEntry struct {
	ID          string    `json:"id" yaml:"id"`
	Order       int64     `json:"order" yaml:"order"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

func ensureLog(ctx context.Context, ex sqlbuild.Executor, verify bool) error {
	if err := logTable.Apply(ctx, ex); err != nil {
		return fmt.Errorf("ensure migration log: %w", err)
	}
	if verify {
		if err := checksumTable.Apply(ctx, ex); err != nil {
			return fmt.Errorf("ensure checksum table: %w", err)
		}
	}
	return nil
}

// tableExists reports whether name is a table in the main schema.
func tableExists(ctx context.Context, ex sqlbuild.Executor, name string) (bool, error) {
	found := false
	err := ex.Query(ctx, "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", []any{name},
		func(*sql.Rows) error {
			found = true
			return nil
		})
	return found, err
}

// ReadLog returns the migration log ordered by "order". A database that was
// never migrated has an empty log.
func ReadLog(ctx context.Context, ex sqlbuild.Executor) ([]LogEntry, error) {
	exists, err := tableExists(ctx, ex, LogTable)
	if err != nil {
		return nil, fmt.Errorf("read migration log: %w", err)
	}
	entries := []LogEntry{}
	if !exists {
		return entries, nil
	}

	q := fmt.Sprintf(`SELECT "id", "order", "started_at", "completed_at" FROM %s ORDER BY "order" ASC`,
		sqlbuild.Quote(LogTable))
	err = ex.Query(ctx, q, nil, func(rows *sql.Rows) error {
		var (
			e                  LogEntry
			started, completed string
		)
		if err := rows.Scan(&e.ID, &e.Order, &started, &completed); err != nil {
			return err
		}
		if e.StartedAt, err = parseTime(started); err != nil {
			return err
		}
		if e.CompletedAt, err = parseTime(completed); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read migration log: %w", err)
	}
	return entries, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(value.TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse log timestamp %q: %w", s, err)
	}
	return t, nil
}

func insertLog(ctx context.Context, ex sqlbuild.Executor, e LogEntry) error {
	b := sqlbuild.New("INSERT INTO", sqlbuild.Quote(LogTable),
		`("id", "order", "started_at", "completed_at") VALUES (`+sqlbuild.Placeholders(4)+")").
		Bind(sqlbuild.Values(e.ID, e.Order, value.FormatTime(e.StartedAt), value.FormatTime(e.CompletedAt)))
	if _, err := b.Execute(ctx, ex); err != nil {
		return fmt.Errorf("log change-set %q: %w", e.ID, err)
	}
	return nil
}

// readChecksums returns the recorded checksums by id.
func readChecksums(ctx context.Context, ex sqlbuild.Executor) (map[string]string, error) {
	sums := make(map[string]string)
	exists, err := tableExists(ctx, ex, ChecksumTable)
	if err != nil || !exists {
		return sums, err
	}
	q := fmt.Sprintf(`SELECT "id", "checksum" FROM %s`, sqlbuild.Quote(ChecksumTable))
	err = ex.Query(ctx, q, nil, func(rows *sql.Rows) error {
		var id, sum string
		if err := rows.Scan(&id, &sum); err != nil {
			return err
		}
		sums[id] = sum
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read checksums: %w", err)
	}
	return sums, nil
}

func writeChecksum(ctx context.Context, ex sqlbuild.Executor, id, sum string) error {
	b := sqlbuild.New("INSERT INTO", sqlbuild.Quote(ChecksumTable),
		`("id", "checksum") VALUES (?, ?)`,
		`ON CONFLICT ("id") DO UPDATE SET "checksum" = excluded."checksum"`).
		Bind(sqlbuild.Values(id, sum))
	if _, err := b.Execute(ctx, ex); err != nil {
		return fmt.Errorf("record checksum of %q: %w", id, err)
	}
	return nil
}
