package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/strata/internal/store"
)

// MigrateFile migrates the database at path in place. A failure can leave
// the file partially migrated.
func MigrateFile(ctx context.Context, path string, m Migration, opts ...Option) ([]Step, error) {
	o := newOptions(opts)
	db, err := store.Open(path, o.storeOpts...)
	if err != nil {
		return nil, err
	}
	steps, err := m.Apply(ctx, db, opts...)
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	return steps, err
}

// MigrateFileUsingTemp copies the database at path to temp, migrates the
// copy and, if that succeeds, renames it over path. On failure path is
// untouched and temp is left for inspection.
func MigrateFileUsingTemp(ctx context.Context, path, temp string, m Migration, opts ...Option) ([]Step, error) {
	steps, err := migrateCopy(ctx, path, temp, m, opts)
	if err != nil {
		return steps, err
	}

	// A stale WAL next to path would be replayed into the new file.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := removeIfExists(path + suffix); err != nil {
			return steps, err
		}
	}
	if err := os.Rename(temp, path); err != nil {
		return steps, fmt.Errorf("replace %s: %w", path, err)
	}
	slog.Info("migrated database replaced", "path", path, "temp", temp)
	return steps, nil
}

// DryRun migrates a copy of the database at path in temp and never touches
// path. The copy is removed when the run succeeds and kept when it fails.
func DryRun(ctx context.Context, path, temp string, m Migration, opts ...Option) ([]Step, error) {
	steps, err := migrateCopy(ctx, path, temp, m, opts)
	if err != nil {
		return steps, err
	}
	return steps, removeIfExists(temp)
}

// migrateCopy writes a consistent copy of path to temp with VACUUM INTO and
// migrates it.
func migrateCopy(ctx context.Context, path, temp string, m Migration, opts []Option) ([]Step, error) {
	o := newOptions(opts)

	if err := removeIfExists(temp); err != nil {
		return nil, err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := removeIfExists(temp + suffix); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("copy %s: %w", path, err)
	}
	// No persistent pragmas: the source file must stay as it was.
	srcOpts := append(slices.Clone(o.storeOpts), store.WithPragmas("PRAGMA busy_timeout = 5000"))
	src, err := store.Open(path, srcOpts...)
	if err != nil {
		return nil, err
	}
	_, err = src.ExecContext(ctx, "VACUUM INTO ?", temp)
	if cerr := src.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("copy %s to %s: %w", path, temp, err)
	}

	return MigrateFile(ctx, temp, m, opts...)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
