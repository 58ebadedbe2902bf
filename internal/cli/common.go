package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/config"
	"github.com/roach88/strata/internal/manifest"
	"github.com/roach88/strata/internal/migrate"
	"github.com/roach88/strata/internal/store"
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeNotFound  = "E002" // Manifest or database path not found
	ErrCodeManifest  = "E003" // Manifest could not be parsed or converted
	ErrCodeConfig    = "E004" // Configuration error
	ErrCodeDatabase  = "E005" // Database could not be opened or read
	ErrCodeInvalid   = "E006" // Manifest failed validation
	ErrCodeMigrate   = "E007" // Migration failed
	ErrCodeChecksum  = "E008" // Applied change-set was edited
	ErrCodeLogDrift  = "E009" // Migration log disagrees with the manifest order
	ErrCodeNoTable   = "E010" // Inspected table does not exist
	ErrCodeMigration = "E011" // Manifest declares a change-set twice
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// fail writes an error response and returns the matching ExitError.
func fail(f *OutputFormatter, exit int, code, message string, err error, details any) error {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	if werr := f.Error(code, msg, details); werr != nil {
		return werr
	}
	return WrapExitError(exit, code+": "+message, err)
}

// addDatabaseFlags registers the connection flags bound by config.Load.
func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "SQLite database path")
	cmd.Flags().String("driver", "", "database/sql driver (sqlite3|sqlite)")
	cmd.Flags().String("journal-mode", "", "journal mode pragma")
	cmd.Flags().Duration("busy-timeout", 0, "busy timeout")
	cmd.Flags().Bool("foreign-keys", true, "enforce foreign keys")
}

// loadConfig resolves settings for cmd from defaults, strata.yaml, the
// environment and cmd's flags.
func loadConfig(f *OutputFormatter, opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, path, err := config.Load(opts.Config, cmd.Flags())
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeConfig, "loading config", err, nil)
	}
	if path != "" {
		f.VerboseLog("Using config %s", path)
		slog.Debug("config loaded", "path", path)
	}
	return cfg, nil
}

// requireDatabase checks that a database path is configured and, when
// mustExist is set, that the file exists.
func requireDatabase(f *OutputFormatter, cfg *config.Config, mustExist bool) error {
	if cfg.Database == "" {
		return fail(f, ExitCommandError, ErrCodeConfig,
			"no database: pass --db or set database in strata.yaml", nil, nil)
	}
	if !mustExist {
		return nil
	}
	if _, err := os.Stat(cfg.Database); errors.Is(err, fs.ErrNotExist) {
		return fail(f, ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("database not found: %s", cfg.Database), nil, nil)
	}
	return nil
}

func openDatabase(f *OutputFormatter, cfg *config.Config) (*store.DB, error) {
	db, err := store.Open(cfg.Database, cfg.StoreOptions()...)
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeDatabase, "opening database", err, nil)
	}
	return db, nil
}

// loadMigration reads the manifest at path and converts it.
func loadMigration(f *OutputFormatter, path string) (migrate.Migration, error) {
	f.VerboseLog("Loading manifest %s", path)

	m, err := manifest.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return migrate.Migration{}, fail(f, ExitCommandError, ErrCodeNotFound,
				fmt.Sprintf("manifest not found: %s", path), nil, nil)
		}
		return migrate.Migration{}, fail(f, ExitCommandError, ErrCodeManifest, "loading manifest", err, nil)
	}

	mig, err := m.Migration()
	if err != nil {
		var merr *manifest.Error
		if errors.As(err, &merr) {
			return migrate.Migration{}, fail(f, ExitCommandError, ErrCodeManifest, "converting manifest", err,
				map[string]string{"path": merr.Path})
		}
		return migrate.Migration{}, fail(f, ExitCommandError, ErrCodeManifest, "converting manifest", err, nil)
	}
	f.VerboseLog("Loaded %d change-set(s)", len(mig.ChangeSets()))
	return mig, nil
}

// migrationCode maps migrate errors onto response codes.
func migrationCode(err error) (string, map[string]string) {
	var merr *migrate.Error
	if !errors.As(err, &merr) {
		return ErrCodeMigrate, nil
	}
	switch merr.Code {
	case migrate.ErrCodeChecksumMismatch:
		return ErrCodeChecksum, merr.Details
	case migrate.ErrCodeOrderMismatch, migrate.ErrCodeExtraLogEntries:
		return ErrCodeLogDrift, merr.Details
	case migrate.ErrCodeDuplicateChangeSet:
		return ErrCodeMigration, merr.Details
	}
	return ErrCodeMigrate, merr.Details
}

func migrationFailure(f *OutputFormatter, message string, err error) error {
	code, details := migrationCode(err)
	return fail(f, ExitFailure, code, message, err, details)
}

// formatTime renders t in RFC 3339, or the empty string for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
