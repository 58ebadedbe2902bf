package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/migrate"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	Temp            string
	DryRun          bool
	VerifyChecksums bool
	Atomic          bool
	ShowSQL         bool
}

// MigrateResult is the structured output of migrate.
type MigrateResult struct {
	Database string         `json:"database" yaml:"database"`
	Mode     string         `json:"mode" yaml:"mode"`
	Steps    []migrate.Step `json:"steps" yaml:"steps"`
	Applied  int            `json:"applied" yaml:"applied"`
	Skipped  int            `json:"skipped" yaml:"skipped"`
}

// Migration modes.
const (
	ModeInPlace = "in-place"
	ModeTemp    = "temp"
	ModeDryRun  = "dry-run"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate <manifest>",
		Short: "Apply a manifest to a database",
		Long: `Apply every change-set of a manifest that the database has not seen yet,
in declaration order, recording each in the migration log.

With --temp the database is copied, the copy migrated and then renamed over
the original, so a failure leaves the original untouched. --dry-run migrates
a scratch copy and discards it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, opts, args[0], cmd)
		},
	}

	addDatabaseFlags(cmd)
	cmd.Flags().StringVar(&opts.Temp, "temp", "", "migrate a copy at this path, then replace the database")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "migrate a scratch copy and discard it")
	cmd.Flags().BoolVar(&opts.VerifyChecksums, "verify-checksums", false, "fail if an applied change-set was edited")
	cmd.Flags().BoolVar(&opts.Atomic, "atomic", false, "run each change-set in its own transaction")
	cmd.Flags().BoolVar(&opts.ShowSQL, "show-sql", false, "print every statement to stderr")

	return cmd
}

func runMigrate(rootOpts *RootOptions, opts *MigrateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	mig, err := loadMigration(formatter, path)
	if err != nil {
		return err
	}
	if err := checkMigration(formatter, mig); err != nil {
		return err
	}

	cfg, err := loadConfig(formatter, rootOpts, cmd)
	if err != nil {
		return err
	}
	if err := requireDatabase(formatter, cfg, opts.DryRun || opts.Temp != ""); err != nil {
		return err
	}

	migOpts := []migrate.Option{migrate.WithStoreOptions(cfg.StoreOptions()...)}
	if opts.VerifyChecksums {
		migOpts = append(migOpts, migrate.WithChecksumVerification())
	}
	if opts.Atomic {
		migOpts = append(migOpts, migrate.WithChangeSetTransactions())
	}
	if opts.ShowSQL {
		migOpts = append(migOpts, migrate.WithStatementLog(cmd.ErrOrStderr()))
	}

	ctx := cmd.Context()
	result := MigrateResult{Database: cfg.Database}
	var steps []migrate.Step
	switch {
	case opts.DryRun:
		temp := opts.Temp
		if temp == "" {
			temp = cfg.Database + ".dry-run"
		}
		result.Mode = ModeDryRun
		formatter.VerboseLog("Dry run in %s", temp)
		steps, err = migrate.DryRun(ctx, cfg.Database, temp, mig, migOpts...)
	case opts.Temp != "":
		result.Mode = ModeTemp
		formatter.VerboseLog("Migrating copy %s", opts.Temp)
		steps, err = migrate.MigrateFileUsingTemp(ctx, cfg.Database, opts.Temp, mig, migOpts...)
	default:
		result.Mode = ModeInPlace
		steps, err = migrate.MigrateFile(ctx, cfg.Database, mig, migOpts...)
	}

	result.Steps = steps
	if result.Steps == nil {
		result.Steps = []migrate.Step{}
	}
	for _, s := range steps {
		if s.Kind == migrate.StepSkip {
			result.Skipped++
		} else {
			result.Applied++
		}
	}

	if err != nil {
		if formatter.Structured() {
			code, details := migrationCode(err)
			if werr := formatter.Failure(code, fmt.Sprintf("migration failed: %v", err), details, result); werr != nil {
				return werr
			}
			return WrapExitError(ExitFailure, code+": migration failed", err)
		}
		printSteps(formatter, result)
		return migrationFailure(formatter, "migration failed", err)
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}
	printSteps(formatter, result)
	switch result.Mode {
	case ModeDryRun:
		fmt.Fprintf(formatter.Writer, "✓ Dry run succeeded: %d change-set(s) would run, %d already applied\n",
			result.Applied, result.Skipped)
	default:
		fmt.Fprintf(formatter.Writer, "✓ Migrated %s: %d change-set(s) run, %d already applied\n",
			result.Database, result.Applied, result.Skipped)
	}
	return nil
}

func printSteps(f *OutputFormatter, r MigrateResult) {
	for _, s := range r.Steps {
		fmt.Fprintf(f.Writer, "  %-10s %s\n", s.Kind, s.ID)
	}
}
