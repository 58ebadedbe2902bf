package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/migrate"
)

// PlannedChangeSet is one change-set in the plan output.
type PlannedChangeSet struct {
	ID         string           `json:"id" yaml:"id"`
	AlwaysRun  bool             `json:"always_run" yaml:"always_run"`
	Checksum   string           `json:"checksum" yaml:"checksum"`
	Statements []string         `json:"statements" yaml:"statements"`
	Kind       migrate.StepKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// PlanResult is the structured output of plan.
type PlanResult struct {
	Database   string             `json:"database,omitempty" yaml:"database,omitempty"`
	ChangeSets []PlannedChangeSet `json:"changesets" yaml:"changesets"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <manifest>",
		Short: "Show the SQL a manifest renders to",
		Long: `Render every change-set of a manifest to SQL with its checksum.

When a database is configured, each change-set is also marked with what
migrate would do with it (apply, skip or always_run). Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], cmd)
		},
	}

	addDatabaseFlags(cmd)

	return cmd
}

func runPlan(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	mig, err := loadMigration(formatter, path)
	if err != nil {
		return err
	}

	result := PlanResult{ChangeSets: make([]PlannedChangeSet, 0, len(mig.ChangeSets()))}
	for _, cs := range mig.ChangeSets() {
		stmts := cs.Statements()
		if stmts == nil {
			stmts = []string{}
		}
		result.ChangeSets = append(result.ChangeSets, PlannedChangeSet{
			ID:         cs.ID(),
			AlwaysRun:  cs.IsAlwaysRun(),
			Checksum:   migrate.Checksum(cs),
			Statements: stmts,
		})
	}

	cfg, err := loadConfig(formatter, rootOpts, cmd)
	if err != nil {
		return err
	}
	if cfg.Database != "" {
		if err := requireDatabase(formatter, cfg, true); err != nil {
			return err
		}
		db, err := openDatabase(formatter, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		steps, err := mig.Plan(cmd.Context(), db)
		if err != nil {
			return migrationFailure(formatter, "planning migration", err)
		}
		for i, s := range steps {
			result.ChangeSets[i].Kind = s.Kind
		}
		result.Database = cfg.Database
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}

	for _, cs := range result.ChangeSets {
		header := "-- changeset " + cs.ID
		if cs.Kind != "" {
			header += " [" + string(cs.Kind) + "]"
		} else if cs.AlwaysRun {
			header += " [always_run]"
		}
		fmt.Fprintln(formatter.Writer, header)
		fmt.Fprintf(formatter.Writer, "-- checksum %s\n", cs.Checksum)
		for _, s := range cs.Statements {
			fmt.Fprintf(formatter.Writer, "%s;\n", s)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}
