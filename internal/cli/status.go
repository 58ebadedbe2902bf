package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/migrate"
)

// Change-set states reported by status.
const (
	StateApplied   = "applied"
	StatePending   = "pending"
	StateAlwaysRun = "always_run"
)

// ChangeSetStatus is one row of the status output.
type ChangeSetStatus struct {
	ID          string `json:"id" yaml:"id"`
	State       string `json:"state" yaml:"state"`
	Order       int64  `json:"order" yaml:"order"`
	StartedAt   string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// StatusResult is the structured output of status.
type StatusResult struct {
	Database   string            `json:"database" yaml:"database"`
	Applied    int               `json:"applied" yaml:"applied"`
	Pending    int               `json:"pending" yaml:"pending"`
	ChangeSets []ChangeSetStatus `json:"changesets" yaml:"changesets"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <manifest>",
		Short: "Show which change-sets a database has applied",
		Long: `Compare a manifest with the migration log of a database and list each
change-set as applied, pending or always_run, with when it was applied.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, args[0], cmd)
		},
	}

	addDatabaseFlags(cmd)

	return cmd
}

func runStatus(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	mig, err := loadMigration(formatter, path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(formatter, rootOpts, cmd)
	if err != nil {
		return err
	}
	if err := requireDatabase(formatter, cfg, true); err != nil {
		return err
	}
	db, err := openDatabase(formatter, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	steps, err := mig.Plan(ctx, db)
	if err != nil {
		return migrationFailure(formatter, "reading status", err)
	}
	log, err := migrate.ReadLog(ctx, db)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDatabase, "reading migration log", err, nil)
	}
	byID := make(map[string]migrate.LogEntry, len(log))
	for _, e := range log {
		byID[e.ID] = e
	}

	result := StatusResult{Database: cfg.Database, ChangeSets: make([]ChangeSetStatus, 0, len(steps))}
	for _, s := range steps {
		st := ChangeSetStatus{ID: s.ID, Order: s.Order}
		switch s.Kind {
		case migrate.StepSkip:
			st.State = StateApplied
			e := byID[s.ID]
			st.StartedAt = formatTime(e.StartedAt)
			st.CompletedAt = formatTime(e.CompletedAt)
			result.Applied++
		case migrate.StepAlwaysRun:
			st.State = StateAlwaysRun
		default:
			st.State = StatePending
			result.Pending++
		}
		result.ChangeSets = append(result.ChangeSets, st)
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tORDER\tAPPLIED")
	for _, s := range result.ChangeSets {
		applied, order := "-", "-"
		if s.State == StateApplied {
			applied = humanize.Time(byID[s.ID].CompletedAt)
			order = fmt.Sprint(s.Order)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.State, order, applied)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\n%s applied, %s pending\n",
		humanize.Comma(int64(result.Applied)), humanize.Comma(int64(result.Pending)))
	return nil
}
