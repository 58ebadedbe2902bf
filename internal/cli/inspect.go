package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/inspect"
)

// bookkeepingPrefix marks the migration log tables.
const bookkeepingPrefix = "__strata_"

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	All bool
}

// InspectResult is the structured output of inspect.
type InspectResult struct {
	Database string          `json:"database" yaml:"database"`
	Tables   []inspect.Table `json:"tables" yaml:"tables"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [table...]",
		Short: "Show the live schema of a database",
		Long: `Read the tables of a database as they exist on disk: columns, primary
keys, indexes and foreign keys. With no arguments every table is shown.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, opts, args, cmd)
		},
	}

	addDatabaseFlags(cmd)
	cmd.Flags().BoolVar(&opts.All, "all", false, "include the migration log tables")

	return cmd
}

func runInspect(rootOpts *RootOptions, opts *InspectOptions, names []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

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

	tables, err := inspect.Tables(cmd.Context(), db, names...)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDatabase, "inspecting schema", err, nil)
	}
	for _, n := range names {
		if !slices.ContainsFunc(tables, func(t inspect.Table) bool { return t.Name == n }) {
			return fail(formatter, ExitFailure, ErrCodeNoTable,
				fmt.Sprintf("table %q does not exist", n), nil, map[string]string{"table": n})
		}
	}
	if len(names) == 0 && !opts.All {
		tables = slices.DeleteFunc(tables, func(t inspect.Table) bool {
			return strings.HasPrefix(t.Name, bookkeepingPrefix)
		})
	}

	result := InspectResult{Database: cfg.Database, Tables: tables}
	if result.Tables == nil {
		result.Tables = []inspect.Table{}
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}

	if len(result.Tables) == 0 {
		fmt.Fprintln(formatter.Writer, "No tables")
		return nil
	}
	for i, t := range result.Tables {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		if err := printTable(formatter, t); err != nil {
			return err
		}
	}
	return nil
}

func printTable(f *OutputFormatter, t inspect.Table) error {
	fmt.Fprintf(f.Writer, "%s\n", t.Name)

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for _, c := range t.Columns {
		var attrs []string
		if c.PrimaryKey {
			attrs = append(attrs, "pk")
		}
		if !c.Nullable {
			attrs = append(attrs, "not null")
		}
		if c.Default != "" {
			attrs = append(attrs, "default "+c.Default)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Name, c.Type, strings.Join(attrs, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, idx := range t.Indexes {
		kind := "index"
		if idx.Unique {
			kind = "unique index"
		}
		fmt.Fprintf(f.Writer, "  %s %s (%s)\n", kind, idx.Name, strings.Join(idx.Columns, ", "))
	}
	for _, fk := range t.ForeignKeys {
		line := fmt.Sprintf("  foreign key (%s) references %s (%s)",
			strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", "))
		if fk.OnDelete != "" {
			line += " on delete " + strings.ToLower(fk.OnDelete)
		}
		fmt.Fprintln(f.Writer, line)
	}
	return nil
}
