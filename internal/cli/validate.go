package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/migrate"
	"github.com/roach88/strata/internal/validate"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                  `json:"valid" yaml:"valid"`
	ChangeSets  int                   `json:"changesets" yaml:"changesets"`
	Diagnostics []validate.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Check a manifest without touching a database",
		Long: `Load a YAML or CUE manifest and report every diagnostic for its
change-sets: empty names, duplicate columns, contradictory constraints,
duplicate change-set ids and so on.

Warnings are printed but only errors fail the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	mig, err := loadMigration(formatter, path)
	if err != nil {
		return err
	}

	res := validate.Run(mig)
	return outputValidation(formatter, mig, res)
}

// checkMigration runs validation and, when it finds errors, reports them
// and returns the ExitError. Warnings are only logged.
func checkMigration(f *OutputFormatter, mig migrate.Migration) error {
	res := validate.Run(mig)
	for _, d := range res.Warnings() {
		f.VerboseLog("warning: %s", d)
	}
	if !res.HasErrors() {
		return nil
	}
	return outputValidation(f, mig, res)
}

func outputValidation(f *OutputFormatter, mig migrate.Migration, res validate.Result) error {
	result := ValidationResult{
		Valid:       !res.HasErrors(),
		ChangeSets:  len(mig.ChangeSets()),
		Diagnostics: res.Diagnostics,
	}

	if f.Structured() {
		if result.Valid {
			return f.Success(result)
		}
		errs := res.Errors()
		if err := f.Failure(errs[0].Issue.Code, errs[0].Issue.Message, nil, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	if result.Valid {
		fmt.Fprintf(f.Writer, "✓ Manifest valid (%d change-set(s))\n", result.ChangeSets)
		for _, d := range res.Warnings() {
			fmt.Fprintf(f.Writer, "  %s\n", d)
		}
		return nil
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(f.Writer, "  %s\n", d)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(res.Errors())))
}
