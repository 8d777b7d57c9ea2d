package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ttrack/internal/store"
)

// ValidationResult is the JSON shape of a validate run.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Records     int      `json:"records"`
	Fingerprint string   `json:"fingerprint"`
	Issues      []string `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the session log for invalid rows",
		Long: `Check every row of the session log and report positional errors for
rows that cannot be parsed or have end before start. Also prints the
log's fingerprint, which changes whenever the file is edited outside
the tracker.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	s := store.New(opts.sessionLogPath())

	records, issues, err := s.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "load session log", err)
	}
	fingerprint, err := s.Fingerprint()
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprint session log", err)
	}

	result := ValidationResult{
		Valid:       len(issues) == 0,
		Records:     len(records),
		Fingerprint: fingerprint,
	}
	for _, issue := range issues {
		result.Issues = append(result.Issues, issue.Error())
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		if err := f.JSON(result); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Records: %d\n", result.Records)
		fmt.Fprintf(out, "Fingerprint: %s\n", result.Fingerprint)
		if result.Valid {
			fmt.Fprintln(out, "Session log is valid.")
		} else {
			fmt.Fprintf(out, "Found %d invalid rows:\n", len(result.Issues))
			for _, issue := range result.Issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid rows", len(result.Issues)))
	}
	return nil
}
