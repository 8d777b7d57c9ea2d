package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ttrack/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions

	// Out is the destination file; empty means stdout.
	Out string

	// ToDB mirrors the log into the SQLite archive instead of writing CSV.
	ToDB string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all sessions as CSV or mirror them to SQLite",
		Long: `Export every session with a computed duration column, suitable for
spreadsheets. With --to-db, sessions are mirrored into a SQLite archive
instead; mirroring is idempotent, so re-running it only inserts rows
that are not already archived.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write CSV to this file instead of stdout")
	cmd.Flags().StringVar(&opts.ToDB, "to-db", "", "mirror sessions into this SQLite database")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	records, issues, err := store.New(opts.sessionLogPath()).Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "load session log", err)
	}
	if len(issues) > 0 {
		slog.Warn("session log has invalid rows, excluded from export", "count", len(issues))
	}

	if opts.ToDB != "" {
		return exportToDB(opts, cmd, records)
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return WrapExitError(ExitCommandError, "create export file", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeExportCSV(out, records); err != nil {
		return WrapExitError(ExitCommandError, "write export", err)
	}
	if opts.Out != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(records), opts.Out)
	}
	return nil
}

// writeExportCSV writes the sessions with a duration column appended.
func writeExportCSV(w io.Writer, records []store.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Client", "Start", "End", "Duration (hours)"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Client,
			store.FormatTime(rec.Start),
			store.FormatTime(rec.End),
			fmt.Sprintf("%.2f", rec.Duration().Hours()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportToDB(opts *ExportOptions, cmd *cobra.Command, records []store.Record) error {
	archive, err := store.OpenArchive(opts.ToDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer archive.Close()

	inserted, err := archive.Mirror(cmd.Context(), records)
	if err != nil {
		return WrapExitError(ExitCommandError, "mirror sessions", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d new sessions (%d total in log)\n", inserted, len(records))
	return nil
}
