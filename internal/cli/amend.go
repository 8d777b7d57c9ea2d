package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ttrack/internal/session"
	"github.com/roach88/ttrack/internal/store"
)

// NewAmendCommand creates the amend command.
func NewAmendCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amend <end-timestamp>",
		Short: "Correct the end time of the last recorded session",
		Long: `Rewrite the last row of the session log with a corrected end time.
The timestamp uses the log's own format, e.g. 2024-03-04T17:30:00.

Refused while a crashed session is pending recovery; run the tracker
first so the crashed interval is resolved before history changes.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmend(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runAmend(opts *RootOptions, cmd *cobra.Command, raw string) error {
	newEnd, err := store.ParseTime(raw)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid timestamp %q, want %s", raw, store.TimeLayout))
	}

	records := store.New(opts.sessionLogPath())
	marker := store.NewMarker(opts.markerPath(), opts.heartbeatPath())

	_, _, pending, err := marker.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "read session marker", err)
	}
	if pending {
		return NewExitError(ExitFailure, "a crashed session is pending recovery, run 'ttrack run' first")
	}

	machine := session.New(records, marker, session.SystemClock())
	if _, err := machine.RecoverOnStartup(func(session.Recovery) bool { return false }); err != nil {
		return WrapExitError(ExitFailure, "startup recovery", err)
	}

	amended, err := machine.AmendLastStop(newEnd)
	if err != nil {
		if store.IsEmptyStore(err) {
			return NewExitError(ExitFailure, "no sessions recorded")
		}
		return WrapExitError(ExitFailure, "amend last session", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Amended last session for %s: %s to %s\n",
		amended.Client, store.FormatTime(amended.Start), store.FormatTime(amended.End))
	return nil
}
