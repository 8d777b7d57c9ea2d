package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ttrack/internal/aggregate"
	"github.com/roach88/ttrack/internal/session"
	"github.com/roach88/ttrack/internal/store"
)

// Status is the one-shot view of a client's tracked time.
type Status struct {
	Client       string         `json:"client"`
	Running      bool           `json:"running"`
	SessionStart string         `json:"session_start,omitempty"`
	SessionHours float64        `json:"session_hours,omitempty"`
	TodayHours   float64        `json:"today_hours"`
	WeekHours    float64        `json:"week_hours"`
	MonthHours   float64        `json:"month_hours"`
	TodayQuota   *QuotaProgress `json:"today_quota,omitempty"`
	WeekQuota    *QuotaProgress `json:"week_quota,omitempty"`
	MonthQuota   *QuotaProgress `json:"month_quota,omitempty"`
}

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions

	// Now allows fixing the reference time (for testing).
	Now time.Time
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status [client]",
		Short: "Show totals for a client without starting the loop",
		Long: `Show today/week/month totals and quota progress for a client.

If a timer is running (a marker is present), its live interval counts
toward the totals; with no client argument, the running client is used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ""
			if len(args) == 1 {
				client = args[0]
			}
			return runStatus(opts, cmd, client)
		},
	}

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command, client string) error {
	records, engine, err := loadReportInputs(opts.RootOptions)
	if err != nil {
		return err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	marker := store.NewMarker(opts.markerPath(), opts.heartbeatPath())
	liveClient, liveStart, running, err := marker.Load()
	if err != nil {
		slog.Warn("marker unreadable, ignoring live session", "error", err)
		running = false
	}

	if client == "" {
		if !running {
			return NewExitError(ExitCommandError, "no client given and no timer running")
		}
		client = liveClient
	}

	status := Status{Client: client}

	// The live interval belongs to this status only when the running
	// client is the one asked about (exact match, like storage).
	var live *time.Time
	if running && liveClient == client {
		status.Running = true
		status.SessionStart = store.FormatTime(liveStart)
		status.SessionHours = now.Sub(liveStart).Hours()
		live = &liveStart
	}

	totals := aggregate.Aggregate(records, client, now, live)
	status.TodayHours = totals.Today.Hours()
	status.WeekHours = totals.Week.Hours()
	status.MonthHours = totals.Month.Hours()

	if engine.HasQuota(client) {
		status.TodayQuota = quotaProgress(records, engine, client, aggregate.StartOfDay(now), now)
		status.WeekQuota = quotaProgress(records, engine, client, aggregate.StartOfWeek(now), now)
		status.MonthQuota = quotaProgress(records, engine, client, aggregate.StartOfMonth(now), now)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		return f.JSON(status)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Client: %s\n", status.Client)
	if status.Running {
		fmt.Fprintf(out, "Session: %s (started %s)\n",
			session.FormatElapsed(now.Sub(liveStart)), status.SessionStart)
	}
	fmt.Fprintf(out, "Today: %.1fh\n", status.TodayHours)
	fmt.Fprintf(out, "Week: %.1fh\n", status.WeekHours)
	fmt.Fprintf(out, "Month: %.1fh\n", status.MonthHours)
	if status.TodayQuota != nil {
		renderQuotaLine(out, "Quota today:", status.TodayQuota)
	}
	if status.WeekQuota != nil {
		renderQuotaLine(out, "Quota week: ", status.WeekQuota)
	}
	if status.MonthQuota != nil {
		renderQuotaLine(out, "Quota month:", status.MonthQuota)
	}
	return nil
}
