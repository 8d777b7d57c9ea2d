package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ttrack/internal/aggregate"
	"github.com/roach88/ttrack/internal/quota"
	"github.com/roach88/ttrack/internal/store"
)

// Report is the aggregate summary consumed by the text renderer and the
// JSON output mode. Hours carry full precision; the text renderer rounds.
type Report struct {
	GeneratedAt string         `json:"generated_at"`
	Clients     []ClientReport `json:"clients"`
}

// ClientReport is one client's totals, quota progress, and groupings.
type ClientReport struct {
	Client          string         `json:"client"`
	TodayHours      float64        `json:"today_hours"`
	WeekHours       float64        `json:"week_hours"`
	MonthHours      float64        `json:"month_hours"`
	AvgHoursPerDay  float64        `json:"avg_hours_per_day"`
	TodayQuota      *QuotaProgress `json:"today_quota,omitempty"`
	WeekQuota       *QuotaProgress `json:"week_quota,omitempty"`
	MonthQuota      *QuotaProgress `json:"month_quota,omitempty"`
	Daily           []BucketHours  `json:"daily"`
	Weekly          []BucketHours  `json:"weekly"`
	Monthly         []BucketHours  `json:"monthly"`
}

// QuotaProgress is the actual-vs-expected side of a progress bar.
type QuotaProgress struct {
	ActualHours   float64 `json:"actual_hours"`
	ExpectedHours float64 `json:"expected_hours"`
	Percent       float64 `json:"percent"`
}

// BucketHours is one chart bar: a bucket start date and its total.
type BucketHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Client string

	// Now allows fixing the reference time (for testing).
	Now time.Time
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize tracked hours and quota progress",
		Long: `Summarize tracked hours per client: today/week/month totals, quota
progress for the current week and month, average hours per worked day,
and per-day/week/month breakdowns.

Quota configuration is read from quota.yaml in the data directory and
holidays from holidays.txt; clients without a quota simply have no
progress lines.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Client, "client", "", "limit the report to one client")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	records, engine, err := loadReportInputs(opts.RootOptions)
	if err != nil {
		return err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	report := BuildReport(records, engine, now)
	if opts.Client != "" {
		report.Clients = filterClient(report.Clients, opts.Client)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		return f.JSON(report)
	}
	RenderReport(cmd.OutOrStdout(), report)
	return nil
}

// loadReportInputs reads the session log, quota config, and holidays.
// Invalid log rows are excluded with a warning; a broken quota or
// holiday file degrades to "no quota" rather than blocking the report.
func loadReportInputs(opts *RootOptions) ([]store.Record, *quota.Engine, error) {
	records, issues, err := store.New(opts.sessionLogPath()).Load()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load session log", err)
	}
	if len(issues) > 0 {
		slog.Warn("session log has invalid rows, excluded from report", "count", len(issues))
	}

	cfg, err := quota.LoadConfig(opts.quotaPath())
	if err != nil {
		slog.Warn("quota config unreadable, reporting without quotas", "error", err)
		cfg = quota.Config{}
	}
	holidays, err := quota.LoadHolidays(opts.holidayPath())
	if err != nil {
		slog.Warn("holiday file unreadable, assuming no holidays", "error", err)
		holidays = quota.Holidays{}
	}

	return records, quota.NewEngine(cfg, holidays), nil
}

// BuildReport assembles the full report for a fixed reference time.
// Clients appear in first-appearance order from the log.
func BuildReport(records []store.Record, engine *quota.Engine, now time.Time) *Report {
	report := &Report{GeneratedAt: store.FormatTime(now)}

	perDay := aggregate.GroupByDay(records)
	perWeek := aggregate.GroupByWeek(records)
	perMonth := aggregate.GroupByMonth(records)
	avg := aggregate.AverageHoursPerDay(records)

	for _, client := range aggregate.Clients(records) {
		totals := aggregate.Aggregate(records, client, now, nil)

		cr := ClientReport{
			Client:         client,
			TodayHours:     totals.Today.Hours(),
			WeekHours:      totals.Week.Hours(),
			MonthHours:     totals.Month.Hours(),
			AvgHoursPerDay: avg[client],
			Daily:          bucketList(perDay[client], "2006-01-02"),
			Weekly:         bucketList(perWeek[client], "2006-01-02"),
			Monthly:        bucketList(perMonth[client], "2006-01"),
		}

		if engine.HasQuota(client) {
			cr.TodayQuota = quotaProgress(records, engine, client, aggregate.StartOfDay(now), now)
			cr.WeekQuota = quotaProgress(records, engine, client, aggregate.StartOfWeek(now), now)
			cr.MonthQuota = quotaProgress(records, engine, client, aggregate.StartOfMonth(now), now)
		}

		report.Clients = append(report.Clients, cr)
	}

	return report
}

// quotaProgress computes actual vs expected hours for a range starting
// at from. The expected side is clamped to the latest business day not
// after now, so days that have not happened yet do not count against
// the user.
func quotaProgress(records []store.Record, engine *quota.Engine, client string, from, now time.Time) *QuotaProgress {
	actual := quota.ActualHoursSince(records, client, from)
	expected := engine.ExpectedHours(client, from, quota.BusinessRangeEnd(from, now))
	return &QuotaProgress{
		ActualHours:   actual,
		ExpectedHours: expected,
		Percent:       quota.Progress(actual, expected),
	}
}

// bucketList flattens a grouping into chronologically sorted rows.
func bucketList(buckets map[time.Time]time.Duration, layout string) []BucketHours {
	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]BucketHours, 0, len(keys))
	for _, k := range keys {
		out = append(out, BucketHours{Date: k.Format(layout), Hours: buckets[k].Hours()})
	}
	return out
}

// filterClient keeps only the named client (exact match, like storage).
func filterClient(clients []ClientReport, name string) []ClientReport {
	var out []ClientReport
	for _, c := range clients {
		if c.Client == name {
			out = append(out, c)
		}
	}
	return out
}

// RenderReport writes the plain-text report.
func RenderReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Time tracking report (generated %s)\n", r.GeneratedAt)

	if len(r.Clients) == 0 {
		fmt.Fprintln(w, "\nNo sessions recorded.")
		return
	}

	for _, c := range r.Clients {
		fmt.Fprintf(w, "\nClient: %s\n", c.Client)
		fmt.Fprintf(w, "  Today:  %.1fh\n", c.TodayHours)
		fmt.Fprintf(w, "  Week:   %.1fh\n", c.WeekHours)
		fmt.Fprintf(w, "  Month:  %.1fh\n", c.MonthHours)
		fmt.Fprintf(w, "  Average per worked day: %.1fh\n", c.AvgHoursPerDay)

		if c.TodayQuota != nil {
			renderQuotaLine(w, "Quota today:", c.TodayQuota)
		}
		if c.WeekQuota != nil {
			renderQuotaLine(w, "Quota week: ", c.WeekQuota)
		}
		if c.MonthQuota != nil {
			renderQuotaLine(w, "Quota month:", c.MonthQuota)
		}

		renderBuckets(w, "Per day:", c.Daily)
		renderBuckets(w, "Per week:", c.Weekly)
		renderBuckets(w, "Per month:", c.Monthly)
	}
}

func renderQuotaLine(w io.Writer, label string, q *QuotaProgress) {
	fmt.Fprintf(w, "  %s %.1fh of %.1fh (%.1f%%)\n", label, q.ActualHours, q.ExpectedHours, q.Percent)
}

func renderBuckets(w io.Writer, label string, buckets []BucketHours) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", label)
	for _, b := range buckets {
		fmt.Fprintf(w, "    %-10s  %.1fh\n", b.Date, b.Hours)
	}
}
