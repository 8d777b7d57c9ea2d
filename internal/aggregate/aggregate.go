package aggregate

import (
	"fmt"
	"time"

	"github.com/roach88/ttrack/internal/store"
)

// Totals holds the aggregated tracked time per display bucket.
// Durations carry full precision; rounding happens only at render time.
type Totals struct {
	Today time.Duration
	Week  time.Duration
	Month time.Duration
}

// Aggregate sums a client's records into today/week/month buckets.
//
// Client matching is exact (storage is case-sensitive). If liveStart is
// non-nil it denotes a currently running session; its elapsed time
// now.Sub(*liveStart) is added to all three buckets.
//
// The result is independent of record order.
func Aggregate(records []store.Record, client string, now time.Time, liveStart *time.Time) Totals {
	var totals Totals
	weekStart := StartOfWeek(now)

	for _, rec := range records {
		if rec.Client != client {
			continue
		}
		d := rec.Duration()

		if sameDate(rec.Start, now) {
			totals.Today += d
		}
		if !rec.Start.Before(weekStart) {
			totals.Week += d
		}
		if rec.Start.Year() == now.Year() && rec.Start.Month() == now.Month() {
			totals.Month += d
		}
	}

	if liveStart != nil {
		live := now.Sub(*liveStart)
		totals.Today += live
		totals.Week += live
		totals.Month += live
	}

	return totals
}

// StartOfWeek returns the most recent Monday at 00:00:00 local time.
func StartOfWeek(now time.Time) time.Time {
	// time.Weekday counts Sunday=0; shift so Monday=0.
	offset := (int(now.Weekday()) + 6) % 7
	day := now.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

// StartOfMonth returns the first day of now's month at 00:00:00 local time.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// StartOfDay returns now's date at 00:00:00 local time.
func StartOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Hours renders a duration as decimal hours with one decimal place,
// e.g. "8.0h". This is the only place totals are rounded.
func Hours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

// Clients returns the distinct client names seen in the records, in first
// appearance order. There is no separate client registry; the log is the
// source of the known-client set.
func Clients(records []store.Record) []string {
	seen := make(map[string]bool, len(records))
	var names []string
	for _, rec := range records {
		if !seen[rec.Client] {
			seen[rec.Client] = true
			names = append(names, rec.Client)
		}
	}
	return names
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
