package aggregate

import (
	"time"

	"github.com/roach88/ttrack/internal/store"
)

// Grouping functions behind the per-day/per-week/per-month report charts.
// Keys are bucket start instants (midnight local), so a rendered report can
// sort them chronologically.

// GroupByDay sums tracked time per client per calendar day.
func GroupByDay(records []store.Record) map[string]map[time.Time]time.Duration {
	return groupBy(records, StartOfDay)
}

// GroupByWeek sums tracked time per client per ISO week (keyed by the
// week's Monday 00:00).
func GroupByWeek(records []store.Record) map[string]map[time.Time]time.Duration {
	return groupBy(records, StartOfWeek)
}

// GroupByMonth sums tracked time per client per calendar month (keyed by
// the first of the month).
func GroupByMonth(records []store.Record) map[string]map[time.Time]time.Duration {
	return groupBy(records, StartOfMonth)
}

func groupBy(records []store.Record, bucket func(time.Time) time.Time) map[string]map[time.Time]time.Duration {
	out := make(map[string]map[time.Time]time.Duration)
	for _, rec := range records {
		byBucket, ok := out[rec.Client]
		if !ok {
			byBucket = make(map[time.Time]time.Duration)
			out[rec.Client] = byBucket
		}
		byBucket[bucket(rec.Start)] += rec.Duration()
	}
	return out
}

// AverageHoursPerDay returns each client's mean tracked hours over the
// days that client actually worked (distinct calendar days with at least
// one record).
func AverageHoursPerDay(records []store.Record) map[string]float64 {
	perDay := GroupByDay(records)

	out := make(map[string]float64, len(perDay))
	for client, days := range perDay {
		var total time.Duration
		for _, d := range days {
			total += d
		}
		out[client] = total.Hours() / float64(len(days))
	}
	return out
}
