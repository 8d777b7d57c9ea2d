package quota

import (
	"time"

	"github.com/roach88/ttrack/internal/store"
)

// ActualHoursSince sums tracked hours for a client from a range start
// onward. Unlike the display aggregator, this matches client names with
// case folding, because the actuals feed a quota comparison and quota
// lookups are case-insensitive.
func ActualHoursSince(records []store.Record, client string, from time.Time) float64 {
	folded := FoldName(client)

	var total time.Duration
	for _, rec := range records {
		if FoldName(rec.Client) != folded {
			continue
		}
		if rec.Start.Before(from) {
			continue
		}
		total += rec.Duration()
	}
	return total.Hours()
}

// BusinessRangeEnd clamps a quota range to the latest business day that
// is on or after from and not after now. Expected hours for "this week"
// or "this month" should not count business days that have not happened
// yet. If the range holds no business day, now's date is returned so the
// expected figure degrades to zero rather than going negative.
func BusinessRangeEnd(from, now time.Time) time.Time {
	for day := dateOf(now); !day.Before(dateOf(from)); day = day.AddDate(0, 0, -1) {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			return day
		}
	}
	return dateOf(now)
}
