// Package aggregate computes time totals over completed session records.
//
// All functions are pure: they take records plus an explicit "now" and
// return durations, so totals are reproducible in tests with a fixed
// clock and independent of record order.
//
// Bucket membership is decided per record by its start timestamp:
//   - today: start falls on now's calendar date
//   - week:  start is on or after the most recent Monday 00:00 local time
//     (ISO week start, not a rolling 7-day window)
//   - month: start shares now's year and month
//
// A record can count toward multiple buckets. A live, not-yet-persisted
// interval always counts toward all three, since it starts no earlier
// than today.
package aggregate
