// Package quota maps a client's configured weekly working-hours schedule
// and a holiday calendar to expected-hours figures for a date range.
//
// Configuration is a YAML file keyed by client name; lookups fold case,
// while the session log stores client names case-sensitively. A client
// with no configuration simply has zero expected hours; that is not an
// error.
//
// Expected hours count business days (Mon-Fri) in an inclusive range,
// skipping dates listed in the holiday file and weekdays absent from the
// schedule. The actual side of a progress ratio comes from the session
// log, restricted to the same range.
package quota
