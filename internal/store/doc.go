// Package store provides file-backed persistence for tracked sessions.
//
// Three artifacts live on disk:
//   - Session log: append-only CSV (header "Client,Start,End"), one row per
//     completed session. The only permitted in-place mutation is rewriting
//     the final row (ReplaceLast).
//   - Running-session marker: CSV (header "Client,Start") with at most one
//     data row, present only while a timer is running. Its presence at
//     process start signals an abnormal shutdown.
//   - Heartbeat: a single bare timestamp, refreshed while a timer runs,
//     giving the best known "still running at" instant for crash recovery.
//
// Timestamps use a sortable ISO-8601 layout in local time with no offset,
// so the log stays readable and sortable in a spreadsheet.
//
// The log is assumed to have a single writer. A concurrent external holder
// of the file (a spreadsheet program with the log open) is surfaced as a
// Blocked error on append, never prevented.
//
// The optional SQLite archive (archive.go) mirrors the log into a database
// for ad-hoc SQL; it is a non-critical export target, not a source of truth.
package store
