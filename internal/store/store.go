package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"
)

// TimeLayout is the on-disk timestamp format: sortable ISO-8601 in local
// time with no offset. Kept offset-free so the log reads naturally in a
// spreadsheet.
const TimeLayout = "2006-01-02T15:04:05"

// logHeader is the CSV header of the session log.
var logHeader = []string{"Client", "Start", "End"}

// Record is one completed session: a contiguous tracked interval for a
// single client. Invariant: End is strictly after Start. Records are
// immutable once appended, except for the explicit last-row rewrite.
type Record struct {
	Client string
	Start  time.Time
	End    time.Time
}

// Duration returns the tracked time of the record.
func (r Record) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Valid reports whether the record satisfies End > Start.
func (r Record) Valid() bool {
	return r.End.After(r.Start)
}

// Store is the CSV-backed session log.
//
// All operations are synchronous and atomic at the granularity of a single
// append or last-row rewrite. Store assumes a single process writes the
// file; an external holder is reported via ErrCodeBlocked, not prevented.
type Store struct {
	path string
}

// New creates a Store over the given log path.
// The file is not touched until the first Append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads all persisted records in insertion order.
//
// A missing log is an empty store, not an error. Rows that fail validation
// (unparsable timestamp, end <= start) are returned separately as issues,
// never silently aggregated; the caller decides whether to discard them or
// block. The returned error covers I/O failures only.
func (s *Store) Load() ([]Record, []*StoreError, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	return s.parse(f)
}

// Validate re-reads the log and returns one issue per malformed row,
// tagged with the row's position. Validation never mutates the log.
func (s *Store) Validate() ([]*StoreError, error) {
	_, issues, err := s.Load()
	return issues, err
}

// parse reads CSV rows from r, validating each data row.
func (s *Store) parse(r io.Reader) ([]Record, []*StoreError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row-level validation below

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read session log: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	var records []Record
	var issues []*StoreError

	// An externally created file may lack the header; its first line is
	// then consumed as if it were one, so flag it rather than silently
	// dropping a session.
	if !slices.Equal(rows[0], logHeader) {
		issues = append(issues, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("missing or malformed header row, want %q", strings.Join(logHeader, ",")),
			Path:    s.path,
		})
	}

	// Row numbers are 1-based over data rows (header excluded), matching
	// what a user sees when they subtract the header line in an editor.
	for i, row := range rows[1:] {
		rec, issue := parseRow(s.path, i+1, row)
		if issue != nil {
			issues = append(issues, issue)
			continue
		}
		records = append(records, rec)
	}

	return records, issues, nil
}

// parseRow converts one CSV data row into a Record.
func parseRow(path string, rowNum int, row []string) (Record, *StoreError) {
	if len(row) < 3 {
		return Record{}, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("expected 3 fields, got %d", len(row)),
			Path:    path,
			Row:     rowNum,
		}
	}

	start, err := ParseTime(row[1])
	if err != nil {
		return Record{}, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("unparsable start timestamp %q", row[1]),
			Path:    path,
			Row:     rowNum,
		}
	}

	end, err := ParseTime(row[2])
	if err != nil {
		return Record{}, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("unparsable end timestamp %q", row[2]),
			Path:    path,
			Row:     rowNum,
		}
	}

	rec := Record{Client: row[0], Start: start, End: end}
	if !rec.Valid() {
		return Record{}, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("end %s is not after start %s", row[2], row[1]),
			Path:    path,
			Row:     rowNum,
		}
	}

	return rec, nil
}

// Append adds one record to the log, creating the file and its header on
// first write.
//
// Returns a Blocked StoreError when the log is held open exclusively by
// another program; the caller's state must survive so the write can be
// retried. Records failing End > Start are rejected before touching disk.
func (s *Store) Append(rec Record) error {
	if !rec.Valid() {
		return &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("end %s is not after start %s", FormatTime(rec.End), FormatTime(rec.Start)),
			Path:    s.path,
		}
	}

	_, statErr := os.Stat(s.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if isBlockedErr(err) {
			return NewBlockedError(s.path, err)
		}
		return fmt.Errorf("open session log for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(logHeader); err != nil {
			return fmt.Errorf("write session log header: %w", err)
		}
	}
	if err := w.Write(encodeRecord(rec)); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		if isBlockedErr(err) {
			return NewBlockedError(s.path, err)
		}
		return fmt.Errorf("flush session log: %w", err)
	}

	return f.Sync()
}

// ReplaceLast rewrites only the final record, leaving all prior records
// untouched. Fails with an EmptyStore error when no record exists.
//
// The rewrite goes through a temp file and rename so the log is never left
// truncated mid-write.
func (s *Store) ReplaceLast(rec Record) error {
	if !rec.Valid() {
		return &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("end %s is not after start %s", FormatTime(rec.End), FormatTime(rec.Start)),
			Path:    s.path,
		}
	}

	records, _, err := s.Load()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return NewEmptyStoreError(s.path)
	}

	records[len(records)-1] = rec
	return s.rewrite(records)
}

// rewrite replaces the whole log atomically via temp file + rename.
func (s *Store) rewrite(records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sessions-*.csv")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(logHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp log header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(encodeRecord(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("write temp log record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		if isBlockedErr(err) {
			return NewBlockedError(s.path, err)
		}
		return fmt.Errorf("replace session log: %w", err)
	}
	return nil
}

// encodeRecord renders a record as a CSV row.
func encodeRecord(rec Record) []string {
	return []string{rec.Client, FormatTime(rec.Start), FormatTime(rec.End)}
}

// ParseTime parses an on-disk timestamp in local time.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.Local)
}

// FormatTime renders a timestamp in the on-disk layout. Sub-second
// precision is dropped; the log's resolution is one second.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// isBlockedErr reports whether an OS error means the file is held open
// exclusively by another program (spreadsheet with the log loaded).
func isBlockedErr(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EAGAIN, syscall.EBUSY, syscall.ETXTBSY:
			return true
		}
	}
	return false
}
