package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"
)

// markerHeader is the CSV header of the running-session marker file.
var markerHeader = []string{"Client", "Start"}

// Marker persists the single running-session slot and its heartbeat.
//
// At most one marker exists at any time. It is written when a timer
// starts, removed when the timer stops normally, and resolved by crash
// recovery otherwise. The heartbeat file holds one bare timestamp,
// refreshed once per minute of tracked time.
type Marker struct {
	path          string
	heartbeatPath string
}

// NewMarker creates a Marker over the given marker and heartbeat paths.
func NewMarker(path, heartbeatPath string) *Marker {
	return &Marker{path: path, heartbeatPath: heartbeatPath}
}

// Save persists the in-progress marker, overwriting any prior marker
// unconditionally.
func (m *Marker) Save(client string, start time.Time) error {
	f, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("create marker file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(markerHeader); err != nil {
		return fmt.Errorf("write marker header: %w", err)
	}
	if err := w.Write([]string{client, FormatTime(start)}); err != nil {
		return fmt.Errorf("write marker row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush marker file: %w", err)
	}
	return f.Sync()
}

// Load returns the marker if present. A missing file or a file with no
// data row means no timer was running; both return ok=false, not an error.
func (m *Marker) Load() (client string, start time.Time, ok bool, err error) {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, fmt.Errorf("open marker file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("read marker file: %w", err)
	}
	if len(rows) < 2 || len(rows[1]) < 2 {
		return "", time.Time{}, false, nil
	}

	start, err = ParseTime(rows[1][1])
	if err != nil {
		return "", time.Time{}, false, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("unparsable marker start timestamp %q", rows[1][1]),
			Path:    m.path,
			Row:     1,
		}
	}
	return rows[1][0], start, true, nil
}

// Clear removes the marker and its heartbeat. Idempotent: clearing when
// absent is a no-op, not an error.
func (m *Marker) Clear() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove marker file: %w", err)
	}
	if err := os.Remove(m.heartbeatPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove heartbeat file: %w", err)
	}
	return nil
}

// Touch updates the heartbeat timestamp. The heartbeat approximates the
// last instant the timer was known to still be running.
func (m *Marker) Touch(now time.Time) error {
	if err := os.WriteFile(m.heartbeatPath, []byte(FormatTime(now)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write heartbeat file: %w", err)
	}
	return nil
}

// LastSeen returns the heartbeat timestamp if one exists.
func (m *Marker) LastSeen() (time.Time, bool, error) {
	data, err := os.ReadFile(m.heartbeatPath)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("read heartbeat file: %w", err)
	}

	t, err := ParseTime(strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false, &StoreError{
			Code:    ErrCodeInvalidRecord,
			Message: fmt.Sprintf("unparsable heartbeat timestamp %q", strings.TrimSpace(string(data))),
			Path:    m.heartbeatPath,
		}
	}
	return t, true, nil
}
