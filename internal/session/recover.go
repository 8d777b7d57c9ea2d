package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/ttrack/internal/store"
)

// Recovery describes an interrupted session found at startup: the
// previous process stopped while this timer was running.
type Recovery struct {
	Client   string
	Start    time.Time
	LastSeen time.Time // best known "still running at" instant
}

// Elapsed is the recoverable tracked time.
func (r Recovery) Elapsed() time.Duration {
	return r.LastSeen.Sub(r.Start)
}

// Prompt renders the yes/no question shown to the user.
func (r Recovery) Prompt() string {
	return fmt.Sprintf(
		"A timer for %q was running when the program last closed.\nLog %s from %s to %s?",
		r.Client,
		FormatElapsed(r.Elapsed()),
		store.FormatTime(r.Start),
		store.FormatTime(r.LastSeen),
	)
}

// ConfirmFunc answers a recovery prompt synchronously. The host supplies
// the mechanism (terminal prompt, dialog); the machine only needs the
// decision.
type ConfirmFunc func(Recovery) bool

// RecoverOnStartup reconciles an interrupted session, once, at process
// start, before any other transition is accepted.
//
// If a marker is present, the interval from its start to the last
// heartbeat (or now, if no heartbeat was written) is offered to confirm.
// On yes the interval is appended to the session log; on no it is
// discarded permanently and never retried later.
// The marker and heartbeat are cleared unconditionally afterward, so a
// second call is a no-op and never double-appends.
//
// The one exception to unconditional clearing is a failed append on a
// confirmed recovery: the marker stays put and the error is returned, so
// the next launch can offer the same interval again instead of silently
// losing it.
func (m *Machine) RecoverOnStartup(confirm ConfirmFunc) (*store.Record, error) {
	if m.recovered {
		return nil, nil
	}

	client, start, ok, err := m.marker.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		m.recovered = true
		return nil, nil
	}

	lastSeen, seen, err := m.marker.LastSeen()
	if err != nil {
		slog.Warn("heartbeat unreadable, falling back to now", "error", err)
		seen = false
	}
	if !seen {
		lastSeen = m.clock.Now().Truncate(time.Second)
	}

	rec := Recovery{Client: client, Start: start, LastSeen: lastSeen}
	slog.Info("interrupted session found",
		"client", client,
		"start", store.FormatTime(start),
		"last_seen", store.FormatTime(lastSeen),
	)

	var appended *store.Record
	if confirm(rec) {
		if !lastSeen.After(start) {
			// Crash within the first second; nothing recoverable.
			slog.Info("interrupted session shorter than log resolution, discarded", "client", client)
		} else {
			restored := store.Record{Client: client, Start: start, End: lastSeen}
			if err := m.records.Append(restored); err != nil {
				return nil, fmt.Errorf("append recovered session: %w", err)
			}
			appended = &restored
			slog.Info("interrupted session recovered", "client", client, "elapsed", rec.Elapsed())
		}
	} else {
		slog.Info("interrupted session discarded by user", "client", client, "elapsed", rec.Elapsed())
	}

	if err := m.marker.Clear(); err != nil {
		return appended, fmt.Errorf("clear marker after recovery: %w", err)
	}

	m.recovered = true
	return appended, nil
}

// FormatElapsed renders a duration as "1h 23m 45s" for prompts and the
// live session display.
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
