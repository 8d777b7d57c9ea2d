package session

import (
	"log/slog"
	"time"

	"github.com/roach88/ttrack/internal/aggregate"
	"github.com/roach88/ttrack/internal/store"
)

// RecordStore is the session log as seen by the state machine.
// Implemented by *store.Store.
type RecordStore interface {
	Load() ([]store.Record, []*store.StoreError, error)
	Append(store.Record) error
	ReplaceLast(store.Record) error
}

// MarkerStore is the running-session marker and heartbeat as seen by the
// state machine. Implemented by *store.Marker.
type MarkerStore interface {
	Save(client string, start time.Time) error
	Load() (client string, start time.Time, ok bool, err error)
	Clear() error
	Touch(now time.Time) error
	LastSeen() (time.Time, bool, error)
}

// State is the machine's position in the select/start/stop cycle.
type State int

const (
	// Idle means no client is selected.
	Idle State = iota
	// ClientSelected means a client is selected but no timer runs.
	ClientSelected
	// Running means a timer is running for the selected client.
	Running
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ClientSelected:
		return "selected"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// heartbeatEveryTicks is the heartbeat cadence in 1-second ticks: the
// heartbeat file is refreshed once per minute of tracked wall-clock.
const heartbeatEveryTicks = 60

// Machine is the session-tracking state machine.
//
// INVARIANTS:
//   - startTime is set if and only if state == Running
//   - at most one marker exists, and only while state == Running
//     (or left over from a crash, resolved by RecoverOnStartup)
//   - no transition is accepted before RecoverOnStartup completes
//
// Not safe for concurrent use; the host serializes all calls.
type Machine struct {
	records RecordStore
	marker  MarkerStore
	clock   Clock

	state     State
	client    string
	startTime time.Time
	ticks     int
	recovered bool
}

// New creates a Machine in the Idle state.
// RecoverOnStartup must be called before any transition.
func New(records RecordStore, marker MarkerStore, clock Clock) *Machine {
	return &Machine{
		records: records,
		marker:  marker,
		clock:   clock,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Client returns the selected client name, or "" when Idle.
func (m *Machine) Client() string {
	return m.client
}

// StartTime returns the running timer's start, zero unless Running.
func (m *Machine) StartTime() time.Time {
	return m.startTime
}

// SelectClient selects a client for tracking.
//
// From Running, the current timer is implicitly stopped first (its record
// appended) before the selection moves. Selecting the client that is
// already running is a no-op, so switching focus back never splits a
// session. If the implicit stop fails, the machine stays Running on the
// old client and the selection does not change.
func (m *Machine) SelectClient(name string) error {
	if err := m.requireRecovered(); err != nil {
		return err
	}
	if name == "" {
		return &StateError{Code: ErrCodeNoClient, Message: "client name is empty"}
	}

	if m.state == Running {
		if name == m.client {
			return nil
		}
		if err := m.stop(); err != nil {
			return err
		}
	}

	m.client = name
	m.state = ClientSelected
	slog.Debug("client selected", "client", name)
	return nil
}

// Start begins a timer for the selected client.
//
// The marker and heartbeat are persisted for crash recovery, but a
// failure to write either never prevents the start: the primary
// guarantee is that start/stop always work, and the marker is only a
// recovery aid.
func (m *Machine) Start() error {
	if err := m.requireRecovered(); err != nil {
		return err
	}

	switch m.state {
	case Idle:
		// The UI prevents this; the engine still guards it.
		return &StateError{Code: ErrCodeNoClient, Message: "no client selected"}
	case Running:
		return &StateError{Code: ErrCodeAlreadyRunning, Message: "timer already running", Client: m.client}
	}

	// Truncate to the log's 1-second resolution so the in-memory start,
	// the marker row, and the eventual record all agree.
	now := m.clock.Now().Truncate(time.Second)
	m.startTime = now
	m.ticks = 0
	m.state = Running

	if err := m.marker.Save(m.client, now); err != nil {
		slog.Warn("marker write failed, crash recovery unavailable for this session", "error", err)
	} else if err := m.marker.Touch(now); err != nil {
		slog.Warn("heartbeat write failed", "error", err)
	}

	slog.Info("timer started", "client", m.client, "start", store.FormatTime(now))
	return nil
}

// Stop ends the running timer and appends its record to the session log.
//
// If the append fails because the log is held open by another program
// (store.IsBlocked), the machine remains Running with an unchanged start
// time; the user closes the other program and retries, and exactly one
// record is appended. Any other append failure also leaves the machine
// Running so no tracked time is lost.
func (m *Machine) Stop() error {
	if err := m.requireRecovered(); err != nil {
		return err
	}
	if m.state != Running {
		return &StateError{Code: ErrCodeNotRunning, Message: "no timer running"}
	}
	return m.stop()
}

// stop appends the current interval and transitions to ClientSelected.
// Callers have verified state == Running.
func (m *Machine) stop() error {
	end := m.clock.Now().Truncate(time.Second)

	if !end.After(m.startTime) {
		// Shorter than the log's 1-second resolution; nothing worth a
		// row. The timer still stops cleanly.
		slog.Info("session shorter than log resolution, discarded", "client", m.client)
	} else {
		rec := store.Record{Client: m.client, Start: m.startTime, End: end}
		if err := m.records.Append(rec); err != nil {
			slog.Error("session append failed, timer kept running", "client", m.client, "error", err)
			return err
		}
		slog.Info("session recorded",
			"client", m.client,
			"start", store.FormatTime(rec.Start),
			"end", store.FormatTime(rec.End),
		)
	}

	if err := m.marker.Clear(); err != nil {
		// Non-critical: a stale marker is re-resolved by recovery at the
		// next launch, and the record above is already durable.
		slog.Warn("marker clear failed", "error", err)
	}

	m.startTime = time.Time{}
	m.ticks = 0
	m.state = ClientSelected
	return nil
}

// Tick advances the heartbeat bookkeeping by one second of wall-clock.
//
// The host calls this on a fixed 1-second cadence. Every sixtieth tick
// while Running refreshes the heartbeat file. Tick never changes state.
func (m *Machine) Tick() {
	if m.state != Running {
		return
	}

	m.ticks++
	if m.ticks < heartbeatEveryTicks {
		return
	}
	m.ticks = 0

	if err := m.marker.Touch(m.clock.Now()); err != nil {
		slog.Warn("heartbeat write failed", "error", err)
	}
}

// Snapshot is a read-only view of the machine for display.
type Snapshot struct {
	State   State
	Client  string
	Start   time.Time     // zero unless Running
	Elapsed time.Duration // live session elapsed, zero unless Running
}

// Snapshot returns the current display view.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{State: m.state, Client: m.client}
	if m.state == Running {
		snap.Start = m.startTime
		snap.Elapsed = m.clock.Now().Sub(m.startTime)
	}
	return snap
}

// CurrentTotals aggregates the selected client's today/week/month totals,
// including the live interval when a timer runs.
//
// Invalid log rows are discarded from the totals with a warning; they are
// reported properly by Validate, and dropping them here keeps the display
// usable with a damaged log.
func (m *Machine) CurrentTotals() (aggregate.Totals, error) {
	if m.client == "" {
		return aggregate.Totals{}, &StateError{Code: ErrCodeNoClient, Message: "no client selected"}
	}

	records, issues, err := m.records.Load()
	if err != nil {
		return aggregate.Totals{}, err
	}
	if len(issues) > 0 {
		slog.Warn("session log has invalid rows, excluded from totals", "count", len(issues))
	}

	var live *time.Time
	if m.state == Running {
		start := m.startTime
		live = &start
	}
	return aggregate.Aggregate(records, m.client, m.clock.Now(), live), nil
}

// AmendLastStop rewrites the end timestamp of the last recorded session
// and returns the amended record. This is the only permitted edit of
// history; all prior records stay untouched. Fails with an empty-store
// error when no record exists, rejects an end that is not after the
// record's start, and refuses a log with invalid rows, since the rewrite
// would silently drop them.
func (m *Machine) AmendLastStop(newEnd time.Time) (store.Record, error) {
	if err := m.requireRecovered(); err != nil {
		return store.Record{}, err
	}

	records, issues, err := m.records.Load()
	if err != nil {
		return store.Record{}, err
	}
	if len(issues) > 0 {
		return store.Record{}, issues[0]
	}
	if len(records) == 0 {
		return store.Record{}, store.NewEmptyStoreError("")
	}

	last := records[len(records)-1]
	last.End = newEnd.Truncate(time.Second)
	if err := m.records.ReplaceLast(last); err != nil {
		return store.Record{}, err
	}
	return last, nil
}

// requireRecovered rejects transitions until startup recovery has run,
// so a fresh Start cannot race an unresolved crash marker.
func (m *Machine) requireRecovered() error {
	if m.recovered {
		return nil
	}
	return &StateError{Code: ErrCodeNotRecovered, Message: "startup recovery has not completed"}
}
