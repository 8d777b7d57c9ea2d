// Package session implements the timer state machine at the center of the
// tracker.
//
// A Machine owns "is a timer running, and for which client" and drives
// every transition between the session log, the running-session marker,
// and the aggregator. It has three states:
//
//	Idle            no client selected
//	ClientSelected  a client is selected, no timer running
//	Running         a timer is running for the selected client
//
// Persistence collaborators are injected as interfaces, and the wall
// clock is injected as a Clock, so transitions are testable with fakes
// and a fixed time.
//
// Crash recovery: RecoverOnStartup must run to completion, including the
// caller's yes/no decision, before any other transition is accepted.
// A declined recovery discards the interrupted session permanently; that
// is lossy by user consent, not a defect.
//
// Machine is not safe for concurrent use. The intended host is a single
// cooperative loop that multiplexes user actions and a 1-second tick.
package session
