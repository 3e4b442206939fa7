// Package session is the lock session state machine.
//
//	Idle --Request--> Requested --Locked--> Locked --Unlock--> Finished
//	Requested --Finished event--> Aborted
//	Locked    --Finished event--> Aborted
//
// States only ever move forward. Finished is reachable only through Unlock.
package session

import (
	"errors"
	"fmt"
)

type State int

const (
	Idle State = iota
	Requested
	Locked
	Finished
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Locked:
		return "locked"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrIllegalTransition is returned when an input does not apply to the current state.
	ErrIllegalTransition = errors.New("illegal lock session transition")
	// ErrLockRefused means the compositor answered the lock request with finished.
	ErrLockRefused = errors.New("compositor refused to lock the session")
	// ErrLockRevoked means the compositor sent finished while the session was locked.
	ErrLockRevoked = errors.New("compositor revoked the session lock")
)

// Machine tracks one lock session. The zero value is Idle.
type Machine struct {
	state State

	// OnTransition, when set, observes every applied transition.
	OnTransition func(from, to State)
}

func (m *Machine) State() State { return m.state }

func (m *Machine) set(to State) {
	from := m.state
	m.state = to
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
}

// Request records that the lock request was issued.
func (m *Machine) Request() error {
	if m.state != Idle {
		return fmt.Errorf("%w: request from %s", ErrIllegalTransition, m.state)
	}
	m.set(Requested)
	return nil
}

// Locked applies the compositor's locked event.
func (m *Machine) Locked() error {
	if m.state != Requested {
		return fmt.Errorf("%w: locked event in %s", ErrIllegalTransition, m.state)
	}
	m.set(Locked)
	return nil
}

// Finished applies the compositor's finished event. It always returns an
// error: the event either aborts the session or is itself illegal.
func (m *Machine) Finished() error {
	switch m.state {
	case Requested:
		m.set(Aborted)
		return ErrLockRefused
	case Locked:
		m.set(Aborted)
		return ErrLockRevoked
	default:
		return fmt.Errorf("%w: finished event in %s", ErrIllegalTransition, m.state)
	}
}

// Unlock is the authorized unlock. It reports whether the session moved to
// Finished; outside Locked it has no effect.
func (m *Machine) Unlock() bool {
	if m.state != Locked {
		return false
	}
	m.set(Finished)
	return true
}

// Done reports whether the session reached a terminal state.
func (m *Machine) Done() bool {
	return m.state == Finished || m.state == Aborted
}
