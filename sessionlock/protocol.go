// Package sessionlock implements client proxies for the ext_session_lock_v1 protocol
// on top of github.com/neurlang/wayland.
package sessionlock

import (
	"sync"

	"github.com/neurlang/wayland/wl"
)

// Interface names as advertised by wl_registry.
const (
	ManagerInterface     = "ext_session_lock_manager_v1"
	LockInterface        = "ext_session_lock_v1"
	LockSurfaceInterface = "ext_session_lock_surface_v1"

	// ManagerVersion is the highest manager version these proxies speak.
	ManagerVersion uint32 = 1
)

// ext_session_lock_v1 error codes.
const (
	LockErrorInvalidDestroy uint32 = iota
	LockErrorInvalidUnlock
	LockErrorRole
	LockErrorDuplicateOutput
	LockErrorAlreadyConstructed
)

// ext_session_lock_surface_v1 error codes.
const (
	SurfaceErrorCommitBeforeFirstAck uint32 = iota
	SurfaceErrorNullBuffer
	SurfaceErrorDimensionsMismatch
	SurfaceErrorInvalidSerial
)

const (
	managerRequestDestroy uint32 = iota
	managerRequestLock
)

const (
	lockRequestDestroy uint32 = iota
	lockRequestGetLockSurface
	lockRequestUnlockAndDestroy
)

const (
	lockEventLocked uint32 = iota
	lockEventFinished
)

const (
	surfaceRequestDestroy uint32 = iota
	surfaceRequestAckConfigure
)

const surfaceEventConfigure uint32 = 0

// Manager is an ext_session_lock_manager_v1 proxy. It has no events.
type Manager struct {
	wl.BaseProxy
}

// NewManager registers a new manager proxy on ctx.
func NewManager(ctx *wl.Context) *Manager {
	m := new(Manager)
	ctx.Register(m)
	return m
}

// Destroy releases the manager. Existing locks are unaffected.
func (m *Manager) Destroy() error {
	return m.Context().SendRequest(m, managerRequestDestroy)
}

// Lock asks the compositor to lock the session. The compositor answers
// with exactly one of the locked or finished events on the returned lock.
func (m *Manager) Lock() (*Lock, error) {
	l := NewLock(m.Context())
	return l, m.Context().SendRequest(m, managerRequestLock, l)
}

// Dispatch implements wl.Dispatcher.
func (m *Manager) Dispatch(*wl.Event) {}

// Lock is an ext_session_lock_v1 proxy.
type Lock struct {
	wl.BaseProxy
	mu       sync.RWMutex
	locked   []LockedHandler
	finished []FinishedHandler
}

// NewLock registers a new lock proxy on ctx.
func NewLock(ctx *wl.Context) *Lock {
	l := new(Lock)
	ctx.Register(l)
	return l
}

// Destroy is only legal before the locked event was received.
func (l *Lock) Destroy() error {
	return l.Context().SendRequest(l, lockRequestDestroy)
}

// GetLockSurface assigns the lock surface role to surface on output.
func (l *Lock) GetLockSurface(surface *wl.Surface, output *wl.Output) (*LockSurface, error) {
	s := NewLockSurface(l.Context())
	return s, l.Context().SendRequest(l, lockRequestGetLockSurface, s, surface, output)
}

// UnlockAndDestroy is only legal after the locked event was received.
func (l *Lock) UnlockAndDestroy() error {
	return l.Context().SendRequest(l, lockRequestUnlockAndDestroy)
}

// Dispatch implements wl.Dispatcher.
func (l *Lock) Dispatch(event *wl.Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch event.Opcode {
	case lockEventLocked:
		for _, h := range l.locked {
			h.HandleLocked(LockedEvent{})
		}
	case lockEventFinished:
		for _, h := range l.finished {
			h.HandleFinished(FinishedEvent{})
		}
	}
}

// LockedEvent is sent once the compositor has blanked every output.
type LockedEvent struct{}

// FinishedEvent is sent when the lock was refused or revoked.
type FinishedEvent struct{}

type LockedHandler interface {
	HandleLocked(LockedEvent)
}

type FinishedHandler interface {
	HandleFinished(FinishedEvent)
}

// AddLockedHandler registers h for the locked event.
func (l *Lock) AddLockedHandler(h LockedHandler) {
	if h == nil {
		return
	}
	l.mu.Lock()
	l.locked = append(l.locked, h)
	l.mu.Unlock()
}

// RemoveLockedHandler unregisters h.
func (l *Lock) RemoveLockedHandler(h LockedHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.locked {
		if e == h {
			l.locked = append(l.locked[:i], l.locked[i+1:]...)
			return
		}
	}
}

// AddFinishedHandler registers h for the finished event.
func (l *Lock) AddFinishedHandler(h FinishedHandler) {
	if h == nil {
		return
	}
	l.mu.Lock()
	l.finished = append(l.finished, h)
	l.mu.Unlock()
}

// RemoveFinishedHandler unregisters h.
func (l *Lock) RemoveFinishedHandler(h FinishedHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.finished {
		if e == h {
			l.finished = append(l.finished[:i], l.finished[i+1:]...)
			return
		}
	}
}

// LockSurface is an ext_session_lock_surface_v1 proxy.
type LockSurface struct {
	wl.BaseProxy
	mu        sync.RWMutex
	configure []ConfigureHandler
}

// NewLockSurface registers a new lock surface proxy on ctx.
func NewLockSurface(ctx *wl.Context) *LockSurface {
	s := new(LockSurface)
	ctx.Register(s)
	return s
}

// Destroy releases the lock surface role. The wl_surface stays alive.
func (s *LockSurface) Destroy() error {
	return s.Context().SendRequest(s, surfaceRequestDestroy)
}

// AckConfigure acknowledges the configure event carrying serial.
func (s *LockSurface) AckConfigure(serial uint32) error {
	return s.Context().SendRequest(s, surfaceRequestAckConfigure, serial)
}

// Dispatch implements wl.Dispatcher.
func (s *LockSurface) Dispatch(event *wl.Event) {
	if event.Opcode != surfaceEventConfigure {
		return
	}
	ev := ConfigureEvent{
		Serial: event.Uint32(),
		Width:  event.Uint32(),
		Height: event.Uint32(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.configure {
		h.HandleConfigure(ev)
	}
}

// ConfigureEvent carries the size the client must use for the output.
type ConfigureEvent struct {
	Serial uint32
	Width  uint32
	Height uint32
}

type ConfigureHandler interface {
	HandleConfigure(ConfigureEvent)
}

// AddConfigureHandler registers h for the configure event.
func (s *LockSurface) AddConfigureHandler(h ConfigureHandler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	s.configure = append(s.configure, h)
	s.mu.Unlock()
}
