// Package outputs keeps one lock surface entry per advertised wl_output.
package outputs

import (
	"errors"
	"fmt"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/render"
)

// Entry is the lock surface state of one output.
//
// Surface and LockSurface are set together when the lock surface is
// requested. Renderer is set on the first configure; Width and Height are
// the size last applied to it.
type Entry struct {
	ID     uint32
	Output display.Output

	Surface     display.Surface
	LockSurface display.LockSurface
	Renderer    render.Renderer

	Width, Height uint32
	// FramePending is set while a frame callback is outstanding.
	FramePending bool
}

// HasLockSurface reports whether a lock surface was requested and not yet destroyed.
func (e *Entry) HasLockSurface() bool { return e.LockSurface != nil }

// Configured reports whether the entry has a renderer.
func (e *Entry) Configured() bool { return e.Renderer != nil }

// Teardown destroys the entry's protocol objects, lock surface first.
// Each object is destroyed at most once.
func (e *Entry) Teardown() error {
	var errs []error
	if e.LockSurface != nil {
		if err := e.LockSurface.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy lock surface: %w", err))
		}
		e.LockSurface = nil
	}
	if e.Renderer != nil {
		if err := e.Renderer.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy renderer: %w", err))
		}
		e.Renderer = nil
	}
	if e.Surface != nil {
		if err := e.Surface.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy surface: %w", err))
		}
		e.Surface = nil
	}
	e.FramePending = false
	return errors.Join(errs...)
}

// Set is an ordered collection of entries keyed by registry name.
type Set struct {
	entries []*Entry
}

// Add appends an entry for output. It returns false if id is already tracked.
func (s *Set) Add(id uint32, output display.Output) (*Entry, bool) {
	if _, ok := s.Get(id); ok {
		return nil, false
	}
	e := &Entry{ID: id, Output: output}
	s.entries = append(s.entries, e)
	return e, true
}

func (s *Set) index(id uint32) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Set) Get(id uint32) (*Entry, bool) {
	if i := s.index(id); i >= 0 {
		return s.entries[i], true
	}
	return nil, false
}

// Remove tears down and drops the entry for id. It reports whether an
// entry was found; the entry is dropped even if teardown fails.
func (s *Set) Remove(id uint32) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	err := s.entries[i].Teardown()
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true, err
}

func (s *Set) Len() int { return len(s.entries) }

// WithoutLockSurface returns entries still waiting for a lock surface.
func (s *Set) WithoutLockSurface() []*Entry {
	var pending []*Entry
	for _, e := range s.entries {
		if !e.HasLockSurface() {
			pending = append(pending, e)
		}
	}
	return pending
}

// Clear tears down every entry.
func (s *Set) Clear() error {
	var errs []error
	for _, e := range s.entries {
		errs = append(errs, e.Teardown())
	}
	s.entries = nil
	return errors.Join(errs...)
}
