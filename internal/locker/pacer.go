package locker

import (
	"fmt"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
	"github.com/tuxx/shimmerlock/internal/outputs"
)

// surfaceListener receives the configure and frame events of one lock
// surface. lockSurface is set once the lock surface was created.
type surfaceListener struct {
	l           *Locker
	id          uint32
	lockSurface display.LockSurface
}

// entry returns the output entry still owning this lock surface. A nil
// entry with a nil error means the lock surface was already destroyed.
func (s *surfaceListener) entry() (*outputs.Entry, error) {
	e, ok := s.l.outputs.Get(s.id)
	if ok && s.lockSurface != nil && e.LockSurface == s.lockSurface {
		return e, nil
	}
	if s.lockSurface != nil {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: output %d", ErrUnknownLockSurface, s.id)
}

func (s *surfaceListener) HandleConfigure(ev display.ConfigureEvent) {
	if s.l.failed() {
		return
	}
	e, err := s.entry()
	if err != nil {
		s.l.fail(err)
		return
	}
	if e == nil {
		logger.Debug("ignoring configure for destroyed lock surface", "output", s.id, "serial", ev.Serial)
		return
	}
	if err := s.l.configure(e, s, ev); err != nil {
		s.l.fail(fmt.Errorf("output %d: %w", e.ID, err))
	}
}

func (s *surfaceListener) HandleFrameDone(uint32) {
	if s.l.failed() {
		return
	}
	e, err := s.entry()
	if err != nil || e == nil {
		return
	}
	e.FramePending = false
	if err := s.l.frame(e, s); err != nil {
		s.l.fail(fmt.Errorf("output %d: %w", e.ID, err))
	}
}

// configure acks ev, then brings the entry's renderer to the configured
// size. An unchanged size only commits.
func (l *Locker) configure(e *outputs.Entry, fh display.FrameHandler, ev display.ConfigureEvent) error {
	if err := e.LockSurface.AckConfigure(ev.Serial); err != nil {
		return fmt.Errorf("ack configure: %w", err)
	}
	if err := l.requestFrame(e, fh); err != nil {
		return err
	}

	switch {
	case !e.Configured():
		r, err := l.factory.New(e.Surface, ev.Width, ev.Height)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		e.Renderer = r
	case e.Width != ev.Width || e.Height != ev.Height:
		if err := e.Renderer.Resize(ev.Width, ev.Height); err != nil {
			return fmt.Errorf("resize renderer: %w", err)
		}
	default:
		if err := e.Surface.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	}
	e.Width, e.Height = ev.Width, ev.Height

	if err := e.Renderer.Render(l.elapsed()); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// frame renders the next frame after a completed callback.
func (l *Locker) frame(e *outputs.Entry, fh display.FrameHandler) error {
	if !e.Configured() {
		return nil
	}
	if err := l.requestFrame(e, fh); err != nil {
		return err
	}
	if err := e.Renderer.Render(l.elapsed()); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// requestFrame asks for a frame callback unless one is outstanding. It must
// precede the commit the callback belongs to.
func (l *Locker) requestFrame(e *outputs.Entry, fh display.FrameHandler) error {
	if e.FramePending {
		return nil
	}
	if err := e.Surface.Frame(fh); err != nil {
		return fmt.Errorf("frame callback: %w", err)
	}
	e.FramePending = true
	return nil
}
