package locker

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
)

func (l *Locker) HandleCapabilities(caps uint32) {
	if l.failed() {
		return
	}
	if err := l.tracker.Update(caps); err != nil {
		l.fail(fmt.Errorf("seat capabilities: %w", err))
	}
}

// HandleKeymap closes the keymap fd. Key codes are matched raw, so only the
// format is checked.
func (l *Locker) HandleKeymap(ev display.KeymapEvent) {
	if ev.FdErr != nil {
		if !l.failed() {
			l.fail(fmt.Errorf("%w: %w", ErrMissingKeymapFd, ev.FdErr))
		}
		return
	}
	if err := unix.Close(int(ev.Fd)); err != nil {
		logger.Warn("close keymap fd", "fd", ev.Fd, "err", err)
	}
	if l.failed() {
		return
	}
	if ev.Format != display.KeymapXkbV1 {
		l.fail(fmt.Errorf("%w: %d", ErrUnsupportedKeymap, ev.Format))
	}
}

func (l *Locker) HandleKey(ev display.KeyEvent) {
	if l.failed() || ev.State != display.KeyPressed || ev.Key != l.unlockKey {
		return
	}
	if !l.session.Unlock() {
		logger.Debug("unlock key ignored", "state", l.session.State())
	}
}

func (l *Locker) HandlePointerEnter(ev display.PointerEnterEvent) {
	if l.failed() {
		return
	}
	p := l.tracker.Pointer()
	if p == nil {
		return
	}
	if err := p.HideCursor(ev.Serial); err != nil {
		l.fail(fmt.Errorf("hide cursor: %w", err))
	}
}

func (l *Locker) HandleLocked() {
	if l.failed() {
		return
	}
	if err := l.session.Locked(); err != nil {
		l.fail(err)
		return
	}
	l.hintPending = true
}

func (l *Locker) HandleFinished() {
	if l.failed() {
		return
	}
	l.fail(l.session.Finished())
}
