package locker

import (
	"fmt"
	"strings"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
)

func (l *Locker) HandleGlobal(g display.Global) {
	if l.failed() {
		return
	}
	switch g.Interface {
	case display.CompositorInterface:
		if l.compositor != nil {
			l.duplicate(g)
			return
		}
		c, err := l.registry.BindCompositor(g)
		if err != nil {
			l.fail(err)
			return
		}
		l.compositor = c
	case display.SeatInterface:
		if l.seat != nil {
			l.duplicate(g)
			return
		}
		s, err := l.registry.BindSeat(g, l)
		if err != nil {
			l.fail(err)
			return
		}
		l.seat = s
		l.tracker.Attach(s)
	case display.ShmInterface:
		if l.shm != nil {
			l.duplicate(g)
			return
		}
		s, err := l.registry.BindShm(g)
		if err != nil {
			l.fail(err)
			return
		}
		l.shm = s
	case display.LockManagerInterface:
		if l.lockMgr != nil {
			l.duplicate(g)
			return
		}
		m, err := l.registry.BindLockManager(g)
		if err != nil {
			l.fail(err)
			return
		}
		l.lockMgr = m
	case display.OutputInterface:
		l.addOutput(g)
		return
	default:
		logger.Debug("ignoring global", "interface", g.Interface, "name", g.Name)
		return
	}
	logger.Debug("bound global", "interface", g.Interface, "name", g.Name, "version", g.Version)
}

func (l *Locker) duplicate(g display.Global) {
	logger.Warn("ignoring duplicate global", "interface", g.Interface, "name", g.Name)
}

func (l *Locker) addOutput(g display.Global) {
	if _, ok := l.outputs.Get(g.Name); ok {
		l.duplicate(g)
		return
	}
	o, err := l.registry.BindOutput(g)
	if err != nil {
		l.fail(err)
		return
	}
	l.outputs.Add(g.Name, o)
	logger.Info("output added", "name", g.Name, "running", l.running)
	if l.running {
		l.resync = true
	}
}

func (l *Locker) HandleGlobalRemove(name uint32) {
	if l.failed() {
		return
	}
	found, err := l.outputs.Remove(name)
	if !found {
		logger.Debug("ignoring removal of untracked global", "name", name)
		return
	}
	if err != nil {
		l.fail(fmt.Errorf("remove output %d: %w", name, err))
		return
	}
	logger.Info("output removed", "name", name, "remaining", l.outputs.Len())
}

// validate checks that every required singleton was bound.
func (l *Locker) validate() error {
	var missing []string
	if l.compositor == nil {
		missing = append(missing, display.CompositorInterface)
	}
	if l.seat == nil {
		missing = append(missing, display.SeatInterface)
	}
	if l.shm == nil {
		missing = append(missing, display.ShmInterface)
	}
	if l.lockMgr == nil {
		missing = append(missing, display.LockManagerInterface)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingGlobal, strings.Join(missing, ", "))
	}
	return nil
}
