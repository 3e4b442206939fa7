// Package locker drives one ext-session-lock session from the registry
// round-trip to the final unlock.
//
// A Locker is single-threaded. Every handler runs on the goroutine that
// called Run, from inside Conn.Roundtrip or Conn.Dispatch. Handlers never
// return errors; they record the first fatal error with fail, and the main
// loop returns it after the dispatch that produced it.
package locker

import (
	"errors"
	"fmt"
	"time"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
	"github.com/tuxx/shimmerlock/internal/outputs"
	"github.com/tuxx/shimmerlock/internal/render"
	"github.com/tuxx/shimmerlock/internal/seat"
	"github.com/tuxx/shimmerlock/internal/session"
)

// DefaultUnlockKey is the evdev code of KEY_ESC.
const DefaultUnlockKey uint32 = 1

var (
	// ErrMissingGlobal is returned when a required global was not advertised.
	ErrMissingGlobal = errors.New("required globals not advertised")
	// ErrUnknownLockSurface is returned for a configure that matches no output.
	ErrUnknownLockSurface = errors.New("configure for unknown lock surface")
	// ErrUnsupportedKeymap is returned for keymaps that are not xkb_v1.
	ErrUnsupportedKeymap = errors.New("unsupported keymap format")
	// ErrMissingKeymapFd is returned when a keymap event carried no fd.
	ErrMissingKeymapFd = errors.New("keymap event without fd")
)

// Hinter publishes the lock state to the rest of the session.
type Hinter interface {
	SetLockedHint(locked bool) error
}

// Config holds the inputs of a Locker.
type Config struct {
	// UnlockKey is the raw key code that ends the session.
	UnlockKey uint32
	// Renderers builds the renderer factory once wl_shm is bound.
	Renderers func(display.Shm) render.Factory
	// Hinter is optional.
	Hinter Hinter
	// Now defaults to time.Now.
	Now func() time.Time
}

// Locker owns the connection state of one lock session.
type Locker struct {
	conn      display.Conn
	unlockKey uint32
	renderers func(display.Shm) render.Factory
	hinter    Hinter
	now       func() time.Time

	registry   display.Registry
	compositor display.Compositor
	seat       display.Seat
	shm        display.Shm
	lockMgr    display.LockManager
	lock       display.Lock
	factory    render.Factory

	tracker *seat.Tracker
	outputs outputs.Set
	session session.Machine

	start       time.Time
	running     bool
	resync      bool
	hintPending bool
	err         error
}

// New creates a Locker for conn. It does not touch the connection.
func New(conn display.Conn, cfg Config) *Locker {
	l := &Locker{
		conn:      conn,
		unlockKey: cfg.UnlockKey,
		renderers: cfg.Renderers,
		hinter:    cfg.Hinter,
		now:       cfg.Now,
	}
	if l.now == nil {
		l.now = time.Now
	}
	l.tracker = seat.NewTracker(l, l)
	l.session.OnTransition = func(from, to session.State) {
		logger.Info("lock session", "from", from, "to", to)
	}
	return l
}

// State returns the current lock session state.
func (l *Locker) State() session.State { return l.session.State() }

// fail records err unless an earlier error is already recorded.
func (l *Locker) fail(err error) {
	if l.err == nil {
		logger.Error("fatal", "err", err)
		l.err = err
	}
}

func (l *Locker) failed() bool { return l.err != nil }

// Run locks the session and blocks until it is unlocked or a fatal error
// occurs. It returns nil only after the compositor processed the unlock.
func (l *Locker) Run() error {
	if l.renderers == nil {
		return errors.New("locker: no renderer factory configured")
	}
	reg, err := l.conn.Listen(l)
	if err != nil {
		return err
	}
	l.registry = reg
	if err := l.conn.Roundtrip(); err != nil {
		return l.abort(fmt.Errorf("initial roundtrip: %w", err))
	}
	if l.err != nil {
		return l.abort(l.err)
	}
	if err := l.validate(); err != nil {
		return l.abort(err)
	}
	l.factory = l.renderers(l.shm)

	if err := l.requestLock(); err != nil {
		return l.abort(err)
	}
	l.createLockSurfaces()
	if l.err != nil {
		return l.abort(l.err)
	}
	if err := l.conn.Roundtrip(); err != nil {
		return l.abort(fmt.Errorf("roundtrip: %w", err))
	}
	l.running = true
	if len(l.outputs.WithoutLockSurface()) > 0 {
		l.resync = true
	}

	for !l.session.Done() && l.err == nil {
		if l.hintPending {
			l.hintPending = false
			l.setHint(true)
		}
		if l.resync {
			l.resync = false
			if err := l.conn.Roundtrip(); err != nil {
				return l.abort(fmt.Errorf("resync roundtrip: %w", err))
			}
			l.createLockSurfaces()
			continue
		}
		if err := l.conn.Dispatch(); err != nil {
			return l.abort(fmt.Errorf("dispatch: %w", err))
		}
	}
	if l.err != nil {
		return l.abort(l.err)
	}
	return l.unlock()
}

func (l *Locker) requestLock() error {
	lock, err := l.lockMgr.Lock(l)
	if err != nil {
		return fmt.Errorf("lock request: %w", err)
	}
	l.lock = lock
	l.start = l.now()
	if err := l.session.Request(); err != nil {
		return err
	}
	logger.Info("lock requested", "outputs", l.outputs.Len())
	return nil
}

// createLockSurfaces gives every output without a lock surface a new
// wl_surface and lock surface.
func (l *Locker) createLockSurfaces() {
	for _, e := range l.outputs.WithoutLockSurface() {
		if l.failed() {
			return
		}
		if err := l.createLockSurface(e); err != nil {
			l.fail(fmt.Errorf("output %d: %w", e.ID, err))
		}
	}
}

func (l *Locker) createLockSurface(e *outputs.Entry) error {
	surface, err := l.compositor.CreateSurface()
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	lis := &surfaceListener{l: l, id: e.ID}
	ls, err := l.lock.GetLockSurface(surface, e.Output, lis)
	if err != nil {
		_ = surface.Destroy()
		return fmt.Errorf("get lock surface: %w", err)
	}
	lis.lockSurface = ls
	e.Surface, e.LockSurface = surface, ls
	logger.Debug("lock surface created", "output", e.ID)
	return nil
}

// elapsed returns the milliseconds since the lock request.
func (l *Locker) elapsed() uint32 {
	return uint32(l.now().Sub(l.start).Milliseconds())
}

// unlock releases the lock after an authorized unlock.
func (l *Locker) unlock() error {
	if err := l.lock.UnlockAndDestroy(); err != nil {
		return fmt.Errorf("unlock and destroy: %w", err)
	}
	l.lock = nil
	if err := l.conn.Roundtrip(); err != nil {
		return fmt.Errorf("final roundtrip: %w", err)
	}
	logger.Info("session unlocked")
	l.setHint(false)
	l.cleanup()
	return nil
}

// abort tears everything down and returns err. The lock object is only
// destroyed once the compositor finished it.
func (l *Locker) abort(err error) error {
	if l.lock != nil && l.session.State() == session.Aborted {
		if derr := l.lock.Destroy(); derr != nil {
			logger.Warn("destroy lock", "err", derr)
		}
		l.lock = nil
	}
	l.cleanup()
	return err
}

func (l *Locker) cleanup() {
	if err := l.outputs.Clear(); err != nil {
		logger.Warn("tear down outputs", "err", err)
	}
	if err := l.tracker.Close(); err != nil {
		logger.Warn("release input devices", "err", err)
	}
	if l.lockMgr != nil {
		if err := l.lockMgr.Destroy(); err != nil {
			logger.Warn("destroy lock manager", "err", err)
		}
		l.lockMgr = nil
	}
}

func (l *Locker) setHint(locked bool) {
	if l.hinter == nil {
		return
	}
	if err := l.hinter.SetLockedHint(locked); err != nil {
		logger.Warn("set locked hint", "locked", locked, "err", err)
	}
}
