package sessionlock

import (
	"github.com/neurlang/wayland/wl"
)

// BindManager binds the ext_session_lock_manager_v1 global called name,
// capping version at ManagerVersion.
func BindManager(r *wl.Registry, name uint32, version uint32) (*Manager, error) {
	m := NewManager(r.Context())
	if err := r.Bind(name, ManagerInterface, min(version, ManagerVersion), m); err != nil {
		return nil, err
	}
	return m, nil
}

// LockedHandlerFunc adapts a function to LockedHandler.
type LockedHandlerFunc func(LockedEvent)

func (f LockedHandlerFunc) HandleLocked(ev LockedEvent) { f(ev) }

// ConfigureHandlerFunc adapts a function to ConfigureHandler.
type ConfigureHandlerFunc func(ConfigureEvent)

func (f ConfigureHandlerFunc) HandleConfigure(ev ConfigureEvent) { f(ev) }

// AddLockListener registers h for every lock event it implements.
func AddLockListener(l *Lock, h any) {
	if lh, ok := h.(LockedHandler); ok {
		l.AddLockedHandler(lh)
	}
	if fh, ok := h.(FinishedHandler); ok {
		l.AddFinishedHandler(fh)
	}
}
