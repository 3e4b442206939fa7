// Package logind publishes the lock state of the current session through
// the org.freedesktop.login1 LockedHint property.
package logind

import (
	"errors"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	dest        = "org.freedesktop.login1"
	managerPath = dbus.ObjectPath("/org/freedesktop/login1")

	methodGetSession      = "org.freedesktop.login1.Manager.GetSession"
	methodGetSessionByPID = "org.freedesktop.login1.Manager.GetSessionByPID"
	methodSetLockedHint   = "org.freedesktop.login1.Session.SetLockedHint"
)

// caller is the part of dbus.BusObject used here.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Session is a logind session on the system bus.
type Session struct {
	conn *dbus.Conn
	obj  caller
	path dbus.ObjectPath
}

// Connect finds the session named sessionID, usually XDG_SESSION_ID. An
// empty sessionID looks the session up by the caller's pid.
func Connect(sessionID string) (*Session, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	path, err := resolve(conn.Object(dest, managerPath), sessionID, os.Getpid())
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Session{conn: conn, obj: conn.Object(dest, path), path: path}, nil
}

func resolve(manager caller, sessionID string, pid int) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	var call *dbus.Call
	if sessionID != "" {
		call = manager.Call(methodGetSession, 0, sessionID)
	} else {
		call = manager.Call(methodGetSessionByPID, 0, uint32(pid))
	}
	if err := call.Store(&path); err != nil {
		if sessionID == "" {
			return "", fmt.Errorf("could not find session of pid %d: %w", pid, err)
		}
		return "", fmt.Errorf("could not find session %q: %w", sessionID, err)
	}
	if !path.IsValid() {
		return "", fmt.Errorf("invalid session path %q", path)
	}
	return path, nil
}

// Path returns the session's object path.
func (s *Session) Path() dbus.ObjectPath { return s.path }

func (s *Session) SetLockedHint(locked bool) error {
	if s.obj == nil {
		return errors.New("session is closed")
	}
	if err := s.obj.Call(methodSetLockedHint, 0, locked).Err; err != nil {
		return fmt.Errorf("could not set locked hint: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	s.obj = nil
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
