package sessionlock

import (
	"testing"

	"github.com/neurlang/wayland/wl"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	locked   int
	finished int
}

func (r *recorder) HandleLocked(LockedEvent)     { r.locked++ }
func (r *recorder) HandleFinished(FinishedEvent) { r.finished++ }

func TestLockDispatch(t *testing.T) {
	t.Run("routes locked and finished to listeners", func(t *testing.T) {
		l := &Lock{}
		rec := &recorder{}
		AddLockListener(l, rec)

		l.Dispatch(&wl.Event{Opcode: lockEventLocked})
		assert.Equal(t, 1, rec.locked)
		assert.Equal(t, 0, rec.finished)

		l.Dispatch(&wl.Event{Opcode: lockEventFinished})
		assert.Equal(t, 1, rec.finished)
	})

	t.Run("removed handlers stop receiving events", func(t *testing.T) {
		l := &Lock{}
		rec := &recorder{}
		l.AddLockedHandler(rec)
		l.AddFinishedHandler(rec)
		l.RemoveLockedHandler(rec)
		l.RemoveFinishedHandler(rec)

		l.Dispatch(&wl.Event{Opcode: lockEventLocked})
		l.Dispatch(&wl.Event{Opcode: lockEventFinished})
		assert.Zero(t, rec.locked)
		assert.Zero(t, rec.finished)
	})

	t.Run("unknown opcodes are ignored", func(t *testing.T) {
		l := &Lock{}
		rec := &recorder{}
		AddLockListener(l, rec)
		l.Dispatch(&wl.Event{Opcode: 7})
		assert.Zero(t, rec.locked+rec.finished)
	})

	t.Run("nil handlers are not registered", func(t *testing.T) {
		l := &Lock{}
		l.AddLockedHandler(nil)
		l.AddFinishedHandler(nil)
		assert.Empty(t, l.locked)
		assert.Empty(t, l.finished)
	})
}

func TestHandlerFuncs(t *testing.T) {
	var got ConfigureEvent
	var h ConfigureHandler = ConfigureHandlerFunc(func(ev ConfigureEvent) { got = ev })
	h.HandleConfigure(ConfigureEvent{Serial: 3, Width: 800, Height: 600})
	assert.Equal(t, ConfigureEvent{Serial: 3, Width: 800, Height: 600}, got)

	locked := false
	AddLockListener(&Lock{}, nil)
	LockedHandlerFunc(func(LockedEvent) { locked = true }).HandleLocked(LockedEvent{})
	assert.True(t, locked)
}
