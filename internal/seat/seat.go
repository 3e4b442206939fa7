// Package seat keeps the keyboard and pointer of the single wl_seat in step
// with its advertised capabilities.
package seat

import (
	"errors"
	"fmt"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
)

// Tracker owns the input devices of one seat.
type Tracker struct {
	keyboardHandler display.KeyboardHandler
	pointerHandler  display.PointerHandler

	seat     display.Seat
	keyboard display.Keyboard
	pointer  display.Pointer
}

// NewTracker routes keyboard events to kh and pointer events to ph.
func NewTracker(kh display.KeyboardHandler, ph display.PointerHandler) *Tracker {
	return &Tracker{keyboardHandler: kh, pointerHandler: ph}
}

// Attach sets the seat whose devices are tracked.
func (t *Tracker) Attach(s display.Seat) {
	t.seat = s
}

func (t *Tracker) Pointer() display.Pointer { return t.pointer }

// Update drops every device, then creates one per capability bit in caps.
func (t *Tracker) Update(caps uint32) error {
	if t.seat == nil {
		return errors.New("capabilities before seat was attached")
	}
	if err := t.drop(); err != nil {
		return err
	}

	if caps&display.CapabilityKeyboard != 0 {
		kb, err := t.seat.GetKeyboard(t.keyboardHandler)
		if err != nil {
			return fmt.Errorf("get keyboard: %w", err)
		}
		t.keyboard = kb
	}
	if caps&display.CapabilityPointer != 0 {
		p, err := t.seat.GetPointer(t.pointerHandler)
		if err != nil {
			return fmt.Errorf("get pointer: %w", err)
		}
		t.pointer = p
	}
	logger.Debug("seat capabilities", "keyboard", t.keyboard != nil, "pointer", t.pointer != nil)
	return nil
}

func (t *Tracker) drop() error {
	var errs []error
	if t.keyboard != nil {
		if err := t.keyboard.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release keyboard: %w", err))
		}
		t.keyboard = nil
	}
	if t.pointer != nil {
		if err := t.pointer.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release pointer: %w", err))
		}
		t.pointer = nil
	}
	return errors.Join(errs...)
}

// Close releases every device.
func (t *Tracker) Close() error {
	return t.drop()
}
