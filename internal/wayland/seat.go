package wayland

import (
	"github.com/neurlang/wayland/wl"

	"github.com/tuxx/shimmerlock/internal/display"
)

type seat struct {
	s *wl.Seat
	h display.SeatHandler
}

func (s *seat) HandleSeatCapabilities(ev wl.SeatCapabilitiesEvent) {
	s.h.HandleCapabilities(ev.Capabilities)
}

func (s *seat) GetKeyboard(h display.KeyboardHandler) (display.Keyboard, error) {
	kb, err := s.s.GetKeyboard()
	if err != nil {
		return nil, err
	}
	lis := keyboardListener{h: h}
	kb.AddKeymapHandler(lis)
	kb.AddKeyHandler(lis)
	return &keyboard{kb: kb}, nil
}

func (s *seat) GetPointer(h display.PointerHandler) (display.Pointer, error) {
	p, err := s.s.GetPointer()
	if err != nil {
		return nil, err
	}
	p.AddEnterHandler(pointerListener{h: h})
	return &pointer{p: p}, nil
}

type keyboardListener struct {
	h display.KeyboardHandler
}

func (l keyboardListener) HandleKeyboardKeymap(ev wl.KeyboardKeymapEvent) {
	l.h.HandleKeymap(display.KeymapEvent{Format: ev.Format, Fd: ev.Fd, Size: ev.Size, FdErr: ev.FdError})
}

func (l keyboardListener) HandleKeyboardKey(ev wl.KeyboardKeyEvent) {
	l.h.HandleKey(display.KeyEvent{Serial: ev.Serial, Time: ev.Time, Key: ev.Key, State: ev.State})
}

type keyboard struct {
	kb *wl.Keyboard
}

func (k *keyboard) Release() error {
	return k.kb.Release()
}

type pointerListener struct {
	h display.PointerHandler
}

func (l pointerListener) HandlePointerEnter(ev wl.PointerEnterEvent) {
	l.h.HandlePointerEnter(display.PointerEnterEvent{Serial: ev.Serial})
}

type pointer struct {
	p *wl.Pointer
}

func (p *pointer) HideCursor(serial uint32) error {
	return p.p.SetCursor(serial, nil, 0, 0)
}

func (p *pointer) Release() error {
	return p.p.Release()
}
