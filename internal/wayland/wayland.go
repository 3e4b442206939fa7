// Package wayland implements internal/display on a live Wayland connection
// using github.com/neurlang/wayland.
package wayland

import (
	"errors"
	"fmt"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
	"github.com/tuxx/shimmerlock/sessionlock"
)

// Highest versions of the core globals the locker speaks.
const (
	compositorVersion uint32 = 4
	seatVersion       uint32 = 7
	shmVersion        uint32 = 1
	outputVersion     uint32 = 4
)

var errForeignObject = errors.New("object does not belong to this connection")

// Conn is a display.Conn backed by a wl.Display.
type Conn struct {
	display  *wl.Display
	registry *wl.Registry
}

var _ display.Conn = (*Conn)(nil)

// Connect opens the default display named by WAYLAND_DISPLAY.
func Connect() (*Conn, error) {
	d, err := wlclient.DisplayConnect(nil)
	if err != nil {
		return nil, fmt.Errorf("connect to wayland display: %w", err)
	}
	return &Conn{display: d}, nil
}

func (c *Conn) Listen(h display.RegistryHandler) (display.Registry, error) {
	r, err := c.display.GetRegistry()
	if err != nil {
		return nil, fmt.Errorf("get registry: %w", err)
	}
	lis := &registryListener{h: h}
	r.AddGlobalHandler(lis)
	r.AddGlobalRemoveHandler(lis)
	c.registry = r
	return &registry{r: r}, nil
}

func (c *Conn) Roundtrip() error {
	return wlclient.DisplayRoundtrip(c.display)
}

func (c *Conn) Dispatch() error {
	return wlclient.DisplayDispatch(c.display)
}

func (c *Conn) Close() error {
	return c.display.Context().Close()
}

type registryListener struct {
	h display.RegistryHandler
}

func (l *registryListener) HandleRegistryGlobal(ev wl.RegistryGlobalEvent) {
	l.h.HandleGlobal(display.Global{Name: ev.Name, Interface: ev.Interface, Version: ev.Version})
}

func (l *registryListener) HandleRegistryGlobalRemove(ev wl.RegistryGlobalRemoveEvent) {
	l.h.HandleGlobalRemove(ev.Name)
}

type registry struct {
	r *wl.Registry
}

func (r *registry) BindCompositor(g display.Global) (display.Compositor, error) {
	c := wlclient.RegistryBindCompositorInterface(r.r, g.Name, min(g.Version, compositorVersion))
	if c == nil {
		return nil, fmt.Errorf("bind %s: failed", g.Interface)
	}
	return &compositor{c: c}, nil
}

func (r *registry) BindSeat(g display.Global, h display.SeatHandler) (display.Seat, error) {
	s := wlclient.RegistryBindSeatInterface(r.r, g.Name, min(g.Version, seatVersion))
	if s == nil {
		return nil, fmt.Errorf("bind %s: failed", g.Interface)
	}
	st := &seat{s: s, h: h}
	s.AddCapabilitiesHandler(st)
	return st, nil
}

func (r *registry) BindShm(g display.Global) (display.Shm, error) {
	s := wlclient.RegistryBindShmInterface(r.r, g.Name, min(g.Version, shmVersion))
	if s == nil {
		return nil, fmt.Errorf("bind %s: failed", g.Interface)
	}
	return &shm{s: s}, nil
}

func (r *registry) BindOutput(g display.Global) (display.Output, error) {
	o := wlclient.RegistryBindOutputInterface(r.r, g.Name, min(g.Version, outputVersion))
	if o == nil {
		return nil, fmt.Errorf("bind %s: failed", g.Interface)
	}
	return &output{o: o, name: g.Name}, nil
}

func (r *registry) BindLockManager(g display.Global) (display.LockManager, error) {
	m, err := sessionlock.BindManager(r.r, g.Name, g.Version)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", g.Interface, err)
	}
	return &lockManager{m: m}, nil
}

type compositor struct {
	c *wl.Compositor
}

func (c *compositor) CreateSurface() (display.Surface, error) {
	s, err := c.c.CreateSurface()
	if err != nil {
		return nil, err
	}
	return &surface{s: s}, nil
}

type surface struct {
	s *wl.Surface
}

func (s *surface) Attach(b display.Buffer, x, y int32) error {
	buf, ok := b.(*buffer)
	if !ok {
		return errForeignObject
	}
	return s.s.Attach(buf.b, x, y)
}

func (s *surface) Damage(x, y, width, height int32) error {
	return s.s.Damage(x, y, width, height)
}

func (s *surface) Frame(h display.FrameHandler) error {
	cb, err := s.s.Frame()
	if err != nil {
		return err
	}
	cb.AddDoneHandler(callbackListener{h: h})
	return nil
}

func (s *surface) Commit() error {
	return s.s.Commit()
}

func (s *surface) Destroy() error {
	return s.s.Destroy()
}

type callbackListener struct {
	h display.FrameHandler
}

func (l callbackListener) HandleCallbackDone(ev wl.CallbackDoneEvent) {
	l.h.HandleFrameDone(ev.CallbackData)
}

type output struct {
	o    *wl.Output
	name uint32
}

func (o *output) Name() uint32 { return o.name }

type shm struct {
	s *wl.Shm
}

func (s *shm) CreatePool(fd uintptr, size int32) (display.ShmPool, error) {
	p, err := s.s.CreatePool(fd, size)
	if err != nil {
		return nil, err
	}
	return &shmPool{p: p}, nil
}

type shmPool struct {
	p *wl.ShmPool
}

func (p *shmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (display.Buffer, error) {
	b, err := p.p.CreateBuffer(offset, width, height, stride, format)
	if err != nil {
		return nil, err
	}
	return &buffer{b: b}, nil
}

func (p *shmPool) Destroy() error {
	return p.p.Destroy()
}

type buffer struct {
	b *wl.Buffer
}

func (b *buffer) AddReleaseHandler(h display.BufferReleaseHandler) {
	b.b.AddReleaseHandler(bufferListener{h: h})
}

func (b *buffer) Destroy() error {
	return b.b.Destroy()
}

type bufferListener struct {
	h display.BufferReleaseHandler
}

func (l bufferListener) HandleBufferRelease(wl.BufferReleaseEvent) {
	l.h.HandleBufferRelease()
}

type lockManager struct {
	m *sessionlock.Manager
}

func (m *lockManager) Lock(h display.LockHandler) (display.Lock, error) {
	l, err := m.m.Lock()
	if err != nil {
		return nil, err
	}
	sessionlock.AddLockListener(l, lockListener{h: h})
	return &lock{l: l}, nil
}

func (m *lockManager) Destroy() error {
	return m.m.Destroy()
}

type lockListener struct {
	h display.LockHandler
}

func (l lockListener) HandleLocked(sessionlock.LockedEvent)     { l.h.HandleLocked() }
func (l lockListener) HandleFinished(sessionlock.FinishedEvent) { l.h.HandleFinished() }

type lock struct {
	l *sessionlock.Lock
}

func (l *lock) GetLockSurface(s display.Surface, o display.Output, h display.LockSurfaceHandler) (display.LockSurface, error) {
	surf, ok := s.(*surface)
	if !ok {
		return nil, errForeignObject
	}
	out, ok := o.(*output)
	if !ok {
		return nil, errForeignObject
	}
	ls, err := l.l.GetLockSurface(surf.s, out.o)
	if err != nil {
		return nil, err
	}
	ls.AddConfigureHandler(sessionlock.ConfigureHandlerFunc(func(ev sessionlock.ConfigureEvent) {
		logger.Debug("lock surface configure", "output", out.name, "serial", ev.Serial, "width", ev.Width, "height", ev.Height)
		h.HandleConfigure(display.ConfigureEvent{Serial: ev.Serial, Width: ev.Width, Height: ev.Height})
	}))
	return ls, nil
}

func (l *lock) UnlockAndDestroy() error {
	return l.l.UnlockAndDestroy()
}

func (l *lock) Destroy() error {
	return l.l.Destroy()
}
