package locker

import (
	"errors"
	"fmt"
	"time"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/render"
)

var errStalled = errors.New("dispatch with nothing left to deliver")

// world is a scripted compositor. Events are queued closures; Roundtrip and
// Dispatch deliver everything queued. When Dispatch finds the queue empty it
// runs the next step, which plays the part of the compositor or the user.
type world struct {
	journal []string
	queue   []func()
	steps   []func()

	clock time.Time

	registry display.RegistryHandler
	caps     uint32
	sizes    map[uint32][2]uint32
	serial   uint32

	seatHandler display.SeatHandler
	kbHandler   display.KeyboardHandler
	ptrHandler  display.PointerHandler
	lockHandler display.LockHandler

	locks        int
	surfaces     []*fakeSurface
	lockSurfaces []*fakeLockSurface
	renderers    []*fakeRenderer
	keyboards    []*fakeDevice
	pointers     []*fakeDevice
	hints        []bool

	roundtrips  int
	outputBinds int
	failNew    error
	failRender error
}

func newWorld() *world {
	return &world{
		clock: time.Unix(1700000000, 0),
		caps:  display.CapabilityKeyboard | display.CapabilityPointer,
		sizes: map[uint32][2]uint32{},
	}
}

func (w *world) log(format string, args ...any) {
	w.journal = append(w.journal, fmt.Sprintf(format, args...))
}

func (w *world) send(ev func()) { w.queue = append(w.queue, ev) }

func (w *world) then(steps ...func()) { w.steps = append(w.steps, steps...) }

func (w *world) advertise(name uint32, iface string) {
	w.send(func() { w.registry.HandleGlobal(display.Global{Name: name, Interface: iface, Version: 9}) })
}

func (w *world) withdraw(name uint32) {
	w.send(func() { w.registry.HandleGlobalRemove(name) })
}

// advertiseCore announces the four required singletons.
func (w *world) advertiseCore() {
	w.advertise(1, display.CompositorInterface)
	w.advertise(2, display.SeatInterface)
	w.advertise(3, display.ShmInterface)
	w.advertise(4, display.LockManagerInterface)
}

func (w *world) locked()   { w.send(func() { w.lockHandler.HandleLocked() }) }
func (w *world) finished() { w.send(func() { w.lockHandler.HandleFinished() }) }

func (w *world) press(key uint32) {
	w.send(func() { w.kbHandler.HandleKey(display.KeyEvent{Key: key, State: display.KeyPressed}) })
}

func (w *world) release(key uint32) {
	w.send(func() { w.kbHandler.HandleKey(display.KeyEvent{Key: key, State: display.KeyReleased}) })
}

// configure sends a configure to the lock surface of output.
func (w *world) configure(output, width, height uint32) {
	w.send(func() {
		ls := w.lockSurfaceOf(output)
		w.serial++
		ls.handler.HandleConfigure(display.ConfigureEvent{Serial: w.serial, Width: width, Height: height})
	})
}

// frames completes every outstanding frame callback.
func (w *world) frames() {
	w.send(func() {
		for _, s := range w.surfaces {
			if h := s.frame; h != nil {
				s.frame = nil
				h.HandleFrameDone(uint32(w.clock.UnixMilli()))
			}
		}
	})
}

func (w *world) tick(d time.Duration) { w.clock = w.clock.Add(d) }

func (w *world) now() time.Time { return w.clock }

func (w *world) lockSurfaceOf(output uint32) *fakeLockSurface {
	var found *fakeLockSurface
	for _, ls := range w.lockSurfaces {
		if ls.output == output {
			found = ls
		}
	}
	return found
}

func (w *world) renderersOf(output uint32) []*fakeRenderer {
	var rs []*fakeRenderer
	for _, r := range w.renderers {
		if r.surface.output == output {
			rs = append(rs, r)
		}
	}
	return rs
}

func (w *world) count(entry string) int {
	n := 0
	for _, j := range w.journal {
		if j == entry {
			n++
		}
	}
	return n
}

func (w *world) index(entry string) int {
	for i, j := range w.journal {
		if j == entry {
			return i
		}
	}
	return -1
}

func (w *world) drain() {
	for len(w.queue) > 0 {
		ev := w.queue[0]
		w.queue = w.queue[1:]
		ev()
	}
}

func (w *world) Listen(h display.RegistryHandler) (display.Registry, error) {
	w.registry = h
	return w, nil
}

func (w *world) Roundtrip() error {
	w.roundtrips++
	w.drain()
	return nil
}

func (w *world) Dispatch() error {
	for len(w.queue) == 0 {
		if len(w.steps) == 0 {
			return errStalled
		}
		step := w.steps[0]
		w.steps = w.steps[1:]
		step()
	}
	w.drain()
	return nil
}

func (w *world) Close() error { return nil }

func (w *world) BindCompositor(display.Global) (display.Compositor, error) {
	return fakeCompositor{w}, nil
}

func (w *world) BindSeat(_ display.Global, h display.SeatHandler) (display.Seat, error) {
	w.seatHandler = h
	w.send(func() { h.HandleCapabilities(w.caps) })
	return fakeSeat{w}, nil
}

func (w *world) BindShm(display.Global) (display.Shm, error) { return fakeShm{}, nil }

func (w *world) BindOutput(g display.Global) (display.Output, error) {
	w.outputBinds++
	return fakeOutput(g.Name), nil
}

func (w *world) BindLockManager(display.Global) (display.LockManager, error) {
	return fakeLockManager{w}, nil
}

func (w *world) SetLockedHint(locked bool) error {
	w.hints = append(w.hints, locked)
	return nil
}

func (w *world) New(surface display.Surface, width, height uint32) (render.Renderer, error) {
	if w.failNew != nil {
		return nil, w.failNew
	}
	s := surface.(*fakeSurface)
	r := &fakeRenderer{w: w, surface: s, width: width, height: height}
	w.renderers = append(w.renderers, r)
	w.log("renderer new %d %dx%d", s.output, width, height)
	return r, nil
}

type fakeCompositor struct{ w *world }

func (c fakeCompositor) CreateSurface() (display.Surface, error) {
	s := &fakeSurface{w: c.w}
	c.w.surfaces = append(c.w.surfaces, s)
	return s, nil
}

type fakeSurface struct {
	w      *world
	output uint32
	frame  display.FrameHandler
}

func (s *fakeSurface) Attach(display.Buffer, int32, int32) error { return nil }
func (s *fakeSurface) Damage(int32, int32, int32, int32) error   { return nil }

func (s *fakeSurface) Frame(h display.FrameHandler) error {
	s.w.log("frame %d", s.output)
	s.frame = h
	return nil
}

func (s *fakeSurface) Commit() error {
	s.w.log("commit %d", s.output)
	return nil
}

func (s *fakeSurface) Destroy() error {
	s.w.log("destroy surface %d", s.output)
	s.frame = nil
	return nil
}

type fakeOutput uint32

func (o fakeOutput) Name() uint32 { return uint32(o) }

type fakeShm struct{}

func (fakeShm) CreatePool(uintptr, int32) (display.ShmPool, error) {
	return nil, errors.New("fake shm has no pools")
}

type fakeSeat struct{ w *world }

func (s fakeSeat) GetKeyboard(h display.KeyboardHandler) (display.Keyboard, error) {
	s.w.kbHandler = h
	d := &fakeDevice{w: s.w, name: "keyboard"}
	s.w.keyboards = append(s.w.keyboards, d)
	return d, nil
}

func (s fakeSeat) GetPointer(h display.PointerHandler) (display.Pointer, error) {
	s.w.ptrHandler = h
	d := &fakeDevice{w: s.w, name: "pointer"}
	s.w.pointers = append(s.w.pointers, d)
	return d, nil
}

type fakeDevice struct {
	w        *world
	name     string
	released bool
}

func (d *fakeDevice) Release() error {
	d.released = true
	d.w.log("release %s", d.name)
	return nil
}

func (d *fakeDevice) HideCursor(serial uint32) error {
	d.w.log("hide cursor %d", serial)
	return nil
}

type fakeLockManager struct{ w *world }

func (m fakeLockManager) Lock(h display.LockHandler) (display.Lock, error) {
	m.w.locks++
	m.w.lockHandler = h
	m.w.log("lock")
	return fakeLock{m.w}, nil
}

func (m fakeLockManager) Destroy() error {
	m.w.log("destroy lock manager")
	return nil
}

type fakeLock struct{ w *world }

// GetLockSurface answers with a configure at the output's size, 1920x1080
// unless set in sizes.
func (l fakeLock) GetLockSurface(s display.Surface, o display.Output, h display.LockSurfaceHandler) (display.LockSurface, error) {
	fs := s.(*fakeSurface)
	fs.output = o.Name()
	ls := &fakeLockSurface{w: l.w, output: o.Name(), handler: h}
	l.w.lockSurfaces = append(l.w.lockSurfaces, ls)
	l.w.log("get lock surface %d", o.Name())

	size, ok := l.w.sizes[o.Name()]
	if !ok {
		size = [2]uint32{1920, 1080}
	}
	l.w.configure(o.Name(), size[0], size[1])
	return ls, nil
}

func (l fakeLock) UnlockAndDestroy() error {
	l.w.log("unlock and destroy")
	return nil
}

func (l fakeLock) Destroy() error {
	l.w.log("destroy lock")
	return nil
}

type fakeLockSurface struct {
	w         *world
	output    uint32
	handler   display.LockSurfaceHandler
	destroyed int
}

func (ls *fakeLockSurface) AckConfigure(serial uint32) error {
	ls.w.log("ack %d %d", ls.output, serial)
	return nil
}

func (ls *fakeLockSurface) Destroy() error {
	ls.destroyed++
	ls.w.log("destroy lock surface %d", ls.output)
	return nil
}

type fakeRenderer struct {
	w             *world
	surface       *fakeSurface
	width, height uint32
	resizes       int
	renders       []uint32
	destroyed     int
}

func (r *fakeRenderer) Resize(width, height uint32) error {
	r.resizes++
	r.width, r.height = width, height
	r.w.log("renderer resize %d %dx%d", r.surface.output, width, height)
	return nil
}

func (r *fakeRenderer) Render(elapsedMs uint32) error {
	if r.w.failRender != nil {
		return r.w.failRender
	}
	r.renders = append(r.renders, elapsedMs)
	r.w.log("render %d", r.surface.output)
	return r.surface.Commit()
}

func (r *fakeRenderer) Size() (uint32, uint32) { return r.width, r.height }

func (r *fakeRenderer) Destroy() error {
	r.destroyed++
	r.w.log("renderer destroy %d", r.surface.output)
	return nil
}
