// Package display describes the display-server objects the locker drives.
//
// The interfaces mirror the Wayland requests the locker issues and the
// events it consumes. internal/wayland implements them on a live
// connection; tests implement them with in-memory fakes. Events are
// delivered synchronously from Conn.Roundtrip and Conn.Dispatch on the
// goroutine that called them.
package display

// Interface names advertised by the registry.
const (
	CompositorInterface  = "wl_compositor"
	SeatInterface        = "wl_seat"
	ShmInterface         = "wl_shm"
	OutputInterface      = "wl_output"
	LockManagerInterface = "ext_session_lock_manager_v1"
)

// wl_seat capability bits.
const (
	CapabilityPointer  uint32 = 1
	CapabilityKeyboard uint32 = 2
)

// wl_keyboard key states.
const (
	KeyReleased uint32 = 0
	KeyPressed  uint32 = 1
)

// wl_keyboard keymap formats.
const (
	KeymapNoKeymap uint32 = 0
	KeymapXkbV1    uint32 = 1
)

// FormatXrgb8888 is the wl_shm pixel format of every buffer.
const FormatXrgb8888 uint32 = 1

// Global is one registry advertisement.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

type RegistryHandler interface {
	HandleGlobal(Global)
	HandleGlobalRemove(name uint32)
}

// Conn is a client connection with a single event queue.
type Conn interface {
	// Listen creates the registry and routes its events to h.
	Listen(h RegistryHandler) (Registry, error)
	// Roundtrip flushes pending requests and dispatches events until the
	// server has processed them.
	Roundtrip() error
	// Dispatch blocks until at least one event was dispatched.
	Dispatch() error
	Close() error
}

// Registry binds advertised globals. Implementations cap the version at
// what they implement.
type Registry interface {
	BindCompositor(g Global) (Compositor, error)
	BindSeat(g Global, h SeatHandler) (Seat, error)
	BindShm(g Global) (Shm, error)
	BindOutput(g Global) (Output, error)
	BindLockManager(g Global) (LockManager, error)
}

type Compositor interface {
	CreateSurface() (Surface, error)
}

type FrameHandler interface {
	HandleFrameDone(callbackData uint32)
}

type Surface interface {
	Attach(b Buffer, x, y int32) error
	Damage(x, y, width, height int32) error
	// Frame requests a completion callback bound to the next commit.
	Frame(h FrameHandler) error
	Commit() error
	Destroy() error
}

type Output interface {
	Name() uint32
}

type Shm interface {
	CreatePool(fd uintptr, size int32) (ShmPool, error)
}

type ShmPool interface {
	CreateBuffer(offset, width, height, stride int32, format uint32) (Buffer, error)
	Destroy() error
}

type BufferReleaseHandler interface {
	HandleBufferRelease()
}

type Buffer interface {
	AddReleaseHandler(h BufferReleaseHandler)
	Destroy() error
}

type SeatHandler interface {
	HandleCapabilities(caps uint32)
}

type Seat interface {
	GetKeyboard(h KeyboardHandler) (Keyboard, error)
	GetPointer(h PointerHandler) (Pointer, error)
}

// KeymapEvent hands over ownership of Fd to the handler. When FdErr is
// set no fd was received and Fd must not be used.
type KeymapEvent struct {
	Format uint32
	Fd     uintptr
	Size   uint32
	FdErr  error
}

// KeyEvent carries a raw evdev key code.
type KeyEvent struct {
	Serial uint32
	Time   uint32
	Key    uint32
	State  uint32
}

type KeyboardHandler interface {
	HandleKeymap(KeymapEvent)
	HandleKey(KeyEvent)
}

type Keyboard interface {
	Release() error
}

type PointerEnterEvent struct {
	Serial uint32
}

type PointerHandler interface {
	HandlePointerEnter(PointerEnterEvent)
}

type Pointer interface {
	// HideCursor sets an empty cursor image with a zero hotspot.
	HideCursor(serial uint32) error
	Release() error
}

type LockHandler interface {
	HandleLocked()
	HandleFinished()
}

type LockManager interface {
	Lock(h LockHandler) (Lock, error)
	// Destroy releases the manager. Existing locks are unaffected.
	Destroy() error
}

type ConfigureEvent struct {
	Serial uint32
	Width  uint32
	Height uint32
}

type LockSurfaceHandler interface {
	HandleConfigure(ConfigureEvent)
}

type Lock interface {
	GetLockSurface(s Surface, o Output, h LockSurfaceHandler) (LockSurface, error)
	UnlockAndDestroy() error
	Destroy() error
}

type LockSurface interface {
	AckConfigure(serial uint32) error
	Destroy() error
}
