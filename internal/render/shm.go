package render

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/logger"
)

const bytesPerPixel = 4

// ShmFactory creates software renderers drawing into wl_shm buffers.
type ShmFactory struct {
	Shm    display.Shm
	Effect Effect
}

var _ Factory = (*ShmFactory)(nil)

func (f *ShmFactory) New(surface display.Surface, width, height uint32) (Renderer, error) {
	if f.Shm == nil || f.Effect == nil {
		return nil, errors.New("shm renderer: missing shm or effect")
	}
	r := &shmRenderer{shm: f.Shm, surface: surface, effect: f.Effect}
	if err := r.allocate(width, height); err != nil {
		return nil, err
	}
	return r, nil
}

// slot is one of the two buffers sharing the pool. busy is set on attach
// and cleared by wl_buffer.release.
type slot struct {
	buf    display.Buffer
	offset int
	busy   bool
}

func (s *slot) HandleBufferRelease() { s.busy = false }

type shmRenderer struct {
	shm     display.Shm
	surface display.Surface
	effect  Effect

	width, height uint32
	stride        int
	data          []byte
	pool          display.ShmPool
	slots         [2]*slot
}

func (r *shmRenderer) Size() (uint32, uint32) { return r.width, r.height }

func (r *shmRenderer) frameSize() int { return r.stride * int(r.height) }

func (r *shmRenderer) allocate(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("shm renderer: invalid size %dx%d", width, height)
	}
	stride := int(width) * bytesPerPixel
	frame := stride * int(height)
	size := frame * len(r.slots)

	fd, err := unix.MemfdCreate("shimmerlock", unix.MFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("memfd_create: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return fmt.Errorf("ftruncate %d bytes: %w", size, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap %d bytes: %w", size, err)
	}

	pool, err := r.shm.CreatePool(uintptr(fd), int32(size))
	if err != nil {
		_ = unix.Munmap(data)
		return fmt.Errorf("create shm pool: %w", err)
	}

	r.width, r.height, r.stride = width, height, stride
	r.data, r.pool = data, pool
	for i := range r.slots {
		s := &slot{offset: i * frame}
		buf, err := pool.CreateBuffer(int32(s.offset), int32(width), int32(height), int32(stride), display.FormatXrgb8888)
		if err != nil {
			r.release()
			return fmt.Errorf("create shm buffer: %w", err)
		}
		s.buf = buf
		buf.AddReleaseHandler(s)
		r.slots[i] = s
	}
	logger.Debug("allocated shm buffers", "width", width, "height", height, "bytes", size)
	return nil
}

// release drops the backing buffers. Safe to call repeatedly.
func (r *shmRenderer) release() error {
	var errs []error
	for i, s := range r.slots {
		if s != nil && s.buf != nil {
			errs = append(errs, s.buf.Destroy())
		}
		r.slots[i] = nil
	}
	if r.pool != nil {
		errs = append(errs, r.pool.Destroy())
		r.pool = nil
	}
	if r.data != nil {
		errs = append(errs, unix.Munmap(r.data))
		r.data = nil
	}
	return errors.Join(errs...)
}

func (r *shmRenderer) Resize(width, height uint32) error {
	if width == r.width && height == r.height {
		return nil
	}
	if err := r.release(); err != nil {
		return fmt.Errorf("release %dx%d buffers: %w", r.width, r.height, err)
	}
	return r.allocate(width, height)
}

func (r *shmRenderer) freeSlot() *slot {
	for _, s := range r.slots {
		if s != nil && !s.busy {
			return s
		}
	}
	return nil
}

func (r *shmRenderer) Render(elapsedMs uint32) error {
	if r.data == nil {
		return errors.New("shm renderer: render after destroy")
	}
	s := r.freeSlot()
	if s == nil {
		// Both buffers are still held by the compositor. Damage the current
		// buffer so the commit still earns a frame callback.
		if err := r.surface.Damage(0, 0, int32(r.width), int32(r.height)); err != nil {
			return fmt.Errorf("damage: %w", err)
		}
		if err := r.surface.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	}

	frame := r.frameSize()
	r.effect.Draw(r.data[s.offset:s.offset+frame], int(r.width), int(r.height), r.stride, elapsedMs)
	s.busy = true

	if err := r.surface.Attach(s.buf, 0, 0); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if err := r.surface.Damage(0, 0, int32(r.width), int32(r.height)); err != nil {
		return fmt.Errorf("damage: %w", err)
	}
	if err := r.surface.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *shmRenderer) Destroy() error {
	return r.release()
}
