// Package render draws the lock screen effect onto one surface per output.
package render

import (
	"github.com/tuxx/shimmerlock/internal/display"
)

// Renderer owns the drawable state of one surface. Resize keeps the
// renderer and replaces only its backing buffers; resizing to the current
// size is a no-op. Any error is fatal to the locker.
type Renderer interface {
	Resize(width, height uint32) error
	// Render draws the frame for elapsedMs and commits the surface.
	Render(elapsedMs uint32) error
	Size() (width, height uint32)
	Destroy() error
}

// Factory creates a renderer bound to surface at the given size.
type Factory interface {
	New(surface display.Surface, width, height uint32) (Renderer, error)
}
