package render

import (
	"fmt"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Effect fills an XRGB8888 frame. stride is in bytes.
type Effect interface {
	Draw(pix []byte, width, height, stride int, elapsedMs uint32)
}

// Gradient is a vertical two-colour gradient whose bands drift downwards,
// completing one cycle every Period.
type Gradient struct {
	Top    colorful.Color
	Bottom colorful.Color
	Period time.Duration
}

// NewGradient parses two hex colours such as "#1e1e2e".
func NewGradient(top, bottom string, period time.Duration) (*Gradient, error) {
	t, err := colorful.Hex(top)
	if err != nil {
		return nil, fmt.Errorf("top colour %q: %w", top, err)
	}
	b, err := colorful.Hex(bottom)
	if err != nil {
		return nil, fmt.Errorf("bottom colour %q: %w", bottom, err)
	}
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %s", period)
	}
	return &Gradient{Top: t, Bottom: b, Period: period}, nil
}

// phase maps elapsedMs onto [0, 1).
func (g *Gradient) phase(elapsedMs uint32) float64 {
	period := g.Period.Milliseconds()
	if period <= 0 {
		return 0
	}
	return float64(int64(elapsedMs)%period) / float64(period)
}

// mix is the blend factor for row position t in [0, 1] at phase p. It is
// periodic in p, so the animation loops without a seam.
func mix(t, p float64) float64 {
	return 0.5 - 0.5*math.Cos(math.Pi*(t+2*p))
}

func (g *Gradient) Draw(pix []byte, width, height, stride int, elapsedMs uint32) {
	if width <= 0 || height <= 0 {
		return
	}
	p := g.phase(elapsedMs)
	rowBytes := width * 4
	for y := 0; y < height; y++ {
		t := 0.0
		if height > 1 {
			t = float64(y) / float64(height-1)
		}
		r, gr, b := g.Top.BlendHcl(g.Bottom, mix(t, p)).Clamped().RGB255()

		row := pix[y*stride : y*stride+rowBytes]
		row[0], row[1], row[2], row[3] = b, gr, r, 0xff
		for filled := 4; filled < rowBytes; filled *= 2 {
			copy(row[filled:], row[:filled])
		}
	}
}
