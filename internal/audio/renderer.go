package audio

import (
	"errors"
	"image/color"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	WaveColor = color.RGBA{R: 0x42, G: 0x87, B: 0xf5, A: 0xff}
	LiveColor = color.RGBA{R: 0xff, G: 0x4d, B: 0x4d, A: 0xff}
	HeadColor = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
)

// Renderer draws a chunk sequence or a live analysis window onto a Canvas.
type Renderer struct {
	mu     sync.Mutex
	canvas Canvas
	// OnDraw runs after every completed draw, e.g. to flush the canvas to disk.
	OnDraw func(Canvas)
}

func NewRenderer(c Canvas) *Renderer {
	return &Renderer{canvas: c}
}

func (r *Renderer) Canvas() Canvas { return r.canvas }

// DrawCombined clears the canvas and draws the envelope of data. Data that does not
// decode yet leaves the canvas blank and reports false. OnDraw runs either way.
func (r *Renderer) DrawCombined(data []byte) bool {
	return r.draw(data, -1)
}

// DrawPlayhead draws data like DrawCombined with a cursor at ratio of the width.
func (r *Renderer) DrawPlayhead(data []byte, ratio float64) bool {
	return r.draw(data, min(max(ratio, 0), 1))
}

func (r *Renderer) draw(data []byte, head float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.canvas.Clear()
	pcm, err := Decode(data)
	if err != nil {
		if !errors.Is(err, ErrDecodeSkip) {
			log.Warn().Err(err).Str("module", "audio.renderer").Msg("decode")
		}
		r.flush()
		return false
	}
	w, h := r.canvas.Size()
	r.canvas.FillRects(Bars(Buckets(Mono(pcm), int(w)), w, h), WaveColor)
	if head >= 0 {
		r.canvas.FillRects([]Rect{Cursor(head, w, h)}, HeadColor)
	}
	r.flush()
	return true
}

// DrawRealtime draws one frame of the live signal.
func (r *Renderer) DrawRealtime(window []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.canvas.Clear()
	w, h := r.canvas.Size()
	r.canvas.StrokePolyline(Polyline(window, w, h), LiveColor)
	r.flush()
}

func (r *Renderer) flush() {
	if r.OnDraw != nil {
		r.OnDraw(r.canvas)
	}
}
