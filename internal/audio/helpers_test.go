package audio

import (
	"image/color"
	"math"
	"sync"
	"time"
)

var monoFormat = Format{SampleRate: 8000, Channels: 1, BitDepth: 16}

// sine returns interleaved samples of a sine at amp full scale on every channel.
func sine(f Format, d time.Duration, freq, amp float64) []int {
	frames := int(d.Seconds() * float64(f.SampleRate))
	full := float64(int64(1)<<(f.BitDepth-1)) - 1
	out := make([]int, 0, frames*f.Channels)
	for i := 0; i < frames; i++ {
		v := int(math.Round(amp * full * math.Sin(2*math.Pi*freq*float64(i)/float64(f.SampleRate))))
		for ch := 0; ch < f.Channels; ch++ {
			out = append(out, v)
		}
	}
	return out
}

// square alternates +amp and -amp, so its RMS is exactly amp.
func square(f Format, frames int, amp float64) []int {
	v := int(amp * float64(int64(1)<<(f.BitDepth-1)))
	out := make([]int, 0, frames*f.Channels)
	for i := 0; i < frames; i++ {
		s := v
		if i%2 == 1 {
			s = -v
		}
		for ch := 0; ch < f.Channels; ch++ {
			out = append(out, s)
		}
	}
	return out
}

// stream splits samples into n chunks the way a recorder emits them.
func stream(f Format, samples []int, n int) [][]byte {
	per := len(samples) / n
	per -= per % f.Channels
	chunks := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * per
		if i == n-1 {
			end = len(samples)
		}
		data := EncodePCM(f, samples[i*per:end])
		if i == 0 {
			data = append(StreamHeader(f), data...)
		}
		chunks = append(chunks, data)
	}
	return chunks
}

func concat(chunks [][]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

type fakeCanvas struct {
	mu     sync.Mutex
	w, h   float64
	clears int
	rects  []Rect
	lines  [][]Point
}

func (c *fakeCanvas) Size() (float64, float64) { return c.w, c.h }

func (c *fakeCanvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	c.rects = nil
	c.lines = nil
}

func (c *fakeCanvas) FillRects(r []Rect, _ color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rects = append(c.rects, r...)
}

func (c *fakeCanvas) StrokePolyline(p []Point, _ color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, p)
}

func (c *fakeCanvas) snapshot() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears, len(c.rects), len(c.lines)
}
