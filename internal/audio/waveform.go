package audio

import "math"

// Mono averages all channels sample by sample.
func Mono(p *PCM) []float64 {
	n := p.Frames()
	mono := make([]float64, n)
	for _, ch := range p.Channels {
		for i := 0; i < n; i++ {
			mono[i] += ch[i]
		}
	}
	if c := len(p.Channels); c > 1 {
		for i := range mono {
			mono[i] /= float64(c)
		}
	}
	return mono
}

// Buckets reduces samples to width RMS values, one per display column.
// Columns past the end of short input stay at zero.
func Buckets(samples []float64, width int) []float64 {
	n := max(1, width)
	block := max(1, len(samples)/n)
	out := make([]float64, n)
	for i := range out {
		start := i * block
		end := min(start+block, len(samples))
		if start >= end {
			continue
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += s * s
		}
		out[i] = math.Sqrt(sum / float64(end-start))
	}
	return out
}

type Rect struct {
	X, Y, W, H float64
}

type Point struct {
	X, Y float64
}

// Bars lays buckets out as bars centred on the horizontal axis.
func Bars(buckets []float64, width, height float64) []Rect {
	if len(buckets) == 0 {
		return nil
	}
	centerY := height / 2
	step := width / float64(len(buckets))
	w := math.Max(1, math.Ceil(step))
	bars := make([]Rect, len(buckets))
	for i, b := range buckets {
		y := b * centerY
		bars[i] = Rect{X: float64(i) * step, Y: centerY - y, W: w, H: 2 * y}
	}
	return bars
}

// Cursor is a two pixel wide bar spanning the height at ratio of the width.
func Cursor(ratio, width, height float64) Rect {
	x := math.Min(math.Max(ratio*width-1, 0), math.Max(width-2, 0))
	return Rect{X: x, W: 2, H: height}
}

// Polyline maps a time domain window in [-1, 1] onto the canvas, +1 at the top.
func Polyline(window []float64, width, height float64) []Point {
	if len(window) == 0 {
		return nil
	}
	slice := width / float64(len(window))
	pts := make([]Point, len(window))
	for i, v := range window {
		pts[i] = Point{X: float64(i) * slice, Y: (1 - (v+1)/2) * height}
	}
	return pts
}
