package audio

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Canvas is a drawing surface in logical pixels.
type Canvas interface {
	Size() (width, height float64)
	Clear()
	FillRects(rects []Rect, c color.Color)
	StrokePolyline(points []Point, c color.Color)
}

var background = color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}

// PNGCanvas rasterises onto an in-memory image.
type PNGCanvas struct {
	dc *gg.Context
}

func NewPNGCanvas(width, height int) *PNGCanvas {
	c := &PNGCanvas{dc: gg.NewContext(width, height)}
	c.Clear()
	return c
}

func (c *PNGCanvas) Size() (float64, float64) {
	return float64(c.dc.Width()), float64(c.dc.Height())
}

func (c *PNGCanvas) Clear() {
	c.dc.SetColor(background)
	c.dc.Clear()
}

func (c *PNGCanvas) FillRects(rects []Rect, col color.Color) {
	c.dc.SetColor(col)
	for _, r := range rects {
		c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	}
	c.dc.Fill()
}

func (c *PNGCanvas) StrokePolyline(points []Point, col color.Color) {
	if len(points) == 0 {
		return
	}
	c.dc.SetColor(col)
	c.dc.SetLineWidth(1)
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.Stroke()
}

func (c *PNGCanvas) Image() image.Image { return c.dc.Image() }

func (c *PNGCanvas) SavePNG(path string) error { return c.dc.SavePNG(path) }
