// Package cvscreen renders onto OpenCV matrices and shows them in a window.
package cvscreen

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posemix/pkg/render"
)

// Canvas draws on a region of a BGR gocv.Mat.
type Canvas struct {
	root *gocv.Mat
	rect image.Rectangle
}

var _ render.Canvas = (*Canvas)(nil)

// NewCanvas wraps mat. The mat must outlive the canvas.
func NewCanvas(mat *gocv.Mat) *Canvas {
	return &Canvas{root: mat, rect: image.Rect(0, 0, mat.Cols(), mat.Rows())}
}

// with runs fn on the canvas region. OpenCV clips drawing to the region.
func (c *Canvas) with(fn func(m *gocv.Mat)) {
	if c.rect.Min == (image.Point{}) && c.rect.Max == image.Pt(c.root.Cols(), c.root.Rows()) {
		fn(c.root)
		return
	}
	region := c.root.Region(c.rect)
	defer region.Close()
	fn(&region)
}

func (c *Canvas) Size() image.Point { return c.rect.Size() }

func (c *Canvas) Fill(col color.RGBA) {
	c.with(func(m *gocv.Mat) {
		gocv.Rectangle(m, image.Rect(0, 0, m.Cols(), m.Rows()), col, render.Filled)
	})
}

func (c *Canvas) Line(a, b image.Point, col color.RGBA, thickness int) {
	c.with(func(m *gocv.Mat) {
		gocv.Line(m, a, b, col, thickness)
	})
}

func (c *Canvas) Circle(center image.Point, radius int, col color.RGBA, thickness int) {
	c.with(func(m *gocv.Mat) {
		gocv.Circle(m, center, radius, col, thickness)
	})
}

func (c *Canvas) Rect(r image.Rectangle, col color.RGBA, thickness int) {
	c.with(func(m *gocv.Mat) {
		gocv.Rectangle(m, r, col, thickness)
	})
}

func (c *Canvas) Text(s string, at image.Point, scale float64, col color.RGBA) {
	if scale <= 0 {
		scale = 1
	}
	thickness := int(scale*2 + 0.5)
	c.with(func(m *gocv.Mat) {
		gocv.PutText(m, s, at, gocv.FontHersheySimplex, scale, col, thickness)
	})
}

func (c *Canvas) Image(img image.Image, dst image.Rectangle, mirror bool) {
	if img == nil {
		return
	}
	dst = dst.Intersect(image.Rectangle{Max: c.rect.Size()})
	if dst.Empty() {
		return
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return
	}
	defer src.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(src, &scaled, dst.Size(), 0, 0, gocv.InterpolationLinear)
	if mirror {
		gocv.Flip(scaled, &scaled, 1)
	}

	c.with(func(m *gocv.Mat) {
		target := m.Region(dst)
		defer target.Close()
		scaled.CopyTo(&target)
	})
}

func (c *Canvas) Sub(r image.Rectangle) render.Canvas {
	r = r.Add(c.rect.Min).Intersect(c.rect)
	return &Canvas{root: c.root, rect: r}
}
