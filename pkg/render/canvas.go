// Package render defines the drawing surface visualizations paint on.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// Filled as a thickness draws a filled shape.
const Filled = -1

// Canvas is a 2-D raster target in pixel coordinates, origin top-left.
type Canvas interface {
	// Size returns the canvas dimensions in pixels.
	Size() image.Point

	Fill(c color.RGBA)
	Line(a, b image.Point, c color.RGBA, thickness int)
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Rect(r image.Rectangle, c color.RGBA, thickness int)
	Text(s string, at image.Point, scale float64, c color.RGBA)

	// Image draws img scaled into dst, optionally mirrored horizontally.
	Image(img image.Image, dst image.Rectangle, mirror bool)

	// Sub returns a canvas restricted to r. Drawing on it is clipped to r
	// and its coordinates are relative to r.Min.
	Sub(r image.Rectangle) Canvas
}

// Surface is a Canvas that can be shown to the user.
type Surface interface {
	Canvas
	Present() error
	Close() error
}

// Scale maps a normalized point in [0,1]x[0,1] to pixels on a canvas of size.
func Scale(p pose.Point, size image.Point) image.Point {
	return image.Point{
		X: int(math.Round(p.X * float64(size.X))),
		Y: int(math.Round(p.Y * float64(size.Y))),
	}
}

// ScaleBox maps a normalized box to a pixel rectangle.
func ScaleBox(b pose.Box, size image.Point) image.Rectangle {
	return image.Rectangle{
		Min: Scale(pose.Point{X: b.XMin, Y: b.YMin}, size),
		Max: Scale(pose.Point{X: b.XMax, Y: b.YMax}, size),
	}.Canon()
}

// Mirror flips a normalized point horizontally.
func Mirror(p pose.Point) pose.Point {
	return pose.Point{X: 1 - p.X, Y: p.Y}
}

// MirrorBox flips a normalized box horizontally.
func MirrorBox(b pose.Box) pose.Box {
	return pose.Box{XMin: 1 - b.XMax, YMin: b.YMin, XMax: 1 - b.XMin, YMax: b.YMax}
}

// Polyline draws consecutive segments through pts.
func Polyline(c Canvas, pts []image.Point, col color.RGBA, thickness int) {
	for i := 1; i < len(pts); i++ {
		c.Line(pts[i-1], pts[i], col, thickness)
	}
}

// Fade returns col with its channels scaled by f in [0,1].
func Fade(col color.RGBA, f float64) color.RGBA {
	f = math.Max(0, math.Min(1, f))
	return color.RGBA{
		R: uint8(float64(col.R) * f),
		G: uint8(float64(col.G) * f),
		B: uint8(float64(col.B) * f),
		A: col.A,
	}
}

// Common colours.
var (
	Black  = color.RGBA{A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Green  = color.RGBA{G: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, A: 255}
	Red    = color.RGBA{R: 255, A: 255}
	Cyan   = color.RGBA{G: 255, B: 255, A: 255}
)
