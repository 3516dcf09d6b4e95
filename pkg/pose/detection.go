package pose

import (
	"fmt"
	"math"
)

// LabelPerson is the detector label for people.
const LabelPerson = "person"

// Point is a normalized 2-D position, both axes in [0,1].
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Box is a normalized bounding box.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.XMax - b.XMin }

// Height returns the box height.
func (b Box) Height() float64 { return b.YMax - b.YMin }

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 {
	return (b.XMin + b.XMax) / 2
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Point{X: b.CenterX(), Y: (b.YMin + b.YMax) / 2}
}

// IoU returns the intersection-over-union of two boxes.
func (b Box) IoU(o Box) float64 {
	ix := math.Min(b.XMax, o.XMax) - math.Max(b.XMin, o.XMin)
	iy := math.Min(b.YMax, o.YMax) - math.Max(b.YMin, o.YMin)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is one person found in one frame. It lives only for the tick
// that produced it.
type Detection struct {
	Identity   Identity
	Label      string
	Confidence float64
	Box        Box
	Keypoints  map[Keypoint]Point
}

// Keypoint returns the position of k, if the detector produced it.
func (d Detection) Keypoint(k Keypoint) (Point, bool) {
	p, ok := d.Keypoints[k]
	return p, ok
}

// String implements fmt.Stringer.
func (d Detection) String() string {
	return fmt.Sprintf("%s[%s %.2f kp=%d]", d.Identity, d.Label, d.Confidence, len(d.Keypoints))
}

// FromIndexed converts an index-addressed landmark array, as emitted by pose
// models, into named keypoints. Entry i must hold at least x and y; an optional
// third value is a per-point score and points scoring below minScore are dropped.
// Entries that are short, out of range or not finite are skipped individually.
func FromIndexed(points [][]float64, minScore float64) map[Keypoint]Point {
	out := make(map[Keypoint]Point, len(points))
	for i, raw := range points {
		k := Keypoint(i)
		if !k.Valid() || len(raw) < 2 {
			continue
		}
		x, y := raw[0], raw[1]
		if !finite(x) || !finite(y) {
			continue
		}
		if len(raw) >= 3 && raw[2] < minScore {
			continue
		}
		out[k] = Point{X: x, Y: y}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
