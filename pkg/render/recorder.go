package render

import (
	"image"
	"image/color"
	"sync"
)

// OpKind names a recorded drawing call.
type OpKind string

const (
	OpFill   OpKind = "fill"
	OpLine   OpKind = "line"
	OpCircle OpKind = "circle"
	OpRect   OpKind = "rect"
	OpText   OpKind = "text"
	OpImage  OpKind = "image"
)

// Op is one recorded drawing call in root canvas coordinates.
type Op struct {
	Kind      OpKind
	Points    []image.Point
	Rect      image.Rectangle
	Radius    int
	Thickness int
	Color     color.RGBA
	Text      string
	Mirror    bool
}

// Recorder is a Surface that records drawing calls instead of rasterizing.
type Recorder struct {
	size   image.Point
	origin image.Point
	log    *opLog
}

type opLog struct {
	mu        sync.Mutex
	ops       []Op
	presented int
	closed    bool
}

var _ Surface = (*Recorder)(nil)

// NewRecorder creates a recorder of the given pixel size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{size: image.Pt(width, height), log: &opLog{}}
}

func (r *Recorder) add(op Op) {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.ops = append(r.log.ops, op)
}

func (r *Recorder) Size() image.Point { return r.size }

func (r *Recorder) Fill(c color.RGBA) {
	r.add(Op{Kind: OpFill, Rect: image.Rectangle{Max: r.size}.Add(r.origin), Color: c})
}

func (r *Recorder) Line(a, b image.Point, c color.RGBA, thickness int) {
	r.add(Op{Kind: OpLine, Points: []image.Point{a.Add(r.origin), b.Add(r.origin)}, Color: c, Thickness: thickness})
}

func (r *Recorder) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	r.add(Op{Kind: OpCircle, Points: []image.Point{center.Add(r.origin)}, Radius: radius, Color: c, Thickness: thickness})
}

func (r *Recorder) Rect(rect image.Rectangle, c color.RGBA, thickness int) {
	r.add(Op{Kind: OpRect, Rect: rect.Add(r.origin), Color: c, Thickness: thickness})
}

func (r *Recorder) Text(s string, at image.Point, scale float64, c color.RGBA) {
	r.add(Op{Kind: OpText, Text: s, Points: []image.Point{at.Add(r.origin)}, Color: c})
}

func (r *Recorder) Image(img image.Image, dst image.Rectangle, mirror bool) {
	r.add(Op{Kind: OpImage, Rect: dst.Add(r.origin), Mirror: mirror})
}

func (r *Recorder) Sub(rect image.Rectangle) Canvas {
	rect = rect.Intersect(image.Rectangle{Max: r.size})
	return &Recorder{size: rect.Size(), origin: r.origin.Add(rect.Min), log: r.log}
}

// Present counts a presented frame.
func (r *Recorder) Present() error {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.presented++
	return nil
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.closed = true
	return nil
}

// Ops returns every recorded call.
func (r *Recorder) Ops() []Op {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	return append([]Op(nil), r.log.ops...)
}

// Count returns the number of recorded calls of kind.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops() {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns the strings drawn with Text, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops() {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// Presented returns how many frames were presented.
func (r *Recorder) Presented() int {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	return r.log.presented
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	return r.log.closed
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.ops = nil
}
