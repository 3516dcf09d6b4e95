package render

import (
	"image"
	"testing"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

func TestScale(t *testing.T) {
	got := Scale(pose.Point{X: 0.5, Y: 0.25}, image.Pt(640, 480))
	if want := image.Pt(320, 120); got != want {
		t.Errorf("Scale() = %v, want %v", got, want)
	}
}

func TestMirrorBox(t *testing.T) {
	got := MirrorBox(pose.Box{XMin: 0.1, YMin: 0.2, XMax: 0.3, YMax: 0.4})
	want := pose.Box{XMin: 0.7, YMin: 0.2, XMax: 0.9, YMax: 0.4}
	if got != want {
		t.Errorf("MirrorBox() = %+v, want %+v", got, want)
	}
}

func TestRecorder_SubOffsets(t *testing.T) {
	r := NewRecorder(200, 100)
	right := r.Sub(image.Rect(100, 0, 200, 100))

	if got := right.Size(); got != image.Pt(100, 100) {
		t.Errorf("Sub().Size() = %v, want (100,100)", got)
	}
	right.Circle(image.Pt(10, 10), 5, White, Filled)

	ops := r.Ops()
	if len(ops) != 1 {
		t.Fatalf("len(Ops()) = %d, want 1", len(ops))
	}
	if ops[0].Points[0] != image.Pt(110, 10) {
		t.Errorf("circle at %v, want (110,10)", ops[0].Points[0])
	}
}

func TestRecorder_PresentAndClose(t *testing.T) {
	r := NewRecorder(10, 10)
	_ = r.Present()
	_ = r.Present()
	_ = r.Close()
	if r.Presented() != 2 || !r.Closed() {
		t.Errorf("Presented() = %d, Closed() = %v", r.Presented(), r.Closed())
	}
}

func TestFade(t *testing.T) {
	got := Fade(White, 0.5)
	if got.R != 127 || got.A != 255 {
		t.Errorf("Fade(White, 0.5) = %+v", got)
	}
}
