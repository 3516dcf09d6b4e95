package visual

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-posemix/pkg/pose"
	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/tracking"
)

func newCatalog(t *testing.T, dir string) *Catalog {
	t.Helper()
	c, err := NewCatalog(dir, "", Builtins()...)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return c
}

func TestSelector_WrapsBothWays(t *testing.T) {
	c := newCatalog(t, "")
	s := NewSelector(c)

	if s.Index() != 0 || s.Current().Name() != "Motion Trails" {
		t.Fatalf("initial = %d %q, want 0 Motion Trails", s.Index(), s.Current().Name())
	}
	s.Previous()
	if s.Index() != c.Len()-1 {
		t.Errorf("Previous() from 0 = %d, want %d", s.Index(), c.Len()-1)
	}
	s.Next()
	if s.Index() != 0 {
		t.Errorf("Next() from last = %d, want 0", s.Index())
	}
	for i := 0; i < c.Len()*3; i++ {
		s.Next()
	}
	if s.Index() != 0 {
		t.Errorf("after 3 full cycles index = %d, want 0", s.Index())
	}
}

func TestSelector_Select(t *testing.T) {
	s := NewSelector(newCatalog(t, ""))
	if err := s.Select(5); err != nil || s.Current().Name() != "Skeleton" {
		t.Errorf("Select(5) = %v, current %q", err, s.Current().Name())
	}
	if err := s.Select(99); !errors.Is(err, ErrUnknownVisual) {
		t.Errorf("Select(99) error = %v, want ErrUnknownVisual", err)
	}
	if s.Index() != 5 {
		t.Errorf("failed Select changed index to %d", s.Index())
	}
}

func TestResolveAsset(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "SkeletonVisual.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := ResolveAsset(dir, "Skeleton", DefaultAssetSuffix); got != filepath.Join(dir, "SkeletonVisual.wav") {
		t.Errorf("ResolveAsset(Skeleton) = %q", got)
	}
	if got := ResolveAsset(dir, "Hip Circles", DefaultAssetSuffix); got != "" {
		t.Errorf("ResolveAsset(missing) = %q, want empty", got)
	}

	c := newCatalog(t, dir)
	s := NewSelector(c)
	if s.Asset() != "" {
		t.Errorf("Motion Trails asset = %q, want none", s.Asset())
	}
	_ = s.Select(5)
	if s.Asset() == "" {
		t.Error("Skeleton asset not resolved")
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := newCatalog(t, "")
	if i, err := c.Lookup("hipcircles"); err != nil || i != 4 {
		t.Errorf("Lookup(hipcircles) = %d, %v, want 4", i, err)
	}
	if _, err := c.Lookup("Fireworks"); !errors.Is(err, ErrUnknownVisual) {
		t.Errorf("Lookup(Fireworks) error = %v", err)
	}
	if _, err := NewCatalog("", ""); !errors.Is(err, ErrNoVisuals) {
		t.Errorf("NewCatalog() error = %v, want ErrNoVisuals", err)
	}
	if _, err := NewCatalog("", "", Skeleton{}, Skeleton{}); !errors.Is(err, ErrDuplicateVisual) {
		t.Errorf("duplicate error = %v", err)
	}
}

func TestIdentityColor_Deterministic(t *testing.T) {
	a := IdentityColor(pose.Stable(7), 0)
	if a != IdentityColor(pose.Stable(7), 0) {
		t.Error("IdentityColor not deterministic")
	}
	for _, ch := range []uint8{a.R, a.G, a.B} {
		if ch < 100 {
			t.Errorf("channel %d below 100", ch)
		}
	}
}

func scene(t *testing.T, d Descriptor) *Scene {
	t.Helper()
	tr := tracking.New(tracking.DefaultConfig())
	all := map[pose.Keypoint]pose.Point{}
	for _, k := range pose.AllKeypoints() {
		all[k] = pose.Point{X: 0.3 + 0.01*float64(k), Y: 0.1 + 0.04*float64(k)}
	}
	det := pose.Detection{
		Identity:   pose.Stable(1),
		Label:      pose.LabelPerson,
		Confidence: 0.9,
		Box:        pose.Box{XMin: 0.2, YMin: 0, XMax: 0.6, YMax: 1},
		Keypoints:  all,
	}
	tr.Update([]pose.Detection{det}, d.Keypoints(), 0.5)
	moved := det
	moved.Keypoints = map[pose.Keypoint]pose.Point{}
	for k, p := range all {
		moved.Keypoints[k] = pose.Point{X: p.X + 0.05, Y: p.Y}
	}
	tr.Update([]pose.Detection{moved}, d.Keypoints(), 0.5)
	return &Scene{People: tr.People(), Elapsed: time.Second, Tick: 2}
}

func TestBuiltins_Draw(t *testing.T) {
	for _, d := range Builtins() {
		t.Run(d.Name(), func(t *testing.T) {
			rec := render.NewRecorder(640, 480)
			if err := d.Draw(scene(t, d), rec); err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			ops := rec.Ops()
			if len(ops) < 2 {
				t.Fatalf("Draw() recorded %d ops, want fill plus shapes", len(ops))
			}
			if ops[0].Kind != render.OpFill {
				t.Errorf("first op = %s, want fill", ops[0].Kind)
			}
		})
	}
}

func TestBuiltins_DrawEmptyScene(t *testing.T) {
	for _, d := range Builtins() {
		rec := render.NewRecorder(320, 240)
		if err := d.Draw(&Scene{}, rec); err != nil {
			t.Errorf("%s: Draw(empty) error = %v", d.Name(), err)
		}
		if n := len(rec.Ops()); n != 1 {
			t.Errorf("%s: empty scene recorded %d ops, want 1", d.Name(), n)
		}
	}
}

func TestVoiceShaping(t *testing.T) {
	fh := FeetHeatmap{}.Voice(2)
	if fh.Bands[0] != 12 || fh.Bands[1] != 12 {
		t.Errorf("FeetHeatmap.Voice(2) bands = %v, want 12 dB on 0 and 1", fh.Bands)
	}
	if g := *(HipCircles{}).Voice(4).Gain; g != 1 {
		t.Errorf("HipCircles.Voice(4) gain = %v, want 1", g)
	}
	if p := *(Skeleton{}).Voice(1).Pitch; math.Abs(p-1.05) > 1e-9 {
		t.Errorf("Skeleton.Voice(1) pitch = %v, want 1.05", p)
	}
}

func TestAccelerationGlow_ModulateNeedsMotion(t *testing.T) {
	d := AccelerationGlow{}
	tr := tracking.New(tracking.DefaultConfig())
	tr.Update([]pose.Detection{{
		Identity:   pose.Stable(1),
		Label:      pose.LabelPerson,
		Confidence: 0.9,
		Box:        pose.Box{XMin: 0.2, YMin: 0, XMax: 0.6, YMax: 1},
		Keypoints:  map[pose.Keypoint]pose.Point{pose.LeftWrist: {X: 0.4, Y: 0.5}},
	}}, d.Keypoints(), 0.5)
	s := &Scene{People: tr.People()}

	p := d.Modulate(s.People[0], s)
	if p.Pitch != nil || p.Gain != nil {
		t.Errorf("Modulate() with one trail point = %+v, want no change", p)
	}
}

func TestAccelerationGlow_Modulate(t *testing.T) {
	d := AccelerationGlow{}
	s := scene(t, d)
	p := d.Modulate(s.People[0], s)
	if p.Pitch == nil || *p.Pitch <= 1 || *p.Pitch > 2 {
		t.Errorf("pitch = %v, want in (1, 2]", p.Pitch)
	}
	if p.Gain == nil || math.Abs(*p.Gain-0.6) > 1e-9 {
		t.Errorf("gain = %v, want 0.6 for one person", p.Gain)
	}
}
