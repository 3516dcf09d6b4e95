package pose

import (
	"math"
	"testing"
)

func TestParseKeypoint(t *testing.T) {
	tests := []struct {
		in   string
		want Keypoint
		ok   bool
	}{
		{"left_wrist", LeftWrist, true},
		{"Left Wrist", LeftWrist, true},
		{"right-ankle", RightAnkle, true},
		{"nose", Nose, true},
		{"tail", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseKeypoint(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseKeypoint(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeypointString(t *testing.T) {
	if got := LeftElbow.String(); got != "left_elbow" {
		t.Errorf("LeftElbow.String() = %q, want left_elbow", got)
	}
	if got := Keypoint(42).String(); got != "unknown" {
		t.Errorf("Keypoint(42).String() = %q, want unknown", got)
	}
	if n := len(AllKeypoints()); n != NumKeypoints {
		t.Errorf("len(AllKeypoints()) = %d, want %d", n, NumKeypoints)
	}
}

func TestBoxIoU(t *testing.T) {
	a := Box{0, 0, 0.5, 0.5}
	if got := a.IoU(a); math.Abs(got-1) > 1e-9 {
		t.Errorf("IoU(self) = %v, want 1", got)
	}
	b := Box{0.25, 0, 0.75, 0.5}
	if got := a.IoU(b); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("IoU(half overlap) = %v, want 1/3", got)
	}
	c := Box{0.6, 0.6, 0.9, 0.9}
	if got := a.IoU(c); got != 0 {
		t.Errorf("IoU(disjoint) = %v, want 0", got)
	}
	if got := b.CenterX(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("CenterX() = %v, want 0.5", got)
	}
}

func TestIdentity(t *testing.T) {
	s := Stable(7)
	if !s.IsStable() || s.IsEphemeral() {
		t.Fatalf("Stable(7) kind wrong: %+v", s)
	}
	if id, ok := s.TrackID(); !ok || id != 7 {
		t.Errorf("TrackID() = %d, %v, want 7, true", id, ok)
	}

	e := Ephemeral(3, 1)
	if e.IsStable() || !e.IsEphemeral() {
		t.Fatalf("Ephemeral(3,1) kind wrong: %+v", e)
	}
	if e.String() != "person_3_1" {
		t.Errorf("String() = %q, want person_3_1", e.String())
	}

	seen := map[Identity]bool{Stable(1): true, Ephemeral(0, 1): true}
	if !seen[Stable(1)] || !seen[Ephemeral(0, 1)] || seen[Stable(2)] {
		t.Error("identities are not usable as map keys")
	}
	if Stable(1) == Ephemeral(0, 1) {
		t.Error("Stable(1) must differ from Ephemeral(0, 1)")
	}
	var zero Identity
	if !zero.IsZero() {
		t.Error("zero Identity should report IsZero")
	}
}

func TestFromIndexed(t *testing.T) {
	raw := [][]float64{
		{0.1, 0.2},       // nose
		{0.3},            // left eye: malformed
		{0.4, 0.5, 0.05}, // right eye: low score
		{math.NaN(), 0.1},
	}
	for i := len(raw); i < 10; i++ {
		raw = append(raw, []float64{0.5, 0.5, 0.9})
	}
	raw = append(raw, make([][]float64, 10)...)

	got := FromIndexed(raw, 0.3)
	if p, ok := got[Nose]; !ok || p != (Point{0.1, 0.2}) {
		t.Errorf("nose = %v, %v, want {0.1 0.2}", p, ok)
	}
	for _, k := range []Keypoint{LeftEye, RightEye, LeftEar, LeftHip} {
		if _, ok := got[k]; ok {
			t.Errorf("%v should be skipped", k)
		}
	}
	if _, ok := got[LeftWrist]; !ok {
		t.Error("left_wrist should be present")
	}
}

func TestKeypointSet(t *testing.T) {
	s := NewKeypointSet(LeftWrist, RightWrist, LeftWrist, Keypoint(-1), Keypoint(99))
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Has(LeftWrist) || !s.Has(RightWrist) || s.Has(Nose) {
		t.Errorf("Has() wrong for %v", s.Keypoints())
	}
	u := s.Union(NewKeypointSet(Nose))
	got := u.Keypoints()
	want := []Keypoint{Nose, LeftWrist, RightWrist}
	if len(got) != len(want) {
		t.Fatalf("Keypoints() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keypoints()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
