package tracking

import (
	"testing"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

var wrists = pose.NewKeypointSet(pose.LeftWrist, pose.RightWrist)

func person(id pose.Identity, box pose.Box, kps map[pose.Keypoint]pose.Point) pose.Detection {
	return pose.Detection{
		Identity:   id,
		Label:      pose.LabelPerson,
		Confidence: 0.9,
		Box:        box,
		Keypoints:  kps,
	}
}

func wristsAt(x, y float64) map[pose.Keypoint]pose.Point {
	return map[pose.Keypoint]pose.Point{
		pose.LeftWrist:  {X: x, Y: y},
		pose.RightWrist: {X: x + 0.1, Y: y},
	}
}

func TestTrail_EvictsOldest(t *testing.T) {
	tr := NewTrail(3)
	for i := 0; i < 5; i++ {
		tr.Push(pose.Point{X: float64(i)})
	}
	if tr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tr.Len())
	}
	got := tr.Points()
	for i, want := range []float64{2, 3, 4} {
		if got[i].X != want {
			t.Errorf("Points()[%d].X = %v, want %v", i, got[i].X, want)
		}
	}
	if last, _ := tr.Last(); last.X != 4 {
		t.Errorf("Last().X = %v, want 4", last.X)
	}
	if sp := tr.Speed(); sp != 1 {
		t.Errorf("Speed() = %v, want 1", sp)
	}
}

func TestTracker_TrailNeverExceedsCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrailLen = 5
	tr := New(cfg)
	a := pose.Stable(1)

	for i := 0; i < 40; i++ {
		x := float64(i%10) / 10
		tr.Update([]pose.Detection{person(a, pose.Box{XMin: 0, YMin: 0, XMax: 0.5, YMax: 1}, wristsAt(x, 0.5))}, wrists, 0.5)
		for _, p := range tr.People() {
			for k, trail := range p.Trails {
				if trail.Len() > cfg.TrailLen {
					t.Fatalf("frame %d: trail %v len %d > %d", i, k, trail.Len(), cfg.TrailLen)
				}
			}
		}
	}
}

func TestTracker_PrunesImmediately(t *testing.T) {
	tr := New(DefaultConfig())
	a, b := pose.Stable(1), pose.Stable(2)
	boxA, boxB := pose.Box{XMin: 0, YMin: 0, XMax: 0.4, YMax: 1}, pose.Box{XMin: 0.6, YMin: 0, XMax: 1, YMax: 1}

	// tick 1: {A}
	tr.Update([]pose.Detection{person(a, boxA, wristsAt(0.1, 0.5))}, wrists, 0.5)
	if !tr.Has(a) || tr.Len() != 1 {
		t.Fatalf("after tick 1: Identities() = %v, want [A]", tr.Identities())
	}

	// tick 2: {A, B}
	tr.Update([]pose.Detection{
		person(a, boxA, wristsAt(0.15, 0.5)),
		person(b, boxB, wristsAt(0.7, 0.5)),
	}, wrists, 0.5)
	if tr.Len() != 2 {
		t.Fatalf("after tick 2: Len() = %d, want 2", tr.Len())
	}

	// tick 3: {B}
	tr.Update([]pose.Detection{person(b, boxB, wristsAt(0.72, 0.5))}, wrists, 0.5)
	if tr.Has(a) {
		t.Error("A still tracked after a frame without it")
	}
	if !tr.Has(b) || tr.Len() != 1 {
		t.Fatalf("after tick 3: Identities() = %v, want [B]", tr.Identities())
	}

	pb, _ := tr.Get(b)
	if n := len(pb.Trail(pose.LeftWrist)); n != 2 {
		t.Errorf("B left wrist trail len = %d, want 2 (ticks 2-3)", n)
	}
	if n := len(pb.Trail(pose.RightWrist)); n != 2 {
		t.Errorf("B right wrist trail len = %d, want 2", n)
	}
}

func TestTracker_OcclusionResetsTrail(t *testing.T) {
	tr := New(DefaultConfig())
	a := pose.Stable(1)
	box := pose.Box{XMin: 0, YMin: 0, XMax: 0.4, YMax: 1}

	tr.Update([]pose.Detection{person(a, box, wristsAt(0.1, 0.5))}, wrists, 0.5)
	tr.Update([]pose.Detection{person(a, box, wristsAt(0.2, 0.5))}, wrists, 0.5)
	tr.Update(nil, wrists, 0.5)
	tr.Update([]pose.Detection{person(a, box, wristsAt(0.3, 0.5))}, wrists, 0.5)

	p, ok := tr.Get(a)
	if !ok {
		t.Fatal("A not tracked after reappearing")
	}
	if n := len(p.Trail(pose.LeftWrist)); n != 1 {
		t.Errorf("trail len after occlusion = %d, want 1", n)
	}
	if got := tr.Arrivals(); len(got) != 1 || got[0] != a {
		t.Errorf("Arrivals() = %v, want [A]", got)
	}
}

func TestTracker_FiltersLabelAndConfidence(t *testing.T) {
	tr := New(DefaultConfig())
	low := person(pose.Stable(1), pose.Box{XMin: 0, YMin: 0, XMax: 0.3, YMax: 1}, wristsAt(0.1, 0.1))
	low.Confidence = 0.2
	dog := person(pose.Stable(2), pose.Box{XMin: 0.4, YMin: 0, XMax: 0.6, YMax: 1}, wristsAt(0.5, 0.1))
	dog.Label = "dog"
	ok := person(pose.Stable(3), pose.Box{XMin: 0.7, YMin: 0, XMax: 1, YMax: 1}, wristsAt(0.8, 0.1))

	tr.Update([]pose.Detection{low, dog, ok}, wrists, 0.5)

	ids := tr.Identities()
	if len(ids) != 1 || ids[0] != pose.Stable(3) {
		t.Errorf("Identities() = %v, want [track_3]", ids)
	}
}

func TestTracker_MissingKeypointSkipped(t *testing.T) {
	tr := New(DefaultConfig())
	a := pose.Stable(1)
	kps := map[pose.Keypoint]pose.Point{pose.LeftWrist: {X: 0.2, Y: 0.2}}

	tr.Update([]pose.Detection{person(a, pose.Box{XMin: 0, YMin: 0, XMax: 1, YMax: 1}, kps)}, wrists, 0.5)

	p, _ := tr.Get(a)
	if len(p.Trail(pose.LeftWrist)) != 1 {
		t.Error("left wrist trail should hold one point")
	}
	if p.Trail(pose.RightWrist) != nil {
		t.Error("right wrist trail should not exist")
	}
}

func TestTracker_OnlyKeypointsOfInterestTrailed(t *testing.T) {
	tr := New(DefaultConfig())
	a := pose.Stable(1)
	kps := wristsAt(0.3, 0.3)
	kps[pose.Nose] = pose.Point{X: 0.5, Y: 0.1}

	tr.Update([]pose.Detection{person(a, pose.Box{XMin: 0, YMin: 0, XMax: 1, YMax: 1}, kps)}, pose.NewKeypointSet(pose.Nose), 0.5)

	p, _ := tr.Get(a)
	if len(p.Trails) != 1 {
		t.Errorf("len(Trails) = %d, want 1", len(p.Trails))
	}
	if _, ok := p.Pose[pose.LeftWrist]; !ok {
		t.Error("latest pose should still carry every detected keypoint")
	}
}

func TestTracker_GreedyKeepsIdentityAcrossReorder(t *testing.T) {
	tr := New(DefaultConfig())
	left := pose.Box{XMin: 0.05, YMin: 0, XMax: 0.35, YMax: 1}
	right := pose.Box{XMin: 0.65, YMin: 0, XMax: 0.95, YMax: 1}

	tr.Update([]pose.Detection{
		person(pose.Ephemeral(1, 0), left, wristsAt(0.1, 0.5)),
		person(pose.Ephemeral(1, 1), right, wristsAt(0.7, 0.5)),
	}, wrists, 0.5)
	before := tr.People()
	if len(before) != 2 {
		t.Fatalf("Len() = %d, want 2", len(before))
	}
	leftID := before[0].Identity
	if before[0].Box != left {
		leftID = before[1].Identity
	}

	// Same people, detector emits them in the opposite order and slightly moved.
	shifted := pose.Box{XMin: left.XMin + 0.02, YMin: 0, XMax: left.XMax + 0.02, YMax: 1}
	tr.Update([]pose.Detection{
		person(pose.Ephemeral(2, 0), right, wristsAt(0.72, 0.5)),
		person(pose.Ephemeral(2, 1), shifted, wristsAt(0.12, 0.5)),
	}, wrists, 0.5)

	p, ok := tr.Get(leftID)
	if !ok {
		t.Fatalf("left person lost identity; tracked = %v", tr.Identities())
	}
	if p.Box != shifted {
		t.Errorf("left identity box = %+v, want %+v", p.Box, shifted)
	}
	if n := len(p.Trail(pose.LeftWrist)); n != 2 {
		t.Errorf("left trail len = %d, want 2", n)
	}
	if len(tr.Arrivals()) != 0 {
		t.Errorf("Arrivals() = %v, want none", tr.Arrivals())
	}
}

func TestTracker_PositionalFollowsListIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyPositional
	tr := New(cfg)
	left := pose.Box{XMin: 0.05, YMin: 0, XMax: 0.35, YMax: 1}
	right := pose.Box{XMin: 0.65, YMin: 0, XMax: 0.95, YMax: 1}

	tr.Update([]pose.Detection{
		person(pose.Ephemeral(1, 0), left, wristsAt(0.1, 0.5)),
		person(pose.Ephemeral(1, 1), right, wristsAt(0.7, 0.5)),
	}, wrists, 0.5)
	tr.Update([]pose.Detection{
		person(pose.Ephemeral(2, 0), right, wristsAt(0.72, 0.5)),
		person(pose.Ephemeral(2, 1), left, wristsAt(0.12, 0.5)),
	}, wrists, 0.5)

	slot0, ok := tr.Get(pose.Ephemeral(0, 0))
	if !ok {
		t.Fatal("slot 0 not tracked")
	}
	// slot 0 now holds the right-hand person: the documented flicker.
	if slot0.Box != right {
		t.Errorf("slot 0 box = %+v, want %+v", slot0.Box, right)
	}
	if n := len(slot0.Trail(pose.LeftWrist)); n != 2 {
		t.Errorf("slot 0 trail len = %d, want 2", n)
	}
}

func TestTracker_DuplicateStableIDKeepsFirst(t *testing.T) {
	tr := New(DefaultConfig())
	a := pose.Stable(9)
	tr.Update([]pose.Detection{
		person(a, pose.Box{XMin: 0, YMin: 0, XMax: 0.5, YMax: 1}, wristsAt(0.1, 0.1)),
		person(a, pose.Box{XMin: 0.5, YMin: 0, XMax: 1, YMax: 1}, wristsAt(0.9, 0.9)),
	}, wrists, 0.5)

	p, _ := tr.Get(a)
	if n := len(p.Trail(pose.LeftWrist)); n != 1 {
		t.Errorf("trail len = %d, want 1", n)
	}
	if p.Box.XMin != 0 {
		t.Errorf("box = %+v, want first detection's", p.Box)
	}
}
