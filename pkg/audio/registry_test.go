package audio

import (
	"testing"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

var (
	idA = pose.Stable(1)
	idB = pose.Stable(2)
)

func newTestRegistry(t *testing.T) (*Registry, *MockEngine) {
	t.Helper()
	eng := NewMockEngine(nil)
	return NewRegistry(eng, DefaultRegistryConfig(), nil), eng
}

func center(pose.Identity) float64 { return 0.5 }

func TestReconcile_CreatesOnePerIdentity(t *testing.T) {
	r, eng := newTestRegistry(t)

	res := r.Reconcile("x.wav", []pose.Identity{idA, idB, idA}, center)

	if len(res.Created) != 2 {
		t.Fatalf("Created = %v, want 2 identities", res.Created)
	}
	if r.Len() != 2 || eng.Live() != 2 {
		t.Errorf("Len() = %d, Live() = %d, want 2", r.Len(), eng.Live())
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	r, eng := newTestRegistry(t)
	ids := []pose.Identity{idA, idB}

	r.Reconcile("x.wav", ids, center)
	eng.Reset()
	res := r.Reconcile("x.wav", ids, center)

	if res.Changed() {
		t.Errorf("second Reconcile changed voices: %+v", res)
	}
	if n := len(eng.Events()); n != 0 {
		t.Errorf("second Reconcile produced %d engine events, want 0", n)
	}
}

func TestReconcile_RemovesIneligible(t *testing.T) {
	r, eng := newTestRegistry(t)

	r.Reconcile("x.wav", []pose.Identity{idA, idB}, center)
	res := r.Reconcile("x.wav", []pose.Identity{idB}, center)

	if len(res.Removed) != 1 || res.Removed[0] != idA {
		t.Errorf("Removed = %v, want [A]", res.Removed)
	}
	voices := r.Voices()
	if len(voices) != 1 || voices[0].Identity != idB {
		t.Fatalf("Voices() = %+v, want only B", voices)
	}
	if eng.Live() != 1 {
		t.Errorf("Live() = %d, want 1", eng.Live())
	}
}

func TestReconcile_AssetChangeRecreates(t *testing.T) {
	r, eng := newTestRegistry(t)
	ids := []pose.Identity{idA}

	r.Reconcile("x.wav", ids, center)
	r.Reconcile("y.wav", ids, center)
	r.TeardownAll()

	if got := eng.Count(EventCreate); got != 2 {
		t.Errorf("create events = %d, want 2", got)
	}
	if got := eng.Count(EventStop); got != 2 {
		t.Errorf("stop events = %d, want 2", got)
	}
	if n := eng.Count(EventPitch) + eng.Count(EventVolume) + eng.Count(EventBand); n != 0 {
		t.Errorf("parameter events = %d, want 0", n)
	}
}

func TestReconcile_EmptyAssetCollapses(t *testing.T) {
	r, eng := newTestRegistry(t)

	r.Reconcile("x.wav", []pose.Identity{idA, idB}, center)
	res := r.Reconcile("", []pose.Identity{idA, idB}, center)

	if len(res.Removed) != 2 || len(res.Created) != 0 {
		t.Errorf("Reconcile(\"\") = %+v, want 2 removed, 0 created", res)
	}
	if r.Len() != 0 || eng.Live() != 0 {
		t.Errorf("Len() = %d, Live() = %d, want 0", r.Len(), eng.Live())
	}
}

func TestReconcile_PanFromPosition(t *testing.T) {
	r, eng := newTestRegistry(t)
	pos := map[pose.Identity]float64{idA: 0, idB: 1}

	r.Reconcile("x.wav", []pose.Identity{idA, idB}, func(id pose.Identity) float64 { return pos[id] })

	for _, v := range r.Voices() {
		spec, ok := eng.Spec(v.ID)
		if !ok {
			t.Fatalf("no spec recorded for %s", v.ID)
		}
		want := -1.0
		if v.Identity == idB {
			want = 1.0
		}
		if spec.Pan != want {
			t.Errorf("%s pan = %v, want %v", v.Identity, spec.Pan, want)
		}
		if !spec.Loop {
			t.Errorf("%s voice should loop", v.Identity)
		}
	}
}

func TestReconcile_FailureRetriedNextCall(t *testing.T) {
	r, eng := newTestRegistry(t)
	eng.FailFor(idA, ErrInjected)

	res := r.Reconcile("x.wav", []pose.Identity{idA, idB}, center)
	if len(res.Failed) != 1 || res.Failed[0] != idA {
		t.Fatalf("Failed = %v, want [A]", res.Failed)
	}
	if r.Has(idA) || !r.Has(idB) {
		t.Fatalf("after failure: Has(A) = %v, Has(B) = %v", r.Has(idA), r.Has(idB))
	}

	eng.FailFor(idA, nil)
	res = r.Reconcile("x.wav", []pose.Identity{idA, idB}, center)
	if len(res.Created) != 1 || res.Created[0] != idA {
		t.Errorf("retry Created = %v, want [A]", res.Created)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestUpdateParameters_NeverCreates(t *testing.T) {
	r, eng := newTestRegistry(t)

	if r.UpdateParameters(idA, Params{}.WithPitch(1.5)) {
		t.Error("UpdateParameters on missing identity = true, want false")
	}
	if r.Len() != 0 || len(eng.Events()) != 0 {
		t.Errorf("UpdateParameters created state: Len() = %d, events = %v", r.Len(), eng.Events())
	}
}

func TestUpdateParameters_AdjustsInPlace(t *testing.T) {
	r, eng := newTestRegistry(t)
	r.Reconcile("x.wav", []pose.Identity{idA}, center)
	eng.Reset()

	ok := r.UpdateParameters(idA, Params{}.WithPitch(5).WithGain(0.5).WithBand(0, 6).WithBand(12, 3))
	if !ok {
		t.Fatal("UpdateParameters = false, want true")
	}
	if eng.Count(EventCreate) != 0 || eng.Count(EventStop) != 0 {
		t.Error("UpdateParameters recreated the voice")
	}

	v := r.Voices()[0]
	if v.Pitch != MaxPitch {
		t.Errorf("Pitch = %v, want clamped %v", v.Pitch, MaxPitch)
	}
	if v.Gain != 0.5 || v.Volume != 0.5 {
		t.Errorf("Gain = %v, Volume = %v, want 0.5", v.Gain, v.Volume)
	}
	if v.Bands[0] != 6 {
		t.Errorf("Bands[0] = %v, want 6", v.Bands[0])
	}
	if eng.Count(EventBand) != 1 {
		t.Errorf("band events = %d, want 1 (band 12 rejected)", eng.Count(EventBand))
	}
}

func TestReconcile_NormalizedVolumeNeverAboveUnity(t *testing.T) {
	eng := NewMockEngine(nil)
	loud := NewLoudness()
	loud.Set("quiet.wav", -60)
	loud.Set("loud.wav", -3)
	r := NewRegistry(eng, RegistryConfig{TargetLUFS: -23, Loudness: loud, Loop: true}, nil)
	r.SetShaper(func(int) Params { return Params{}.WithGain(3) })

	for _, asset := range []string{"quiet.wav", "loud.wav", "unknown.wav"} {
		r.Reconcile(asset, []pose.Identity{idA}, center)
		v := r.Voices()[0]
		if v.Volume > 1 || v.BaseGain > 1 {
			t.Errorf("%s: Volume = %v, BaseGain = %v, want <= 1", asset, v.Volume, v.BaseGain)
		}
	}
}

func TestReconcile_ShaperByIndex(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.SetShaper(func(i int) Params { return Params{}.WithPitch(1 + 0.05*float64(i)) })

	r.Reconcile("x.wav", []pose.Identity{idA, idB}, center)

	for _, v := range r.Voices() {
		want := 1 + 0.05*float64(v.Index)
		if v.Pitch != want {
			t.Errorf("%s pitch = %v, want %v", v.Identity, v.Pitch, want)
		}
	}
}

func TestTeardownAll(t *testing.T) {
	r, eng := newTestRegistry(t)
	r.Reconcile("x.wav", []pose.Identity{idA, idB}, center)

	removed := r.TeardownAll()

	if len(removed) != 2 || r.Len() != 0 || eng.Live() != 0 {
		t.Errorf("TeardownAll() = %v, Len() = %d, Live() = %d", removed, r.Len(), eng.Live())
	}
	if r.Asset() != "" {
		t.Errorf("Asset() = %q after TeardownAll, want empty", r.Asset())
	}
}

func TestReconcile_ReplacesEndedVoice(t *testing.T) {
	r, eng := newTestRegistry(t)
	r.Reconcile("x.wav", []pose.Identity{idA}, center)
	first := r.Voices()[0].ID

	eng.End(idA)
	res := r.Reconcile("x.wav", []pose.Identity{idA}, center)

	if len(res.Removed) != 1 || len(res.Created) != 1 {
		t.Fatalf("Reconcile() = %+v, want A removed and recreated", res)
	}
	if got := r.Voices()[0].ID; got == first {
		t.Error("voice id unchanged, want a new voice")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
