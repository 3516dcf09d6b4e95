package control

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Event
	}{
		{"next_mode", Of(NextMode)},
		{" Prev_Visual ", Of(PrevVisual)},
		{"toggle_keypoints", Of(ToggleKeypoints)},
		{"select:3", SelectVisual(3)},
		{"quit", Of(Quit)},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseAction(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}

	for _, bad := range []string{"", "select", "select:-1", "select:x", "dance"} {
		if _, err := ParseAction(bad); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseAction(%q) error = %v, want ErrUnknownAction", bad, err)
		}
	}
}

func TestActionsRoundTrip(t *testing.T) {
	for _, name := range Actions() {
		e, err := ParseAction(name)
		if err != nil {
			t.Errorf("ParseAction(%q) error = %v", name, err)
			continue
		}
		if e.String() != name {
			t.Errorf("ParseAction(%q).String() = %q", name, e.String())
		}
	}
}

func TestInbox(t *testing.T) {
	in := NewInbox(2)
	in.Push(Of(NextMode))
	in.Push(Of(Quit))
	if in.Push(Of(Tutorial)) {
		t.Error("Push() on full inbox = true, want false")
	}

	got := in.Drain()
	if len(got) != 2 || got[0] != Of(NextMode) || got[1] != Of(Quit) {
		t.Errorf("Drain() = %v, want [next_mode quit]", got)
	}
	if in.Len() != 0 || in.Dropped() != 1 {
		t.Errorf("Len() = %d, Dropped() = %d, want 0, 1", in.Len(), in.Dropped())
	}
	if len(in.Drain()) != 0 {
		t.Error("second Drain() should be empty")
	}
}

func TestFromKey(t *testing.T) {
	tests := []struct {
		code int
		want Event
		ok   bool
	}{
		{65363, Of(NextMode), true},
		{2, Of(PrevMode), true},
		{'k', Of(ToggleKeypoints), true},
		{'t', Of(Tutorial), true},
		{'q', Of(Quit), true},
		{'4', SelectVisual(4), true},
		{-1, Event{}, false},
		{'z', Event{}, false},
	}
	for _, tt := range tests {
		got, ok := FromKey(tt.code)
		if ok != tt.ok || got != tt.want {
			t.Errorf("FromKey(%d) = %v, %v, want %v, %v", tt.code, got, ok, tt.want, tt.ok)
		}
	}
}
