package audio

import (
	"testing"
	"time"
)

func TestPlayer_PlayAndCancel(t *testing.T) {
	eng := NewMockEngine(nil)
	p := NewPlayer(eng, nil)

	ended := make(chan string, 2)
	p.OnPlaybackEnd = func(asset string) { ended <- asset }

	if err := p.Play("welcome.wav"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false after Play")
	}
	if eng.Count(EventOneShot) != 1 {
		t.Errorf("oneshot events = %d, want 1", eng.Count(EventOneShot))
	}

	p.Cancel()
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after Cancel")
	}

	select {
	case got := <-ended:
		if got != "welcome.wav" {
			t.Errorf("OnPlaybackEnd(%q), want welcome.wav", got)
		}
	case <-time.After(time.Second):
		t.Fatal("OnPlaybackEnd not called")
	}
	if p.Played() != 1 {
		t.Errorf("Played() = %d, want 1", p.Played())
	}
}

func TestPlayer_ErrorOnClosedEngine(t *testing.T) {
	eng := NewMockEngine(nil)
	_ = eng.Close()
	p := NewPlayer(eng, nil)

	if err := p.Play("welcome.wav"); err == nil {
		t.Error("Play() on closed engine = nil error")
	}
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after failed Play")
	}
}
