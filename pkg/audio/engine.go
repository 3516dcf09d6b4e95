// Package audio binds tracked people to live, spatialized audio voices.
//
// An Engine creates Voices: looping playback sessions of one sound file with
// pan, pitch, volume and a ten band equalizer that can be changed while
// playing. The Registry keeps exactly one Voice per eligible identity and
// diffs against the previous tick instead of rebuilding.
package audio

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// Backend selects the Engine implementation.
type Backend string

const (
	// BackendGStreamer plays through GStreamer pipelines on the local device.
	BackendGStreamer Backend = "gstreamer"
	// BackendMock records voices without producing sound.
	BackendMock Backend = "mock"
)

// ParseBackend parses a backend name. Empty selects GStreamer.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendGStreamer, "gst":
		return BackendGStreamer, nil
	case BackendMock, "none":
		return BackendMock, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q", s)
	}
}

// VoiceSpec describes a voice to create.
type VoiceSpec struct {
	// ID is unique per voice, assigned by the Registry.
	ID string

	// Identity is the person the voice follows.
	Identity pose.Identity

	// Asset is the sound file path.
	Asset string

	Pan    float64
	Pitch  float64
	Volume float64
	Bands  [NumBands]float64

	// Loop restarts the asset from the beginning at end of stream.
	Loop bool
}

// Voice is a live audio session. Setters take effect without restarting
// playback. After Stop every setter returns ErrVoiceStopped.
type Voice interface {
	ID() string
	SetPan(pan float64) error
	SetPitch(pitch float64) error
	SetVolume(volume float64) error
	SetBand(band int, db float64) error
	Stop() error
}

// Ender is implemented by voices that can end on their own, e.g. after a
// playback error. The Registry replaces ended voices on the next Reconcile.
type Ender interface {
	Ended() bool
}

// OneShot is a non-looping playback not bound to any identity.
type OneShot interface {
	// Done is closed when playback ends or is stopped.
	Done() <-chan struct{}
	Stop() error
}

// Engine creates voices and one-shots.
type Engine interface {
	Name() string
	NewVoice(spec VoiceSpec) (Voice, error)
	PlayOnce(asset string, volume float64) (OneShot, error)
	Close() error
}
