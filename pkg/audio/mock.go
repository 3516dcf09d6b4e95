package audio

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// EventKind is the kind of a MockEngine event.
type EventKind string

const (
	EventCreate  EventKind = "create"
	EventStop    EventKind = "stop"
	EventPitch   EventKind = "pitch"
	EventVolume  EventKind = "volume"
	EventPan     EventKind = "pan"
	EventBand    EventKind = "band"
	EventOneShot EventKind = "oneshot"
)

// Event is one recorded MockEngine call.
type Event struct {
	Kind     EventKind
	VoiceID  string
	Identity pose.Identity
	Asset    string
	Band     int
	Value    float64
}

// MockEngine records voice lifecycles without producing sound.
type MockEngine struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []Event
	specs  map[string]VoiceSpec
	voices []*mockVoice
	fail   map[pose.Identity]error
	closed bool

	live atomic.Int64
}

var _ Engine = (*MockEngine)(nil)

// NewMockEngine creates a mock engine.
func NewMockEngine(logger *slog.Logger) *MockEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockEngine{
		logger: logger,
		specs:  make(map[string]VoiceSpec),
		fail:   make(map[pose.Identity]error),
	}
}

// Name returns "mock".
func (m *MockEngine) Name() string { return string(BackendMock) }

// FailFor makes voice creation for id return err until cleared with a nil err.
func (m *MockEngine) FailFor(id pose.Identity, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, id)
		return
	}
	m.fail[id] = err
}

// NewVoice records a create event.
func (m *MockEngine) NewVoice(spec VoiceSpec) (Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrEngineClosed
	}
	if spec.Asset == "" {
		return nil, ErrNoAsset
	}
	if err := m.fail[spec.Identity]; err != nil {
		return nil, err
	}
	m.specs[spec.ID] = spec
	m.events = append(m.events, Event{
		Kind:     EventCreate,
		VoiceID:  spec.ID,
		Identity: spec.Identity,
		Asset:    spec.Asset,
		Value:    spec.Volume,
	})
	m.live.Add(1)
	v := &mockVoice{engine: m, spec: spec}
	m.voices = append(m.voices, v)
	return v, nil
}

// PlayOnce records a one-shot event. The returned OneShot finishes on Stop.
func (m *MockEngine) PlayOnce(asset string, volume float64) (OneShot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrEngineClosed
	}
	if asset == "" {
		return nil, ErrNoAsset
	}
	m.events = append(m.events, Event{Kind: EventOneShot, Asset: asset, Value: volume})
	return &mockOneShot{done: make(chan struct{})}, nil
}

// Close marks the engine closed.
func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Events returns a copy of every recorded event.
func (m *MockEngine) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Count returns how many events of kind were recorded.
func (m *MockEngine) Count(kind EventKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset clears recorded events.
func (m *MockEngine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// Spec returns the spec a voice was created with.
func (m *MockEngine) Spec(voiceID string) (VoiceSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.specs[voiceID]
	return s, ok
}

// Live returns the number of voices created and not yet stopped.
func (m *MockEngine) Live() int { return int(m.live.Load()) }

func (m *MockEngine) record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// End marks the live voice of id as ended, as if its pipeline failed.
func (m *MockEngine) End(id pose.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.voices {
		if v.spec.Identity == id && !v.stopped.Load() {
			v.ended.Store(true)
		}
	}
}

type mockVoice struct {
	engine  *MockEngine
	spec    VoiceSpec
	stopped atomic.Bool
	ended   atomic.Bool
}

func (v *mockVoice) Ended() bool { return v.ended.Load() }

func (v *mockVoice) ID() string { return v.spec.ID }

func (v *mockVoice) set(kind EventKind, band int, value float64) error {
	if v.stopped.Load() {
		return ErrVoiceStopped
	}
	v.engine.record(Event{
		Kind:     kind,
		VoiceID:  v.spec.ID,
		Identity: v.spec.Identity,
		Asset:    v.spec.Asset,
		Band:     band,
		Value:    value,
	})
	return nil
}

func (v *mockVoice) SetPan(pan float64) error       { return v.set(EventPan, 0, pan) }
func (v *mockVoice) SetPitch(pitch float64) error   { return v.set(EventPitch, 0, pitch) }
func (v *mockVoice) SetVolume(volume float64) error { return v.set(EventVolume, 0, volume) }

func (v *mockVoice) SetBand(band int, db float64) error {
	if band < 0 || band >= NumBands {
		return ErrBandRange
	}
	return v.set(EventBand, band, db)
}

func (v *mockVoice) Stop() error {
	if !v.stopped.CompareAndSwap(false, true) {
		return ErrVoiceStopped
	}
	v.engine.live.Add(-1)
	v.engine.record(Event{
		Kind:     EventStop,
		VoiceID:  v.spec.ID,
		Identity: v.spec.Identity,
		Asset:    v.spec.Asset,
	})
	return nil
}

type mockOneShot struct {
	once sync.Once
	done chan struct{}
}

func (o *mockOneShot) Done() <-chan struct{} { return o.done }

func (o *mockOneShot) Stop() error {
	o.once.Do(func() { close(o.done) })
	return nil
}

// ErrInjected is a convenience error for failure injection in tests.
var ErrInjected = errors.New("audio: injected failure")
