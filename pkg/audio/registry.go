package audio

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// Shaper returns the creation parameters of the index-th voice of a reconcile
// call. Index is the identity's position in the eligible list.
type Shaper func(index int) Params

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// TargetLUFS is the loudness voices are normalized towards.
	TargetLUFS float64

	// Loudness holds measured loudness per asset. Nil means every asset
	// plays at unity.
	Loudness *Loudness

	// Loop makes voices restart at end of stream.
	Loop bool
}

// DefaultRegistryConfig returns the standard registry configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		TargetLUFS: DefaultTargetLUFS,
		Loudness:   DefaultLoudness(),
		Loop:       true,
	}
}

// Result reports what one Reconcile call changed.
type Result struct {
	Created []pose.Identity
	Removed []pose.Identity
	Failed  []pose.Identity
}

// Changed reports whether any voice was created or removed.
func (r Result) Changed() bool {
	return len(r.Created) > 0 || len(r.Removed) > 0
}

// VoiceState is a read-only view of one live voice.
type VoiceState struct {
	ID        string        `json:"id"`
	Identity  pose.Identity `json:"identity"`
	Asset     string        `json:"asset"`
	Index     int           `json:"index"`
	Pan       float64       `json:"pan"`
	Pitch     float64       `json:"pitch"`
	BaseGain  float64       `json:"base_gain"`
	Gain      float64       `json:"gain"`
	Volume    float64       `json:"volume"`
	Bands     []float64     `json:"bands"`
	CreatedAt time.Time     `json:"created_at"`
}

type entry struct {
	voice Voice
	state VoiceState
	bands [NumBands]float64
}

// Registry owns the live voices, at most one per identity.
type Registry struct {
	engine Engine
	config RegistryConfig
	logger *slog.Logger

	mu     sync.Mutex
	asset  string
	shaper Shaper
	voices map[pose.Identity]*entry
}

// NewRegistry creates a registry on top of engine.
func NewRegistry(engine Engine, config RegistryConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engine: engine,
		config: config,
		logger: logger,
		voices: make(map[pose.Identity]*entry),
	}
}

// SetShaper sets the creation parameters for voices created from now on.
// Nil resets to neutral parameters.
func (r *Registry) SetShaper(s Shaper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shaper = s
}

// Reconcile brings the live voices in line with the desired state.
//
// When asset differs from the previous call every voice is torn down first.
// Voices of identities missing from eligible are torn down. Every eligible
// identity without a voice gets one bound to asset, panned by positionOf.
// An empty asset means no audio: the registry collapses to empty.
//
// Voices that fail to start are logged and left absent; the next call retries.
func (r *Registry) Reconcile(asset string, eligible []pose.Identity, positionOf func(pose.Identity) float64) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res Result

	if asset != r.asset {
		if len(r.voices) > 0 {
			r.logger.Debug("asset changed, tearing down voices",
				"from", r.asset, "to", asset, "voices", len(r.voices))
		}
		res.Removed = append(res.Removed, r.stopAllLocked()...)
		r.asset = asset
	}

	want := make(map[pose.Identity]int, len(eligible))
	if asset != "" {
		for i, id := range eligible {
			if _, dup := want[id]; !dup {
				want[id] = i
			}
		}
	}

	for _, id := range sortedIdentities(r.voices) {
		if _, ok := want[id]; ok && !ended(r.voices[id].voice) {
			continue
		}
		r.stopLocked(id)
		res.Removed = append(res.Removed, id)
	}

	for _, id := range eligible {
		index, ok := want[id]
		if !ok {
			continue
		}
		if _, live := r.voices[id]; live {
			continue
		}
		pos := 0.5
		if positionOf != nil {
			pos = positionOf(id)
		}
		if err := r.createLocked(id, index, pos); err != nil {
			r.logger.Warn("voice creation failed",
				"identity", id.String(), "asset", asset, "error", err)
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Created = append(res.Created, id)
	}
	return res
}

func (r *Registry) createLocked(id pose.Identity, index int, pos float64) error {
	var shape Params
	if r.shaper != nil {
		shape = r.shaper(index)
	}

	base := r.config.Loudness.Gain(r.asset, r.config.TargetLUFS)
	gain := UnityGain
	if shape.Gain != nil {
		gain = ClampGain(*shape.Gain)
	}
	pitch := NeutralPitch
	if shape.Pitch != nil {
		pitch = ClampPitch(*shape.Pitch)
	}
	var bands [NumBands]float64
	for b, db := range shape.Bands {
		if b < 0 || b >= NumBands {
			continue
		}
		bands[b] = ClampBand(db)
	}

	spec := VoiceSpec{
		ID:       uuid.NewString(),
		Identity: id,
		Asset:    r.asset,
		Pan:      PanFromPosition(pos),
		Pitch:    pitch,
		Volume:   ClampGain(base * gain),
		Bands:    bands,
		Loop:     r.config.Loop,
	}
	v, err := r.engine.NewVoice(spec)
	if err != nil {
		return err
	}

	r.voices[id] = &entry{
		voice: v,
		bands: bands,
		state: VoiceState{
			ID:        spec.ID,
			Identity:  id,
			Asset:     spec.Asset,
			Index:     index,
			Pan:       spec.Pan,
			Pitch:     spec.Pitch,
			BaseGain:  base,
			Gain:      gain,
			Volume:    spec.Volume,
			CreatedAt: time.Now(),
		},
	}
	r.logger.Debug("voice created",
		"identity", id.String(), "voice_id", spec.ID, "asset", spec.Asset,
		"pan", spec.Pan, "volume", spec.Volume)
	return nil
}

// UpdateParameters adjusts the live voice of id in place. It reports whether
// a voice exists; it never creates one.
func (r *Registry) UpdateParameters(id pose.Identity, p Params) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.voices[id]
	if !ok {
		return false
	}

	if p.Pitch != nil {
		pitch := ClampPitch(*p.Pitch)
		if err := e.voice.SetPitch(pitch); err != nil {
			r.logParamError(e, "pitch", err)
		} else {
			e.state.Pitch = pitch
		}
	}
	if p.Gain != nil {
		gain := ClampGain(*p.Gain)
		vol := ClampGain(e.state.BaseGain * gain)
		if err := e.voice.SetVolume(vol); err != nil {
			r.logParamError(e, "volume", err)
		} else {
			e.state.Gain = gain
			e.state.Volume = vol
		}
	}
	for b, db := range p.Bands {
		if b < 0 || b >= NumBands {
			r.logParamError(e, "band", ErrBandRange)
			continue
		}
		db = ClampBand(db)
		if err := e.voice.SetBand(b, db); err != nil {
			r.logParamError(e, "band", err)
			continue
		}
		e.bands[b] = db
	}
	return true
}

func (r *Registry) logParamError(e *entry, param string, err error) {
	r.logger.Warn("voice parameter update failed",
		"identity", e.state.Identity.String(), "voice_id", e.state.ID,
		"param", param, "error", err)
}

// TeardownAll stops every voice and returns the identities released.
func (r *Registry) TeardownAll() []pose.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.stopAllLocked()
	r.asset = ""
	return removed
}

func (r *Registry) stopAllLocked() []pose.Identity {
	ids := sortedIdentities(r.voices)
	for _, id := range ids {
		r.stopLocked(id)
	}
	return ids
}

func (r *Registry) stopLocked(id pose.Identity) {
	e, ok := r.voices[id]
	if !ok {
		return
	}
	delete(r.voices, id)
	if err := e.voice.Stop(); err != nil && !errors.Is(err, ErrVoiceStopped) {
		r.logger.Warn("voice stop failed",
			"identity", id.String(), "voice_id", e.state.ID, "error", err)
	}
}

// Asset returns the asset bound by the last Reconcile.
func (r *Registry) Asset() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.asset
}

// Len returns the number of live voices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}

// Has reports whether id has a live voice.
func (r *Registry) Has(id pose.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.voices[id]
	return ok
}

// Voices returns the state of every live voice ordered by identity.
func (r *Registry) Voices() []VoiceState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]VoiceState, 0, len(r.voices))
	for _, id := range sortedIdentities(r.voices) {
		e := r.voices[id]
		s := e.state
		s.Bands = append([]float64(nil), e.bands[:]...)
		out = append(out, s)
	}
	return out
}

func ended(v Voice) bool {
	e, ok := v.(Ender)
	return ok && e.Ended()
}

func sortedIdentities(m map[pose.Identity]*entry) []pose.Identity {
	ids := make([]pose.Identity, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
