package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// DefaultTargetLUFS is the loudness every voice is normalized towards.
const DefaultTargetLUFS = -23.0

// NormalizationGain returns the linear volume that brings an asset measured
// at measuredLUFS towards targetLUFS. Louder assets are attenuated; quieter
// assets play at unity, so the result never exceeds 1.0.
func NormalizationGain(targetLUFS, measuredLUFS float64) float64 {
	if math.IsNaN(measuredLUFS) || math.IsInf(measuredLUFS, 0) || measuredLUFS <= targetLUFS {
		return UnityGain
	}
	return math.Pow(10, (targetLUFS-measuredLUFS)/20)
}

// Loudness holds pre-measured integrated loudness per sound file, keyed by
// base name.
type Loudness struct {
	mu     sync.RWMutex
	byName map[string]float64
}

// NewLoudness creates an empty table.
func NewLoudness() *Loudness {
	return &Loudness{byName: make(map[string]float64)}
}

// DefaultLoudness returns measurements for the bundled visual sounds.
func DefaultLoudness() *Loudness {
	l := NewLoudness()
	for name, lufs := range map[string]float64{
		"AccelerationGlowVisual.wav": -24.18,
		"ElbowTrailsVisual.wav":      -26.72,
		"FeetHeatmapVisual.wav":      -43.33,
		"HipCirclesVisual.wav":       -17.93,
		"SkeletonVisual.wav":         -12.23,
		"SpineLineVisual.wav":        -20.67,
	} {
		l.Set(name, lufs)
	}
	return l
}

// LoadLoudness merges a JSON object of {"file.wav": lufs} into the defaults.
func LoadLoudness(path string) (*Loudness, error) {
	l := DefaultLoudness()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loudness table: %w", err)
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse loudness table %s: %w", path, err)
	}
	for name, lufs := range m {
		l.Set(name, lufs)
	}
	return l, nil
}

// Set records the measured loudness of a sound file.
func (l *Loudness) Set(name string, lufs float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byName[filepath.Base(name)] = lufs
}

// Measured returns the loudness recorded for asset, looked up by base name.
func (l *Loudness) Measured(asset string) (float64, bool) {
	if l == nil {
		return 0, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.byName[filepath.Base(asset)]
	return v, ok
}

// Gain returns the normalization gain for asset. Unmeasured assets play at unity.
func (l *Loudness) Gain(asset string, targetLUFS float64) float64 {
	measured, ok := l.Measured(asset)
	if !ok {
		return UnityGain
	}
	return NormalizationGain(targetLUFS, measured)
}
