package audio

import "math"

// Parameter limits applied to every voice.
const (
	NumBands     = 10
	MinPitch     = 0.5
	MaxPitch     = 2.0
	MinBandDB    = -24.0
	MaxBandDB    = 12.0
	MinPan       = -1.0
	MaxPan       = 1.0
	UnityGain    = 1.0
	NeutralPitch = 1.0
)

// Params is a partial update of a live voice. Nil fields are left unchanged.
type Params struct {
	// Pitch is the playback pitch factor, clamped to [MinPitch, MaxPitch].
	Pitch *float64

	// Gain scales the loudness-normalized volume, clamped to [0, 1].
	Gain *float64

	// Bands maps equalizer band index to gain in dB.
	Bands map[int]float64
}

// WithPitch returns p with the pitch set.
func (p Params) WithPitch(v float64) Params {
	p.Pitch = &v
	return p
}

// WithGain returns p with the gain set.
func (p Params) WithGain(v float64) Params {
	p.Gain = &v
	return p
}

// WithBand returns p with one equalizer band set.
func (p Params) WithBand(band int, db float64) Params {
	bands := make(map[int]float64, len(p.Bands)+1)
	for k, v := range p.Bands {
		bands[k] = v
	}
	bands[band] = db
	p.Bands = bands
	return p
}

// IsZero reports whether p changes nothing.
func (p Params) IsZero() bool {
	return p.Pitch == nil && p.Gain == nil && len(p.Bands) == 0
}

// PanFromPosition maps a normalized horizontal position in [0,1] to a
// stereo pan in [-1,1]. Positions outside [0,1] are clamped.
func PanFromPosition(x float64) float64 {
	return clamp(2*x-1, MinPan, MaxPan)
}

// ClampPan limits a stereo pan to [-1, 1].
func ClampPan(v float64) float64 { return clamp(v, MinPan, MaxPan) }

// ClampPitch limits a pitch factor to the supported range.
func ClampPitch(v float64) float64 { return clamp(v, MinPitch, MaxPitch) }

// ClampGain limits a gain to [0, 1].
func ClampGain(v float64) float64 { return clamp(v, 0, UnityGain) }

// ClampBand limits an equalizer band gain.
func ClampBand(db float64) float64 { return clamp(db, MinBandDB, MaxBandDB) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
