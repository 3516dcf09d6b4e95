// Package visual holds the visualizations drawn for tracked people and the
// selector that cycles between them.
package visual

import (
	"hash/fnv"
	"image"
	"image/color"
	"time"

	"github.com/teslashibe/go-posemix/pkg/audio"
	"github.com/teslashibe/go-posemix/pkg/pose"
	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/tracking"
)

// Scene is the state a visualization draws from.
type Scene struct {
	// People are the currently tracked people, oldest first.
	People []*tracking.Person

	// Frame is the latest camera image. May be nil.
	Frame image.Image

	// Elapsed is the time since the loop started.
	Elapsed time.Duration

	// Tick counts loop iterations.
	Tick uint64
}

// Descriptor is one selectable visualization.
type Descriptor interface {
	// Name is the display name, also used to resolve the sound asset.
	Name() string

	// Keypoints returns the landmarks whose trails the visualization reads.
	Keypoints() pose.KeypointSet

	// Draw paints the scene onto c. Draw owns the whole canvas.
	Draw(s *Scene, c render.Canvas) error
}

// Voicer is implemented by descriptors that shape each voice at creation.
// index is the voice's position among the eligible people.
type Voicer interface {
	Voice(index int) audio.Params
}

// Modulator is implemented by descriptors that adjust live voices every tick.
type Modulator interface {
	Modulate(p *tracking.Person, s *Scene) audio.Params
}

// Background is the clear colour of every visualization.
var Background = render.Black

// IdentityColor returns a stable colour for id. Variants give the same person
// distinct colours for different body parts. Channels stay in [100, 255] so
// trails remain visible on black.
func IdentityColor(id pose.Identity, variant int) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(id.String()))
	h.Write([]byte{byte(variant)})
	sum := h.Sum32()
	ch := func(shift uint) uint8 { return uint8(100 + (sum>>shift)%156) }
	return color.RGBA{R: ch(0), G: ch(8), B: ch(16), A: 255}
}

func trailPixels(p *tracking.Person, k pose.Keypoint, size image.Point) []image.Point {
	pts := p.Trail(k)
	out := make([]image.Point, len(pts))
	for i, pt := range pts {
		out[i] = render.Scale(pt, size)
	}
	return out
}
