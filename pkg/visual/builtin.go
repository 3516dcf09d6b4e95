package visual

import (
	"image"
	"image/color"
	"math"

	"github.com/teslashibe/go-posemix/pkg/audio"
	"github.com/teslashibe/go-posemix/pkg/pose"
	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/tracking"
)

// Builtins returns the bundled visualizations in menu order. The first one
// is the default and carries the tutorial.
func Builtins() []Descriptor {
	return []Descriptor{
		MotionTrails{},
		AccelerationGlow{},
		ElbowTrails{},
		FeetHeatmap{},
		HipCircles{},
		Skeleton{},
		SpineLine{},
	}
}

const trailThickness = 5

// MotionTrails draws wrist trails, one colour per hand per person.
type MotionTrails struct{}

func (MotionTrails) Name() string { return "Motion Trails" }

func (MotionTrails) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.LeftWrist, pose.RightWrist)
}

func (MotionTrails) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	return drawPairTrails(s, c, pose.LeftWrist, pose.RightWrist)
}

// ElbowTrails draws elbow trails, one colour per arm per person.
type ElbowTrails struct{}

func (ElbowTrails) Name() string { return "Elbow Trails" }

func (ElbowTrails) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.LeftElbow, pose.RightElbow)
}

func (ElbowTrails) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	return drawPairTrails(s, c, pose.LeftElbow, pose.RightElbow)
}

func drawPairTrails(s *Scene, c render.Canvas, left, right pose.Keypoint) error {
	size := c.Size()
	for _, p := range s.People {
		render.Polyline(c, trailPixels(p, left, size), IdentityColor(p.Identity, 0), trailThickness)
		render.Polyline(c, trailPixels(p, right, size), IdentityColor(p.Identity, 1), trailThickness)
	}
	return nil
}

// AccelerationGlow draws a glow at the left wrist whose brightness follows
// its speed. Voices rise in pitch with the wrist speed.
type AccelerationGlow struct{}

func (AccelerationGlow) Name() string { return "Acceleration Glow" }

func (AccelerationGlow) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.LeftWrist)
}

func (AccelerationGlow) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	size := c.Size()
	for _, p := range s.People {
		pts := trailPixels(p, pose.LeftWrist, size)
		if len(pts) < 2 {
			continue
		}
		last, prev := pts[len(pts)-1], pts[len(pts)-2]
		speed := math.Hypot(float64(last.X-prev.X), float64(last.Y-prev.Y))
		c.Circle(last, 10, render.Fade(render.Yellow, speed*10/255), render.Filled)
	}
	return nil
}

// Modulate maps left wrist speed to pitch and crowd size to gain. Voices are
// left alone until the left wrist has moved at least once.
func (AccelerationGlow) Modulate(p *tracking.Person, s *Scene) audio.Params {
	if len(p.Trail(pose.LeftWrist)) < 2 {
		return audio.Params{}
	}
	speed := p.Speed(pose.LeftWrist)
	return audio.Params{}.
		WithPitch(audio.ClampPitch(1 + 4*speed)).
		WithGain(math.Min(1, 0.5+0.1*float64(len(s.People))))
}

// FeetHeatmap draws recent ankle positions, older points dimmer.
type FeetHeatmap struct{}

func (FeetHeatmap) Name() string { return "Feet Heatmap" }

func (FeetHeatmap) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.LeftAnkle, pose.RightAnkle)
}

func (FeetHeatmap) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	size := c.Size()
	for _, p := range s.People {
		for _, k := range []pose.Keypoint{pose.LeftAnkle, pose.RightAnkle} {
			pts := trailPixels(p, k, size)
			for i, pt := range pts {
				age := len(pts) - i
				alpha := math.Max(255-float64(age)*5, 50)
				c.Circle(pt, 10, render.Fade(render.Red, alpha/255), render.Filled)
			}
		}
	}
	return nil
}

// Voice boosts the two lowest bands by 6 dB per voice index.
func (FeetHeatmap) Voice(index int) audio.Params {
	boost := 6.0 * float64(index)
	return audio.Params{}.WithBand(0, boost).WithBand(1, boost)
}

// HipCircles draws a pulsing ring at each person's hip centre.
type HipCircles struct{}

func (HipCircles) Name() string { return "Hip Circles" }

func (HipCircles) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.LeftHip, pose.RightHip)
}

func (HipCircles) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	size := c.Size()
	radius := 20 + int(10*math.Sin(float64(s.Elapsed.Milliseconds())*0.01))
	for _, p := range s.People {
		l, lok := p.Pose[pose.LeftHip]
		r, rok := p.Pose[pose.RightHip]
		if !lok || !rok {
			continue
		}
		c.Circle(render.Scale(l.Mid(r), size), radius, IdentityColor(p.Identity, 0), 3)
	}
	return nil
}

// Voice raises gain with the voice index.
func (HipCircles) Voice(index int) audio.Params {
	return audio.Params{}.WithGain(math.Min(1, 0.5+0.2*float64(index)))
}

// Skeleton draws the bones of every person.
type Skeleton struct{}

func (Skeleton) Name() string { return "Skeleton" }

func (Skeleton) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.AllKeypoints()...)
}

func (Skeleton) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	DrawBones(c, s.People, image.Rectangle{Max: c.Size()}, false, render.Cyan, 3)
	return nil
}

// Voice detunes each voice slightly.
func (Skeleton) Voice(index int) audio.Params {
	return audio.Params{}.WithPitch(1 + 0.05*float64(index))
}

// SpineLine draws a line from the nose to the hip centre.
type SpineLine struct{}

func (SpineLine) Name() string { return "Spine Line" }

func (SpineLine) Keypoints() pose.KeypointSet {
	return pose.NewKeypointSet(pose.Nose, pose.LeftHip, pose.RightHip)
}

func (SpineLine) Draw(s *Scene, c render.Canvas) error {
	c.Fill(Background)
	size := c.Size()
	for _, p := range s.People {
		nose, ok := p.Pose[pose.Nose]
		l, lok := p.Pose[pose.LeftHip]
		r, rok := p.Pose[pose.RightHip]
		if !ok || !lok || !rok {
			continue
		}
		c.Line(render.Scale(nose, size), render.Scale(l.Mid(r), size), IdentityColor(p.Identity, 0), trailThickness)
	}
	return nil
}

// DrawBones draws skeleton bones of people inside dst. mirror flips
// horizontally to match a mirrored camera image.
func DrawBones(c render.Canvas, people []*tracking.Person, dst image.Rectangle, mirror bool, col color.RGBA, thickness int) {
	size := dst.Size()
	at := func(pt pose.Point) image.Point {
		if mirror {
			pt = render.Mirror(pt)
		}
		return render.Scale(pt, size).Add(dst.Min)
	}
	for _, p := range people {
		for _, b := range pose.Skeleton {
			from, ok1 := p.Pose[b.From]
			to, ok2 := p.Pose[b.To]
			if !ok1 || !ok2 {
				continue
			}
			c.Line(at(from), at(to), col, thickness)
		}
	}
}

// DrawKeypoints marks every detected landmark of people inside dst.
func DrawKeypoints(c render.Canvas, people []*tracking.Person, dst image.Rectangle, mirror bool, col color.RGBA) {
	size := dst.Size()
	for _, p := range people {
		for _, pt := range p.Pose {
			if mirror {
				pt = render.Mirror(pt)
			}
			c.Circle(render.Scale(pt, size).Add(dst.Min), 4, col, render.Filled)
		}
	}
}
