package playback

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/tracking"
	"github.com/teslashibe/go-posemix/pkg/visual"
)

const labelScale = 0.8

// draw composes the frame for the current mode. Errors and panics raised by
// the visualization are returned; the frame must then not be presented.
func (l *Loop) draw(desc visual.Descriptor, scene *visual.Scene) error {
	c := l.deps.Surface
	size := c.Size()
	full := image.Rectangle{Max: size}

	switch l.mode {
	case VisualOnly:
		if err := safeDraw(desc, scene, c); err != nil {
			return err
		}
		c.Text(desc.Name(), image.Pt(20, 40), labelScale, render.White)
		c.Text(l.mode.Label(), image.Pt(20, 70), labelScale*0.75, render.White)

	case SplitScreen:
		half := size.X / 2
		left := c.Sub(image.Rect(0, 0, half, size.Y))
		if err := safeDraw(desc, scene, left); err != nil {
			return err
		}
		right := image.Rect(half, 0, size.X, size.Y)
		drawCamera(c, scene, right)
		drawBoxes(c, scene.People, right)
		c.Text(desc.Name(), image.Pt(20, 40), labelScale, render.White)

	case CameraOverlay:
		drawCamera(c, scene, full)
		drawBoxes(c, scene.People, full)
		if l.keypoints {
			visual.DrawBones(c, scene.People, full, true, render.Cyan, 2)
			visual.DrawKeypoints(c, scene.People, full, true, render.Green)
		}
		state := "OFF"
		if l.keypoints {
			state = "ON"
		}
		c.Text("Keypoints: "+state, image.Pt(20, 40), labelScale, render.White)
	}
	return nil
}

// safeDraw calls desc.Draw and converts a panic into an error.
func safeDraw(desc visual.Descriptor, scene *visual.Scene, c render.Canvas) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("draw %s panicked: %v", desc.Name(), r)
		}
	}()
	if err := desc.Draw(scene, c); err != nil {
		return fmt.Errorf("draw %s: %w", desc.Name(), err)
	}
	return nil
}

// drawCamera paints the mirrored camera frame into dst.
func drawCamera(c render.Canvas, scene *visual.Scene, dst image.Rectangle) {
	if scene.Frame == nil {
		c.Sub(dst).Fill(render.Black)
		c.Text("waiting for camera", dst.Min.Add(image.Pt(20, dst.Dy()/2)), labelScale, render.White)
		return
	}
	c.Image(scene.Frame, dst, true)
}

// drawBoxes outlines tracked people inside dst, mirrored to match the camera.
func drawBoxes(c render.Canvas, people []*tracking.Person, dst image.Rectangle) {
	for _, p := range people {
		r := render.ScaleBox(render.MirrorBox(p.Box), dst.Size()).Add(dst.Min)
		c.Rect(r, render.Yellow, 2)
	}
}
