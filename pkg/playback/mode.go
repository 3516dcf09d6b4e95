package playback

import (
	"fmt"
	"strings"
)

// Mode is the display composition.
type Mode int

const (
	// VisualOnly shows the visualization full screen.
	VisualOnly Mode = iota
	// SplitScreen shows the visualization left and the camera right.
	SplitScreen
	// CameraOverlay shows the camera with detections drawn on top. No audio.
	CameraOverlay

	numModes = 3
)

var modeNames = [numModes]string{"visual", "split", "camera"}

func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Label is the on-screen name of the mode.
func (m Mode) Label() string {
	switch m {
	case VisualOnly:
		return "Visual Only"
	case SplitScreen:
		return "Split Screen"
	case CameraOverlay:
		return "Camera + Keypoints"
	}
	return m.String()
}

// Next returns the following mode, wrapping around.
func (m Mode) Next() Mode { return (m + 1) % numModes }

// Prev returns the preceding mode, wrapping around.
func (m Mode) Prev() Mode { return (m + numModes - 1) % numModes }

// AllowsAudio reports whether voices may play in this mode.
func (m Mode) AllowsAudio() bool { return m == VisualOnly || m == SplitScreen }

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visual", "visual_only", "visualonly":
		return VisualOnly, nil
	case "", "split", "split_screen", "splitscreen":
		return SplitScreen, nil
	case "camera", "overlay", "camera_overlay", "cameraoverlay":
		return CameraOverlay, nil
	}
	return 0, fmt.Errorf("unknown display mode %q", s)
}

// TutorialState tracks the tutorial prompt of the first visualization.
type TutorialState int

const (
	// TutorialArmed plays the prompt when someone is tracked.
	TutorialArmed TutorialState = iota
	// TutorialPlaying means the prompt fired and will not fire again until re-armed.
	TutorialPlaying
	// TutorialSuppressed disables the prompt.
	TutorialSuppressed
)

func (s TutorialState) String() string {
	switch s {
	case TutorialArmed:
		return "armed"
	case TutorialPlaying:
		return "playing"
	case TutorialSuppressed:
		return "suppressed"
	}
	return fmt.Sprintf("tutorial(%d)", int(s))
}
