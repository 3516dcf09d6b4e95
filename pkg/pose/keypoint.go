// Package pose defines the per-frame person detections produced by the
// ingestion adapter: identities, bounding boxes and named keypoints.
package pose

import "strings"

// Keypoint is a named anatomical landmark in the 17-point COCO layout.
// The numeric value is the landmark index used by pose models.
type Keypoint int

// COCO keypoints, in model output order.
const (
	Nose Keypoint = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// NumKeypoints is the number of landmarks a full pose carries.
	NumKeypoints = int(RightAnkle) + 1
)

var keypointNames = [NumKeypoints]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// String returns the snake_case landmark name.
func (k Keypoint) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return keypointNames[k]
}

// Valid reports whether k names one of the 17 landmarks.
func (k Keypoint) Valid() bool {
	return k >= 0 && int(k) < NumKeypoints
}

// ParseKeypoint resolves a landmark name ("left_wrist", "Left Wrist", "left-wrist").
func ParseKeypoint(name string) (Keypoint, bool) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for i, n := range keypointNames {
		if n == norm {
			return Keypoint(i), true
		}
	}
	return 0, false
}

// AllKeypoints returns every landmark in index order.
func AllKeypoints() []Keypoint {
	out := make([]Keypoint, NumKeypoints)
	for i := range out {
		out[i] = Keypoint(i)
	}
	return out
}

// Bone connects two landmarks for skeleton drawing.
type Bone struct {
	From, To Keypoint
}

// Skeleton lists the limb connections drawn by skeleton-style visuals.
var Skeleton = []Bone{
	{Nose, LeftEye}, {Nose, RightEye}, {LeftEye, LeftEar}, {RightEye, RightEar},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},
	{LeftShoulder, LeftHip}, {RightShoulder, RightHip}, {LeftHip, RightHip},
	{LeftHip, LeftKnee}, {LeftKnee, LeftAnkle},
	{RightHip, RightKnee}, {RightKnee, RightAnkle},
}

// KeypointSet is a set of landmarks.
type KeypointSet uint32

// NewKeypointSet returns a set holding ks. Invalid keypoints are ignored.
func NewKeypointSet(ks ...Keypoint) KeypointSet {
	var s KeypointSet
	for _, k := range ks {
		s = s.Add(k)
	}
	return s
}

// Add returns s with k included.
func (s KeypointSet) Add(k Keypoint) KeypointSet {
	if !k.Valid() {
		return s
	}
	return s | 1<<uint(k)
}

// Has reports whether k is in the set.
func (s KeypointSet) Has(k Keypoint) bool {
	return k.Valid() && s&(1<<uint(k)) != 0
}

// Union returns the landmarks in either set.
func (s KeypointSet) Union(o KeypointSet) KeypointSet { return s | o }

// Len returns the number of landmarks in the set.
func (s KeypointSet) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Keypoints returns the members in index order.
func (s KeypointSet) Keypoints() []Keypoint {
	out := make([]Keypoint, 0, s.Len())
	for i := 0; i < NumKeypoints; i++ {
		if s.Has(Keypoint(i)) {
			out = append(out, Keypoint(i))
		}
	}
	return out
}
