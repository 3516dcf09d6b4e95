package tracking

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// DefaultTrailLen is the number of points kept per keypoint trail.
const DefaultTrailLen = 30

// IdentityPolicy decides how detections without a tracker id are matched
// across frames.
type IdentityPolicy int

const (
	// PolicyGreedy matches each untracked detection to the previous frame's
	// untracked person with the best bounding-box overlap.
	PolicyGreedy IdentityPolicy = iota
	// PolicyPositional keys untracked detections by their list position.
	// Trails jump between people whenever the detector reorders its output.
	PolicyPositional
)

// String implements fmt.Stringer.
func (p IdentityPolicy) String() string {
	switch p {
	case PolicyGreedy:
		return "greedy"
	case PolicyPositional:
		return "positional"
	default:
		return fmt.Sprintf("IdentityPolicy(%d)", int(p))
	}
}

// ParsePolicy parses "greedy" or "positional".
func ParsePolicy(s string) (IdentityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "greedy":
		return PolicyGreedy, nil
	case "positional", "index":
		return PolicyPositional, nil
	default:
		return 0, fmt.Errorf("tracking: unknown identity policy %q", s)
	}
}

// Config holds tunable parameters for the tracker.
type Config struct {
	// TrailLen caps every keypoint trail.
	TrailLen int

	// Label restricts tracking to detections with this label. Empty accepts all.
	Label string

	// Policy resolves identities for detections without a tracker id.
	Policy IdentityPolicy

	// MatchIoU is the minimum overlap for PolicyGreedy to carry an identity over.
	MatchIoU float64
}

// DefaultConfig returns a 30-point trail with greedy identity matching.
func DefaultConfig() Config {
	return Config{
		TrailLen: DefaultTrailLen,
		Label:    pose.LabelPerson,
		Policy:   PolicyGreedy,
		MatchIoU: 0.3,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.TrailLen <= 0 {
		return fmt.Errorf("tracking: trail length must be positive, got %d", c.TrailLen)
	}
	if c.MatchIoU < 0 || c.MatchIoU > 1 {
		return fmt.Errorf("tracking: match IoU must be in [0,1], got %v", c.MatchIoU)
	}
	if c.Policy != PolicyGreedy && c.Policy != PolicyPositional {
		return fmt.Errorf("tracking: invalid policy %v", c.Policy)
	}
	return nil
}
