package pose

import "fmt"

type identityKind uint8

const (
	kindNone identityKind = iota
	kindStable
	kindEphemeral
)

// Identity names the same physical person across frames.
//
// It is either Stable, carrying the detector's tracker id, or Ephemeral,
// carrying the frame and list position where the person was first seen.
// Identity is comparable and may be used as a map key.
type Identity struct {
	kind  identityKind
	track int64
	frame uint64
	index int
}

// Stable returns the identity assigned by the upstream tracker.
func Stable(trackID int64) Identity {
	return Identity{kind: kindStable, track: trackID}
}

// Ephemeral returns a frame-local identity for a detection without a tracker id.
func Ephemeral(frame uint64, index int) Identity {
	return Identity{kind: kindEphemeral, frame: frame, index: index}
}

// IsZero reports whether the identity was never assigned.
func (id Identity) IsZero() bool { return id.kind == kindNone }

// IsStable reports whether the identity came from the upstream tracker.
func (id Identity) IsStable() bool { return id.kind == kindStable }

// IsEphemeral reports whether the identity was synthesized from frame position.
func (id Identity) IsEphemeral() bool { return id.kind == kindEphemeral }

// TrackID returns the upstream tracker id of a Stable identity.
func (id Identity) TrackID() (int64, bool) {
	return id.track, id.kind == kindStable
}

// Position returns the frame and list index of an Ephemeral identity.
func (id Identity) Position() (frame uint64, index int, ok bool) {
	return id.frame, id.index, id.kind == kindEphemeral
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	switch id.kind {
	case kindStable:
		return fmt.Sprintf("track_%d", id.track)
	case kindEphemeral:
		return fmt.Sprintf("person_%d_%d", id.frame, id.index)
	default:
		return "none"
	}
}

// MarshalText lets identities key JSON objects.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
