package tracking

import "github.com/teslashibe/go-posemix/pkg/pose"

// Trail is a bounded FIFO of recent positions for one keypoint of one person.
// Pushing onto a full trail evicts the oldest point.
type Trail struct {
	buf   []pose.Point
	start int
	n     int
}

// NewTrail creates an empty trail holding at most capacity points.
func NewTrail(capacity int) *Trail {
	if capacity < 1 {
		capacity = 1
	}
	return &Trail{buf: make([]pose.Point, capacity)}
}

// Push appends p, dropping the oldest point when the trail is full.
func (t *Trail) Push(p pose.Point) {
	if t.n < len(t.buf) {
		t.buf[(t.start+t.n)%len(t.buf)] = p
		t.n++
		return
	}
	t.buf[t.start] = p
	t.start = (t.start + 1) % len(t.buf)
}

// Len returns the number of stored points.
func (t *Trail) Len() int { return t.n }

// Cap returns the trail capacity.
func (t *Trail) Cap() int { return len(t.buf) }

// At returns the i-th point, oldest first.
func (t *Trail) At(i int) pose.Point {
	return t.buf[(t.start+i)%len(t.buf)]
}

// Points returns a copy of the stored points, oldest first.
func (t *Trail) Points() []pose.Point {
	out := make([]pose.Point, t.n)
	for i := range out {
		out[i] = t.At(i)
	}
	return out
}

// Last returns the newest point.
func (t *Trail) Last() (pose.Point, bool) {
	if t.n == 0 {
		return pose.Point{}, false
	}
	return t.At(t.n - 1), true
}

// Speed returns the distance covered between the two newest points,
// in normalized units per frame. Zero with fewer than two points.
func (t *Trail) Speed() float64 {
	if t.n < 2 {
		return 0
	}
	return t.At(t.n - 1).Dist(t.At(t.n - 2))
}

// Clone returns an independent copy of the trail.
func (t *Trail) Clone() *Trail {
	c := &Trail{buf: make([]pose.Point, len(t.buf)), start: t.start, n: t.n}
	copy(c.buf, t.buf)
	return c
}
