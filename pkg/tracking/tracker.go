// Package tracking maintains per-person keypoint trails across frames.
package tracking

import (
	"sort"
	"sync"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// Person is one tracked identity and its motion history.
type Person struct {
	Identity   pose.Identity
	Trails     map[pose.Keypoint]*Trail
	Box        pose.Box
	Pose       map[pose.Keypoint]pose.Point // keypoints from the latest frame
	Confidence float64

	FirstSeenFrame uint64
	LastSeenFrame  uint64
}

// Trail returns the trail points of k, oldest first. Nil if k was never seen.
func (p *Person) Trail(k pose.Keypoint) []pose.Point {
	if t, ok := p.Trails[k]; ok {
		return t.Points()
	}
	return nil
}

// Speed returns the latest per-frame displacement of keypoint k.
func (p *Person) Speed(k pose.Keypoint) float64 {
	if t, ok := p.Trails[k]; ok {
		return t.Speed()
	}
	return 0
}

func (p *Person) clone() *Person {
	c := *p
	c.Trails = make(map[pose.Keypoint]*Trail, len(p.Trails))
	for k, t := range p.Trails {
		c.Trails[k] = t.Clone()
	}
	c.Pose = make(map[pose.Keypoint]pose.Point, len(p.Pose))
	for k, v := range p.Pose {
		c.Pose[k] = v
	}
	return &c
}

// Tracker maps identities to trails. A person exists in the tracker exactly
// when it was present in the most recent Update; there is no grace period.
type Tracker struct {
	config Config

	mu      sync.RWMutex
	people  map[pose.Identity]*Person
	frame   uint64
	arrived []pose.Identity
}

// New creates a tracker.
func New(config Config) *Tracker {
	if config.TrailLen <= 0 {
		config.TrailLen = DefaultTrailLen
	}
	return &Tracker{
		config: config,
		people: make(map[pose.Identity]*Person),
	}
}

// Update ingests one frame of detections.
//
// Detections below threshold or with a foreign label are ignored. For every
// accepted detection the person is upserted and each keypoint in keypoints that
// the detection carries is appended to its trail. People not present in dets are
// removed before Update returns.
func (t *Tracker) Update(dets []pose.Detection, keypoints pose.KeypointSet, threshold float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frame++
	t.arrived = t.arrived[:0]

	accepted := make([]int, 0, len(dets))
	for i, d := range dets {
		if t.config.Label != "" && d.Label != t.config.Label {
			continue
		}
		if d.Confidence < threshold {
			continue
		}
		accepted = append(accepted, i)
	}

	ids := t.resolve(dets, accepted)
	seen := make(map[pose.Identity]bool, len(accepted))

	for _, i := range accepted {
		id := ids[i]
		if seen[id] {
			// duplicate tracker id in one frame; keep the first
			continue
		}
		seen[id] = true

		d := dets[i]
		p, ok := t.people[id]
		if !ok {
			p = &Person{
				Identity:       id,
				Trails:         make(map[pose.Keypoint]*Trail),
				FirstSeenFrame: t.frame,
			}
			t.people[id] = p
			t.arrived = append(t.arrived, id)
		}
		p.Box = d.Box
		p.Confidence = d.Confidence
		p.LastSeenFrame = t.frame
		p.Pose = make(map[pose.Keypoint]pose.Point, len(d.Keypoints))
		for k, pt := range d.Keypoints {
			p.Pose[k] = pt
		}

		for _, k := range keypoints.Keypoints() {
			pt, ok := d.Keypoints[k]
			if !ok {
				continue
			}
			trail, ok := p.Trails[k]
			if !ok {
				trail = NewTrail(t.config.TrailLen)
				p.Trails[k] = trail
			}
			trail.Push(pt)
		}
	}

	for id := range t.people {
		if !seen[id] {
			delete(t.people, id)
		}
	}
}

// resolve assigns the tracker identity for every accepted detection index.
func (t *Tracker) resolve(dets []pose.Detection, accepted []int) map[int]pose.Identity {
	ids := make(map[int]pose.Identity, len(accepted))
	var untracked []int

	for _, i := range accepted {
		id := dets[i].Identity
		if id.IsStable() {
			ids[i] = id
			continue
		}
		untracked = append(untracked, i)
	}
	if len(untracked) == 0 {
		return ids
	}

	if t.config.Policy == PolicyPositional {
		for _, i := range untracked {
			ids[i] = pose.Ephemeral(0, positionOf(dets[i], i))
		}
		return ids
	}

	matched := matchGreedy(dets, untracked, t.untrackedPeople(), t.config.MatchIoU)
	for _, i := range untracked {
		if id, ok := matched[i]; ok {
			ids[i] = id
			continue
		}
		ids[i] = pose.Ephemeral(t.frame, i)
	}
	return ids
}

// untrackedPeople returns people carrying synthesized identities in a stable order.
func (t *Tracker) untrackedPeople() []*Person {
	var out []*Person
	for _, p := range t.people {
		if p.Identity.IsEphemeral() {
			out = append(out, p)
		}
	}
	sortPeople(out)
	return out
}

func positionOf(d pose.Detection, fallback int) int {
	if _, idx, ok := d.Identity.Position(); ok {
		return idx
	}
	return fallback
}

// Frame returns the number of frames ingested so far.
func (t *Tracker) Frame() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frame
}

// Len returns the number of tracked people.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.people)
}

// Has reports whether id is currently tracked.
func (t *Tracker) Has(id pose.Identity) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.people[id]
	return ok
}

// Get returns a copy of the tracked person for id.
func (t *Tracker) Get(id pose.Identity) (*Person, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.people[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Identities returns the tracked identities, oldest first.
func (t *Tracker) Identities() []pose.Identity {
	people := t.People()
	out := make([]pose.Identity, len(people))
	for i, p := range people {
		out[i] = p.Identity
	}
	return out
}

// People returns copies of all tracked people, oldest first.
func (t *Tracker) People() []*Person {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Person, 0, len(t.people))
	for _, p := range t.people {
		out = append(out, p.clone())
	}
	sortPeople(out)
	return out
}

// Arrivals returns the identities first seen in the latest frame.
func (t *Tracker) Arrivals() []pose.Identity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]pose.Identity(nil), t.arrived...)
}

// Reset forgets every person.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.people = make(map[pose.Identity]*Person)
	t.arrived = t.arrived[:0]
}

func sortPeople(ps []*Person) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].FirstSeenFrame != ps[j].FirstSeenFrame {
			return ps[i].FirstSeenFrame < ps[j].FirstSeenFrame
		}
		return ps[i].Identity.String() < ps[j].Identity.String()
	})
}
