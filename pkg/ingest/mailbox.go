// Package ingest receives frames and detections from the inference process
// and hands the playback loop a consistent, most recent view of both.
package ingest

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// Snapshot is an immutable pairing of one frame with its detections.
// Neither the frame nor the detection slice may be modified after publish.
type Snapshot struct {
	// Seq increases by one with every publish.
	Seq uint64

	// DetSeq increases only when new detections are published. Frame-only
	// publishes carry the previous detections and keep DetSeq.
	DetSeq uint64

	// Frame is the camera image, nil when no frame arrived yet.
	Frame image.Image

	Detections []pose.Detection

	CapturedAt time.Time
}

// Mailbox is a single-slot store holding the latest Snapshot. Publishing
// replaces the slot atomically; readers never block and never observe a
// partially built snapshot. Intermediate snapshots are dropped.
type Mailbox struct {
	slot atomic.Pointer[Snapshot]

	published   atomic.Uint64
	overwritten atomic.Uint64
	consumed    atomic.Uint64
	lastRead    atomic.Uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish replaces the latest snapshot with frame and detections.
func (m *Mailbox) Publish(frame image.Image, dets []pose.Detection, at time.Time) uint64 {
	return m.swap(func(prev *Snapshot) *Snapshot {
		return &Snapshot{Frame: frame, Detections: dets, DetSeq: detSeq(prev) + 1, CapturedAt: at}
	})
}

// PublishDetections replaces the detections and keeps the last frame.
func (m *Mailbox) PublishDetections(dets []pose.Detection, at time.Time) uint64 {
	return m.swap(func(prev *Snapshot) *Snapshot {
		s := &Snapshot{Detections: dets, DetSeq: detSeq(prev) + 1, CapturedAt: at}
		if prev != nil {
			s.Frame = prev.Frame
		}
		return s
	})
}

// PublishFrame replaces the frame and keeps the last detections.
func (m *Mailbox) PublishFrame(frame image.Image, at time.Time) uint64 {
	return m.swap(func(prev *Snapshot) *Snapshot {
		s := &Snapshot{Frame: frame, CapturedAt: at}
		if prev != nil {
			s.Detections = prev.Detections
			s.DetSeq = prev.DetSeq
		}
		return s
	})
}

func detSeq(s *Snapshot) uint64 {
	if s == nil {
		return 0
	}
	return s.DetSeq
}

func (m *Mailbox) swap(build func(prev *Snapshot) *Snapshot) uint64 {
	for {
		prev := m.slot.Load()
		next := build(prev)
		next.Seq = 1
		if prev != nil {
			next.Seq = prev.Seq + 1
		}
		if m.slot.CompareAndSwap(prev, next) {
			m.published.Add(1)
			if prev != nil && prev.Seq > m.lastRead.Load() {
				m.overwritten.Add(1)
			}
			return next.Seq
		}
	}
}

// Latest returns the most recent snapshot, or nil before the first publish.
func (m *Mailbox) Latest() *Snapshot {
	s := m.slot.Load()
	if s != nil && s.Seq > m.lastRead.Load() {
		m.lastRead.Store(s.Seq)
		m.consumed.Add(1)
	}
	return s
}

// LatestFrame returns the most recent frame, or nil.
func (m *Mailbox) LatestFrame() image.Image {
	if s := m.slot.Load(); s != nil {
		return s.Frame
	}
	return nil
}

// LatestDetections returns the most recent detections.
func (m *Mailbox) LatestDetections() []pose.Detection {
	if s := m.slot.Load(); s != nil {
		return s.Detections
	}
	return nil
}

// Stats describes mailbox traffic.
type Stats struct {
	Published   uint64 `json:"published"`
	Consumed    uint64 `json:"consumed"`
	Overwritten uint64 `json:"overwritten"`
	LastSeq     uint64 `json:"last_seq"`
}

// Stats returns a snapshot of the counters. Overwritten counts snapshots
// replaced before any reader saw them.
func (m *Mailbox) Stats() Stats {
	st := Stats{
		Published:   m.published.Load(),
		Consumed:    m.consumed.Load(),
		Overwritten: m.overwritten.Load(),
	}
	if s := m.slot.Load(); s != nil {
		st.LastSeq = s.Seq
	}
	return st
}
