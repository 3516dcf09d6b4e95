package ingest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"time"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// ErrMalformed is returned for messages that cannot be translated.
var ErrMalformed = errors.New("ingest: malformed frame message")

// FrameMessage is one frame of inference output on the wire.
//
//	{"seq": 12, "timestamp": 1712345678.5, "frame": "<base64 jpeg>",
//	 "detections": [{"label": "person", "confidence": 0.91, "track_id": 3,
//	   "bbox": [xmin, ymin, xmax, ymax], "keypoints": [[x, y, score], ...]}]}
//
// Coordinates are normalized to [0,1]. Keypoints are indexed by COCO order.
type FrameMessage struct {
	Seq        uint64             `json:"seq,omitempty"`
	Timestamp  float64            `json:"timestamp,omitempty"`
	Frame      string             `json:"frame,omitempty"`
	Detections []DetectionMessage `json:"detections"`
}

// DetectionMessage is one detected object on the wire.
type DetectionMessage struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	TrackID    *int64      `json:"track_id,omitempty"`
	BBox       []float64   `json:"bbox"`
	Keypoints  [][]float64 `json:"keypoints,omitempty"`
}

// ParseFrameMessage decodes a JSON frame message.
func ParseFrameMessage(data []byte) (FrameMessage, error) {
	var m FrameMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return FrameMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

// Time returns the capture time, or fallback when the message has none.
func (m FrameMessage) Time(fallback time.Time) time.Time {
	if m.Timestamp <= 0 {
		return fallback
	}
	sec, frac := math.Modf(m.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// ToDetections translates the message. frame numbers ephemeral identities for
// detections without a track id. Detections with a malformed box are
// dropped; malformed keypoints are dropped individually.
func (m FrameMessage) ToDetections(frame uint64, minKeypointScore float64) []pose.Detection {
	out := make([]pose.Detection, 0, len(m.Detections))
	for i, d := range m.Detections {
		if len(d.BBox) != 4 {
			continue
		}
		box := pose.Box{XMin: d.BBox[0], YMin: d.BBox[1], XMax: d.BBox[2], YMax: d.BBox[3]}
		if box.XMax < box.XMin || box.YMax < box.YMin {
			continue
		}
		id := pose.Ephemeral(frame, i)
		if d.TrackID != nil {
			id = pose.Stable(*d.TrackID)
		}
		out = append(out, pose.Detection{
			Identity:   id,
			Label:      d.Label,
			Confidence: d.Confidence,
			Box:        box,
			Keypoints:  pose.FromIndexed(d.Keypoints, minKeypointScore),
		})
	}
	return out
}

// DecodeFrame decodes the embedded JPEG. It returns nil, nil when the
// message carries no frame.
func (m FrameMessage) DecodeFrame() (image.Image, error) {
	if m.Frame == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(m.Frame)
	if err != nil {
		return nil, fmt.Errorf("%w: frame base64: %v", ErrMalformed, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: frame jpeg: %v", ErrMalformed, err)
	}
	return img, nil
}

// NewFrameMessage builds a wire message from detections. Used by replay
// recording and tests.
func NewFrameMessage(seq uint64, at time.Time, dets []pose.Detection) FrameMessage {
	m := FrameMessage{
		Seq:        seq,
		Timestamp:  float64(at.UnixNano()) / 1e9,
		Detections: make([]DetectionMessage, 0, len(dets)),
	}
	for _, d := range dets {
		dm := DetectionMessage{
			Label:      d.Label,
			Confidence: d.Confidence,
			BBox:       []float64{d.Box.XMin, d.Box.YMin, d.Box.XMax, d.Box.YMax},
			Keypoints:  make([][]float64, pose.NumKeypoints),
		}
		if id, ok := d.Identity.TrackID(); ok {
			dm.TrackID = &id
		}
		for _, k := range pose.AllKeypoints() {
			if p, ok := d.Keypoints[k]; ok {
				dm.Keypoints[k] = []float64{p.X, p.Y, 1}
			} else {
				dm.Keypoints[k] = []float64{}
			}
		}
		m.Detections = append(m.Detections, dm)
	}
	return m
}
