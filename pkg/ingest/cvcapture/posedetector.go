package cvcapture

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

// PoseConfig holds pose model configuration.
type PoseConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultPoseConfig returns defaults for a YOLOv8n-pose ONNX export.
func DefaultPoseConfig() PoseConfig {
	return PoseConfig{
		ModelPath:        "models/yolov8n-pose.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// poseChannels is 4 box values, 1 person score, then x, y, score per keypoint.
const poseChannels = 5 + 3*pose.NumKeypoints

// PoseDetector runs a YOLOv8-pose network on frames.
type PoseDetector struct {
	net       gocv.Net
	config    PoseConfig
	mu        sync.Mutex
	inputSize image.Point
}

// NewPoseDetector loads the ONNX model.
func NewPoseDetector(cfg PoseConfig) (*PoseDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load pose model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &PoseDetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// DetectMat finds people in img. Identities are ephemeral, numbered by frame.
func (d *PoseDetector) DetectMat(img gocv.Mat, frame uint64) ([]pose.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Output shape: [1, 56, 8400], channel-major.
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] != poseChannels {
		return nil, fmt.Errorf("unexpected pose output shape %v", sizes)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read pose output: %w", err)
	}
	return d.parse(data, sizes[2], frame), nil
}

// parse decodes the channel-major tensor into normalized detections.
func (d *PoseDetector) parse(data []float32, anchors int, frame uint64) []pose.Detection {
	var boxes []image.Rectangle
	var scores []float32
	var anchorIdx []int

	at := func(ch, i int) float32 { return data[ch*anchors+i] }

	for i := 0; i < anchors; i++ {
		score := at(4, i)
		if score < d.config.ConfidenceThresh {
			continue
		}
		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, score)
		anchorIdx = append(anchorIdx, i)
	}
	if len(boxes) == 0 {
		return nil
	}

	inW, inH := float64(d.config.InputWidth), float64(d.config.InputHeight)
	keep := gocv.NMSBoxes(boxes, scores, d.config.ConfidenceThresh, d.config.NMSThresh)

	out := make([]pose.Detection, 0, len(keep))
	for n, idx := range keep {
		b := boxes[idx]
		i := anchorIdx[idx]

		points := make([][]float64, pose.NumKeypoints)
		for k := 0; k < pose.NumKeypoints; k++ {
			base := 5 + 3*k
			points[k] = []float64{
				float64(at(base, i)) / inW,
				float64(at(base+1, i)) / inH,
				float64(at(base+2, i)),
			}
		}

		out = append(out, pose.Detection{
			Identity:   pose.Ephemeral(frame, n),
			Label:      pose.LabelPerson,
			Confidence: float64(scores[idx]),
			Box: pose.Box{
				XMin: float64(b.Min.X) / inW,
				YMin: float64(b.Min.Y) / inH,
				XMax: float64(b.Max.X) / inW,
				YMax: float64(b.Max.Y) / inH,
			},
			Keypoints: pose.FromIndexed(points, 0.5),
		})
	}
	return out
}

// Close releases the network.
func (d *PoseDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
