// Package cvcapture reads camera frames with OpenCV and optionally runs a
// local pose model on them.
package cvcapture

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posemix/pkg/ingest"
)

// Camera publishes frames from a capture device or stream URL. With a
// Detector attached it also publishes the detections of every frame;
// otherwise detections from another source are kept.
type Camera struct {
	device   string
	detector *PoseDetector
	logger   *slog.Logger

	capture *gocv.VideoCapture
	frames  atomic.Uint64
	failed  atomic.Uint64
}

var _ ingest.Source = (*Camera)(nil)

// OpenCamera opens device, either a numeric index or a URL/path.
func OpenCamera(device string, detector *PoseDetector, logger *slog.Logger) (*Camera, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var src interface{} = device
	if idx, err := strconv.Atoi(device); err == nil {
		src = idx
	}
	capture, err := gocv.OpenVideoCapture(src)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open camera %s: device not available", device)
	}
	logger.Info("camera opened", "device", device, "detector", detector != nil)
	return &Camera{device: device, detector: detector, logger: logger, capture: capture}, nil
}

// Name returns the device.
func (c *Camera) Name() string { return "camera:" + c.device }

// Run reads frames until ctx is cancelled. A read failure is retried after a
// short pause.
func (c *Camera) Run(ctx context.Context, mb *ingest.Mailbox) error {
	defer c.capture.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	var seq uint64
	for ctx.Err() == nil {
		if ok := c.capture.Read(&mat); !ok || mat.Empty() {
			if c.failed.Add(1)%30 == 1 {
				c.logger.Warn("camera read failed", "device", c.device)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		seq++
		now := time.Now()

		img, err := mat.ToImage()
		if err != nil {
			c.logger.Debug("frame conversion failed", "error", err)
			continue
		}

		if c.detector == nil {
			mb.PublishFrame(img, now)
		} else {
			dets, err := c.detector.DetectMat(mat, seq)
			if err != nil {
				c.logger.Warn("pose detection failed", "error", err)
				mb.PublishFrame(img, now)
			} else {
				mb.Publish(img, dets, now)
			}
		}
		c.frames.Add(1)
	}
	return nil
}

// Frames returns how many frames were published.
func (c *Camera) Frames() uint64 { return c.frames.Load() }
