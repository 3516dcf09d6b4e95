package main

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-posemix/pkg/audio"
	"github.com/teslashibe/go-posemix/pkg/audio/gstaudio"
	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/ingest"
	"github.com/teslashibe/go-posemix/pkg/ingest/cvcapture"
	"github.com/teslashibe/go-posemix/pkg/posemix"
	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/render/cvscreen"
)

// backends binds the GStreamer and OpenCV implementations.
func backends() posemix.Backends {
	return posemix.Backends{
		Audio: func(cfg posemix.Config, logger *slog.Logger) (audio.Engine, error) {
			return gstaudio.New(gstaudio.DefaultConfig(), logger)
		},
		Display: func(cfg posemix.Config, inbox *control.Inbox, logger *slog.Logger) (render.Surface, error) {
			sc := cvscreen.DefaultConfig()
			sc.Width, sc.Height = cfg.Width, cfg.Height
			sc.Fullscreen = cfg.Fullscreen
			sc.Headless = cfg.Headless
			return cvscreen.NewScreen(sc, inbox, logger)
		},
		Camera: func(cfg posemix.Config, logger *slog.Logger) (ingest.Source, error) {
			var detector *cvcapture.PoseDetector
			if cfg.PoseModel != "" {
				pc := cvcapture.DefaultPoseConfig()
				pc.ModelPath = cfg.PoseModel
				var err error
				if detector, err = cvcapture.NewPoseDetector(pc); err != nil {
					return nil, err
				}
			}
			cam, err := cvcapture.OpenCamera(cfg.Camera, detector, logger)
			if err != nil {
				if detector != nil {
					detector.Close()
				}
				return nil, err
			}
			return &detectingCamera{Camera: cam, detector: detector}, nil
		},
	}
}

// detectingCamera releases the pose detector once the camera stops.
type detectingCamera struct {
	*cvcapture.Camera
	detector *cvcapture.PoseDetector
}

func (c *detectingCamera) Run(ctx context.Context, mb *ingest.Mailbox) error {
	if c.detector != nil {
		defer c.detector.Close()
	}
	return c.Camera.Run(ctx, mb)
}
