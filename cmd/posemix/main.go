// posemix - per-person pose visuals with one positional voice per tracked person
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	logpkg "github.com/teslashibe/go-posemix/internal/log"
	"github.com/teslashibe/go-posemix/pkg/posemix"
)

func main() {
	cfg := parseFlags()

	logpkg.Init(cfg.LogLevel)
	logger := logpkg.L()

	app, err := posemix.New(cfg, backends(), logger)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		app.Shutdown()
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		app.Shutdown()
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() posemix.Config {
	cfg := posemix.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.StringVar(&cfg.DetectionsURL, "detections", cfg.DetectionsURL, "Websocket URL of the pose detection stream")
	flag.StringVar(&cfg.ReplayFile, "replay", cfg.ReplayFile, "Replay recorded detections from a JSON-lines file")
	flag.StringVar(&cfg.Camera, "camera", cfg.Camera, "Camera device index or stream URL")
	flag.StringVar(&cfg.PoseModel, "pose-model", cfg.PoseModel, "ONNX pose model to run on camera frames")
	flag.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Directory holding the visual sounds")
	flag.StringVar(&cfg.TutorialAsset, "tutorial", cfg.TutorialAsset, "Tutorial prompt played on the first visual (empty disables)")
	flag.StringVar(&cfg.LoudnessFile, "loudness", cfg.LoudnessFile, "JSON file of measured loudness per sound")
	flag.Float64Var(&cfg.TargetLoudness, "target-lufs", cfg.TargetLoudness, "Loudness target in LUFS")
	flag.StringVar(&cfg.AudioBackend, "audio", cfg.AudioBackend, "Audio backend: gstreamer, mock")
	flag.StringVar(&cfg.IdentityPolicy, "identity", cfg.IdentityPolicy, "Identity policy for untracked people: greedy, positional")
	flag.IntVar(&cfg.TrailLen, "trail", cfg.TrailLen, "Trail length in frames")
	flag.Float64Var(&cfg.ConfidenceThreshold, "threshold", cfg.ConfidenceThreshold, "Minimum person confidence")
	flag.Float64Var(&cfg.TickRate, "fps", cfg.TickRate, "Playback ticks per second")
	flag.StringVar(&cfg.InitialMode, "mode", cfg.InitialMode, "Initial display mode: visual, split, camera")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "Display width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "Display height")
	flag.BoolVar(&cfg.Fullscreen, "fullscreen", cfg.Fullscreen, "Open the window full screen")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Render without a window")
	flag.StringVar(&cfg.WebPort, "port", cfg.WebPort, "Dashboard port (empty disables)")
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	if flag.NArg() > 0 {
		log.Fatalf("❌ Unexpected arguments: %v", flag.Args())
	}
	return cfg
}
