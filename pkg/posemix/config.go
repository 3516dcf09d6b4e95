// Package posemix wires tracking, audio, drawing and the dashboard into
// the posemix application.
package posemix

import (
	"fmt"

	envcfg "github.com/teslashibe/go-posemix/internal/config"
	"github.com/teslashibe/go-posemix/pkg/audio"
	"github.com/teslashibe/go-posemix/pkg/playback"
	"github.com/teslashibe/go-posemix/pkg/tracking"
	"github.com/teslashibe/go-posemix/pkg/visual"
)

// Default configuration values.
const (
	DefaultAssetsDir     = "normalized_sounds"
	DefaultTutorialAsset = "welcome.wav"
	DefaultWebPort       = "8181"
	DefaultWidth         = 1280
	DefaultHeight        = 720
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/posemix/main.go; this struct is data only.
type Config struct {
	LogLevel string

	// Tracking.
	TrailLen            int
	ConfidenceThreshold float64
	Label               string
	IdentityPolicy      string // "greedy" or "positional"
	MatchIoU            float64

	// Playback.
	TickRate         float64
	InitialMode      string // "visual", "split" or "camera"
	KeypointsVisible bool

	// Sounds.
	AssetsDir      string
	AssetSuffix    string
	TutorialAsset  string // relative to AssetsDir unless absolute; "" disables
	TargetLoudness float64
	LoudnessFile   string // optional JSON of measured LUFS per asset
	AudioBackend   string // "gstreamer" or "mock"

	// Sources. At least one is required.
	DetectionsURL string
	ReplayFile    string
	Camera        string // device index or stream URL
	PoseModel     string // runs pose detection on camera frames when set

	// Display.
	Width      int
	Height     int
	Fullscreen bool
	Headless   bool

	// Dashboard. Empty WebPort disables it.
	WebPort   string
	WebStatic string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	tc := tracking.DefaultConfig()
	pc := playback.DefaultConfig()
	return Config{
		LogLevel:            "info",
		TrailLen:            tc.TrailLen,
		ConfidenceThreshold: pc.ConfidenceThreshold,
		Label:               tc.Label,
		IdentityPolicy:      tc.Policy.String(),
		MatchIoU:            tc.MatchIoU,
		TickRate:            pc.TickRate,
		InitialMode:         pc.InitialMode.String(),
		KeypointsVisible:    pc.KeypointsVisible,
		AssetsDir:           DefaultAssetsDir,
		AssetSuffix:         visual.DefaultAssetSuffix,
		TutorialAsset:       DefaultTutorialAsset,
		TargetLoudness:      audio.DefaultTargetLUFS,
		AudioBackend:        string(audio.BackendGStreamer),
		Width:               DefaultWidth,
		Height:              DefaultHeight,
		WebPort:             DefaultWebPort,
		WebStatic:           "./web",
	}
}

// LoadEnvConfig applies environment overrides.
func (c *Config) LoadEnvConfig() {
	c.DetectionsURL = envcfg.String(envcfg.EnvDetectionsURL, c.DetectionsURL)
	c.ReplayFile = envcfg.String(envcfg.EnvReplayFile, c.ReplayFile)
	c.Camera = envcfg.String(envcfg.EnvCamera, c.Camera)
	c.PoseModel = envcfg.String(envcfg.EnvPoseModel, c.PoseModel)
	c.AssetsDir = envcfg.String(envcfg.EnvAssetsDir, c.AssetsDir)
	c.LoudnessFile = envcfg.String(envcfg.EnvLoudnessFile, c.LoudnessFile)
	c.WebPort = envcfg.String(envcfg.EnvWebPort, c.WebPort)
	c.LogLevel = envcfg.String(envcfg.EnvLogLevel, c.LogLevel)
	c.AudioBackend = envcfg.String(envcfg.EnvAudioBackend, c.AudioBackend)
	c.TickRate = envcfg.Float(envcfg.EnvTickRate, c.TickRate)
	c.Headless = envcfg.Bool(envcfg.EnvHeadless, c.Headless)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DetectionsURL == "" && c.ReplayFile == "" && c.Camera == "" {
		return &ConfigError{Field: "DetectionsURL", Message: "one of a detections URL, a replay file or a camera is required"}
	}
	if c.PoseModel != "" && c.Camera == "" {
		return &ConfigError{Field: "PoseModel", Message: "a pose model needs a camera"}
	}
	if _, err := audio.ParseBackend(c.AudioBackend); err != nil {
		return &ConfigError{Field: "AudioBackend", Message: err.Error()}
	}
	if _, err := playback.ParseMode(c.InitialMode); err != nil {
		return &ConfigError{Field: "InitialMode", Message: err.Error()}
	}
	if _, err := c.trackingConfig(); err != nil {
		return &ConfigError{Field: "Tracking", Message: err.Error()}
	}
	if err := c.playbackConfig().Validate(); err != nil {
		return &ConfigError{Field: "Playback", Message: err.Error()}
	}
	if c.Width <= 0 || c.Height <= 0 {
		return &ConfigError{Field: "Width", Message: fmt.Sprintf("display size must be positive, got %dx%d", c.Width, c.Height)}
	}
	return nil
}

func (c *Config) trackingConfig() (tracking.Config, error) {
	policy, err := tracking.ParsePolicy(c.IdentityPolicy)
	if err != nil {
		return tracking.Config{}, err
	}
	tc := tracking.Config{
		TrailLen: c.TrailLen,
		Label:    c.Label,
		Policy:   policy,
		MatchIoU: c.MatchIoU,
	}
	return tc, tc.Validate()
}

func (c *Config) playbackConfig() playback.Config {
	pc := playback.DefaultConfig()
	pc.TickRate = c.TickRate
	pc.ConfidenceThreshold = c.ConfidenceThreshold
	pc.KeypointsVisible = c.KeypointsVisible
	if m, err := playback.ParseMode(c.InitialMode); err == nil {
		pc.InitialMode = m
	}
	return pc
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
