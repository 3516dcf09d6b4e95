package playback

import (
	"fmt"
	"time"
)

// Config configures the playback loop.
type Config struct {
	// TickRate is the target loop frequency in ticks per second.
	TickRate float64

	// ConfidenceThreshold filters detections before tracking.
	ConfidenceThreshold float64

	InitialMode      Mode
	KeypointsVisible bool

	// TutorialAsset is the prompt played on the first visualization.
	// Empty disables the prompt.
	TutorialAsset string

	// StatusEvery publishes a status snapshot every n ticks.
	StatusEvery int
}

// DefaultConfig returns the standard loop configuration.
func DefaultConfig() Config {
	return Config{
		TickRate:            30,
		ConfidenceThreshold: 0.5,
		InitialMode:         SplitScreen,
		KeypointsVisible:    true,
		StatusEvery:         10,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 240 {
		return fmt.Errorf("playback: tick rate must be in (0, 240], got %v", c.TickRate)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("playback: confidence threshold must be in [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.InitialMode < 0 || c.InitialMode >= numModes {
		return fmt.Errorf("playback: invalid initial mode %d", c.InitialMode)
	}
	return nil
}

// Interval returns the tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
