// Package config provides environment helpers for go-posemix commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names.
const (
	EnvDetectionsURL = "POSEMIX_DETECTIONS_URL"
	EnvReplayFile    = "POSEMIX_REPLAY_FILE"
	EnvCamera        = "POSEMIX_CAMERA"
	EnvAssetsDir     = "POSEMIX_ASSETS_DIR"
	EnvWebPort       = "POSEMIX_WEB_PORT"
	EnvLogLevel      = "POSEMIX_LOG_LEVEL"
	EnvAudioBackend  = "POSEMIX_AUDIO_BACKEND"
	EnvPoseModel     = "POSEMIX_POSE_MODEL"
	EnvLoudnessFile  = "POSEMIX_LOUDNESS_FILE"
	EnvTickRate      = "POSEMIX_TICK_RATE"
	EnvHeadless      = "POSEMIX_HEADLESS"
)

// String returns the value of key, or def when unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of key, or def when unset.
// A malformed value is reported on stderr and def is used.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s=%q is not an integer, using %d\n", key, v, def)
		return def
	}
	return n
}

// Float returns the float value of key, or def when unset.
func Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s=%q is not a number, using %v\n", key, v, def)
		return def
	}
	return f
}

// Bool returns the boolean value of key, or def when unset.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Duration returns the duration value of key, or def when unset.
func Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s=%q is not a duration, using %v\n", key, v, def)
		return def
	}
	return d
}
