package audio

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrEngineClosed is returned when creating voices on a closed engine.
	ErrEngineClosed = errors.New("audio: engine closed")

	// ErrNoAsset is returned when a voice is requested without a sound file.
	ErrNoAsset = errors.New("audio: no sound asset")

	// ErrVoiceStopped is returned when adjusting a voice after Stop.
	ErrVoiceStopped = errors.New("audio: voice stopped")

	// ErrBandRange is returned for equalizer bands outside 0..NumBands-1.
	ErrBandRange = errors.New("audio: equalizer band out of range")
)

// ElementError reports a failure to build one element of an audio pipeline.
type ElementError struct {
	// Element is the factory name, e.g. "audiopanorama".
	Element string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ElementError) Error() string {
	return "audio: create " + e.Element + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ElementError) Unwrap() error {
	return e.Err
}
