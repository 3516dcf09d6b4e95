// Package gstaudio implements audio.Engine with GStreamer pipelines.
//
// Each voice owns one pipeline:
//
//	filesrc ! decodebin ! audioconvert ! audioresample ! pitch !
//	audiopanorama ! equalizer-10bands ! volume ! <sink>
//
// A goroutine per pipeline polls the bus. End of stream seeks back to the
// start when the voice loops; errors release the pipeline.
package gstaudio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/teslashibe/go-posemix/pkg/audio"
)

// DefaultSink is the output element used when Config.Sink is empty.
const DefaultSink = "autoaudiosink"

// Config configures the GStreamer engine.
type Config struct {
	// Sink is the output element factory name.
	Sink string

	// BusPoll is the bus polling interval of each pipeline.
	BusPoll time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Sink:    DefaultSink,
		BusPoll: 50 * time.Millisecond,
	}
}

// Engine creates GStreamer-backed voices.
type Engine struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	closed  bool
	running map[*pipeline]struct{}
}

var _ audio.Engine = (*Engine)(nil)

// New initializes GStreamer and returns an engine.
func New(config Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Sink == "" {
		config.Sink = DefaultSink
	}
	if config.BusPoll <= 0 {
		config.BusPoll = 50 * time.Millisecond
	}

	gst.Init(nil)

	// Probe the output element once so a missing audio device fails at startup.
	probe, err := gst.NewElement(config.Sink)
	if err != nil {
		return nil, &audio.ElementError{Element: config.Sink, Err: err}
	}
	probe.SetState(gst.StateNull)

	return &Engine{
		config:  config,
		logger:  logger,
		running: make(map[*pipeline]struct{}),
	}, nil
}

// Name returns "gstreamer".
func (e *Engine) Name() string { return string(audio.BackendGStreamer) }

// NewVoice builds and starts a voice pipeline.
func (e *Engine) NewVoice(spec audio.VoiceSpec) (audio.Voice, error) {
	if spec.Asset == "" {
		return nil, audio.ErrNoAsset
	}
	if _, err := os.Stat(spec.Asset); err != nil {
		return nil, fmt.Errorf("voice asset: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, audio.ErrEngineClosed
	}
	e.mu.Unlock()

	p, err := buildVoicePipeline(spec, e.config.Sink, e.logger)
	if err != nil {
		return nil, err
	}
	if err := e.start(p); err != nil {
		return nil, err
	}
	return &voice{id: spec.ID, p: p}, nil
}

// PlayOnce plays asset to the end without looping.
func (e *Engine) PlayOnce(asset string, volume float64) (audio.OneShot, error) {
	if asset == "" {
		return nil, audio.ErrNoAsset
	}
	if _, err := os.Stat(asset); err != nil {
		return nil, fmt.Errorf("one-shot asset: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, audio.ErrEngineClosed
	}
	e.mu.Unlock()

	p, err := buildOneShotPipeline(asset, audio.ClampGain(volume), e.config.Sink, e.logger)
	if err != nil {
		return nil, err
	}
	if err := e.start(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) start(p *pipeline) error {
	if err := p.pipeline.SetState(gst.StatePlaying); err != nil {
		p.pipeline.SetState(gst.StateNull)
		return fmt.Errorf("start pipeline %s: %w", p.name, err)
	}

	e.mu.Lock()
	e.running[p] = struct{}{}
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go func() {
		p.monitor(ctx, e.config.BusPoll)
		e.mu.Lock()
		delete(e.running, p)
		e.mu.Unlock()
	}()
	return nil
}

// Close stops every pipeline still running.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	running := make([]*pipeline, 0, len(e.running))
	for p := range e.running {
		running = append(running, p)
	}
	e.mu.Unlock()

	for _, p := range running {
		_ = p.Stop()
	}
	if len(running) > 0 {
		e.logger.Info("audio engine closed", "stopped_pipelines", len(running))
	}
	return nil
}

// Running returns the number of live pipelines.
func (e *Engine) Running() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.running)
}
