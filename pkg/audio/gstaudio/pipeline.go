package gstaudio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/teslashibe/go-posemix/pkg/audio"
)

// pipeline is one running GStreamer graph and its bus monitor.
type pipeline struct {
	name     string
	loop     bool
	logger   *slog.Logger
	pipeline *gst.Pipeline

	// adjustable elements, nil for one-shots
	pitch *gst.Element
	pan   *gst.Element
	eq    *gst.Element
	vol   *gst.Element

	cancel   context.CancelFunc
	mu       sync.Mutex
	stopped  bool
	done     chan struct{}
	doneOnce sync.Once
}

func newElement(name string) (*gst.Element, error) {
	elem, err := gst.NewElement(name)
	if err != nil {
		return nil, &audio.ElementError{Element: name, Err: err}
	}
	return elem, nil
}

// buildVoicePipeline creates the full voice chain with spec applied.
func buildVoicePipeline(spec audio.VoiceSpec, sinkName string, logger *slog.Logger) (*pipeline, error) {
	gp, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	names := []string{"filesrc", "decodebin", "audioconvert", "audioresample",
		"pitch", "audiopanorama", "equalizer-10bands", "volume", sinkName}
	elems := make([]*gst.Element, len(names))
	for i, n := range names {
		if elems[i], err = newElement(n); err != nil {
			return nil, err
		}
	}
	src, dec, conv, resample := elems[0], elems[1], elems[2], elems[3]
	pitch, pan, eq, vol, sink := elems[4], elems[5], elems[6], elems[7], elems[8]

	src.SetProperty("location", spec.Asset)

	if err := gp.AddMany(elems...); err != nil {
		return nil, fmt.Errorf("add elements: %w", err)
	}
	if err := src.Link(dec); err != nil {
		return nil, fmt.Errorf("link filesrc to decodebin: %w", err)
	}
	if err := gst.ElementLinkMany(conv, resample, pitch, pan, eq, vol, sink); err != nil {
		return nil, fmt.Errorf("link voice chain: %w", err)
	}
	// decodebin pads appear once the file type is known
	dec.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		linkDecoded(srcPad, conv, logger)
	})

	p := &pipeline{
		name:     spec.ID,
		loop:     spec.Loop,
		logger:   logger.With("voice_id", spec.ID, "identity", spec.Identity.String()),
		pipeline: gp,
		pitch:    pitch,
		pan:      pan,
		eq:       eq,
		vol:      vol,
		done:     make(chan struct{}),
	}

	if err := p.setPan(spec.Pan); err != nil {
		return nil, err
	}
	if err := p.setPitch(spec.Pitch); err != nil {
		return nil, err
	}
	if err := p.setVolume(spec.Volume); err != nil {
		return nil, err
	}
	for b, db := range spec.Bands {
		if db == 0 {
			continue
		}
		if err := p.setBand(b, db); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// buildOneShotPipeline creates filesrc ! decodebin ! audioconvert ! volume ! sink.
func buildOneShotPipeline(asset string, volume float64, sinkName string, logger *slog.Logger) (*pipeline, error) {
	gp, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	names := []string{"filesrc", "decodebin", "audioconvert", "volume", sinkName}
	elems := make([]*gst.Element, len(names))
	for i, n := range names {
		if elems[i], err = newElement(n); err != nil {
			return nil, err
		}
	}
	src, dec, conv, vol, sink := elems[0], elems[1], elems[2], elems[3], elems[4]

	src.SetProperty("location", asset)
	vol.SetProperty("volume", volume)

	if err := gp.AddMany(elems...); err != nil {
		return nil, fmt.Errorf("add elements: %w", err)
	}
	if err := src.Link(dec); err != nil {
		return nil, fmt.Errorf("link filesrc to decodebin: %w", err)
	}
	if err := gst.ElementLinkMany(conv, vol, sink); err != nil {
		return nil, fmt.Errorf("link one-shot chain: %w", err)
	}
	dec.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		linkDecoded(srcPad, conv, logger)
	})

	return &pipeline{
		name:     asset,
		logger:   logger.With("asset", asset),
		pipeline: gp,
		vol:      vol,
		done:     make(chan struct{}),
	}, nil
}

func linkDecoded(srcPad *gst.Pad, conv *gst.Element, logger *slog.Logger) {
	sinkPad := conv.GetStaticPad("sink")
	if sinkPad == nil {
		logger.Error("gstaudio: audioconvert has no sink pad")
		return
	}
	if sinkPad.IsLinked() {
		return
	}
	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		logger.Warn("gstaudio: failed to link decoded pad",
			"src_pad", srcPad.GetName(),
			"ret", ret,
		)
	}
}

// monitor polls the bus until the pipeline ends, fails or ctx is cancelled.
func (p *pipeline) monitor(ctx context.Context, poll time.Duration) {
	defer p.finish()

	bus := p.pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(poll)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			if !p.loop {
				p.logger.Debug("gstaudio: end of stream")
				p.release()
				return
			}
			if !p.pipeline.SeekSimple(0, gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit) {
				p.logger.Warn("gstaudio: loop seek failed")
				p.release()
				return
			}

		case gst.MessageError:
			gerr := msg.ParseError()
			p.logger.Error("gstaudio: pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
			)
			p.release()
			return
		}
	}
}

func (p *pipeline) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

// release sets the pipeline to NULL once.
func (p *pipeline) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.pipeline.SetState(gst.StateNull)
}

// Stop releases the pipeline and stops its monitor.
func (p *pipeline) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return audio.ErrVoiceStopped
	}
	p.stopped = true
	err := p.pipeline.SetState(gst.StateNull)
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.finish()
	if err != nil {
		return fmt.Errorf("stop pipeline %s: %w", p.name, err)
	}
	return nil
}

// Done is closed when the pipeline has ended.
func (p *pipeline) Done() <-chan struct{} { return p.done }

func (p *pipeline) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *pipeline) setPan(v float64) error {
	return setFloat32(p.pan, "panorama", audio.ClampPan(v))
}

func (p *pipeline) setPitch(v float64) error {
	return setFloat32(p.pitch, "pitch", audio.ClampPitch(v))
}

func (p *pipeline) setVolume(v float64) error {
	if p.vol == nil {
		return nil
	}
	return p.vol.SetProperty("volume", audio.ClampGain(v))
}

func (p *pipeline) setBand(band int, db float64) error {
	if band < 0 || band >= audio.NumBands {
		return audio.ErrBandRange
	}
	if p.eq == nil {
		return nil
	}
	return p.eq.SetProperty(fmt.Sprintf("band%d", band), audio.ClampBand(db))
}

func setFloat32(elem *gst.Element, prop string, v float64) error {
	if elem == nil {
		return nil
	}
	return elem.SetProperty(prop, float32(v))
}

// voice adapts a pipeline to audio.Voice.
type voice struct {
	id string
	p  *pipeline
}

func (v *voice) ID() string { return v.id }

func (v *voice) guard() error {
	if v.p.isStopped() {
		return audio.ErrVoiceStopped
	}
	return nil
}

func (v *voice) SetPan(pan float64) error {
	if err := v.guard(); err != nil {
		return err
	}
	return v.p.setPan(pan)
}

func (v *voice) SetPitch(pitch float64) error {
	if err := v.guard(); err != nil {
		return err
	}
	return v.p.setPitch(pitch)
}

func (v *voice) SetVolume(volume float64) error {
	if err := v.guard(); err != nil {
		return err
	}
	return v.p.setVolume(volume)
}

func (v *voice) SetBand(band int, db float64) error {
	if err := v.guard(); err != nil {
		return err
	}
	return v.p.setBand(band, db)
}

func (v *voice) Stop() error { return v.p.Stop() }

// Ended reports whether the pipeline was released by an error or end of stream.
func (v *voice) Ended() bool { return v.p.isStopped() }
