package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// Player plays one-shot sounds such as the tutorial prompt. At most one
// one-shot is active; starting another stops the previous one.
type Player struct {
	engine Engine
	logger *slog.Logger
	volume float64

	mu      sync.Mutex
	current OneShot
	asset   string
	played  int

	// Callbacks
	OnPlaybackStart func(asset string)
	OnPlaybackEnd   func(asset string)
}

// NewPlayer creates a one-shot player on engine.
func NewPlayer(engine Engine, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{engine: engine, logger: logger, volume: UnityGain}
}

// SetVolume sets the volume of one-shots started from now on.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = ClampGain(v)
}

// Play starts asset once.
func (p *Player) Play(asset string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	shot, err := p.engine.PlayOnce(asset, p.volume)
	if err != nil {
		return fmt.Errorf("play %s: %w", asset, err)
	}
	p.current = shot
	p.asset = asset
	p.played++

	p.logger.Info("one-shot started", "asset", asset)
	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart(asset)
	}

	go p.watch(shot, asset)
	return nil
}

func (p *Player) watch(shot OneShot, asset string) {
	<-shot.Done()

	p.mu.Lock()
	if p.current == shot {
		p.current = nil
		p.asset = ""
	}
	p.mu.Unlock()

	p.logger.Debug("one-shot finished", "asset", asset)
	if p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd(asset)
	}
}

// Cancel stops the active one-shot, if any.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked stops the active one-shot (must hold mu).
func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	if err := p.current.Stop(); err != nil {
		p.logger.Warn("one-shot stop failed", "asset", p.asset, "error", err)
	}
	p.current = nil
	p.asset = ""
}

// IsPlaying reports whether a one-shot is active.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Played returns how many one-shots were started.
func (p *Player) Played() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}
