// Package playback runs the fixed-rate loop that ties tracking, audio and
// drawing together.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-posemix/pkg/audio"
	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/ingest"
	"github.com/teslashibe/go-posemix/pkg/pose"
	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/tracking"
	"github.com/teslashibe/go-posemix/pkg/visual"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("playback: missing dependency")

// Snapshotter provides the latest ingested snapshot without blocking.
type Snapshotter interface {
	Latest() *ingest.Snapshot
}

// Deps are the collaborators the loop drives. The loop owns them from
// New until Shutdown.
type Deps struct {
	Source   Snapshotter
	Tracker  *tracking.Tracker
	Registry *audio.Registry
	Player   *audio.Player
	Engine   audio.Engine
	Selector *visual.Selector
	Surface  render.Surface
	Inbox    *control.Inbox
}

func (d Deps) validate() error {
	missing := func(name string) error { return fmt.Errorf("%w: %s", ErrMissingDependency, name) }
	switch {
	case d.Source == nil:
		return missing("source")
	case d.Tracker == nil:
		return missing("tracker")
	case d.Registry == nil:
		return missing("registry")
	case d.Selector == nil:
		return missing("selector")
	case d.Surface == nil:
		return missing("surface")
	}
	return nil
}

// Loop is the playback state machine. Tick and Run must be called from one
// goroutine; Status and the inbox are safe from any goroutine.
type Loop struct {
	config Config
	deps   Deps
	logger *slog.Logger

	mode      Mode
	keypoints bool
	tutorial  TutorialState

	tick     uint64
	started  time.Time
	lastSeq  uint64
	detSeq   uint64
	snapshot *ingest.Snapshot
	people   []*tracking.Person
	arrivals []pose.Identity // first tracked this tick
	quit     bool

	drawErrors atomic.Uint64
	status     atomic.Pointer[Status]

	// OnStatus is called from the loop goroutine with every status publish.
	OnStatus func(Status)

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a loop.
func New(config Config, deps Deps, logger *slog.Logger) (*Loop, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Inbox == nil {
		deps.Inbox = control.NewInbox(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		config:    config,
		deps:      deps,
		logger:    logger,
		mode:      config.InitialMode,
		keypoints: config.KeypointsVisible,
		tutorial:  TutorialArmed,
	}
	l.publishStatus()
	return l, nil
}

// Inbox returns the event queue feeding the loop.
func (l *Loop) Inbox() *control.Inbox { return l.deps.Inbox }

// Mode returns the display mode.
func (l *Loop) Mode() Mode { return l.mode }

// KeypointsVisible reports whether keypoints are drawn on the camera view.
func (l *Loop) KeypointsVisible() bool { return l.keypoints }

// Tutorial returns the tutorial sub-state.
func (l *Loop) Tutorial() TutorialState { return l.tutorial }

// Quit reports whether a quit event was received.
func (l *Loop) Quit() bool { return l.quit }

// Run ticks at the configured rate until ctx is cancelled or a quit event
// arrives, then shuts down.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.config.Interval())
	defer ticker.Stop()

	l.logger.Info("playback loop started",
		"tick_rate", l.config.TickRate, "mode", l.mode.String(),
		"visual", l.deps.Selector.Current().Name())

	for !l.quit {
		select {
		case <-ctx.Done():
			l.quit = true
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
	return l.Shutdown()
}

// Tick runs one iteration: apply input, track, bind audio, draw, present.
func (l *Loop) Tick(now time.Time) {
	if l.started.IsZero() {
		l.started = now
	}
	l.tick++

	// 1. input
	for _, ev := range l.deps.Inbox.Drain() {
		l.Apply(ev)
	}
	if l.quit {
		return
	}
	desc := l.deps.Selector.Current()

	// 2. tracking, only when new detections arrived
	l.arrivals = nil
	if snap := l.deps.Source.Latest(); snap != nil {
		l.snapshot = snap
		l.lastSeq = snap.Seq
		if snap.DetSeq != l.detSeq {
			l.detSeq = snap.DetSeq
			l.deps.Tracker.Update(snap.Detections, desc.Keypoints(), l.config.ConfidenceThreshold)
			l.arrivals = l.deps.Tracker.Arrivals()
		}
	}
	l.people = l.deps.Tracker.People()

	scene := &visual.Scene{
		People:  l.people,
		Elapsed: now.Sub(l.started),
		Tick:    l.tick,
	}
	if l.snapshot != nil {
		scene.Frame = l.snapshot.Frame
	}

	// 3-5. audio
	l.syncAudio(desc, scene)

	// 6-7. draw and present
	if err := l.draw(desc, scene); err != nil {
		l.drawErrors.Add(1)
		l.logger.Warn("frame skipped", "visual", desc.Name(), "tick", l.tick, "error", err)
	} else if err := l.deps.Surface.Present(); err != nil {
		l.logger.Warn("present failed", "tick", l.tick, "error", err)
	}

	if l.config.StatusEvery > 0 && l.tick%uint64(l.config.StatusEvery) == 0 {
		l.publishStatus()
	}
}

// syncAudio decides the tutorial prompt and reconciles the voices.
func (l *Loop) syncAudio(desc visual.Descriptor, scene *visual.Scene) {
	reg := l.deps.Registry

	var eligible []pose.Identity
	if l.mode.AllowsAudio() && len(l.people) > 0 {
		eligible = make([]pose.Identity, len(l.people))
		for i, p := range l.people {
			eligible[i] = p.Identity
		}
	}

	if l.onTutorialVisual() && l.tutorial == TutorialArmed && len(eligible) > 0 && len(l.arrivals) > 0 && l.config.TutorialAsset != "" {
		l.tutorial = TutorialPlaying
		if l.deps.Player != nil {
			if err := l.deps.Player.Play(l.config.TutorialAsset); err != nil {
				l.logger.Warn("tutorial prompt failed", "asset", l.config.TutorialAsset, "error", err)
			}
		}
		reg.Reconcile("", nil, nil)
		return
	}

	asset := ""
	if l.mode.AllowsAudio() {
		asset = l.deps.Selector.Asset()
	}

	if v, ok := desc.(visual.Voicer); ok {
		reg.SetShaper(v.Voice)
	} else {
		reg.SetShaper(nil)
	}

	byID := make(map[pose.Identity]*tracking.Person, len(l.people))
	for _, p := range l.people {
		byID[p.Identity] = p
	}
	res := reg.Reconcile(asset, eligible, func(id pose.Identity) float64 {
		if p, ok := byID[id]; ok {
			return p.Box.CenterX()
		}
		return 0.5
	})
	if res.Changed() {
		l.logger.Debug("voices reconciled",
			"asset", asset, "created", len(res.Created), "removed", len(res.Removed),
			"failed", len(res.Failed), "tick", l.tick)
	}

	if m, ok := desc.(visual.Modulator); ok && asset != "" {
		for _, id := range eligible {
			reg.UpdateParameters(id, m.Modulate(byID[id], scene))
		}
	}
}

func (l *Loop) onTutorialVisual() bool { return l.deps.Selector.Index() == 0 }

// Apply performs one input transition.
func (l *Loop) Apply(ev control.Event) {
	sel := l.deps.Selector
	before := sel.Index()

	switch ev.Kind {
	case control.NextMode:
		l.mode = l.mode.Next()
	case control.PrevMode:
		l.mode = l.mode.Prev()
	case control.ToggleKeypoints:
		l.keypoints = !l.keypoints
	case control.NextVisual:
		sel.Next()
	case control.PrevVisual:
		sel.Previous()
	case control.Select:
		if ev.Index == 0 && before == 0 {
			l.toggleTutorial()
			break
		}
		if err := sel.Select(ev.Index); err != nil {
			l.logger.Warn("ignoring selection", "index", ev.Index, "error", err)
		}
	case control.Tutorial:
		if before == 0 {
			l.toggleTutorial()
			break
		}
		_ = sel.Select(0)
	case control.Quit:
		l.quit = true
	default:
		l.logger.Debug("ignoring unknown event", "event", ev.String())
	}

	if after := sel.Index(); after != before {
		if before == 0 || after == 0 {
			l.rearmTutorial()
		}
		l.logger.Info("visual selected", "visual", sel.Current().Name(), "index", after)
	}
	l.publishStatus()
}

func (l *Loop) toggleTutorial() {
	if l.deps.Player != nil {
		l.deps.Player.Cancel()
	}
	if l.tutorial == TutorialSuppressed {
		l.tutorial = TutorialArmed
	} else {
		l.tutorial = TutorialSuppressed
	}
	l.logger.Info("tutorial toggled", "tutorial", l.tutorial.String())
}

func (l *Loop) rearmTutorial() {
	if l.deps.Player != nil {
		l.deps.Player.Cancel()
	}
	l.tutorial = TutorialArmed
}

// Shutdown releases everything in order: voices, one-shot, display, engine.
func (l *Loop) Shutdown() error {
	l.shutdownOnce.Do(func() {
		removed := l.deps.Registry.TeardownAll()
		if l.deps.Player != nil {
			l.deps.Player.Cancel()
		}
		var errs []error
		if err := l.deps.Surface.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display: %w", err))
		}
		if l.deps.Engine != nil {
			if err := l.deps.Engine.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close audio engine: %w", err))
			}
		}
		l.shutdownErr = errors.Join(errs...)
		l.logger.Info("playback loop stopped", "ticks", l.tick, "voices_released", len(removed))
	})
	return l.shutdownErr
}
