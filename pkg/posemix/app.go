package posemix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teslashibe/go-posemix/pkg/audio"
	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/ingest"
	"github.com/teslashibe/go-posemix/pkg/playback"
	"github.com/teslashibe/go-posemix/pkg/render"
	"github.com/teslashibe/go-posemix/pkg/tracking"
	"github.com/teslashibe/go-posemix/pkg/visual"
	"github.com/teslashibe/go-posemix/pkg/web"
)

const previewInterval = 200 * time.Millisecond

// Backends build the device-bound components. A nil Audio falls back to the
// mock engine, a nil Display to an off-screen recorder.
type Backends struct {
	Audio   func(cfg Config, logger *slog.Logger) (audio.Engine, error)
	Display func(cfg Config, inbox *control.Inbox, logger *slog.Logger) (render.Surface, error)
	Camera  func(cfg Config, logger *slog.Logger) (ingest.Source, error)
}

type previewer interface {
	Preview() []byte
}

// App is the application orchestrator. It owns every component from Init
// until Shutdown.
type App struct {
	config   Config
	backends Backends
	logger   *slog.Logger

	inbox    *control.Inbox
	mailbox  *ingest.Mailbox
	sources  []ingest.Source
	tracker  *tracking.Tracker
	engine   audio.Engine
	registry *audio.Registry
	player   *audio.Player
	catalog  *visual.Catalog
	selector *visual.Selector
	surface  render.Surface
	loop     *playback.Loop

	webServer *web.Server

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates an application with the given configuration.
func New(cfg Config, backends Backends, logger *slog.Logger) (*App, error) {
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		config:   cfg,
		backends: backends,
		logger:   logger,
		inbox:    control.NewInbox(0),
		mailbox:  ingest.NewMailbox(),
	}, nil
}

// Init acquires every component. Call it after New and before Run.
// Any error is fatal to the process.
func (a *App) Init() error {
	fmt.Println("🕺 posemix - per-person pose visuals and sound")
	fmt.Println("==============================================")

	if err := a.initVisuals(); err != nil {
		return fmt.Errorf("visuals: %w", err)
	}
	if err := a.initAudio(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := a.initSources(); err != nil {
		return fmt.Errorf("sources: %w", err)
	}
	if err := a.initDisplay(); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	tc, err := a.config.trackingConfig()
	if err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	a.tracker = tracking.New(tc)
	fmt.Printf("👥 Tracking: policy=%s trail=%d threshold=%.2f\n", tc.Policy, tc.TrailLen, a.config.ConfidenceThreshold)

	pc := a.config.playbackConfig()
	pc.TutorialAsset = a.tutorialAsset()
	a.loop, err = playback.New(pc, playback.Deps{
		Source:   a.mailbox,
		Tracker:  a.tracker,
		Registry: a.registry,
		Player:   a.player,
		Engine:   a.engine,
		Selector: a.selector,
		Surface:  a.surface,
		Inbox:    a.inbox,
	}, a.logger.With("component", "playback"))
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	if a.config.WebPort != "" {
		opts := web.Options{
			Status:    a.loop,
			Inbox:     a.inbox,
			Catalog:   a.catalog,
			StaticDir: a.config.WebStatic,
		}
		if p, ok := a.surface.(previewer); ok {
			opts.Preview = p.Preview
		}
		a.webServer = web.NewServer(":"+a.config.WebPort, opts, a.logger.With("component", "web"))
		a.loop.OnStatus = a.webServer.PublishStatus
	}
	return nil
}

func (a *App) initVisuals() error {
	suffix := a.config.AssetSuffix
	if suffix == "" {
		suffix = visual.DefaultAssetSuffix
	}
	catalog, err := visual.NewCatalog(a.config.AssetsDir, suffix, visual.Builtins()...)
	if err != nil {
		return err
	}
	a.catalog = catalog
	a.selector = visual.NewSelector(catalog)

	silent := 0
	for _, e := range catalog.Entries() {
		if e.Asset == "" {
			silent++
			a.logger.Warn("visual has no sound", "visual", e.Descriptor.Name(),
				"expected", filepath.Join(a.config.AssetsDir, visual.AssetName(e.Descriptor.Name(), suffix)))
		}
	}
	fmt.Printf("🎨 Visuals: %d loaded, %d silent (sounds from %s)\n", catalog.Len(), silent, a.config.AssetsDir)
	return nil
}

func (a *App) initAudio() error {
	backend, err := audio.ParseBackend(a.config.AudioBackend)
	if err != nil {
		return err
	}
	logger := a.logger.With("component", "audio")

	if backend == audio.BackendMock || a.backends.Audio == nil {
		a.engine = audio.NewMockEngine(logger)
	} else {
		a.engine, err = a.backends.Audio(a.config, logger)
		if err != nil {
			return err
		}
	}

	rc := audio.DefaultRegistryConfig()
	rc.TargetLUFS = a.config.TargetLoudness
	if a.config.LoudnessFile != "" {
		rc.Loudness, err = audio.LoadLoudness(a.config.LoudnessFile)
		if err != nil {
			a.engine.Close()
			return err
		}
	}
	a.registry = audio.NewRegistry(a.engine, rc, logger)
	a.player = audio.NewPlayer(a.engine, logger)
	a.player.OnPlaybackEnd = func(asset string) {
		logger.Debug("tutorial finished", "asset", asset)
	}
	fmt.Printf("🔊 Audio: %s (target %.1f LUFS)\n", a.engine.Name(), rc.TargetLUFS)
	return nil
}

func (a *App) initSources() error {
	ic := ingest.DefaultConfig()
	logger := a.logger.With("component", "ingest")

	if a.config.DetectionsURL != "" {
		client := ingest.NewWSClient(a.config.DetectionsURL, ic, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Connect(ctx)
		cancel()
		if err != nil {
			fmt.Printf("⚠️  Detections: %v (retrying in background)\n", err)
		} else {
			fmt.Printf("📡 Detections: %s\n", a.config.DetectionsURL)
		}
		a.sources = append(a.sources, client)
	}
	if a.config.ReplayFile != "" {
		replay, err := ingest.NewReplay(a.config.ReplayFile, ic, logger)
		if err != nil {
			return err
		}
		fmt.Printf("📼 Replay: %s\n", a.config.ReplayFile)
		a.sources = append(a.sources, replay)
	}
	if a.config.Camera != "" {
		if a.backends.Camera == nil {
			return errors.New("camera support not built in")
		}
		cam, err := a.backends.Camera(a.config, logger)
		if err != nil {
			return err
		}
		fmt.Printf("📹 Camera: %s\n", cam.Name())
		a.sources = append(a.sources, cam)
	}
	return nil
}

func (a *App) initDisplay() error {
	if a.backends.Display == nil {
		a.surface = render.NewRecorder(a.config.Width, a.config.Height)
		return nil
	}
	surface, err := a.backends.Display(a.config, a.inbox, a.logger.With("component", "display"))
	if err != nil {
		return err
	}
	a.surface = surface
	fmt.Printf("🖥️  Display: %dx%d headless=%v\n", a.config.Width, a.config.Height, a.config.Headless)
	return nil
}

// tutorialAsset resolves the tutorial prompt, "" when it does not exist.
func (a *App) tutorialAsset() string {
	path := a.config.TutorialAsset
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.config.AssetsDir, path)
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		a.logger.Warn("tutorial prompt disabled", "asset", path)
		return ""
	}
	return path
}

// Run starts the sources and the dashboard, then runs the playback loop.
// It blocks until ctx is cancelled or a quit event arrives.
func (a *App) Run(ctx context.Context) error {
	fmt.Println("\n🎶 posemix is running! Step in front of the camera...")
	fmt.Println("   (q or Esc to quit, Ctrl+C works too)")

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.wg.Wait()
	}()

	for _, src := range a.sources {
		a.wg.Add(1)
		go func(src ingest.Source) {
			defer a.wg.Done()
			if err := src.Run(ctx, a.mailbox); err != nil && ctx.Err() == nil {
				a.logger.Error("source stopped", "source", src.Name(), "error", err)
			}
		}(src)
	}

	if a.webServer != nil {
		a.webServer.StartAsync()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.streamPreview(ctx)
		}()
	}

	return a.loop.Run(ctx)
}

// streamPreview pushes JPEG previews to dashboard subscribers.
func (a *App) streamPreview(ctx context.Context) {
	p, ok := a.surface.(previewer)
	if !ok {
		return
	}
	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.webServer.PreviewClients() > 0 {
				a.webServer.PublishPreview(p.Preview())
			}
		}
	}
}

// Shutdown releases everything: voices before the display and audio device.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		fmt.Println("\n👋 Goodbye!")

		if a.loop != nil {
			if err := a.loop.Shutdown(); err != nil {
				a.logger.Warn("playback shutdown", "error", err)
			}
		} else {
			if a.registry != nil {
				a.registry.TeardownAll()
			}
			if a.surface != nil {
				a.surface.Close()
			}
			if a.engine != nil {
				a.engine.Close()
			}
		}
		for _, src := range a.sources {
			if c, ok := src.(interface{ Close() error }); ok {
				c.Close()
			}
		}
		if a.webServer != nil {
			a.webServer.Shutdown()
		}
	})
}

// Loop returns the playback loop, nil before Init.
func (a *App) Loop() *playback.Loop { return a.loop }

// Inbox returns the control event queue.
func (a *App) Inbox() *control.Inbox { return a.inbox }

// Registry returns the audio registry, nil before Init.
func (a *App) Registry() *audio.Registry { return a.registry }
