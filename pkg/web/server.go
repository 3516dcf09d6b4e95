// Package web serves the control and status dashboard.
package web

import (
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/hub"
	"github.com/teslashibe/go-posemix/pkg/playback"
	"github.com/teslashibe/go-posemix/pkg/visual"
)

// StatusSource provides the latest playback status.
type StatusSource interface {
	Status() playback.Status
}

// Options are the collaborators behind the HTTP surface.
type Options struct {
	Status  StatusSource
	Inbox   *control.Inbox
	Catalog *visual.Catalog

	// Preview returns the last presented frame as JPEG, nil when none.
	Preview func() []byte

	// StaticDir is served at / when it exists.
	StaticDir string
}

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	opts   Options
	logger *slog.Logger

	statusHub  *hub.Hub
	previewHub *hub.Hub
}

// NewServer creates a dashboard server listening on addr (":8080").
func NewServer(addr string, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:       addr,
		opts:       opts,
		logger:     logger,
		statusHub:  hub.New("status", logger),
		previewHub: hub.New("preview", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "posemix",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			app.Static("/", opts.StaticDir)
		}
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/visuals", s.handleVisuals)
	api.Get("/actions", s.handleActions)
	api.Post("/control/:action", s.handleControl)
	api.Get("/frame.jpg", s.handleFrame)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "addr", s.addr)
	go s.statusHub.Run()
	go s.previewHub.Run()
	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Warn("dashboard stopped", "error", err)
		}
	}()
}

// PublishStatus broadcasts st to status subscribers.
func (s *Server) PublishStatus(st playback.Status) {
	if s.statusHub.ClientCount() == 0 {
		return
	}
	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Warn("status broadcast failed", "error", err)
	}
}

// PublishPreview broadcasts a JPEG frame to preview subscribers.
func (s *Server) PublishPreview(jpeg []byte) {
	if len(jpeg) == 0 || s.previewHub.ClientCount() == 0 {
		return
	}
	s.previewHub.BroadcastBinary(jpeg)
}

// PreviewClients returns the number of preview subscribers.
func (s *Server) PreviewClients() int { return s.previewHub.ClientCount() }

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.previewHub.Stop()
	return s.app.Shutdown()
}
