package cvscreen

import (
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/render"
)

// Config configures a Screen.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool

	// Headless renders without opening a window.
	Headless bool

	// PreviewEvery encodes a JPEG preview every n presented frames.
	// Zero disables previews.
	PreviewEvery int
}

// DefaultConfig returns a 1280x720 window.
func DefaultConfig() Config {
	return Config{
		Title:        "posemix",
		Width:        1280,
		Height:       720,
		PreviewEvery: 5,
	}
}

// Screen is a render.Surface backed by an OpenCV window. Key presses are
// translated to control events and pushed to the inbox on Present.
type Screen struct {
	*Canvas

	config Config
	logger *slog.Logger
	inbox  *control.Inbox

	frame  gocv.Mat
	window *gocv.Window

	presented int

	mu      sync.RWMutex
	preview []byte
	closed  bool
}

var _ render.Surface = (*Screen)(nil)

// NewScreen allocates the frame buffer and opens the window.
func NewScreen(config Config, inbox *control.Inbox, logger *slog.Logger) (*Screen, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("cvscreen: invalid size %dx%d", config.Width, config.Height)
	}

	s := &Screen{
		config: config,
		logger: logger,
		inbox:  inbox,
		frame:  gocv.NewMatWithSize(config.Height, config.Width, gocv.MatTypeCV8UC3),
	}
	if s.frame.Empty() {
		return nil, fmt.Errorf("cvscreen: allocate %dx%d frame", config.Width, config.Height)
	}
	s.Canvas = NewCanvas(&s.frame)

	if !config.Headless {
		s.window = gocv.NewWindow(config.Title)
		if config.Fullscreen {
			s.window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
		}
	}
	logger.Info("screen opened",
		"width", config.Width, "height", config.Height,
		"headless", config.Headless, "fullscreen", config.Fullscreen)
	return s, nil
}

// Present shows the frame, polls the keyboard and refreshes the preview.
func (s *Screen) Present() error {
	if s.window != nil {
		s.window.IMShow(s.frame)
		if code := s.window.WaitKey(1); code >= 0 {
			if ev, ok := control.FromKey(code); ok && s.inbox != nil {
				s.inbox.Push(ev)
			}
		}
	}

	s.presented++
	if s.config.PreviewEvery > 0 && s.presented%s.config.PreviewEvery == 0 {
		s.encodePreview()
	}
	return nil
}

func (s *Screen) encodePreview() {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.frame)
	if err != nil {
		s.logger.Debug("preview encode failed", "error", err)
		return
	}
	defer buf.Close()
	data := append([]byte(nil), buf.GetBytes()...)

	s.mu.Lock()
	s.preview = data
	s.mu.Unlock()
}

// Preview returns the latest JPEG preview, nil before the first one.
func (s *Screen) Preview() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

// Close closes the window and releases the frame buffer.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.window != nil {
		s.window.Close()
	}
	return s.frame.Close()
}
