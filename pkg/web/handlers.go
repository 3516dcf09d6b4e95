package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/hub"
)

// VisualInfo describes one catalog entry.
type VisualInfo struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Asset     string   `json:"asset,omitempty"`
	Audio     bool     `json:"audio"`
	Keypoints []string `json:"keypoints"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	if s.opts.Status == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "playback not running"})
	}
	return c.JSON(s.opts.Status.Status())
}

func (s *Server) handleVisuals(c *fiber.Ctx) error {
	if s.opts.Catalog == nil {
		return c.JSON([]VisualInfo{})
	}
	entries := s.opts.Catalog.Entries()
	out := make([]VisualInfo, len(entries))
	for i, e := range entries {
		kps := e.Descriptor.Keypoints().Keypoints()
		names := make([]string, len(kps))
		for j, k := range kps {
			names[j] = k.String()
		}
		out[i] = VisualInfo{
			Index:     i,
			Name:      e.Descriptor.Name(),
			Asset:     e.Asset,
			Audio:     e.Asset != "",
			Keypoints: names,
		}
	}
	return c.JSON(out)
}

func (s *Server) handleActions(c *fiber.Ctx) error {
	return c.JSON(control.Actions())
}

// handleControl queues an input event, the same way a key press does.
func (s *Server) handleControl(c *fiber.Ctx) error {
	ev, err := control.ParseAction(c.Params("action"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if s.opts.Inbox == nil || !s.opts.Inbox.Push(ev) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "control queue full"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"action": ev.String()})
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	var data []byte
	if s.opts.Preview != nil {
		data = s.opts.Preview()
	}
	if len(data) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no frame yet"})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}

// handleStatusWS sends the current status, then every broadcast.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	if s.opts.Status != nil {
		if err := conn.WriteJSON(s.opts.Status.Status()); err != nil {
			return
		}
	}
	s.serve(s.statusHub, conn)
}

func (s *Server) handlePreviewWS(conn *websocket.Conn) {
	s.serve(s.previewHub, conn)
}

func (s *Server) serve(h *hub.Hub, conn *websocket.Conn) {
	client := hub.NewClient(h, conn)
	if client == nil {
		conn.Close()
		return
	}
	client.Run()
}
