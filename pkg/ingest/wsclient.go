package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClient reads FrameMessages from a websocket stream and publishes them.
// A dropped connection is redialed with exponential backoff.
type WSClient struct {
	url    string
	config Config
	logger *slog.Logger
	dialer websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn

	frames     atomic.Uint64
	malformed  atomic.Uint64
	reconnects atomic.Uint64
	connected  atomic.Bool
}

var _ Source = (*WSClient)(nil)

// NewWSClient creates a client for url, e.g. ws://localhost:8765/detections.
func NewWSClient(url string, config Config, logger *slog.Logger) *WSClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSClient{
		url:    url,
		config: config,
		logger: logger,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Name returns the stream URL.
func (c *WSClient) Name() string { return c.url }

// Connect dials the stream once. Run calls it as needed; calling it first
// surfaces an unreachable stream at startup.
func (c *WSClient) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("detection stream connect failed: %w", err)
	}
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	c.logger.Info("detection stream connected", "url", c.url)
	return nil
}

// Run reads until ctx is cancelled, reconnecting on failure.
func (c *WSClient) Run(ctx context.Context, mb *Mailbox) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	b := backoff{min: c.config.ReconnectMin, max: c.config.ReconnectMax}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if c.current() == nil {
			if err := c.Connect(ctx); err != nil {
				delay := b.next()
				c.logger.Warn("detection stream unavailable", "url", c.url, "retry_in", delay, "error", err)
				if !sleepCtx(ctx, delay) {
					return nil
				}
				c.reconnects.Add(1)
				continue
			}
			b.reset()
		}

		err := c.readLoop(ctx, mb)
		c.drop()
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("detection stream lost", "url", c.url, "error", err)
	}
}

func (c *WSClient) readLoop(ctx context.Context, mb *Mailbox) error {
	conn := c.current()
	if conn == nil {
		return errors.New("not connected")
	}
	var local uint64
	for ctx.Err() == nil {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := ParseFrameMessage(data)
		if err != nil {
			c.malformed.Add(1)
			c.logger.Debug("skipping malformed frame", "error", err)
			continue
		}
		local++
		seq := msg.Seq
		if seq == 0 {
			seq = local
		}
		now := time.Now()
		dets := msg.ToDetections(seq, c.config.MinKeypointScore)

		frame, err := msg.DecodeFrame()
		switch {
		case err != nil:
			c.malformed.Add(1)
			c.logger.Debug("frame image undecodable", "seq", seq, "error", err)
			mb.PublishDetections(dets, msg.Time(now))
		case frame != nil:
			mb.Publish(frame, dets, msg.Time(now))
		default:
			mb.PublishDetections(dets, msg.Time(now))
		}
		c.frames.Add(1)
	}
	return ctx.Err()
}

func (c *WSClient) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *WSClient) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected.Store(false)
}

// Close closes the connection.
func (c *WSClient) Close() error {
	c.drop()
	return nil
}

// ClientStats describes stream health.
type ClientStats struct {
	Connected  bool   `json:"connected"`
	Frames     uint64 `json:"frames"`
	Malformed  uint64 `json:"malformed"`
	Reconnects uint64 `json:"reconnects"`
}

// Stats returns stream counters.
func (c *WSClient) Stats() ClientStats {
	return ClientStats{
		Connected:  c.connected.Load(),
		Frames:     c.frames.Load(),
		Malformed:  c.malformed.Load(),
		Reconnects: c.reconnects.Load(),
	}
}
