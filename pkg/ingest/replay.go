package ingest

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// maxReplayLine bounds one JSON line; frames with embedded JPEGs are large.
const maxReplayLine = 16 << 20

// Replay publishes FrameMessages recorded one per line in a file.
// Frames are paced by their timestamps, or at Config.ReplayFPS without them.
type Replay struct {
	path   string
	config Config
	logger *slog.Logger

	frames atomic.Uint64
	loops  atomic.Uint64
}

var _ Source = (*Replay)(nil)

// NewReplay checks that path is readable and returns a replay source.
func NewReplay(path string, config Config, logger *slog.Logger) (*Replay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	f.Close()
	return &Replay{path: path, config: config, logger: logger}, nil
}

// Name returns the replay file path.
func (r *Replay) Name() string { return r.path }

// Run publishes the file until ctx is cancelled, or once through when
// looping is disabled.
func (r *Replay) Run(ctx context.Context, mb *Mailbox) error {
	var seq uint64
	for {
		n, err := r.playOnce(ctx, mb, &seq)
		if err != nil {
			return err
		}
		if ctx.Err() != nil || !r.config.ReplayLoop {
			return nil
		}
		if n == 0 {
			return fmt.Errorf("replay %s: no frames", r.path)
		}
		r.loops.Add(1)
		r.logger.Debug("replay restarting", "path", r.path, "frames", n)
		if !sleepCtx(ctx, time.Duration(float64(time.Second)/r.config.ReplayFPS)) {
			return nil
		}
	}
}

func (r *Replay) playOnce(ctx context.Context, mb *Mailbox, seq *uint64) (int, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return 0, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxReplayLine)

	interval := time.Duration(float64(time.Second) / r.config.ReplayFPS)
	var prevTS float64
	n := 0
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := ParseFrameMessage(line)
		if err != nil {
			r.logger.Debug("replay: skipping line", "line", n+1, "error", err)
			continue
		}

		wait := interval
		if msg.Timestamp > 0 && prevTS > 0 && msg.Timestamp > prevTS {
			wait = time.Duration((msg.Timestamp - prevTS) * float64(time.Second))
			if wait > time.Second {
				wait = time.Second
			}
		}
		prevTS = msg.Timestamp
		if n > 0 && !sleepCtx(ctx, wait) {
			return n, nil
		}

		*seq++
		dets := msg.ToDetections(*seq, r.config.MinKeypointScore)
		now := time.Now()
		if frame, err := msg.DecodeFrame(); err == nil && frame != nil {
			mb.Publish(frame, dets, now)
		} else {
			mb.PublishDetections(dets, now)
		}
		r.frames.Add(1)
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read replay: %w", err)
	}
	return n, nil
}

// Frames returns how many frames were published.
func (r *Replay) Frames() uint64 { return r.frames.Load() }

// Loops returns how many times the file was restarted.
func (r *Replay) Loops() uint64 { return r.loops.Load() }
