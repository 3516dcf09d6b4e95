package ingest

import (
	"context"
	"fmt"
	"time"
)

// Source feeds a Mailbox until its context is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, mb *Mailbox) error
}

// Config holds ingestion settings shared by every source.
type Config struct {
	// MinKeypointScore drops keypoints scored below it.
	MinKeypointScore float64

	// ReconnectMin and ReconnectMax bound the stream reconnect backoff.
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	// ReadTimeout closes a stream that stays silent this long.
	ReadTimeout time.Duration

	// ReplayFPS paces replayed frames when they carry no timestamps.
	ReplayFPS float64

	// ReplayLoop restarts a replay at end of file.
	ReplayLoop bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MinKeypointScore: 0.0,
		ReconnectMin:     500 * time.Millisecond,
		ReconnectMax:     10 * time.Second,
		ReadTimeout:      5 * time.Second,
		ReplayFPS:        30,
		ReplayLoop:       true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ReconnectMin <= 0 || c.ReconnectMax < c.ReconnectMin {
		return fmt.Errorf("ingest: reconnect backoff must satisfy 0 < min <= max, got %v..%v", c.ReconnectMin, c.ReconnectMax)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("ingest: read timeout must be positive")
	}
	if c.ReplayFPS <= 0 {
		return fmt.Errorf("ingest: replay fps must be positive")
	}
	return nil
}

// backoff doubles a delay between min and max.
type backoff struct {
	min, max, cur time.Duration
}

func (b *backoff) next() time.Duration {
	if b.cur < b.min {
		b.cur = b.min
		return b.cur
	}
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return b.cur
}

func (b *backoff) reset() { b.cur = 0 }

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
