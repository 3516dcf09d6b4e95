// Package control carries user input to the playback loop.
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Kind identifies an input event.
type Kind int

const (
	NextMode Kind = iota + 1
	PrevMode
	NextVisual
	PrevVisual
	ToggleKeypoints
	Tutorial
	Select
	Quit
)

var kindNames = map[Kind]string{
	NextMode:        "next_mode",
	PrevMode:        "prev_mode",
	NextVisual:      "next_visual",
	PrevVisual:      "prev_visual",
	ToggleKeypoints: "toggle_keypoints",
	Tutorial:        "tutorial",
	Select:          "select",
	Quit:            "quit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one discrete input. Index is only meaningful for Select.
type Event struct {
	Kind  Kind
	Index int
}

// Of returns an event of kind k.
func Of(k Kind) Event { return Event{Kind: k} }

// SelectVisual returns an event selecting the visual at index.
func SelectVisual(index int) Event { return Event{Kind: Select, Index: index} }

func (e Event) String() string {
	if e.Kind == Select {
		return fmt.Sprintf("select:%d", e.Index)
	}
	return e.Kind.String()
}

// ErrUnknownAction is returned by ParseAction for unrecognized names.
var ErrUnknownAction = errors.New("control: unknown action")

// ParseAction parses an action name such as "next_mode" or "select:3".
func ParseAction(s string) (Event, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(s, "select:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return Event{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
		}
		return SelectVisual(n), nil
	}
	for k, name := range kindNames {
		if k != Select && name == s {
			return Of(k), nil
		}
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Actions returns the names accepted by ParseAction, excluding select.
func Actions() []string {
	out := make([]string, 0, len(kindNames))
	for k := NextMode; k <= Quit; k++ {
		if k != Select {
			out = append(out, k.String())
		}
	}
	return out
}

// DefaultInboxSize is the queue length of NewInbox(0).
const DefaultInboxSize = 64

// Inbox is a bounded, non-blocking event queue. Several producers may Push;
// the playback loop drains it once per tick.
type Inbox struct {
	mu      sync.Mutex
	events  []Event
	limit   int
	dropped uint64
}

// NewInbox creates an inbox holding at most size events.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{limit: size}
}

// Push enqueues e. When the inbox is full the event is dropped and Push
// returns false.
func (in *Inbox) Push(e Event) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.events) >= in.limit {
		in.dropped++
		return false
	}
	in.events = append(in.events, e)
	return true
}

// Drain removes and returns every queued event in arrival order.
func (in *Inbox) Drain() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := in.events
	in.events = nil
	return out
}

// Len returns the number of queued events.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.events)
}

// Dropped returns how many events were discarded because the inbox was full.
func (in *Inbox) Dropped() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dropped
}
