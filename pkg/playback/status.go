package playback

import (
	"github.com/teslashibe/go-posemix/pkg/audio"
)

// Status is a read-only view of the loop for dashboards.
type Status struct {
	Tick             uint64             `json:"tick"`
	Mode             string             `json:"mode"`
	ModeLabel        string             `json:"mode_label"`
	Visual           string             `json:"visual"`
	VisualIndex      int                `json:"visual_index"`
	Asset            string             `json:"asset,omitempty"`
	KeypointsVisible bool               `json:"keypoints_visible"`
	Tutorial         string             `json:"tutorial,omitempty"`
	People           []string           `json:"people"`
	Voices           []audio.VoiceState `json:"voices"`
	SnapshotSeq      uint64             `json:"snapshot_seq"`
	DrawErrors       uint64             `json:"draw_errors"`
}

// Status returns the latest published status.
func (l *Loop) Status() Status {
	if s := l.status.Load(); s != nil {
		return *s
	}
	return Status{}
}

func (l *Loop) publishStatus() {
	sel := l.deps.Selector
	s := Status{
		Tick:             l.tick,
		Mode:             l.mode.String(),
		ModeLabel:        l.mode.Label(),
		Visual:           sel.Current().Name(),
		VisualIndex:      sel.Index(),
		Asset:            sel.Asset(),
		KeypointsVisible: l.keypoints,
		People:           make([]string, len(l.people)),
		Voices:           l.deps.Registry.Voices(),
		SnapshotSeq:      l.lastSeq,
		DrawErrors:       l.drawErrors.Load(),
	}
	if l.onTutorialVisual() {
		s.Tutorial = l.tutorial.String()
	}
	for i, p := range l.people {
		s.People[i] = p.Identity.String()
	}
	l.status.Store(&s)
	if l.OnStatus != nil {
		l.OnStatus(s)
	}
}
