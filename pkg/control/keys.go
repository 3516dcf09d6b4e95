package control

// Key codes as reported by the display window. Arrow codes differ between
// platforms so both common encodings are accepted.
const (
	keyLeftGTK  = 65361
	keyUpGTK    = 65362
	keyRightGTK = 65363
	keyDownGTK  = 65364
	keyLeftMac  = 2
	keyUpMac    = 0
	keyRightMac = 3
	keyDownMac  = 1
	keyEscape   = 27
)

// FromKey translates a window key code to an event.
//
//	right/left  cycle display mode
//	up/down     cycle visual
//	k           toggle keypoints
//	t           tutorial
//	0-9         select visual
//	q, esc      quit
func FromKey(code int) (Event, bool) {
	if code < 0 {
		return Event{}, false
	}
	switch code {
	case keyRightGTK, keyRightMac:
		return Of(NextMode), true
	case keyLeftGTK, keyLeftMac:
		return Of(PrevMode), true
	case keyUpGTK, keyUpMac:
		return Of(NextVisual), true
	case keyDownGTK, keyDownMac:
		return Of(PrevVisual), true
	case keyEscape:
		return Of(Quit), true
	}
	if code >= 0x100 {
		return Event{}, false
	}
	switch r := rune(code); {
	case r == 'q' || r == 'Q':
		return Of(Quit), true
	case r == 'k' || r == 'K':
		return Of(ToggleKeypoints), true
	case r == 't' || r == 'T':
		return Of(Tutorial), true
	case r >= '0' && r <= '9':
		return SelectVisual(int(r - '0')), true
	}
	return Event{}, false
}
