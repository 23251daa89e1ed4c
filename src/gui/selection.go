package gui

import (
	"screenshot-plugin/src/screenshot"
)

// State is the phase of a region-selection session.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateFinalized
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateFinalized:
		return "finalized"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Effect tells the window layer what to do after an input event.
type Effect uint8

const (
	EffectRedraw Effect = 1 << iota
	EffectCapturePointer
	EffectReleasePointer
	EffectClose
)

func (e Effect) Has(flag Effect) bool { return e&flag != 0 }

// Selection tracks one drag-to-select session. It is driven only by the
// overlay's event handler and reaches exactly one terminal state.
type Selection struct {
	start     screenshot.Point
	current   screenshot.Point
	dragging  bool
	cancelled bool
	rect      screenshot.Rect
	state     State
}

func NewSelection() *Selection {
	return &Selection{state: StateIdle}
}

func (s *Selection) State() State { return s.state }

// Done reports whether the session reached Finalized or Cancelled.
func (s *Selection) Done() bool {
	return s.state == StateFinalized || s.state == StateCancelled
}

// Press handles the primary button going down.
func (s *Selection) Press(p screenshot.Point) Effect {
	if s.state != StateIdle {
		return 0
	}
	s.start, s.current = p, p
	s.dragging = true
	s.state = StateDragging
	return EffectCapturePointer | EffectRedraw
}

// Move tracks the pointer while dragging.
func (s *Selection) Move(p screenshot.Point) Effect {
	if s.state != StateDragging {
		return 0
	}
	s.current = p
	return EffectRedraw
}

// Release finalizes the drag at p.
func (s *Selection) Release(p screenshot.Point) Effect {
	if s.state != StateDragging {
		return 0
	}
	s.current = p
	s.dragging = false
	s.rect = screenshot.NormalizeRect(s.start, s.current)
	s.state = StateFinalized
	return EffectReleasePointer | EffectClose
}

// Cancel ends the session from Escape, a secondary-button press or an
// external close request. Any drag in progress is discarded.
func (s *Selection) Cancel() Effect {
	if s.Done() {
		return 0
	}
	effect := EffectClose
	if s.dragging {
		effect |= EffectReleasePointer
	}
	s.dragging = false
	s.cancelled = true
	s.state = StateCancelled
	return effect
}

// Highlight returns the rectangle the overlay should paint as selected.
func (s *Selection) Highlight() (screenshot.Rect, bool) {
	switch s.state {
	case StateDragging:
		return screenshot.NormalizeRect(s.start, s.current), true
	case StateFinalized:
		return s.rect, !s.rect.Empty()
	default:
		return screenshot.Rect{}, false
	}
}

// Outcome returns the selected rectangle once the session ended. ok is false
// for a cancelled session and for a degenerate rectangle (a click without a
// drag, or a drag along one axis only): both count as a cancellation.
func (s *Selection) Outcome() (rect screenshot.Rect, ok bool) {
	if s.state != StateFinalized || s.cancelled || s.rect.Empty() {
		return screenshot.Rect{}, false
	}
	return s.rect, true
}
