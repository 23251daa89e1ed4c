package gui

import (
	"testing"

	"screenshot-plugin/src/screenshot"
)

func pt(x, y int) screenshot.Point { return screenshot.Point{X: x, Y: y} }

func TestSelectionDrag(t *testing.T) {
	tests := []struct {
		name      string
		from, to  screenshot.Point
		wantRect  screenshot.Rect
		wantOK    bool
		wantState State
	}{
		{"forward drag", pt(10, 20), pt(110, 70), screenshot.Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}, true, StateFinalized},
		{"reverse drag", pt(110, 70), pt(10, 20), screenshot.Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}, true, StateFinalized},
		{"mixed direction", pt(50, 10), pt(5, 40), screenshot.Rect{Left: 5, Top: 10, Right: 50, Bottom: 40}, true, StateFinalized},
		{"click without drag", pt(30, 30), pt(30, 30), screenshot.Rect{}, false, StateFinalized},
		{"horizontal line", pt(0, 30), pt(200, 30), screenshot.Rect{}, false, StateFinalized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection()
			if e := sel.Press(tt.from); !e.Has(EffectCapturePointer) {
				t.Errorf("Press should capture the pointer, got %b", e)
			}
			sel.Move(tt.to)
			e := sel.Release(tt.to)
			if !e.Has(EffectReleasePointer) || !e.Has(EffectClose) {
				t.Errorf("Release should release the pointer and close, got %b", e)
			}
			if sel.State() != tt.wantState {
				t.Errorf("Expected state %s, got %s", tt.wantState, sel.State())
			}
			rect, ok := sel.Outcome()
			if ok != tt.wantOK || rect != tt.wantRect {
				t.Errorf("Outcome() = %v, %v; want %v, %v", rect, ok, tt.wantRect, tt.wantOK)
			}
		})
	}
}

func TestSelectionCancel(t *testing.T) {
	t.Run("before press", func(t *testing.T) {
		sel := NewSelection()
		e := sel.Cancel()
		if !e.Has(EffectClose) || e.Has(EffectReleasePointer) {
			t.Errorf("Unexpected effect %b", e)
		}
		if sel.State() != StateCancelled {
			t.Errorf("Expected cancelled, got %s", sel.State())
		}
	})

	t.Run("mid drag", func(t *testing.T) {
		sel := NewSelection()
		sel.Press(pt(0, 0))
		sel.Move(pt(100, 100))
		e := sel.Cancel()
		if !e.Has(EffectReleasePointer) {
			t.Errorf("Cancelling a drag should release the pointer, got %b", e)
		}
		if _, ok := sel.Outcome(); ok {
			t.Error("A cancelled drag must not produce a rectangle")
		}
		if _, ok := sel.Highlight(); ok {
			t.Error("Nothing should be highlighted after cancel")
		}
	})
}

func TestSelectionSingleTerminalTransition(t *testing.T) {
	sel := NewSelection()
	sel.Press(pt(0, 0))
	sel.Release(pt(40, 40))

	if e := sel.Cancel(); e != 0 {
		t.Errorf("Cancel after finalize should be a no-op, got %b", e)
	}
	if e := sel.Press(pt(5, 5)); e != 0 {
		t.Errorf("Press after finalize should be a no-op, got %b", e)
	}
	if e := sel.Release(pt(90, 90)); e != 0 {
		t.Errorf("Release after finalize should be a no-op, got %b", e)
	}
	rect, ok := sel.Outcome()
	if !ok || rect != (screenshot.Rect{Right: 40, Bottom: 40}) {
		t.Errorf("Outcome changed after terminal state: %v %v", rect, ok)
	}

	cancelled := NewSelection()
	cancelled.Cancel()
	if e := cancelled.Press(pt(1, 1)); e != 0 || cancelled.State() != StateCancelled {
		t.Errorf("Cancelled session accepted input: effect %b state %s", e, cancelled.State())
	}
}

func TestSelectionIgnoresStrayEvents(t *testing.T) {
	sel := NewSelection()
	if e := sel.Move(pt(10, 10)); e != 0 {
		t.Errorf("Move while idle should be ignored, got %b", e)
	}
	if e := sel.Release(pt(10, 10)); e != 0 {
		t.Errorf("Release while idle should be ignored, got %b", e)
	}
	if sel.State() != StateIdle {
		t.Errorf("Expected idle, got %s", sel.State())
	}

	sel.Press(pt(1, 1))
	if e := sel.Press(pt(9, 9)); e != 0 {
		t.Errorf("Second press while dragging should be ignored, got %b", e)
	}
}

func TestSelectionHighlightFollowsPointer(t *testing.T) {
	sel := NewSelection()
	if _, ok := sel.Highlight(); ok {
		t.Fatal("Idle selection should not highlight")
	}
	sel.Press(pt(100, 100))
	sel.Move(pt(-20, 50))

	got, ok := sel.Highlight()
	want := screenshot.Rect{Left: -20, Top: 50, Right: 100, Bottom: 100}
	if !ok || got != want {
		t.Errorf("Highlight() = %v, %v; want %v", got, ok, want)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:      "idle",
		StateDragging:  "dragging",
		StateFinalized: "finalized",
		StateCancelled: "cancelled",
		State(42):      "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
