package overlay

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"screenshot-plugin/src/gui"
	"screenshot-plugin/src/screenshot"
)

func TestSelectWithDoneContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rect, cancelled, err := NewSelector(gui.Options{}).Select(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !cancelled {
		t.Error("Expected a done context to cancel the selection")
	}
	if !rect.Empty() {
		t.Errorf("Expected empty rect, got %v", rect)
	}
}

func TestSelectUnsupportedPlatform(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("overlay is available on Windows")
	}
	_, _, err := NewSelector(gui.Options{}).Select(context.Background())
	if !errors.Is(err, gui.ErrNotSupported) {
		t.Fatalf("Expected gui.ErrNotSupported, got %v", err)
	}
}

func TestSelectorFunc(t *testing.T) {
	want := screenshot.Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}
	var s Selector = SelectorFunc(func(context.Context) (screenshot.Rect, bool, error) {
		return want, false, nil
	})
	got, cancelled, err := s.Select(context.Background())
	if err != nil || cancelled || got != want {
		t.Errorf("Select() = %v, %v, %v", got, cancelled, err)
	}
}
