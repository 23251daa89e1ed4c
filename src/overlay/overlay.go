package overlay

import (
	"context"

	"screenshot-plugin/src/gui"
	"screenshot-plugin/src/screenshot"
)

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
// Returns (rect, cancelled, error). If cancelled is true, rect is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (screenshot.Rect, bool, error)
}

// NewSelector returns the overlay-backed selector. On platforms without an
// overlay, Select reports gui.ErrNotSupported.
func NewSelector(opts gui.Options) Selector {
	return &overlaySelector{opts: opts}
}

type overlaySelector struct {
	opts gui.Options
}

func (s *overlaySelector) Select(ctx context.Context) (screenshot.Rect, bool, error) {
	if err := ctx.Err(); err != nil {
		return screenshot.Rect{}, true, nil
	}
	return gui.StartRegionSelection(ctx, s.opts)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context) (screenshot.Rect, bool, error)

func (f SelectorFunc) Select(ctx context.Context) (screenshot.Rect, bool, error) { return f(ctx) }
