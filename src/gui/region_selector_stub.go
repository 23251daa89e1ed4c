//go:build !windows

package gui

import (
	"context"

	"screenshot-plugin/src/screenshot"
)

// selectRegion has no overlay outside Windows. The session guard still
// applies so callers see the same errors on every platform.
func selectRegion(ctx context.Context, opts Options) (screenshot.Rect, bool, error) {
	sel, err := sessions.begin()
	if err != nil {
		return screenshot.Rect{}, false, err
	}
	defer sessions.end(sel)
	return screenshot.Rect{}, false, ErrNotSupported
}
