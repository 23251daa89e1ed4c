package gui

import (
	"context"
	"log"

	"screenshot-plugin/src/screenshot"
)

const defaultOverlayOpacity = 128

// Options tune the overlay appearance.
type Options struct {
	// Opacity of the dark backdrop, 1-255. Zero selects the default.
	Opacity uint8
}

func (o Options) opacity() uint8 {
	if o.Opacity == 0 {
		return defaultOverlayOpacity
	}
	return o.Opacity
}

// StartRegionSelection shows the overlay and blocks until the user finishes
// or cancels. cancelled is true for Escape, a secondary click, a degenerate
// rectangle, or ctx being done.
func StartRegionSelection(ctx context.Context, opts Options) (rect screenshot.Rect, cancelled bool, err error) {
	log.Printf("Starting interactive region selection...")

	rect, ok, err := selectRegion(ctx, opts)
	if err != nil {
		log.Printf("Interactive region selection failed: %v", err)
		return screenshot.Rect{}, false, err
	}
	if !ok {
		log.Printf("Region selection cancelled or empty")
		return screenshot.Rect{}, true, nil
	}

	log.Printf("Region selected: %v", rect)
	return rect, false, nil
}
