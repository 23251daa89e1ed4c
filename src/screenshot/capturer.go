package screenshot

import (
	"fmt"
)

// Capturer grabs pixels from the primary display.
type Capturer interface {
	// PrimaryBounds returns the primary display rectangle in screen coordinates.
	PrimaryBounds() (Rect, error)
	// CaptureScreen copies the whole primary display, optionally with the
	// mouse cursor drawn on top.
	CaptureScreen(includeCursor bool) (*CapturedImage, error)
	// CaptureRect copies only r from the display. The cursor is never drawn.
	CaptureRect(r Rect) (*CapturedImage, error)
}

// CaptureError reports which capture step failed. Code holds the platform
// error code when one is available, zero otherwise.
type CaptureError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("capture: %s failed (code %d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("capture: %s failed: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// New returns the capturer for the current platform.
func New() Capturer {
	return newPlatformCapturer()
}
