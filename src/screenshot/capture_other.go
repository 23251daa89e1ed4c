//go:build !windows

package screenshot

import (
	"errors"
	"image"
	"log"

	"github.com/kbinani/screenshot"
)

// EnableDPIAwareness is a no-op outside Windows.
func EnableDPIAwareness() {}

type portableCapturer struct{}

func newPlatformCapturer() Capturer { return portableCapturer{} }

func (portableCapturer) PrimaryBounds() (Rect, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return Rect{}, &CaptureError{Op: "NumActiveDisplays", Err: errors.New("no active displays found")}
	}
	b := screenshot.GetDisplayBounds(0)
	return Rect{Left: b.Min.X, Top: b.Min.Y, Right: b.Max.X, Bottom: b.Max.Y}, nil
}

func (c portableCapturer) CaptureScreen(includeCursor bool) (*CapturedImage, error) {
	bounds, err := c.PrimaryBounds()
	if err != nil {
		return nil, err
	}
	if includeCursor {
		log.Printf("CAPTURE: cursor compositing is not available on this platform, capturing without it")
	}
	return grab(bounds)
}

func (portableCapturer) CaptureRect(r Rect) (*CapturedImage, error) {
	if r.Empty() {
		return nil, &CaptureError{Op: "CaptureRect", Err: errors.New("empty rectangle")}
	}
	return grab(r)
}

func grab(r Rect) (*CapturedImage, error) {
	img, err := screenshot.CaptureRect(image.Rect(r.Left, r.Top, r.Right, r.Bottom))
	if err != nil {
		return nil, &CaptureError{Op: "CaptureRect", Err: err}
	}
	return FromRGBA(img), nil
}
