package plugin

import (
	"context"
	"errors"
	"log"

	"screenshot-plugin/src/gui"
	"screenshot-plugin/src/overlay"
	"screenshot-plugin/src/screenshot"
)

// ImageEncoder turns a capture into PNG bytes; an empty result is a failure.
// *encoder.Encoder satisfies it.
type ImageEncoder interface {
	PNG(img *screenshot.CapturedImage) []byte
}

// Handler dispatches host method calls. It is synchronous: each call blocks
// until the capture (and, for region mode, the user) is done.
type Handler struct {
	capturer screenshot.Capturer
	selector overlay.Selector
	encoder  ImageEncoder
}

func NewHandler(capturer screenshot.Capturer, selector overlay.Selector, enc ImageEncoder) *Handler {
	return &Handler{capturer: capturer, selector: selector, encoder: enc}
}

// HandleMethodCall answers exactly one reply per call.
func (h *Handler) HandleMethodCall(ctx context.Context, call MethodCall) Reply {
	if call.Method != MethodCapture {
		log.Printf("PLUGIN: method %q not implemented", call.Method)
		return NotImplemented()
	}

	req, perr := ParseCaptureRequest(call.Arguments)
	if perr != nil {
		log.Printf("PLUGIN: rejected capture call: %v", perr)
		return Failure(perr)
	}
	return h.Capture(ctx, req)
}

// Capture runs an already validated request.
func (h *Handler) Capture(ctx context.Context, req CaptureRequest) Reply {
	switch req.Mode {
	case ModeScreen:
		return h.captureScreen(req.IncludeCursor)
	case ModeRegion:
		return h.captureRegion(ctx)
	default:
		return Failure(invalidArgument("Invalid mode: " + string(req.Mode)))
	}
}

func (h *Handler) captureScreen(includeCursor bool) Reply {
	img, err := h.capturer.CaptureScreen(includeCursor)
	if err != nil {
		log.Printf("PLUGIN: screen capture failed: %v", err)
		return Failure(internalError("Failed to capture screen", platformCode(err)))
	}
	return h.encode(img, nil)
}

func (h *Handler) captureRegion(ctx context.Context) Reply {
	rect, cancelled, err := h.selector.Select(ctx)
	switch {
	case errors.Is(err, gui.ErrNotSupported):
		return Failure(&Error{Code: CodeNotSupported, Message: "Region capture is not supported on this platform"})
	case errors.Is(err, gui.ErrSessionActive):
		return Failure(internalError("Capture session already active", nil))
	case err != nil:
		// A selection that could not run is reported like a cancellation.
		log.Printf("PLUGIN: region selection failed: %v", err)
		return Success(nil)
	case cancelled:
		log.Printf("PLUGIN: region selection cancelled")
		return Success(nil)
	}

	img, err := h.capturer.CaptureRect(rect)
	if err != nil {
		log.Printf("PLUGIN: region capture of %v failed: %v", rect, err)
		return Success(nil)
	}
	return h.encode(img, map[string]any{"x": rect.Left, "y": rect.Top})
}

func (h *Handler) encode(img *screenshot.CapturedImage, extra map[string]any) Reply {
	data := h.encoder.PNG(img)
	if len(data) == 0 {
		return Failure(internalError("Failed to encode PNG", nil))
	}

	result := map[string]any{
		"width":  img.Width,
		"height": img.Height,
		"bytes":  data,
	}
	for k, v := range extra {
		result[k] = v
	}
	log.Printf("PLUGIN: captured %dx%d, %d PNG bytes", img.Width, img.Height, len(data))
	return Success(result)
}

// platformCode extracts the platform error code carried by a capture
// failure, or nil when there is none.
func platformCode(err error) any {
	var capErr *screenshot.CaptureError
	if errors.As(err, &capErr) && capErr.Code != 0 {
		return int(capErr.Code)
	}
	return nil
}
