package plugin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"screenshot-plugin/src/gui"
	"screenshot-plugin/src/overlay"
	"screenshot-plugin/src/screenshot"
)

type fakeCapturer struct {
	screenCalls int
	rectCalls   int
	lastCursor  bool
	lastRect    screenshot.Rect
	err         error
}

func blank(w, h int) *screenshot.CapturedImage {
	return &screenshot.CapturedImage{Pix: make([]byte, w*h*4), Width: w, Height: h}
}

func (f *fakeCapturer) PrimaryBounds() (screenshot.Rect, error) {
	return screenshot.Rect{Right: 64, Bottom: 48}, nil
}

func (f *fakeCapturer) CaptureScreen(includeCursor bool) (*screenshot.CapturedImage, error) {
	f.screenCalls++
	f.lastCursor = includeCursor
	if f.err != nil {
		return nil, f.err
	}
	return blank(64, 48), nil
}

func (f *fakeCapturer) CaptureRect(r screenshot.Rect) (*screenshot.CapturedImage, error) {
	f.rectCalls++
	f.lastRect = r
	if f.err != nil {
		return nil, f.err
	}
	return blank(r.Width(), r.Height()), nil
}

type fakeEncoder struct {
	calls int
	out   []byte
}

func (f *fakeEncoder) PNG(img *screenshot.CapturedImage) []byte {
	f.calls++
	return f.out
}

type fakeSelector struct {
	calls     int
	rect      screenshot.Rect
	cancelled bool
	err       error
}

func (f *fakeSelector) Select(ctx context.Context) (screenshot.Rect, bool, error) {
	f.calls++
	return f.rect, f.cancelled, f.err
}

var _ overlay.Selector = (*fakeSelector)(nil)

type fixture struct {
	capturer *fakeCapturer
	selector *fakeSelector
	encoder  *fakeEncoder
	handler  *Handler
}

func newFixture() *fixture {
	f := &fixture{
		capturer: &fakeCapturer{},
		selector: &fakeSelector{rect: screenshot.Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}},
		encoder:  &fakeEncoder{out: []byte("png")},
	}
	f.handler = NewHandler(f.capturer, f.selector, f.encoder)
	return f
}

func call(f *fixture, args any) Reply {
	return f.handler.HandleMethodCall(context.Background(), MethodCall{Method: MethodCapture, Arguments: args})
}

func TestUnknownMethodNotImplemented(t *testing.T) {
	f := newFixture()
	reply := f.handler.HandleMethodCall(context.Background(), MethodCall{Method: "getPlatformVersion"})
	if reply.Kind != ReplyNotImplemented {
		t.Fatalf("Expected not implemented, got %s", reply.Kind)
	}
	if f.capturer.screenCalls+f.capturer.rectCalls+f.selector.calls != 0 {
		t.Error("Unknown method must not capture anything")
	}
}

func TestInvalidArgumentsNeverCapture(t *testing.T) {
	for _, args := range []any{nil, map[string]any{}, map[string]any{"mode": 3}, map[string]any{"mode": "bogus"}} {
		t.Run(fmt.Sprintf("%v", args), func(t *testing.T) {
			f := newFixture()
			reply := call(f, args)
			if reply.Kind != ReplyError || reply.Err.Code != CodeInvalidArgument {
				t.Fatalf("Expected invalid_argument error, got %+v", reply)
			}
			if f.capturer.screenCalls != 0 || f.selector.calls != 0 || f.encoder.calls != 0 {
				t.Errorf("Expected zero capture calls, got %+v / %d selects", *f.capturer, f.selector.calls)
			}
		})
	}
}

func TestScreenCapture(t *testing.T) {
	for _, cursor := range []bool{false, true} {
		t.Run(fmt.Sprintf("includeCursor=%v", cursor), func(t *testing.T) {
			f := newFixture()
			reply := call(f, map[string]any{"mode": "screen", "includeCursor": cursor})
			if reply.Kind != ReplySuccess {
				t.Fatalf("Expected success, got %+v", reply)
			}
			result, ok := reply.Value.(map[string]any)
			if !ok {
				t.Fatalf("Expected result map, got %T", reply.Value)
			}
			if result["width"] != 64 || result["height"] != 48 {
				t.Errorf("Expected 64x48, got %vx%v", result["width"], result["height"])
			}
			if string(result["bytes"].([]byte)) != "png" {
				t.Errorf("Unexpected bytes %v", result["bytes"])
			}
			if f.capturer.lastCursor != cursor {
				t.Errorf("includeCursor not forwarded: got %v", f.capturer.lastCursor)
			}
			if f.selector.calls != 0 {
				t.Error("Screen mode must not show the overlay")
			}
		})
	}
}

func TestScreenCaptureFailure(t *testing.T) {
	f := newFixture()
	f.capturer.err = &screenshot.CaptureError{Op: "BitBlt", Code: 6, Err: errors.New("invalid handle")}

	reply := call(f, map[string]any{"mode": "screen"})
	if reply.Kind != ReplyError {
		t.Fatalf("Expected error reply, got %s", reply.Kind)
	}
	if reply.Err.Code != CodeInternalError || reply.Err.Message != "Failed to capture screen" {
		t.Errorf("Unexpected error %v", reply.Err)
	}
	if reply.Err.Details != 6 {
		t.Errorf("Expected platform code 6 in details, got %v", reply.Err.Details)
	}
	if f.encoder.calls != 0 {
		t.Error("Encoder must not run after a failed capture")
	}
}

func TestEncodeFailure(t *testing.T) {
	for _, mode := range []string{"screen", "region"} {
		t.Run(mode, func(t *testing.T) {
			f := newFixture()
			f.encoder.out = nil
			reply := call(f, map[string]any{"mode": mode})
			if reply.Kind != ReplyError || reply.Err.Code != CodeInternalError || reply.Err.Message != "Failed to encode PNG" {
				t.Fatalf("Expected encode failure, got %+v", reply)
			}
		})
	}
}

func TestRegionCapture(t *testing.T) {
	f := newFixture()
	reply := call(f, map[string]any{"mode": "region", "includeCursor": true})
	if reply.Kind != ReplySuccess {
		t.Fatalf("Expected success, got %+v", reply)
	}
	result := reply.Value.(map[string]any)
	if result["width"] != 100 || result["height"] != 50 {
		t.Errorf("Expected 100x50, got %vx%v", result["width"], result["height"])
	}
	if result["x"] != 10 || result["y"] != 20 {
		t.Errorf("Expected origin (10,20), got (%v,%v)", result["x"], result["y"])
	}
	if f.capturer.lastRect != f.selector.rect {
		t.Errorf("Captured %v, selected %v", f.capturer.lastRect, f.selector.rect)
	}
	if f.capturer.screenCalls != 0 {
		t.Error("Region mode must not composite the cursor via a screen capture")
	}
}

func TestRegionNullSuccess(t *testing.T) {
	tests := []struct {
		name      string
		cancelled bool
		selErr    error
		capErr    error
	}{
		{"user cancelled", true, nil, nil},
		{"selection failed", false, errors.New("window creation failed"), nil},
		{"crop failed", false, nil, errors.New("BitBlt failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.selector.cancelled = tt.cancelled
			f.selector.err = tt.selErr
			f.capturer.err = tt.capErr

			reply := call(f, map[string]any{"mode": "region"})
			if reply.Kind != ReplySuccess || reply.Value != nil {
				t.Fatalf("Expected null success, got %+v", reply)
			}
			if f.encoder.calls != 0 {
				t.Error("Nothing should be encoded")
			}
		})
	}
}

func TestRegionSelectorErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unsupported platform", gui.ErrNotSupported, CodeNotSupported},
		{"wrapped unsupported", fmt.Errorf("overlay: %w", gui.ErrNotSupported), CodeNotSupported},
		{"session already active", gui.ErrSessionActive, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.selector.err = tt.err
			reply := call(f, map[string]any{"mode": "region"})
			if reply.Kind != ReplyError || reply.Err.Code != tt.wantCode {
				t.Fatalf("Expected %s error, got %+v", tt.wantCode, reply)
			}
			if f.capturer.rectCalls != 0 {
				t.Error("No capture should follow a selector error")
			}
		})
	}
}

func TestCancelledCodeNeverEmitted(t *testing.T) {
	f := newFixture()
	f.selector.cancelled = true
	if reply := call(f, map[string]any{"mode": "region"}); reply.Err != nil && reply.Err.Code == CodeCancelled {
		t.Error("Cancellation must be reported as a null success")
	}
}
