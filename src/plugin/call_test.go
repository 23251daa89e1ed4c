package plugin

import (
	"testing"
)

func TestParseCaptureRequest(t *testing.T) {
	tests := []struct {
		name    string
		args    any
		want    CaptureRequest
		wantMsg string
	}{
		{"nil arguments", nil, CaptureRequest{}, "Arguments must be a map"},
		{"list arguments", []any{"screen"}, CaptureRequest{}, "Arguments must be a map"},
		{"missing mode", map[string]any{"includeCursor": true}, CaptureRequest{}, "Missing 'mode' parameter"},
		{"numeric mode", map[string]any{"mode": 1}, CaptureRequest{}, "'mode' must be a string"},
		{"unknown mode", map[string]any{"mode": "window"}, CaptureRequest{}, "Invalid mode: window"},
		{"mode checked before cursor", map[string]any{"mode": "bogus", "includeCursor": "yes"}, CaptureRequest{}, "Invalid mode: bogus"},
		{"screen", map[string]any{"mode": "screen"}, CaptureRequest{Mode: ModeScreen}, ""},
		{"screen with cursor", map[string]any{"mode": "screen", "includeCursor": true}, CaptureRequest{Mode: ModeScreen, IncludeCursor: true}, ""},
		{"non-bool cursor is false", map[string]any{"mode": "screen", "includeCursor": "true"}, CaptureRequest{Mode: ModeScreen}, ""},
		{"region", map[string]any{"mode": "region"}, CaptureRequest{Mode: ModeRegion}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCaptureRequest(tt.args)
			if tt.wantMsg != "" {
				if err == nil {
					t.Fatalf("Expected error %q, got request %+v", tt.wantMsg, got)
				}
				if err.Code != CodeInvalidArgument || err.Message != tt.wantMsg {
					t.Errorf("Expected invalid_argument %q, got %s %q", tt.wantMsg, err.Code, err.Message)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCaptureRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCaptureRequestArguments(t *testing.T) {
	req := CaptureRequest{Mode: ModeRegion, IncludeCursor: true}
	got, err := ParseCaptureRequest(req.Arguments())
	if err != nil {
		t.Fatalf("Arguments() did not parse: %v", err)
	}
	if got != req {
		t.Errorf("Expected %+v, got %+v", req, got)
	}
}

func TestErrorString(t *testing.T) {
	e := internalError("Failed to capture screen", 5)
	if got := e.Error(); got != "internal_error: Failed to capture screen (5)" {
		t.Errorf("Unexpected message %q", got)
	}
	if got := invalidArgument("bad").Error(); got != "invalid_argument: bad" {
		t.Errorf("Unexpected message %q", got)
	}
}
