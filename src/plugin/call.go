package plugin

import (
	"fmt"
)

// MethodCapture is the only method the plugin implements.
const MethodCapture = "capture"

// MethodCall is a single invocation arriving from the host.
type MethodCall struct {
	Method    string
	Arguments any
}

// Mode selects what gets captured.
type Mode string

const (
	ModeScreen Mode = "screen"
	ModeRegion Mode = "region"
)

// CaptureRequest holds validated capture arguments.
type CaptureRequest struct {
	Mode          Mode
	IncludeCursor bool
}

// ParseCaptureRequest validates the arguments of a capture call. Checks run
// in a fixed order and the first failure is reported.
func ParseCaptureRequest(arguments any) (CaptureRequest, *Error) {
	args, ok := arguments.(map[string]any)
	if !ok {
		return CaptureRequest{}, invalidArgument("Arguments must be a map")
	}

	raw, ok := args["mode"]
	if !ok {
		return CaptureRequest{}, invalidArgument("Missing 'mode' parameter")
	}
	mode, ok := raw.(string)
	if !ok {
		return CaptureRequest{}, invalidArgument("'mode' must be a string")
	}

	req := CaptureRequest{Mode: Mode(mode)}
	switch req.Mode {
	case ModeScreen, ModeRegion:
	default:
		return CaptureRequest{}, invalidArgument(fmt.Sprintf("Invalid mode: %s", mode))
	}

	// Anything other than a bool is treated as false.
	if include, ok := args["includeCursor"].(bool); ok {
		req.IncludeCursor = include
	}
	return req, nil
}

// Arguments renders the request back into the map form hosts send.
func (r CaptureRequest) Arguments() map[string]any {
	return map[string]any{
		"mode":          string(r.Mode),
		"includeCursor": r.IncludeCursor,
	}
}
