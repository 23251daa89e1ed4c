package messages

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status of a method-channel response frame.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusError          Status = "error"
	StatusNotImplemented Status = "not_implemented"
)

// MaxFrameSize bounds one newline-delimited frame. A full-screen PNG on a
// large display stays well below it even after base64 expansion.
const MaxFrameSize = 256 * 1024 * 1024

var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Request is one method call sent by a host over the channel.
type Request struct {
	ID        string `json:"id"`
	Channel   string `json:"channel,omitempty"`
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

// ErrorBody carries a structured failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Response answers exactly one Request with the same ID. Result is raw JSON
// so that a null success survives the round trip.
type Response struct {
	ID     string              `json:"id"`
	Status Status              `json:"status"`
	Result jsoniter.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody          `json:"error,omitempty"`
}

// CaptureResult is the success payload of a capture call. Bytes travel as
// base64 in JSON.
type CaptureResult struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  []byte `json:"bytes"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
}

// Map renders the result in the shape an in-process caller receives.
func (r *CaptureResult) Map() map[string]any {
	m := map[string]any{"width": r.Width, "height": r.Height, "bytes": r.Bytes}
	if r.X != nil {
		m["x"] = *r.X
	}
	if r.Y != nil {
		m["y"] = *r.Y
	}
	return m
}

// IsNull reports whether the response carries a null (or absent) result.
func (r Response) IsNull() bool {
	return len(r.Result) == 0 || string(r.Result) == "null"
}

// DecodeCaptureResult parses a success payload; nil means a null result.
func (r Response) DecodeCaptureResult() (*CaptureResult, error) {
	if r.IsNull() {
		return nil, nil
	}
	var out CaptureResult
	if err := json.Unmarshal(r.Result, &out); err != nil {
		return nil, fmt.Errorf("decode capture result: %w", err)
	}
	return &out, nil
}

// MarshalResult encodes v as a Result payload.
func MarshalResult(v any) (jsoniter.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsoniter.RawMessage(data), nil
}

// WriteFrame writes v as a single JSON line.
func WriteFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadFrame reads one JSON line from br into v.
func ReadFrame(br *bufio.Reader, v any) error {
	line, err := readLine(br)
	if err != nil {
		return err
	}
	return DecodeFrame(line, v)
}

// DecodeFrame parses an already read line.
func DecodeFrame(line []byte, v any) error {
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}

func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxFrameSize {
			return nil, ErrFrameTooLarge
		}
		if err == nil {
			return line, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return nil, err
	}
}
