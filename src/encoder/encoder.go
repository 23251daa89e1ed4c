package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"strings"
	"sync"

	"screenshot-plugin/src/screenshot"
)

// Encode stages, in order. A failure in any of them aborts the encode.
const (
	StageWrap   = "wrap"
	StageStream = "stream"
	StageFrame  = "frame"
	StageCommit = "commit"
	StageRead   = "read"
)

// EncodeError names the stage that failed.
type EncodeError struct {
	Stage string
	Err   error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode %s: %v", e.Stage, e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }

// Stream is an in-memory output stream that can be read back after the frame
// is written. *bytes.Buffer satisfies it.
type Stream interface {
	io.ReadWriter
	Len() int
	Reset()
}

// StreamPool hands out output streams. Get may return nil when none can be
// allocated.
type StreamPool interface {
	Get() Stream
	Put(Stream)
}

// ScratchPool hands out pixel conversion buffers of at least size bytes.
type ScratchPool interface {
	Get(size int) []byte
	Put([]byte)
}

// Encoder turns BGRA captures into PNG bytes. The zero value is usable.
type Encoder struct {
	Compression png.CompressionLevel
	Buffers     png.EncoderBufferPool
	Streams     StreamPool
	Scratch     ScratchPool
}

var (
	defaultBuffers = &syncBufferPool{}
	defaultStreams = &syncStreamPool{}
	defaultScratch = &syncScratchPool{}

	errNoStream = errors.New("no output stream available")
	errNoData   = errors.New("encoder produced no data")
)

// New returns an encoder with process-wide pools.
func New(level png.CompressionLevel) *Encoder {
	return &Encoder{Compression: level}
}

// Default is the encoder used by PNG.
var Default = New(png.DefaultCompression)

// PNG encodes img with the default encoder. An empty result means failure.
func PNG(img *screenshot.CapturedImage) []byte {
	return Default.PNG(img)
}

// PNG encodes img and returns nil on any failure; callers must treat an
// empty result as an error, never as an empty image.
func (e *Encoder) PNG(img *screenshot.CapturedImage) []byte {
	out, err := e.Encode(img)
	if err != nil {
		log.Printf("ENCODER: %v", err)
		return nil
	}
	return out
}

// Encode writes img as a single-frame PNG. Resources taken from the pools
// are returned on every path in reverse order of acquisition.
func (e *Encoder) Encode(img *screenshot.CapturedImage) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, &EncodeError{Stage: StageWrap, Err: err}
	}
	scratch := e.scratch()
	buf := scratch.Get(len(img.Pix))
	if len(buf) < len(img.Pix) {
		if buf != nil {
			scratch.Put(buf)
		}
		return nil, &EncodeError{Stage: StageWrap, Err: fmt.Errorf("scratch buffer of %d bytes unavailable", len(img.Pix))}
	}
	defer scratch.Put(buf)
	frame := wrap(img, buf[:len(img.Pix)])

	streams := e.streams()
	stream := streams.Get()
	if stream == nil {
		return nil, &EncodeError{Stage: StageStream, Err: errNoStream}
	}
	defer streams.Put(stream)
	stream.Reset()

	enc := png.Encoder{CompressionLevel: e.Compression, BufferPool: e.buffers()}
	if err := enc.Encode(stream, frame); err != nil {
		return nil, &EncodeError{Stage: StageFrame, Err: err}
	}

	if f, ok := stream.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return nil, &EncodeError{Stage: StageCommit, Err: err}
		}
	}
	if stream.Len() == 0 {
		return nil, &EncodeError{Stage: StageCommit, Err: errNoData}
	}

	out := make([]byte, stream.Len())
	if _, err := io.ReadFull(stream, out); err != nil {
		return nil, &EncodeError{Stage: StageRead, Err: err}
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		return nil, &EncodeError{Stage: StageRead, Err: err}
	}
	if cfg.Width != img.Width || cfg.Height != img.Height {
		return nil, &EncodeError{Stage: StageRead, Err: fmt.Errorf("read back %dx%d, wrote %dx%d", cfg.Width, cfg.Height, img.Width, img.Height)}
	}
	return out, nil
}

// wrap reorders BGRA into the NRGBA layout the PNG writer expects.
func wrap(img *screenshot.CapturedImage, pix []byte) *image.NRGBA {
	for i := 0; i < len(pix); i += screenshot.BytesPerPixel {
		pix[i] = img.Pix[i+2]
		pix[i+1] = img.Pix[i+1]
		pix[i+2] = img.Pix[i]
		pix[i+3] = img.Pix[i+3]
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: img.Stride(),
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// ParseCompression maps a config value to a PNG compression level.
func ParseCompression(value string) png.CompressionLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fast", "speed":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	case "none", "off":
		return png.NoCompression
	default:
		return png.DefaultCompression
	}
}

func (e *Encoder) buffers() png.EncoderBufferPool {
	if e.Buffers != nil {
		return e.Buffers
	}
	return defaultBuffers
}

func (e *Encoder) streams() StreamPool {
	if e.Streams != nil {
		return e.Streams
	}
	return defaultStreams
}

func (e *Encoder) scratch() ScratchPool {
	if e.Scratch != nil {
		return e.Scratch
	}
	return defaultScratch
}

type syncBufferPool struct{ p sync.Pool }

func (s *syncBufferPool) Get() *png.EncoderBuffer {
	b, _ := s.p.Get().(*png.EncoderBuffer)
	return b
}

func (s *syncBufferPool) Put(b *png.EncoderBuffer) { s.p.Put(b) }

type syncStreamPool struct{ p sync.Pool }

func (s *syncStreamPool) Get() Stream {
	if b, ok := s.p.Get().(*bytes.Buffer); ok {
		return b
	}
	return new(bytes.Buffer)
}

func (s *syncStreamPool) Put(st Stream) {
	if b, ok := st.(*bytes.Buffer); ok {
		b.Reset()
		s.p.Put(b)
	}
}

type syncScratchPool struct{ p sync.Pool }

func (s *syncScratchPool) Get(size int) []byte {
	if b, ok := s.p.Get().(*[]byte); ok && cap(*b) >= size {
		return (*b)[:size]
	}
	return make([]byte, size)
}

func (s *syncScratchPool) Put(b []byte) {
	b = b[:0]
	s.p.Put(&b)
}
