package encoder

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"screenshot-plugin/src/screenshot"
)

func solid(w, h int, b, g, r, a byte) *screenshot.CapturedImage {
	img := &screenshot.CapturedImage{Pix: make([]byte, w*h*4), Width: w, Height: h}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = b, g, r, a
	}
	return img
}

func TestPNGRoundTripKeepsSizeAndChannelOrder(t *testing.T) {
	img := solid(7, 3, 30, 20, 10, 255)

	out := PNG(img)
	if len(out) == 0 {
		t.Fatal("Expected PNG bytes, got empty result")
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output is not a valid PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 7 || b.Dy() != 3 {
		t.Fatalf("Expected 7x3 image, got %dx%d", b.Dx(), b.Dy())
	}
	r, g, b, a := decoded.At(4, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 || a>>8 != 255 {
		t.Errorf("Expected RGBA(10,20,30,255), got (%d,%d,%d,%d)", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestPNGKeepsAlpha(t *testing.T) {
	out := PNG(solid(2, 2, 0, 0, 255, 128))
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output is not a valid PNG: %v", err)
	}
	if _, _, _, a := decoded.At(0, 0).RGBA(); a>>8 != 128 {
		t.Errorf("Expected alpha 128, got %d", a>>8)
	}
}

func TestPNGEmptyOnInvalidImage(t *testing.T) {
	tests := []struct {
		name string
		img  *screenshot.CapturedImage
	}{
		{"nil image", nil},
		{"empty buffer", &screenshot.CapturedImage{Width: 4, Height: 4}},
		{"buffer too short", &screenshot.CapturedImage{Pix: make([]byte, 10), Width: 4, Height: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := PNG(tt.img); len(out) != 0 {
				t.Fatalf("Expected empty result, got %d bytes", len(out))
			}
		})
	}
}

func TestParseCompression(t *testing.T) {
	tests := map[string]png.CompressionLevel{
		"":        png.DefaultCompression,
		"fast":    png.BestSpeed,
		" BEST ":  png.BestCompression,
		"none":    png.NoCompression,
		"unknown": png.DefaultCompression,
	}
	for in, want := range tests {
		if got := ParseCompression(in); got != want {
			t.Errorf("ParseCompression(%q) = %v, want %v", in, got, want)
		}
	}
}

// countingPools records every acquisition and release so tests can check
// that a failed encode gives back everything it took.
type countingPools struct {
	bufferGets, bufferPuts   int
	streamGets, streamPuts   int
	scratchGets, scratchPuts int

	stream   Stream
	noStream bool
}

func (c *countingPools) Get() *png.EncoderBuffer { c.bufferGets++; return nil }

func (c *countingPools) Put(*png.EncoderBuffer) { c.bufferPuts++ }

type streamSide struct{ c *countingPools }

func (s streamSide) Get() Stream {
	if s.c.noStream {
		return nil
	}
	s.c.streamGets++
	return s.c.stream
}

func (s streamSide) Put(Stream) { s.c.streamPuts++ }

type scratchSide struct{ c *countingPools }

func (s scratchSide) Get(size int) []byte { s.c.scratchGets++; return make([]byte, size) }

func (s scratchSide) Put([]byte) { s.c.scratchPuts++ }

func (c *countingPools) encoder() *Encoder {
	return &Encoder{Buffers: c, Streams: streamSide{c}, Scratch: scratchSide{c}}
}

func (c *countingPools) balanced() bool {
	return c.bufferGets == c.bufferPuts && c.streamGets == c.streamPuts && c.scratchGets == c.scratchPuts
}

// faultyStream wraps a buffer and fails the configured operation.
type faultyStream struct {
	bytes.Buffer
	failWriteAfter int
	failFlush      bool
	failRead       bool
	written        int
}

var errInjected = errors.New("injected failure")

func (f *faultyStream) Write(p []byte) (int, error) {
	if f.failWriteAfter >= 0 && f.written+len(p) > f.failWriteAfter {
		return 0, errInjected
	}
	f.written += len(p)
	return f.Buffer.Write(p)
}

func (f *faultyStream) Read(p []byte) (int, error) {
	if f.failRead {
		return 0, errInjected
	}
	return f.Buffer.Read(p)
}

func (f *faultyStream) Flush() error {
	if f.failFlush {
		return errInjected
	}
	return nil
}

func TestEncodeFailuresReleaseResources(t *testing.T) {
	img := solid(16, 16, 1, 2, 3, 255)

	tests := []struct {
		name      string
		pools     *countingPools
		img       *screenshot.CapturedImage
		wantStage string
	}{
		{
			name:      "invalid image fails before acquiring anything",
			pools:     &countingPools{stream: &faultyStream{failWriteAfter: -1}},
			img:       &screenshot.CapturedImage{Width: 1, Height: 1},
			wantStage: StageWrap,
		},
		{
			name:      "no stream",
			pools:     &countingPools{noStream: true},
			img:       img,
			wantStage: StageStream,
		},
		{
			name:      "signature write fails",
			pools:     &countingPools{stream: &faultyStream{failWriteAfter: 0}},
			img:       img,
			wantStage: StageFrame,
		},
		{
			name:      "pixel data write fails",
			pools:     &countingPools{stream: &faultyStream{failWriteAfter: 40}},
			img:       img,
			wantStage: StageFrame,
		},
		{
			name:      "commit fails",
			pools:     &countingPools{stream: &faultyStream{failWriteAfter: -1, failFlush: true}},
			img:       img,
			wantStage: StageCommit,
		},
		{
			name:      "read back fails",
			pools:     &countingPools{stream: &faultyStream{failWriteAfter: -1, failRead: true}},
			img:       img,
			wantStage: StageRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := tt.pools.encoder()

			out, err := enc.Encode(tt.img)
			if err == nil {
				t.Fatalf("Expected failure, got %d bytes", len(out))
			}
			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("Expected *EncodeError, got %T: %v", err, err)
			}
			if encErr.Stage != tt.wantStage {
				t.Errorf("Expected stage %q, got %q (%v)", tt.wantStage, encErr.Stage, err)
			}
			if len(out) != 0 {
				t.Errorf("Expected empty output on failure, got %d bytes", len(out))
			}
			if !tt.pools.balanced() {
				t.Errorf("Resources leaked: %+v", *tt.pools)
			}
			if got := enc.PNG(tt.img); len(got) != 0 {
				t.Errorf("PNG() should be empty on failure, got %d bytes", len(got))
			}
		})
	}
}

func TestEncodeSuccessReleasesResources(t *testing.T) {
	pools := &countingPools{stream: &faultyStream{failWriteAfter: -1}}
	out, err := pools.encoder().Encode(solid(3, 5, 9, 9, 9, 255))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Expected PNG bytes")
	}
	if pools.streamGets != 1 || pools.scratchGets != 1 || pools.bufferGets != 1 {
		t.Errorf("Expected one acquisition per pool, got %+v", *pools)
	}
	if !pools.balanced() {
		t.Errorf("Resources leaked: %+v", *pools)
	}
}
