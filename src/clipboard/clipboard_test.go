package clipboard

import (
	"testing"
)

func TestWriteImageRejectsEmpty(t *testing.T) {
	if err := WriteImage(nil); err == nil {
		t.Error("Expected error for empty image data")
	}
}

func TestWriteImage(t *testing.T) {
	// Requires a clipboard; headless environments only log.
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	if err := WriteImage(png); err != nil {
		t.Logf("Failed to write image to clipboard: %v", err)
	}
}
