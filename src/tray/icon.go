package tray

import (
	"sync"

	"screenshot-plugin/src/encoder"
	"screenshot-plugin/src/screenshot"
)

const iconSize = 32

var (
	iconOnce  sync.Once
	iconBytes []byte
)

// Icon returns the tray icon in the format the platform tray expects.
func Icon() []byte {
	iconOnce.Do(func() {
		png := encoder.PNG(drawIcon(iconSize))
		iconBytes = platformIcon(png, iconSize)
	})
	return iconBytes
}

// drawIcon paints a selection frame with a light interior on a transparent
// background, in the overlay's colours.
func drawIcon(size int) *screenshot.CapturedImage {
	img := &screenshot.CapturedImage{
		Pix:    make([]byte, size*size*screenshot.BytesPerPixel),
		Width:  size,
		Height: size,
	}
	set := func(x, y int, b, g, r, a byte) {
		i := (y*size + x) * screenshot.BytesPerPixel
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = b, g, r, a
	}

	inset := size / 8
	border := size / 16
	if border < 1 {
		border = 1
	}
	for y := inset; y < size-inset; y++ {
		for x := inset; x < size-inset; x++ {
			edge := x < inset+border || x >= size-inset-border || y < inset+border || y >= size-inset-border
			if edge {
				set(x, y, 215, 120, 0, 255)
			} else {
				set(x, y, 255, 255, 255, 160)
			}
		}
	}
	return img
}
