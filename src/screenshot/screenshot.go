package screenshot

import (
	"errors"
	"fmt"
	"image"
)

// BytesPerPixel is the size of one BGRA pixel.
const BytesPerPixel = 4

// Point is a position in screen coordinates.
type Point struct {
	X int
	Y int
}

// Rect is a screen rectangle; Right and Bottom are exclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d) %dx%d", r.Left, r.Top, r.Right, r.Bottom, r.Width(), r.Height())
}

// NormalizeRect turns two drag corners into a canonical rectangle, so a
// bottom-right to top-left drag covers the same pixels as the forward drag.
func NormalizeRect(a, b Point) Rect {
	return Rect{
		Left:   min(a.X, b.X),
		Top:    min(a.Y, b.Y),
		Right:  max(a.X, b.X),
		Bottom: max(a.Y, b.Y),
	}
}

// CapturedImage is a top-down 32bpp pixel buffer in B,G,R,A order with a
// stride of Width*4.
type CapturedImage struct {
	Pix    []byte
	Width  int
	Height int
}

var ErrEmptyImage = errors.New("captured image is empty")

// Validate checks the buffer against the reported dimensions.
func (c *CapturedImage) Validate() error {
	if c == nil || len(c.Pix) == 0 {
		return ErrEmptyImage
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid image dimensions: width=%d, height=%d", c.Width, c.Height)
	}
	if want := c.Width * c.Height * BytesPerPixel; len(c.Pix) != want {
		return fmt.Errorf("pixel buffer holds %d bytes, %dx%d needs %d", len(c.Pix), c.Width, c.Height, want)
	}
	return nil
}

// Stride returns the row length in bytes.
func (c *CapturedImage) Stride() int { return c.Width * BytesPerPixel }

// Crop copies the part of the image covered by r (image coordinates) into a
// new buffer. The rectangle is clamped to the image first.
func (c *CapturedImage) Crop(r Rect) (*CapturedImage, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r.Left = max(r.Left, 0)
	r.Top = max(r.Top, 0)
	r.Right = min(r.Right, c.Width)
	r.Bottom = min(r.Bottom, c.Height)
	if r.Empty() {
		return nil, fmt.Errorf("crop rectangle %v lies outside %dx%d image", r, c.Width, c.Height)
	}

	out := &CapturedImage{
		Pix:    make([]byte, r.Width()*r.Height()*BytesPerPixel),
		Width:  r.Width(),
		Height: r.Height(),
	}
	srcStride := c.Stride()
	dstStride := out.Stride()
	for y := 0; y < out.Height; y++ {
		src := (r.Top+y)*srcStride + r.Left*BytesPerPixel
		copy(out.Pix[y*dstStride:(y+1)*dstStride], c.Pix[src:src+dstStride])
	}
	return out, nil
}

// FromRGBA converts an RGBA image into a BGRA capture, forcing alpha opaque.
func FromRGBA(img *image.RGBA) *CapturedImage {
	b := img.Bounds()
	out := &CapturedImage{
		Pix:    make([]byte, b.Dx()*b.Dy()*BytesPerPixel),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	for y := 0; y < out.Height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride():]
		for x := 0; x < out.Width; x++ {
			i := x * BytesPerPixel
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = 0xFF
		}
	}
	return out
}
