//go:build windows

package screenshot

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	captureBlt    = 0x40000000 // CAPTUREBLT: include layered windows
	cursorShowing = 0x00000001 // CURSOR_SHOWING
	diNormal      = 0x0003     // DI_NORMAL
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	shcore                 = windows.NewLazySystemDLL("Shcore.dll")
	procGetCursorInfo      = user32.NewProc("GetCursorInfo")
	procGetIconInfo        = user32.NewProc("GetIconInfo")
	procDrawIconEx         = user32.NewProc("DrawIconEx")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
	procSetDpiAwareness    = shcore.NewProc("SetProcessDpiAwareness")

	dpiOnce sync.Once
)

type cursorInfo struct {
	CbSize      uint32
	Flags       uint32
	HCursor     win.HCURSOR
	PtScreenPos win.POINT
}

type iconInfo struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  win.HBITMAP
	HbmColor win.HBITMAP
}

// EnableDPIAwareness marks the process DPI-aware so that metrics and BitBlt
// work in physical pixels. Safe to call more than once.
func EnableDPIAwareness() {
	dpiOnce.Do(func() {
		const processPerMonitorDPIAware = 2
		if err := procSetDpiAwareness.Find(); err == nil {
			if ret, _, _ := procSetDpiAwareness.Call(processPerMonitorDPIAware); ret == 0 {
				log.Printf("DPI: per-monitor awareness enabled")
				return
			}
		}
		if err := procSetProcessDPIAware.Find(); err == nil {
			ret, _, _ := procSetProcessDPIAware.Call()
			log.Printf("DPI: system awareness fallback returned %d", ret)
		}
	})
}

type gdiCapturer struct{}

func newPlatformCapturer() Capturer { return gdiCapturer{} }

func (gdiCapturer) PrimaryBounds() (Rect, error) {
	EnableDPIAwareness()
	w := int(win.GetSystemMetrics(win.SM_CXSCREEN))
	h := int(win.GetSystemMetrics(win.SM_CYSCREEN))
	if w <= 0 || h <= 0 {
		return Rect{}, &CaptureError{Op: "GetSystemMetrics", Code: lastErrorCode(), Err: fmt.Errorf("display reports %dx%d", w, h)}
	}
	return Rect{Right: w, Bottom: h}, nil
}

func (c gdiCapturer) CaptureScreen(includeCursor bool) (*CapturedImage, error) {
	bounds, err := c.PrimaryBounds()
	if err != nil {
		return nil, err
	}
	return blitArea(bounds, includeCursor)
}

func (c gdiCapturer) CaptureRect(r Rect) (*CapturedImage, error) {
	if r.Empty() {
		return nil, &CaptureError{Op: "CaptureRect", Err: fmt.Errorf("empty rectangle %v", r)}
	}
	EnableDPIAwareness()
	return blitArea(r, false)
}

// blitArea copies r from the screen DC into a top-down DIB section and
// returns its pixels. Every GDI object is released in reverse order of
// acquisition on all paths.
func blitArea(r Rect, includeCursor bool) (*CapturedImage, error) {
	width, height := int32(r.Width()), int32(r.Height())

	hdcScreen := win.GetDC(0)
	if hdcScreen == 0 {
		return nil, &CaptureError{Op: "GetDC", Code: lastErrorCode(), Err: errors.New("no screen device context")}
	}
	defer win.ReleaseDC(0, hdcScreen)

	hdcMem := win.CreateCompatibleDC(hdcScreen)
	if hdcMem == 0 {
		return nil, &CaptureError{Op: "CreateCompatibleDC", Code: lastErrorCode(), Err: errors.New("no memory device context")}
	}
	defer win.DeleteDC(hdcMem)

	header := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       width,
		BiHeight:      -height, // top-down
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	hBitmap := win.CreateDIBSection(hdcMem, &header, win.DIB_RGB_COLORS, &bits, 0, 0)
	if hBitmap == 0 || bits == nil {
		return nil, &CaptureError{Op: "CreateDIBSection", Code: lastErrorCode(), Err: fmt.Errorf("cannot allocate %dx%d surface", width, height)}
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	old := win.SelectObject(hdcMem, win.HGDIOBJ(hBitmap))
	if old == 0 {
		return nil, &CaptureError{Op: "SelectObject", Code: lastErrorCode(), Err: errors.New("cannot select surface")}
	}
	defer win.SelectObject(hdcMem, old)

	if !win.BitBlt(hdcMem, 0, 0, width, height, hdcScreen, int32(r.Left), int32(r.Top), win.SRCCOPY|captureBlt) {
		return nil, &CaptureError{Op: "BitBlt", Code: lastErrorCode(), Err: errors.New("block copy from display failed")}
	}

	if includeCursor {
		drawCursor(hdcMem, r)
	}

	img := &CapturedImage{
		Pix:    make([]byte, int(width)*int(height)*BytesPerPixel),
		Width:  int(width),
		Height: int(height),
	}
	copy(img.Pix, unsafe.Slice((*byte)(bits), len(img.Pix)))
	// GDI leaves the alpha byte undefined for screen copies.
	for i := 3; i < len(img.Pix); i += BytesPerPixel {
		img.Pix[i] = 0xFF
	}
	return img, nil
}

// drawCursor composites the visible cursor glyph at its hotspot-adjusted
// position. A hidden cursor or a failed query leaves the surface untouched.
func drawCursor(hdc win.HDC, origin Rect) {
	ci := cursorInfo{CbSize: uint32(unsafe.Sizeof(cursorInfo{}))}
	if ret, _, err := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci))); ret == 0 {
		log.Printf("CAPTURE: GetCursorInfo failed: %v", err)
		return
	}
	if ci.Flags&cursorShowing == 0 || ci.HCursor == 0 {
		return
	}

	var ii iconInfo
	if ret, _, err := procGetIconInfo.Call(uintptr(ci.HCursor), uintptr(unsafe.Pointer(&ii))); ret == 0 {
		log.Printf("CAPTURE: GetIconInfo failed: %v", err)
		return
	}
	if ii.HbmMask != 0 {
		defer win.DeleteObject(win.HGDIOBJ(ii.HbmMask))
	}
	if ii.HbmColor != 0 {
		defer win.DeleteObject(win.HGDIOBJ(ii.HbmColor))
	}

	x := ci.PtScreenPos.X - int32(ii.XHotspot) - int32(origin.Left)
	y := ci.PtScreenPos.Y - int32(ii.YHotspot) - int32(origin.Top)
	if ret, _, err := procDrawIconEx.Call(uintptr(hdc), uintptr(x), uintptr(y), uintptr(ci.HCursor), 0, 0, 0, 0, diNormal); ret == 0 {
		log.Printf("CAPTURE: DrawIconEx failed: %v", err)
	}
}

func lastErrorCode() uint32 {
	var errno windows.Errno
	if errors.As(windows.GetLastError(), &errno) {
		return uint32(errno)
	}
	return 0
}
