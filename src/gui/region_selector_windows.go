//go:build windows

package gui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"screenshot-plugin/src/screenshot"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	overlayClassName = "ScreenshotPluginOverlay"
	lwaAlpha         = 0x2
	borderWidth      = 2
)

var (
	backdropColor = win.RGB(0, 0, 0)
	clearColor    = win.RGB(255, 255, 255)
	borderColor   = win.RGB(0, 120, 215)
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	gdi32                          = windows.NewLazySystemDLL("gdi32.dll")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procFillRect                   = user32.NewProc("FillRect")
	procCreateSolidBrush           = gdi32.NewProc("CreateSolidBrush")
	procCreatePen                  = gdi32.NewProc("CreatePen")

	registerOnce  sync.Once
	registerErr   error
	overlayClass  *uint16
	overlayWndPtr = syscall.NewCallback(overlayWndProc)
)

// registerOverlayClass registers the window class once per process so the
// window procedure callback is created only once.
func registerOverlayClass() error {
	registerOnce.Do(func() {
		overlayClass = syscall.StringToUTF16Ptr(overlayClassName)
		wc := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			Style:         win.CS_HREDRAW | win.CS_VREDRAW,
			LpfnWndProc:   overlayWndPtr,
			HInstance:     win.GetModuleHandle(nil),
			HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
			HbrBackground: 0, // painted in WM_PAINT
			LpszClassName: overlayClass,
		}
		if atom := win.RegisterClassEx(&wc); atom == 0 {
			registerErr = fmt.Errorf("failed to register overlay window class: %v", windows.GetLastError())
			return
		}
		log.Printf("OVERLAY: window class registered")
	})
	return registerErr
}

func selectRegion(ctx context.Context, opts Options) (screenshot.Rect, bool, error) {
	// The overlay window belongs to this thread; its messages are pumped here.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	sel, err := sessions.begin()
	if err != nil {
		return screenshot.Rect{}, false, err
	}
	defer sessions.end(sel)

	if err := registerOverlayClass(); err != nil {
		return screenshot.Rect{}, false, err
	}

	screenshot.EnableDPIAwareness()
	width := win.GetSystemMetrics(win.SM_CXSCREEN)
	height := win.GetSystemMetrics(win.SM_CYSCREEN)

	hwnd := win.CreateWindowEx(
		win.WS_EX_LAYERED|win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		overlayClass,
		syscall.StringToUTF16Ptr("Screenshot Overlay"),
		win.WS_POPUP,
		0, 0, width, height,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		return screenshot.Rect{}, false, fmt.Errorf("failed to create overlay window: %v", windows.GetLastError())
	}
	sessions.attach(uintptr(hwnd), sel)
	log.Printf("OVERLAY: window %v created, %dx%d", hwnd, width, height)

	procSetLayeredWindowAttributes.Call(uintptr(hwnd), 0, uintptr(opts.opacity()), lwaAlpha)
	win.ShowWindow(hwnd, win.SW_SHOW)
	win.UpdateWindow(hwnd)
	win.SetForegroundWindow(hwnd)
	win.SetFocus(hwnd)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
		case <-done:
		}
	}()

	pumpErr := pump(sel)

	// The window is normally destroyed by the handler on the terminal
	// transition; make sure it is gone on every other path too.
	if sessions.lookup(uintptr(hwnd)) != nil {
		win.DestroyWindow(hwnd)
	}
	if pumpErr != nil {
		return screenshot.Rect{}, false, pumpErr
	}

	rect, ok := sel.Outcome()
	log.Printf("OVERLAY: session ended in state %s", sel.State())
	return rect, ok, nil
}

// pump dispatches thread messages until the session reaches a terminal state.
func pump(sel *Selection) error {
	var msg win.MSG
	for !sel.Done() {
		switch win.GetMessage(&msg, 0, 0, 0) {
		case 0:
			// Someone else asked the thread to quit: end the session and
			// leave WM_QUIT for the outer loop.
			sel.Cancel()
			win.PostQuitMessage(int32(msg.WParam))
			return nil
		case -1:
			sel.Cancel()
			return errors.New("overlay message loop failed")
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	return nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	sel := sessions.lookup(uintptr(hwnd))
	if sel == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN:
		apply(hwnd, sel.Press(pointFromLParam(lParam)))
		return 0
	case win.WM_MOUSEMOVE:
		apply(hwnd, sel.Move(pointFromLParam(lParam)))
		return 0
	case win.WM_LBUTTONUP:
		apply(hwnd, sel.Release(pointFromLParam(lParam)))
		return 0
	case win.WM_RBUTTONDOWN:
		apply(hwnd, sel.Cancel())
		return 0
	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			apply(hwnd, sel.Cancel())
		}
		return 0
	case win.WM_CLOSE:
		apply(hwnd, sel.Cancel())
		return 0
	case win.WM_ERASEBKGND:
		return 1
	case win.WM_PAINT:
		paint(hwnd, sel)
		return 0
	case win.WM_DESTROY:
		sessions.detach(uintptr(hwnd))
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// apply carries out the window-side part of a state transition.
func apply(hwnd win.HWND, effect Effect) {
	if effect.Has(EffectCapturePointer) {
		win.SetCapture(hwnd)
	}
	if effect.Has(EffectReleasePointer) {
		win.ReleaseCapture()
	}
	if effect.Has(EffectClose) {
		win.DestroyWindow(hwnd)
		return
	}
	if effect.Has(EffectRedraw) {
		win.InvalidateRect(hwnd, nil, false)
	}
}

// pointFromLParam extracts signed client coordinates; with pointer capture
// they go negative left of or above the window.
func pointFromLParam(lParam uintptr) screenshot.Point {
	return screenshot.Point{
		X: int(int16(win.LOWORD(uint32(lParam)))),
		Y: int(int16(win.HIWORD(uint32(lParam)))),
	}
}

// paint draws the backdrop and the current selection into an off-screen
// bitmap, then copies it to the window in one blit.
func paint(hwnd win.HWND, sel *Selection) {
	var ps win.PAINTSTRUCT
	hdc := win.BeginPaint(hwnd, &ps)
	defer win.EndPaint(hwnd, &ps)
	if hdc == 0 {
		return
	}

	var client win.RECT
	win.GetClientRect(hwnd, &client)
	width, height := client.Right-client.Left, client.Bottom-client.Top

	memDC := win.CreateCompatibleDC(hdc)
	if memDC == 0 {
		return
	}
	defer win.DeleteDC(memDC)

	bmp := win.CreateCompatibleBitmap(hdc, width, height)
	if bmp == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(bmp))

	old := win.SelectObject(memDC, win.HGDIOBJ(bmp))
	defer win.SelectObject(memDC, old)

	fillRect(memDC, &client, backdropColor)

	if r, ok := sel.Highlight(); ok {
		area := win.RECT{Left: int32(r.Left), Top: int32(r.Top), Right: int32(r.Right), Bottom: int32(r.Bottom)}
		fillRect(memDC, &area, clearColor)
		drawBorder(memDC, area)
	}

	win.BitBlt(hdc, 0, 0, width, height, memDC, 0, 0, win.SRCCOPY)
}

func fillRect(hdc win.HDC, r *win.RECT, color win.COLORREF) {
	brush, _, _ := procCreateSolidBrush.Call(uintptr(color))
	if brush == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(brush))
	procFillRect.Call(uintptr(hdc), uintptr(unsafe.Pointer(r)), brush)
}

func drawBorder(hdc win.HDC, r win.RECT) {
	pen, _, _ := procCreatePen.Call(win.PS_SOLID, borderWidth, uintptr(borderColor))
	if pen == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(pen))

	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	defer win.SelectObject(hdc, oldPen)
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))
	defer win.SelectObject(hdc, oldBrush)

	win.Rectangle_(hdc, r.Left, r.Top, r.Right, r.Bottom)
}
