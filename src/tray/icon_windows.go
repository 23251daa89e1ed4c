//go:build windows

package tray

// The Windows tray only accepts ICO data.
func platformIcon(png []byte, size int) []byte {
	return wrapICO(png, size)
}
