//go:build !windows

package tray

func platformIcon(png []byte, size int) []byte {
	return png
}
