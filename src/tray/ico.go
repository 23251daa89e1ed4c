package tray

import (
	"bytes"
	"encoding/binary"
)

const (
	icoHeaderSize = 6
	icoEntrySize  = 16
)

// wrapICO stores a single PNG image in an ICO container.
func wrapICO(png []byte, size int) []byte {
	if len(png) == 0 {
		return nil
	}
	dim := byte(size)
	if size >= 256 {
		dim = 0 // 0 means 256 in ICO headers
	}

	var buf bytes.Buffer
	buf.Grow(icoHeaderSize + icoEntrySize + len(png))
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Reserved, Type, Count uint16
	}{0, 1, 1})
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved byte
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{dim, dim, 0, 0, 1, 32, uint32(len(png)), icoHeaderSize + icoEntrySize})
	buf.Write(png)
	return buf.Bytes()
}
