package icon

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// pngBytes returns a w x h PNG image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// icoBytes returns an ICONDIR with one entry per size. Image data is omitted;
// only the directory is read when sizing. kind is 1 for ICO and 2 for CUR.
func icoBytes(kind uint16, sizes ...[2]int) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, kind, uint16(len(sizes))}) //nolint:gosec // Small test counts
	for _, s := range sizes {
		entry := make([]byte, icoEntrySize)
		entry[0] = byte(s[0] % 256)
		entry[1] = byte(s[1] % 256)
		buf.Write(entry)
	}
	return buf.Bytes()
}
