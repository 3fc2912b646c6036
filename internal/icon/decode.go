package icon

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"io"
	"math"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

const (
	// icoHeaderSize is the ICONDIR header length.
	icoHeaderSize = 6
	// icoEntrySize is the ICONDIRENTRY length.
	icoEntrySize = 16
	// svgSniffLen is how much of a body is inspected for an <svg tag.
	svgSniffLen = 1024
	// maxDimension caps a reported width or height so areas cannot overflow.
	maxDimension = 1 << 16
)

// Size holds decoded image dimensions.
type Size struct {
	Width  int
	Height int

	// Format is the detected format: "png", "jpeg", "gif", "webp", "bmp",
	// "tiff", "ico", "cur", or "svg".
	Format string
}

// Area returns Width * Height.
func (s Size) Area() int {
	return s.Width * s.Height
}

// DecodeSize determines the pixel dimensions of an icon without decoding
// its pixels. ICO and CUR files report their largest directory entry. SVG
// files report their width and height attributes, or the viewBox size when
// those are missing or relative. A zero area is an error.
func DecodeSize(data []byte) (Size, error) {
	size, err := decodeSize(data)
	if err != nil {
		return Size{}, err
	}
	if size.Width <= 0 || size.Height <= 0 {
		return Size{}, fmt.Errorf("%w: empty %s image", ErrDecode, size.Format)
	}
	size.Width = min(size.Width, maxDimension)
	size.Height = min(size.Height, maxDimension)
	return size, nil
}

// decodeSize tries the ICO directory, then the registered raster decoders,
// and only then SVG, so raster metadata mentioning <svg is not misread.
func decodeSize(data []byte) (Size, error) {
	if size, ok := decodeICO(data); ok {
		return size, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return Size{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
	}
	if looksLikeSVG(data) {
		return decodeSVG(data)
	}
	return Size{}, fmt.Errorf("%w: %w", ErrDecode, err)
}

// decodeICO reads an ICONDIR and returns its largest entry. In an entry a
// width or height byte of 0 means 256 pixels.
func decodeICO(data []byte) (Size, bool) {
	if len(data) < icoHeaderSize {
		return Size{}, false
	}
	reserved := binary.LittleEndian.Uint16(data[0:2])
	kind := binary.LittleEndian.Uint16(data[2:4])
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if reserved != 0 || (kind != 1 && kind != 2) || count == 0 {
		return Size{}, false
	}
	if len(data) < icoHeaderSize+count*icoEntrySize {
		return Size{}, false
	}

	format := "ico"
	if kind == 2 {
		format = "cur"
	}

	best := Size{Format: format}
	for i := range count {
		entry := data[icoHeaderSize+i*icoEntrySize:]
		w, h := int(entry[0]), int(entry[1])
		if w == 0 {
			w = 256
		}
		if h == 0 {
			h = 256
		}
		if w*h > best.Area() {
			best.Width, best.Height = w, h
		}
	}
	return best, true
}

// looksLikeSVG reports whether the start of data contains an <svg tag.
func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > svgSniffLen {
		head = head[:svgSniffLen]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// decodeSVG reads the root <svg> element's dimensions.
func decodeSVG(data []byte) (Size, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return Size{}, fmt.Errorf("%w: no svg element", ErrDecode)
		}
		if err != nil {
			return Size{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "svg") {
			continue
		}

		var width, height, viewBox string
		for _, attr := range start.Attr {
			switch strings.ToLower(attr.Name.Local) {
			case "width":
				width = attr.Value
			case "height":
				height = attr.Value
			case "viewbox":
				viewBox = attr.Value
			}
		}

		size := Size{Format: "svg"}
		w, wok := parseLength(width)
		h, hok := parseLength(height)
		if wok && hok {
			size.Width, size.Height = w, h
			return size, nil
		}

		vw, vh, vok := parseViewBox(viewBox)
		if !vok {
			return Size{}, fmt.Errorf("%w: svg without usable dimensions", ErrDecode)
		}
		// A single absolute dimension scales the viewBox proportionally.
		switch {
		case wok:
			size.Width, size.Height = w, clampDimension(float64(w)*vh/vw)
		case hok:
			size.Width, size.Height = clampDimension(float64(h)*vw/vh), h
		default:
			size.Width, size.Height = clampDimension(vw), clampDimension(vh)
		}
		return size, nil
	}
}

// parseLength parses an absolute SVG length such as "32", "32px", or "24.5".
// Percentages and other relative units are rejected.
func parseLength(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) {
		return 0, false
	}
	return clampDimension(v), true
}

// clampDimension rounds v to whole pixels, capped at maxDimension.
func clampDimension(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v >= maxDimension {
		return maxDimension
	}
	return int(math.Round(v))
}

// parseViewBox returns the width and height of a "min-x min-y width height" viewBox.
func parseViewBox(s string) (float64, float64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || !(w > 0) {
		return 0, 0, false
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || !(h > 0) {
		return 0, 0, false
	}
	return w, h, true
}
