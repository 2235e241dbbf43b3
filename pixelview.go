package vkcapture

import (
	"github.com/cockroachdb/errors"
)

// texelSize is the byte size of one CaptureFormat texel.
const texelSize = 4

// PixelView is a bounds-checked view over a mapped, linearly tiled image
// region. It exposes pixel-at-(x,y) access honoring the driver-reported
// subresource offset and row pitch, so no caller performs raw offset
// arithmetic over the mapping.
type PixelView struct {
	data   []byte
	offset int
	stride int
	width  int
	height int
}

// NewPixelView wraps data, which must cover offset plus height rows of
// stride bytes each (the final row only needs width texels).
func NewPixelView(data []byte, offset, stride, width, height int) (*PixelView, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Newf("vkcapture: invalid view extent %dx%d", width, height)
	}
	if offset < 0 || stride < width*texelSize {
		return nil, errors.Newf("vkcapture: invalid view layout (offset %d, stride %d, width %d)", offset, stride, width)
	}
	need := offset + (height-1)*stride + width*texelSize
	if len(data) < need {
		return nil, errors.Newf("vkcapture: mapped region too small: have %d bytes, need %d", len(data), need)
	}
	return &PixelView{
		data:   data,
		offset: offset,
		stride: stride,
		width:  width,
		height: height,
	}, nil
}

// Width returns the view width in pixels.
func (v *PixelView) Width() int {
	return v.width
}

// Height returns the view height in pixels.
func (v *PixelView) Height() int {
	return v.height
}

// Stride returns the byte distance between consecutive scanlines. It may
// exceed Width*4 due to driver row alignment.
func (v *PixelView) Stride() int {
	return v.stride
}

// At returns the 4 packed bytes of the pixel at (x, y).
// It panics when (x, y) is outside the view, like image.RGBA.
func (v *PixelView) At(x, y int) [4]byte {
	if x < 0 || x >= v.width || y < 0 || y >= v.height {
		panic(errors.Newf("vkcapture: pixel (%d, %d) outside %dx%d view", x, y, v.width, v.height))
	}
	i := v.offset + y*v.stride + x*texelSize
	return [4]byte{v.data[i], v.data[i+1], v.data[i+2], v.data[i+3]}
}

// Row returns the packed texels of scanline y, exactly Width*4 bytes with
// the row padding trimmed. The slice aliases the mapped region.
func (v *PixelView) Row(y int) []byte {
	if y < 0 || y >= v.height {
		panic(errors.Newf("vkcapture: row %d outside %dx%d view", y, v.width, v.height))
	}
	i := v.offset + y*v.stride
	return v.data[i : i+v.width*texelSize : i+v.width*texelSize]
}
