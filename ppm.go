package vkcapture

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/cockroachdb/errors"
)

// ppmMaxValue is the declared per-channel maximum. Captures are always 8 bit
// per channel.
const ppmMaxValue = 255

func init() {
	image.RegisterFormat("ppm", "P6", decodePPMImage, DecodePPMConfig)
}

// EncodePPM writes the view to w as a binary PPM (P6) stream: the ASCII
// header followed by Width*Height*3 raw bytes, row-major, top to bottom, no
// row padding.
//
// Each 4-byte texel is reduced to 3 output bytes. With swapChannels false
// the first three bytes are written verbatim and the fourth (alpha) is
// dropped; with swapChannels true the first three bytes are written in
// reverse order, turning BGRA texels into RGB output.
func EncodePPM(w io.Writer, v *PixelView, swapChannels bool) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P6\n%d\n%d\n%d\n", v.Width(), v.Height(), ppmMaxValue); err != nil {
		return errors.Wrap(err, "vkcapture: write ppm header")
	}

	row := make([]byte, v.Width()*3)
	for y := 0; y < v.Height(); y++ {
		src := v.Row(y)
		for x := 0; x < v.Width(); x++ {
			si := x * texelSize
			di := x * 3
			if swapChannels {
				row[di] = src[si+2]
				row[di+1] = src[si+1]
				row[di+2] = src[si]
			} else {
				row[di] = src[si]
				row[di+1] = src[si+1]
				row[di+2] = src[si+2]
			}
		}
		if _, err := bw.Write(row); err != nil {
			return errors.Wrapf(err, "vkcapture: write ppm row %d", y)
		}
	}

	return errors.Wrap(bw.Flush(), "vkcapture: flush ppm stream")
}

// DecodePPM reads a binary PPM (P6) stream and returns it as an RGBA image
// with full alpha. Comments and arbitrary header whitespace are accepted;
// only 8-bit-per-channel images are supported.
func DecodePPM(r io.Reader) (*image.RGBA, error) {
	br := bufio.NewReader(r)

	magic, err := readPPMToken(br)
	if err != nil {
		return nil, errors.Wrap(err, "vkcapture: read ppm magic")
	}
	if magic != "P6" {
		return nil, errors.Newf("vkcapture: not a binary ppm: magic %q", magic)
	}

	width, err := readPPMInt(br)
	if err != nil {
		return nil, errors.Wrap(err, "vkcapture: read ppm width")
	}
	height, err := readPPMInt(br)
	if err != nil {
		return nil, errors.Wrap(err, "vkcapture: read ppm height")
	}
	maxVal, err := readPPMInt(br)
	if err != nil {
		return nil, errors.Wrap(err, "vkcapture: read ppm max value")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Newf("vkcapture: invalid ppm extent %dx%d", width, height)
	}
	if maxVal <= 0 || maxVal > ppmMaxValue {
		return nil, errors.Newf("vkcapture: unsupported ppm max value %d", maxVal)
	}

	raw := make([]byte, width*height*3)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, errors.Wrap(err, "vkcapture: read ppm pixels")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4] = raw[i*3]
		img.Pix[i*4+1] = raw[i*3+1]
		img.Pix[i*4+2] = raw[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}
	return img, nil
}

// DecodePPMConfig reads only the PPM header, for image.DecodeConfig.
func DecodePPMConfig(r io.Reader) (image.Config, error) {
	br := bufio.NewReader(r)

	magic, err := readPPMToken(br)
	if err != nil {
		return image.Config{}, errors.Wrap(err, "vkcapture: read ppm magic")
	}
	if magic != "P6" {
		return image.Config{}, errors.Newf("vkcapture: not a binary ppm: magic %q", magic)
	}
	width, err := readPPMInt(br)
	if err != nil {
		return image.Config{}, errors.Wrap(err, "vkcapture: read ppm width")
	}
	height, err := readPPMInt(br)
	if err != nil {
		return image.Config{}, errors.Wrap(err, "vkcapture: read ppm height")
	}
	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      width,
		Height:     height,
	}, nil
}

func decodePPMImage(r io.Reader) (image.Image, error) {
	return DecodePPM(r)
}

// readPPMToken skips whitespace and # comments and returns the next header
// token. PPM headers separate tokens with arbitrary whitespace.
func readPPMToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

func readPPMInt(br *bufio.Reader) (int, error) {
	tok, err := readPPMToken(br)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range []byte(tok) {
		if c < '0' || c > '9' {
			return 0, errors.Newf("invalid ppm integer %q", tok)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
