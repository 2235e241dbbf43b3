// Package compare measures how closely two rendered frames match.
//
// Metrics are computed over the RGB channels of 8-bit images: mean squared
// error, peak signal-to-noise ratio against a 255 data range, and the
// per-channel maximum absolute difference. Alpha is ignored. When the two
// images have different extents the comparison image is rescaled to the
// reference extent first, so captures taken at mismatched resolutions still
// produce a meaningful score.
package compare

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Metrics holds the similarity measurements for one image pair.
type Metrics struct {
	// MSE is the mean squared error over all RGB samples.
	MSE float64

	// PSNR is the peak signal-to-noise ratio in decibels, +Inf when the
	// images are identical.
	PSNR float64

	// MaxDiff is the maximum absolute difference observed per channel,
	// in R, G, B order.
	MaxDiff [3]uint8
}

// Images computes Metrics for cmp against the reference ref.
func Images(ref, cmp image.Image) Metrics {
	r := toRGBA(ref)
	c := fitTo(r.Bounds(), cmp)

	var sum float64
	var m Metrics
	w := r.Bounds().Dx()
	h := r.Bounds().Dy()
	for y := 0; y < h; y++ {
		ro := r.PixOffset(r.Bounds().Min.X, r.Bounds().Min.Y+y)
		co := c.PixOffset(c.Bounds().Min.X, c.Bounds().Min.Y+y)
		for x := 0; x < w; x++ {
			for ch := 0; ch < 3; ch++ {
				d := int(r.Pix[ro+ch]) - int(c.Pix[co+ch])
				if d < 0 {
					d = -d
				}
				if uint8(d) > m.MaxDiff[ch] {
					m.MaxDiff[ch] = uint8(d)
				}
				sum += float64(d) * float64(d)
			}
			ro += 4
			co += 4
		}
	}

	m.MSE = sum / float64(w*h*3)
	if m.MSE == 0 {
		m.PSNR = math.Inf(1)
	} else {
		m.PSNR = 10 * math.Log10(255.0*255.0/m.MSE)
	}
	return m
}

// Diff renders the absolute per-channel difference between ref and cmp as an
// opaque image, scaled by amplify and clamped to 255. Small errors are
// invisible at amplify 1; the conventional factor is 10.
func Diff(ref, cmp image.Image, amplify float64) *image.RGBA {
	r := toRGBA(ref)
	c := fitTo(r.Bounds(), cmp)

	out := image.NewRGBA(image.Rect(0, 0, r.Bounds().Dx(), r.Bounds().Dy()))
	w := out.Bounds().Dx()
	h := out.Bounds().Dy()
	for y := 0; y < h; y++ {
		ro := r.PixOffset(r.Bounds().Min.X, r.Bounds().Min.Y+y)
		co := c.PixOffset(c.Bounds().Min.X, c.Bounds().Min.Y+y)
		oo := out.PixOffset(0, y)
		for x := 0; x < w; x++ {
			for ch := 0; ch < 3; ch++ {
				d := float64(r.Pix[ro+ch]) - float64(c.Pix[co+ch])
				d = math.Abs(d) * amplify
				if d > 255 {
					d = 255
				}
				out.Pix[oo+ch] = uint8(d)
			}
			out.Pix[oo+3] = 0xff
			ro += 4
			co += 4
			oo += 4
		}
	}
	return out
}

// Assessment maps an average PSNR to the conventional quality bands.
func Assessment(psnr float64) string {
	switch {
	case psnr >= 40:
		return "Excellent - virtually indistinguishable"
	case psnr >= 30:
		return "Good - minor differences, acceptable quality"
	case psnr >= 20:
		return "Fair - noticeable differences"
	default:
		return "Poor - significant visual degradation"
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok {
		return r
	}
	out := image.NewRGBA(img.Bounds())
	draw.Copy(out, img.Bounds().Min, img, img.Bounds(), draw.Src, nil)
	return out
}

// fitTo converts img to RGBA, rescaling when its extent differs from bounds.
func fitTo(bounds image.Rectangle, img image.Image) *image.RGBA {
	if img.Bounds().Dx() == bounds.Dx() && img.Bounds().Dy() == bounds.Dy() {
		return toRGBA(img)
	}
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
