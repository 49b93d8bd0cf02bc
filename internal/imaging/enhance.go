package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// EnhanceOptions selects the readability steps applied to a rectified page.
// Steps run in field order.
type EnhanceOptions struct {
	// Sharpen applies a 3×3 sharpening kernel.
	Sharpen bool `json:"sharpen"`

	// ContrastStretch maps each channel's darkest value to 0 and its
	// brightest to 255.
	ContrastStretch bool `json:"contrast_stretch"`

	// Brightness is an additive shift on the 0-255 scale, in [-255, 255].
	Brightness float64 `json:"brightness"`

	// Grayscale drops colour after the other steps.
	Grayscale bool `json:"grayscale"`
}

// DefaultEnhanceOptions returns sharpen, stretch and a +10 brightness lift.
func DefaultEnhanceOptions() EnhanceOptions {
	return EnhanceOptions{
		Sharpen:         true,
		ContrastStretch: true,
		Brightness:      10,
	}
}

// Validate checks the option ranges.
func (o EnhanceOptions) Validate() error {
	if o.Brightness < -255 || o.Brightness > 255 {
		return fmt.Errorf("%w: brightness %v outside [-255, 255]", geometry.ErrInvalidInput, o.Brightness)
	}
	return nil
}

// Enhance applies the selected steps and returns a new image. The input is
// not modified.
func Enhance(img image.Image, opts EnhanceOptions) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", geometry.ErrInvalidInput)
	}

	out := imaging.Clone(img)

	if opts.Sharpen {
		out = imaging.Clone(effect.Sharpen(out))
	}
	if opts.ContrastStretch {
		out = stretchContrast(out)
	}
	if opts.Brightness != 0 {
		// imaging expresses brightness as a percentage of full scale.
		out = imaging.AdjustBrightness(out, opts.Brightness*100/255)
	}
	if opts.Grayscale {
		out = imaging.Grayscale(out)
	}

	return out, nil
}

// stretchContrast linearly rescales each RGB channel to the full range.
// Channels that are already flat are left alone.
func stretchContrast(img *image.NRGBA) *image.NRGBA {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := img.Pix[i+c]
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}

	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		span := int(hi[c]) - int(lo[c])
		for v := 0; v < 256; v++ {
			switch {
			case span <= 0:
				lut[c][v] = uint8(v)
			case v <= int(lo[c]):
				lut[c][v] = 0
			case v >= int(hi[c]):
				lut[c][v] = 255
			default:
				lut[c][v] = uint8((v - int(lo[c])) * 255 / span)
			}
		}
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[0][c.R], G: lut[1][c.G], B: lut[2][c.B], A: c.A}
	})
}
