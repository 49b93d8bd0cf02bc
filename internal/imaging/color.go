package imaging

import (
	"fmt"
	"image/color"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a colour in hue/saturation/value space on the scale used by the
// paper mask thresholds:
//   - H: hue in degrees, 0 to 360
//   - S: saturation, 0 (grey) to 255 (vivid)
//   - V: value, 0 (black) to 255 (brightest)
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// RGBToHSV converts 8-bit RGB components to HSV.
func RGBToHSV(r, g, b uint8) HSV {
	c := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
	h, s, v := c.Hsv()
	return HSV{H: h, S: s * 255, V: v * 255}
}

// ToHSV converts any colour to HSV, ignoring alpha.
func ToHSV(c color.Color) HSV {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBToHSV(nc.R, nc.G, nc.B)
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" into a non-premultiplied
// colour. The leading '#' is optional.
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	alpha := uint8(255)
	switch len(hex) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in color %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
