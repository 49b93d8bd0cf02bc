package detection

import (
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Options tunes the paper mask and the quad search.
//
// Saturation and value are on a 0-255 scale, hue in degrees. The defaults
// select bright, unsaturated pixels of any hue: white or light-grey paper.
type Options struct {
	HueMin float64 `json:"hue_min"`
	HueMax float64 `json:"hue_max"`
	SatMax float64 `json:"sat_max"`
	ValMin float64 `json:"val_min"`

	// BlurSize is the odd box-blur window applied to the raw mask. 1 disables it.
	BlurSize int `json:"blur_size"`

	// MorphSize is the odd square structuring element for close/open.
	// 1 disables morphology.
	MorphSize       int `json:"morph_size"`
	MorphIterations int `json:"morph_iterations"`

	// MinAreaFraction and MaxAreaFraction bound the accepted contour area
	// relative to the image area.
	MinAreaFraction float64 `json:"min_area_fraction"`
	MaxAreaFraction float64 `json:"max_area_fraction"`

	// ApproxEpsilon is the polygon approximation tolerance as a fraction of
	// the contour perimeter.
	ApproxEpsilon float64 `json:"approx_epsilon"`

	// RefineCorners moves each vertex to the intersection of lines fitted
	// to the adjacent sides, undoing the rounding of the mask corners.
	RefineCorners bool `json:"refine_corners"`

	// ShrinkFactor pulls the corners toward the centroid, in [0, 1).
	ShrinkFactor float64 `json:"shrink_factor"`

	// MaxSide downsamples larger images before detection; corners are
	// scaled back to full resolution. 0 detects at full resolution.
	MaxSide int `json:"max_side"`
}

// DefaultOptions returns the tuning used for white paper on a darker desk.
func DefaultOptions() Options {
	return Options{
		HueMin:          0,
		HueMax:          360,
		SatMax:          40,
		ValMin:          180,
		BlurSize:        9,
		MorphSize:       7,
		MorphIterations: 2,
		MinAreaFraction: 0.10,
		MaxAreaFraction: 0.98,
		ApproxEpsilon:   0.02,
		RefineCorners:   true,
		ShrinkFactor:    0,
		MaxSide:         1024,
	}
}

// Validate reports the first out-of-range option, wrapped in
// geometry.ErrInvalidInput.
func (o Options) Validate() error {
	switch {
	case o.HueMin < 0 || o.HueMax > 360 || o.HueMin > o.HueMax:
		return invalidf("hue range [%v, %v] must lie within [0, 360]", o.HueMin, o.HueMax)
	case o.SatMax < 0 || o.SatMax > 255:
		return invalidf("sat_max %v outside [0, 255]", o.SatMax)
	case o.ValMin < 0 || o.ValMin > 255:
		return invalidf("val_min %v outside [0, 255]", o.ValMin)
	case o.BlurSize < 1 || o.BlurSize%2 == 0:
		return invalidf("blur_size %d must be a positive odd number", o.BlurSize)
	case o.MorphSize < 1 || o.MorphSize%2 == 0:
		return invalidf("morph_size %d must be a positive odd number", o.MorphSize)
	case o.MorphIterations < 0:
		return invalidf("morph_iterations %d must not be negative", o.MorphIterations)
	case o.MinAreaFraction < 0 || o.MaxAreaFraction > 1 || o.MinAreaFraction >= o.MaxAreaFraction:
		return invalidf("area fractions [%v, %v] must satisfy 0 <= min < max <= 1", o.MinAreaFraction, o.MaxAreaFraction)
	case o.ApproxEpsilon <= 0 || o.ApproxEpsilon >= 1:
		return invalidf("approx_epsilon %v outside (0, 1)", o.ApproxEpsilon)
	case o.ShrinkFactor < 0 || o.ShrinkFactor >= 1:
		return invalidf("shrink_factor %v outside [0, 1)", o.ShrinkFactor)
	case o.MaxSide < 0:
		return invalidf("max_side %d must not be negative", o.MaxSide)
	}
	return nil
}

func (o Options) matches(c docimaging.HSV) bool {
	return c.S <= o.SatMax && c.V >= o.ValMin && c.H >= o.HueMin && c.H <= o.HueMax
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", geometry.ErrInvalidInput, fmt.Sprintf(format, args...))
}
