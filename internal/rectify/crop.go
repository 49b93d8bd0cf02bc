package rectify

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// CropBounds crops img to the axis-aligned bounding box of q, clipped to
// the image. It keeps background around a tilted page and is meant as a
// fallback when a perspective warp is unwanted or impossible.
func CropBounds(img image.Image, q geometry.Quad) (*image.NRGBA, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	r := q.Bounds().Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("%w: quad %v lies outside image bounds %v", geometry.ErrInvalidInput, q, img.Bounds())
	}
	return imaging.Crop(img, r), nil
}
