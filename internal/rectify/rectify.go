// Package rectify warps a photographed page onto an upright rectangle.
package rectify

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// MaxOutputPixels caps the area of a warped page.
const MaxOutputPixels = 1 << 26

// Rectify maps the region inside q onto an upright rectangle.
//
// The output size comes from the quad itself: width is the longer of the
// top and bottom edges, height the longer of the left and right edges. The
// corners are canonicalised first, so q may list them in any order.
//
// A quad that is not exactly four points fails with
// geometry.ErrInvalidInput before anything is computed, as does a quad
// reaching more than one image size past the edges or one whose page would
// exceed MaxOutputPixels. Corners that have
// collapsed onto a line admit no projective map; those fall back to a
// resized bounding-box crop rather than failing.
func Rectify(img image.Image, q geometry.Quad) (*image.NRGBA, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", geometry.ErrInvalidInput)
	}

	c, err := geometry.Canonicalize(q)
	if err != nil {
		return nil, err
	}
	if err := checkCorners(img.Bounds(), c); err != nil {
		return nil, err
	}

	width, height := OutputSize(c)
	if err := checkArea(width, height); err != nil {
		return nil, err
	}
	corners := [4]geometry.Point{c[0], c[1], c[2], c[3]}

	out, err := WarpTo(img, corners, width, height)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, geometry.ErrInvalidInput) {
		return nil, err
	}

	crop, err := CropBounds(img, c)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(crop, width, height, imaging.Linear), nil
}

// OutputSize returns the rectified dimensions for canonical corners c.
// Both are at least 1.
func OutputSize(c geometry.Quad) (width, height int) {
	top, right, bottom, left := geometry.EdgeLengths(c)
	width = int(math.Round(math.Max(top, bottom)))
	height = int(math.Round(math.Max(left, right)))
	return max(width, 1), max(height, 1)
}

// WarpTo maps corners, given as [TL, TR, BR, BL] in img coordinates, onto
// the corners of a width×height image. The corners are used as given, which
// lets a user-placed outline be warped to any target size up to
// MaxOutputPixels.
func WarpTo(img image.Image, corners [4]geometry.Point, width, height int) (*image.NRGBA, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: output size %dx%d too small", geometry.ErrInvalidInput, width, height)
	}
	if err := checkArea(width, height); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", geometry.ErrInvalidInput)
	}
	if err := checkCorners(b, corners[:]); err != nil {
		return nil, err
	}

	var src [4]geometry.PointF
	for i, p := range corners {
		src[i] = geometry.PointF{X: float64(p.X - b.Min.X), Y: float64(p.Y - b.Min.Y)}
	}
	w1, h1 := float64(width-1), float64(height-1)
	dst := [4]geometry.PointF{{X: 0, Y: 0}, {X: w1, Y: 0}, {X: w1, Y: h1}, {X: 0, Y: h1}}

	fwd, err := geometry.PerspectiveTransform(src, dst)
	if err != nil {
		return nil, err
	}
	inv, err := fwd.Inverse()
	if err != nil {
		return nil, err
	}

	source := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := inv.Apply(geometry.PointF{X: float64(x), Y: float64(y)})
			i := out.PixOffset(x, y)
			sampleBilinear(source, p, out.Pix[i:i+4])
		}
	}
	return out, nil
}

func checkArea(width, height int) error {
	if width > MaxOutputPixels/height {
		return fmt.Errorf("%w: output size %dx%d exceeds %d pixels", geometry.ErrInvalidInput, width, height, MaxOutputPixels)
	}
	return nil
}

// checkCorners rejects corners lying more than one image width or height
// outside b.
func checkCorners(b image.Rectangle, corners []geometry.Point) error {
	reach := image.Rect(b.Min.X-b.Dx(), b.Min.Y-b.Dy(), b.Max.X+b.Dx(), b.Max.Y+b.Dy())
	for _, p := range corners {
		if !p.ImagePoint().In(reach) {
			return fmt.Errorf("%w: corner %v too far outside image bounds %v", geometry.ErrInvalidInput, p, b)
		}
	}
	return nil
}

// sampleBilinear writes the interpolated colour of src at p into px.
// Samples outside src are clamped to the nearest edge pixel.
func sampleBilinear(src *image.NRGBA, p geometry.PointF, px []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x := math.Min(math.Max(p.X, 0), float64(w-1))
	y := math.Min(math.Max(p.Y, 0), float64(h-1))

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	i00 := src.PixOffset(x0, y0)
	i10 := src.PixOffset(x1, y0)
	i01 := src.PixOffset(x0, y1)
	i11 := src.PixOffset(x1, y1)

	for c := 0; c < 4; c++ {
		top := float64(src.Pix[i00+c])*(1-fx) + float64(src.Pix[i10+c])*fx
		bottom := float64(src.Pix[i01+c])*(1-fx) + float64(src.Pix[i11+c])*fx
		px[c] = uint8(math.Round(top*(1-fy) + bottom*fy))
	}
}
