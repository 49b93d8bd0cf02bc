package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
)

// QuadResult is the outcome of a document search in one image.
type QuadResult struct {
	// Found is false when no contour passed the area bounds or the best
	// contour did not simplify to exactly four vertices.
	Found bool `json:"found"`

	// Quad holds the four vertices in contour order, in image coordinates.
	Quad geometry.Quad `json:"quad,omitempty"`

	// Corners holds the same vertices ordered [TL, TR, BR, BL].
	Corners geometry.Quad `json:"corners,omitempty"`

	// ContourArea is the enclosed area of the chosen contour in full
	// resolution pixels.
	ContourArea float64 `json:"contour_area"`

	// AreaFraction is ContourArea divided by the image area.
	AreaFraction float64 `json:"area_fraction"`

	// Vertices is the vertex count of the simplified contour, reported even
	// when it is not four.
	Vertices int `json:"vertices"`

	// Width and Height are the dimensions of the searched image.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectQuad looks for the largest paper-coloured four-sided region in img.
//
// A missing document is not an error: the result has Found false. Errors
// are returned only for an empty image or invalid options, both wrapping
// geometry.ErrInvalidInput. The input is not modified and the result depends
// only on its pixels and opts.
func DetectQuad(img image.Image, opts Options) (*QuadResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty image", geometry.ErrInvalidInput)
	}

	result := &QuadResult{Width: width, Height: height}

	work := docimaging.ToNRGBA(img)
	if opts.MaxSide > 0 && (width > opts.MaxSide || height > opts.MaxSide) {
		work = imaging.Fit(work, opts.MaxSide, opts.MaxSide, imaging.Box)
	}
	ww, wh := work.Bounds().Dx(), work.Bounds().Dy()
	sx := float64(width) / float64(ww)
	sy := float64(height) / float64(wh)

	mask := buildMask(work, opts)
	best := largestContour(FindContours(mask), float64(ww*wh), opts)
	if best == nil {
		return result, nil
	}

	result.ContourArea = best.Area * sx * sy
	result.AreaFraction = best.Area / float64(ww*wh)

	poly := geometry.ApproxPolygon(best.Points, opts.ApproxEpsilon*geometry.Perimeter(best.Points))
	result.Vertices = len(poly)
	if len(poly) != 4 {
		return result, nil
	}

	quad := geometry.Quad(poly)
	if opts.RefineCorners {
		maxShift := float64(opts.BlurSize + opts.MorphSize*opts.MorphIterations)
		quad = geometry.Clamp(refineCorners(best.Points, quad, maxShift), ww, wh)
	}
	if opts.ShrinkFactor > 0 {
		shrunk, err := geometry.Shrink(quad, opts.ShrinkFactor, ww, wh)
		if err != nil {
			return nil, err
		}
		quad = shrunk
	}
	quad = scaleQuad(quad, sx, sy, width, height).Translate(bounds.Min.X, bounds.Min.Y)

	corners, err := geometry.Canonicalize(quad)
	if err != nil {
		return nil, err
	}

	result.Found = true
	result.Quad = quad
	result.Corners = corners
	return result, nil
}

// largestContour picks the contour with the greatest area whose fraction of
// imageArea lies within the configured bounds. Earlier contours win ties.
func largestContour(contours []Contour, imageArea float64, opts Options) *Contour {
	var best *Contour
	for i := range contours {
		c := &contours[i]
		frac := c.Area / imageArea
		if frac < opts.MinAreaFraction || frac > opts.MaxAreaFraction {
			continue
		}
		if best == nil || c.Area > best.Area {
			best = c
		}
	}
	return best
}

// scaleQuad maps pixel centres from a downsampled image back to a
// width×height one.
func scaleQuad(q geometry.Quad, sx, sy float64, width, height int) geometry.Quad {
	if sx == 1 && sy == 1 {
		return q
	}
	out := make(geometry.Quad, len(q))
	for i, p := range q {
		out[i] = geometry.Point{
			X: int(math.Round((float64(p.X)+0.5)*sx - 0.5)),
			Y: int(math.Round((float64(p.Y)+0.5)*sy - 0.5)),
		}
	}
	return geometry.Clamp(out, width, height)
}
