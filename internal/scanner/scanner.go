// Package scanner turns a single photograph into a flat, readable page.
package scanner

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// ErrNoDetection is returned when no page was found in the image.
var ErrNoDetection = errors.New("no document detected")

// Crop selects how the detected page is cut out.
type Crop string

const (
	// CropPerspective warps the page to an upright rectangle.
	CropPerspective Crop = "perspective"
	// CropBounds keeps the axis-aligned bounding box of the page.
	CropBounds Crop = "bounds"
)

// Options configures a scan.
type Options struct {
	Detection detection.Options         `json:"detection"`
	Crop      Crop                      `json:"crop"`
	Enhance   bool                      `json:"enhance"`
	Enhancer  docimaging.EnhanceOptions `json:"enhancer"`
}

// DefaultOptions warps the page and applies the default enhancement.
func DefaultOptions() Options {
	return Options{
		Detection: detection.DefaultOptions(),
		Crop:      CropPerspective,
		Enhance:   true,
		Enhancer:  docimaging.DefaultEnhanceOptions(),
	}
}

// Result is a scanned page plus the detection it came from.
type Result struct {
	Page      *image.NRGBA
	Detection *detection.QuadResult
}

// Scanner runs detect, crop and enhance on still images.
type Scanner struct {
	opts Options
}

// New validates opts and returns a Scanner.
func New(opts Options) (*Scanner, error) {
	if err := opts.Detection.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Enhancer.Validate(); err != nil {
		return nil, err
	}
	switch opts.Crop {
	case CropPerspective, CropBounds:
	default:
		return nil, fmt.Errorf("unknown crop mode %q", opts.Crop)
	}
	return &Scanner{opts: opts}, nil
}

// Scan finds the page in img and returns it cropped and, if enabled,
// enhanced. A missing page returns ErrNoDetection together with the
// detection result so callers can report what was seen.
func (s *Scanner) Scan(img image.Image) (*Result, error) {
	det, err := detection.DetectQuad(img, s.opts.Detection)
	if err != nil {
		return nil, err
	}
	if !det.Found {
		return &Result{Detection: det}, ErrNoDetection
	}

	var page *image.NRGBA
	switch s.opts.Crop {
	case CropBounds:
		page, err = rectify.CropBounds(img, det.Corners)
	default:
		page, err = rectify.Rectify(img, det.Corners)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to crop page: %w", err)
	}

	if s.opts.Enhance {
		page, err = docimaging.Enhance(page, s.opts.Enhancer)
		if err != nil {
			return nil, fmt.Errorf("failed to enhance page: %w", err)
		}
	}

	return &Result{Page: page, Detection: det}, nil
}
