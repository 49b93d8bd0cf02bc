package detection

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
)

// BuildMask returns the cleaned binary paper mask of img: 255 where a pixel
// is taken as paper, 0 elsewhere. The mask has bounds starting at (0,0).
func BuildMask(img image.Image, opts Options) (*image.Gray, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", geometry.ErrInvalidInput)
	}
	return buildMask(docimaging.ToNRGBA(img), opts), nil
}

func buildMask(src *image.NRGBA, opts Options) *image.Gray {
	b := src.Bounds()
	mask := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			hsv := docimaging.RGBToHSV(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			if opts.matches(hsv) {
				mask.Pix[mask.PixOffset(x, y)] = 255
			}
		}
	}

	// Blur then re-binarise so that the contour search sees a hard edge.
	if opts.BlurSize > 1 {
		mask = segment.Threshold(blur.Box(mask, float64(opts.BlurSize/2)), 128)
	}

	if opts.MorphSize > 1 && opts.MorphIterations > 0 {
		k := squareRow(opts.MorphSize)
		var m image.Image = mask

		// Close fills specks of text and shadow inside the page.
		for i := 0; i < opts.MorphIterations; i++ {
			m = dilate(m, k)
		}
		for i := 0; i < opts.MorphIterations; i++ {
			m = erode(m, k)
		}

		// Open removes bright clutter outside it.
		for i := 0; i < opts.MorphIterations; i++ {
			m = erode(m, k)
		}
		for i := 0; i < opts.MorphIterations; i++ {
			m = dilate(m, k)
		}

		mask = segment.Threshold(m, 128)
	}

	return mask
}

// squareRow returns one row of a size×size all-ones structuring element.
func squareRow(size int) convolution.Matrix {
	k := convolution.NewKernel(size, 1)
	for i := range k.Matrix {
		k.Matrix[i] = 1
	}
	return k
}

// dilate grows the white regions of a binary 0/255 mask by the square whose
// row is k. The unnormalised sum saturates at 255 wherever the window holds
// any white pixel, so a row pass followed by a column pass is exact.
func dilate(m image.Image, k convolution.Matrix) image.Image {
	m = convolution.Convolve(m, k, nil)
	return convolution.Convolve(m, k.Transposed(), nil)
}

// erode shrinks the white regions of a binary mask by the square whose row
// is k.
func erode(m image.Image, k convolution.Matrix) image.Image {
	return effect.Invert(dilate(effect.Invert(m), k))
}
