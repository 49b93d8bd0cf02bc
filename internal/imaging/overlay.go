package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// OverlayStyle controls how a detected document is drawn on a preview.
type OverlayStyle struct {
	// FillColor tints the quad interior. "#RRGGBBAA"; alpha is usually low.
	FillColor string `json:"fill_color"`

	// LineColor is the outline colour.
	LineColor string `json:"line_color"`

	// LineWidth is the outline width in pixels. Zero disables the outline.
	LineWidth float64 `json:"line_width"`
}

// DefaultOverlayStyle returns a translucent green fill with a solid outline.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		FillColor: "#00C85350",
		LineColor: "#00C853",
		LineWidth: 3,
	}
}

// DrawQuadOverlay returns a copy of img with the quad filled and outlined.
//
// Quad coordinates are in img's coordinate space. An empty quad leaves the
// frame untouched apart from the label, which lets a live preview show its
// status text even while nothing is detected. The label is drawn in the
// top-left corner when non-empty.
func DrawQuadOverlay(img image.Image, q geometry.Quad, style OverlayStyle, label string) (*image.RGBA, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", geometry.ErrInvalidInput)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	if len(q) >= 3 {
		local := q.Translate(-bounds.Min.X, -bounds.Min.Y)

		if style.FillColor != "" {
			fill, err := ParseHexColor(style.FillColor)
			if err != nil {
				return nil, fmt.Errorf("invalid fill color: %w", err)
			}
			pts := make([]geometry.PointF, len(local))
			for i, p := range local {
				pts[i] = p.ToFloat()
			}
			fillPolygon(dst, pts, fill)
		}

		if style.LineWidth > 0 && style.LineColor != "" {
			line, err := ParseHexColor(style.LineColor)
			if err != nil {
				return nil, fmt.Errorf("invalid line color: %w", err)
			}
			for i := range local {
				a := local[i].ToFloat()
				b := local[(i+1)%len(local)].ToFloat()
				strokeSegment(dst, a, b, style.LineWidth, line)
			}
		}
	}

	if label != "" {
		drawLabel(dst, 6, 6, label)
	}

	return dst, nil
}

func fillPolygon(dst *image.RGBA, pts []geometry.PointF, c color.Color) {
	if len(pts) < 3 {
		return
	}
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.MoveTo(float32(pts[0].X)+0.5, float32(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X)+0.5, float32(p.Y)+0.5)
	}
	r.ClosePath()
	r.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokeSegment draws a line of the given width as a filled rectangle.
func strokeSegment(dst *image.RGBA, a, b geometry.PointF, width float64, c color.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	fillPolygon(dst, []geometry.PointF{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}, c)
}

// drawLabel renders white text on a dark translucent box at (x, y).
func drawLabel(dst *image.RGBA, x, y int, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	const pad = 3
	textW := d.MeasureString(text).Ceil()
	box := image.Rect(x, y, x+textW+2*pad, y+face.Height+2*pad).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(color.NRGBA{A: 180}), image.Point{}, draw.Over)

	d.Dot = fixed.P(x+pad, y+pad+face.Ascent)
	d.DrawString(text)
}
