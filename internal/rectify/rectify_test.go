package rectify

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// createPageImage draws a filled white rectangle covering [x1,x2)×[y1,y2)
// on black.
func createPageImage(width, height, x1, y1, x2, y2 int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= x1 && x < x2 && y >= y1 && y < y2 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func assertUniformWhite(t *testing.T, img *image.NRGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.R < 250 || c.G < 250 || c.B < 250 {
				t.Fatalf("pixel (%d,%d) is not white: %v", x, y, c)
			}
		}
	}
}

func TestRectify_AxisAligned(t *testing.T) {
	img := createPageImage(800, 600, 100, 100, 700, 500)
	q := geometry.Quad{geometry.Pt(100, 100), geometry.Pt(699, 100), geometry.Pt(699, 499), geometry.Pt(100, 499)}

	out, err := Rectify(img, q)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if math.Abs(float64(w-600)) > 1 || math.Abs(float64(h-400)) > 1 {
		t.Errorf("size: got %dx%d, want ~600x400", w, h)
	}
	assertUniformWhite(t, out)
}

func TestRectify_CornerOrderDoesNotMatter(t *testing.T) {
	img := createPageImage(400, 300, 50, 50, 350, 250)
	canonical := geometry.Quad{geometry.Pt(50, 50), geometry.Pt(349, 50), geometry.Pt(349, 249), geometry.Pt(50, 249)}
	shuffled := geometry.Quad{canonical[2], canonical[0], canonical[3], canonical[1]}

	a, err := Rectify(img, canonical)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}
	b, err := Rectify(img, shuffled)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}
	if a.Bounds() != b.Bounds() {
		t.Fatalf("bounds differ: %v vs %v", a.Bounds(), b.Bounds())
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel data differs at byte %d", i)
		}
	}
}

func TestRectify_Perspective(t *testing.T) {
	// Quadrants of a 2x2 checker warped by a known homography must land in
	// the matching quadrants of the output.
	const size = 200
	src := image.NewRGBA(image.Rect(0, 0, 400, 400))
	q := geometry.Quad{geometry.Pt(80, 40), geometry.Pt(330, 70), geometry.Pt(360, 350), geometry.Pt(40, 320)}

	var srcPts, dstPts [4]geometry.PointF
	for i, p := range q {
		srcPts[i] = p.ToFloat()
	}
	dstPts = [4]geometry.PointF{{X: 0, Y: 0}, {X: size - 1, Y: 0}, {X: size - 1, Y: size - 1}, {X: 0, Y: size - 1}}
	toPage, err := geometry.PerspectiveTransform(srcPts, dstPts)
	if err != nil {
		t.Fatalf("PerspectiveTransform failed: %v", err)
	}
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			p := toPage.Apply(geometry.PointF{X: float64(x), Y: float64(y)})
			c := color.RGBA{0, 0, 255, 255}
			if p.X >= 0 && p.X <= size-1 && p.Y >= 0 && p.Y <= size-1 {
				left, upper := p.X < size/2, p.Y < size/2
				switch {
				case left && upper:
					c = color.RGBA{255, 0, 0, 255}
				case !left && upper:
					c = color.RGBA{0, 255, 0, 255}
				case left && !upper:
					c = color.RGBA{255, 255, 0, 255}
				default:
					c = color.RGBA{255, 255, 255, 255}
				}
			}
			src.SetRGBA(x, y, c)
		}
	}

	out, err := Rectify(src, q)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	samples := []struct {
		fx, fy float64
		want   color.NRGBA
	}{
		{0.25, 0.25, color.NRGBA{255, 0, 0, 255}},
		{0.75, 0.25, color.NRGBA{0, 255, 0, 255}},
		{0.25, 0.75, color.NRGBA{255, 255, 0, 255}},
		{0.75, 0.75, color.NRGBA{255, 255, 255, 255}},
	}
	for _, s := range samples {
		got := out.NRGBAAt(int(s.fx*float64(w)), int(s.fy*float64(h)))
		if got != s.want {
			t.Errorf("quadrant (%.2f,%.2f): got %v, want %v", s.fx, s.fy, got, s.want)
		}
	}
}

func TestRectify_InvalidQuad(t *testing.T) {
	img := createPageImage(50, 50, 10, 10, 40, 40)
	tests := []struct {
		name string
		quad geometry.Quad
	}{
		{"three points", geometry.Quad{geometry.Pt(10, 10), geometry.Pt(39, 10), geometry.Pt(39, 39)}},
		{"five points", geometry.Quad{geometry.Pt(10, 10), geometry.Pt(39, 10), geometry.Pt(39, 39), geometry.Pt(10, 39), geometry.Pt(20, 20)}},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Rectify(img, tt.quad)
			if !errors.Is(err, geometry.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if out != nil {
				t.Error("no image should be returned on invalid input")
			}
		})
	}
}

func TestRectify_EmptyImage(t *testing.T) {
	q := geometry.Quad{geometry.Pt(0, 0), geometry.Pt(9, 0), geometry.Pt(9, 9), geometry.Pt(0, 9)}
	if _, err := Rectify(image.NewRGBA(image.Rect(0, 0, 0, 0)), q); !errors.Is(err, geometry.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRectify_DegenerateQuadDoesNotFail(t *testing.T) {
	img := createPageImage(100, 100, 0, 0, 100, 100)
	tests := []struct {
		name string
		quad geometry.Quad
	}{
		{"duplicate corner", geometry.Quad{geometry.Pt(10, 10), geometry.Pt(80, 10), geometry.Pt(80, 10), geometry.Pt(10, 70)}},
		{"collinear", geometry.Quad{geometry.Pt(10, 10), geometry.Pt(30, 30), geometry.Pt(50, 50), geometry.Pt(70, 70)}},
		{"single point", geometry.Quad{geometry.Pt(5, 5), geometry.Pt(5, 5), geometry.Pt(5, 5), geometry.Pt(5, 5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Rectify(img, tt.quad)
			if err != nil {
				t.Fatalf("degenerate quad should not fail: %v", err)
			}
			if out.Bounds().Empty() {
				t.Error("output should not be empty")
			}
		})
	}
}

func TestRectify_Idempotent(t *testing.T) {
	img := createPageImage(500, 400, 60, 40, 440, 360)
	q := geometry.Quad{geometry.Pt(60, 40), geometry.Pt(439, 40), geometry.Pt(439, 359), geometry.Pt(60, 359)}

	first, err := Rectify(img, q)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}
	w1, h1 := first.Bounds().Dx(), first.Bounds().Dy()
	full := geometry.Quad{geometry.Pt(0, 0), geometry.Pt(w1-1, 0), geometry.Pt(w1-1, h1-1), geometry.Pt(0, h1-1)}

	second, err := Rectify(first, full)
	if err != nil {
		t.Fatalf("second Rectify failed: %v", err)
	}
	w2, h2 := second.Bounds().Dx(), second.Bounds().Dy()
	if math.Abs(float64(w2-w1))/float64(w1) > 0.05 || math.Abs(float64(h2-h1))/float64(h1) > 0.05 {
		t.Errorf("dimensions drifted: %dx%d -> %dx%d", w1, h1, w2, h2)
	}
}

func TestWarpTo_TargetSize(t *testing.T) {
	img := createPageImage(300, 200, 0, 0, 300, 200)
	corners := [4]geometry.Point{geometry.Pt(20, 20), geometry.Pt(280, 30), geometry.Pt(270, 180), geometry.Pt(30, 170)}

	out, err := WarpTo(img, corners, 300, 200)
	if err != nil {
		t.Fatalf("WarpTo failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 300, 200) {
		t.Errorf("bounds: got %v, want 300x200", out.Bounds())
	}
	assertUniformWhite(t, out)
}

func TestWarpTo_Errors(t *testing.T) {
	img := createPageImage(50, 50, 0, 0, 50, 50)
	square := [4]geometry.Point{geometry.Pt(0, 0), geometry.Pt(49, 0), geometry.Pt(49, 49), geometry.Pt(0, 49)}

	if _, err := WarpTo(img, square, 1, 10); !errors.Is(err, geometry.ErrInvalidInput) {
		t.Errorf("width 1: expected ErrInvalidInput, got %v", err)
	}
	line := [4]geometry.Point{geometry.Pt(0, 0), geometry.Pt(10, 10), geometry.Pt(20, 20), geometry.Pt(30, 30)}
	if _, err := WarpTo(img, line, 10, 10); !errors.Is(err, geometry.ErrInvalidInput) {
		t.Errorf("collinear corners: expected ErrInvalidInput, got %v", err)
	}
}

func TestWarpTo_OffsetImage(t *testing.T) {
	full := createPageImage(200, 200, 100, 100, 200, 200)
	sub := full.SubImage(image.Rect(50, 50, 200, 200))
	corners := [4]geometry.Point{geometry.Pt(100, 100), geometry.Pt(199, 100), geometry.Pt(199, 199), geometry.Pt(100, 199)}

	out, err := WarpTo(sub, corners, 50, 50)
	if err != nil {
		t.Fatalf("WarpTo failed: %v", err)
	}
	assertUniformWhite(t, out)
}

func TestOutputSize(t *testing.T) {
	c := geometry.Quad{geometry.Pt(0, 0), geometry.Pt(300, 0), geometry.Pt(280, 200), geometry.Pt(10, 190)}
	w, h := OutputSize(c)
	if w != 300 {
		t.Errorf("width: got %d, want 300", w)
	}
	// Right edge is hypot(20, 200) = 201.0.
	if h != 201 {
		t.Errorf("height: got %d, want 201", h)
	}
}

func TestCropBounds(t *testing.T) {
	img := createPageImage(100, 80, 0, 0, 100, 80)
	q := geometry.Quad{geometry.Pt(10, 20), geometry.Pt(60, 15), geometry.Pt(70, 50), geometry.Pt(5, 55)}

	out, err := CropBounds(img, q)
	if err != nil {
		t.Fatalf("CropBounds failed: %v", err)
	}
	if out.Bounds().Dx() != 66 || out.Bounds().Dy() != 41 {
		t.Errorf("size: got %v, want 66x41", out.Bounds())
	}
}

func TestCropBounds_Errors(t *testing.T) {
	img := createPageImage(20, 20, 0, 0, 20, 20)

	if _, err := CropBounds(img, geometry.Quad{geometry.Pt(0, 0)}); !errors.Is(err, geometry.ErrInvalidInput) {
		t.Errorf("short quad: expected ErrInvalidInput, got %v", err)
	}
	outside := geometry.Quad{geometry.Pt(50, 50), geometry.Pt(60, 50), geometry.Pt(60, 60), geometry.Pt(50, 60)}
	if _, err := CropBounds(img, outside); !errors.Is(err, geometry.ErrInvalidInput) {
		t.Errorf("outside quad: expected ErrInvalidInput, got %v", err)
	}
}

func TestRectify_RejectsFarCorners(t *testing.T) {
	img := createPageImage(100, 80, 0, 0, 100, 80)
	tests := []struct {
		name string
		quad geometry.Quad
	}{
		{"huge", geometry.Quad{geometry.Pt(0, 0), geometry.Pt(3e9, 0), geometry.Pt(3e9, 3e9), geometry.Pt(0, 3e9)}},
		{"negative", geometry.Quad{geometry.Pt(-150, 0), geometry.Pt(50, 0), geometry.Pt(50, 50), geometry.Pt(0, 50)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Rectify(img, tt.quad)
			if !errors.Is(err, geometry.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if out != nil {
				t.Error("no image should be returned")
			}
		})
	}
}

func TestRectify_CornersSlightlyOutside(t *testing.T) {
	img := createPageImage(100, 80, 0, 0, 100, 80)
	q := geometry.Quad{geometry.Pt(-20, -10), geometry.Pt(119, -10), geometry.Pt(119, 89), geometry.Pt(-20, 89)}

	out, err := Rectify(img, q)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}
	if out.Bounds().Dx() != 139 || out.Bounds().Dy() != 99 {
		t.Errorf("size: got %v, want 139x99", out.Bounds())
	}
}

func TestWarpTo_Limits(t *testing.T) {
	img := createPageImage(50, 50, 0, 0, 50, 50)
	square := [4]geometry.Point{geometry.Pt(0, 0), geometry.Pt(49, 0), geometry.Pt(49, 49), geometry.Pt(0, 49)}

	sizes := []struct{ w, h int }{
		{1 << 31, 1 << 31},
		{MaxOutputPixels, 2},
		{1 << 14, 1 << 13},
	}
	for _, sz := range sizes {
		if _, err := WarpTo(img, square, sz.w, sz.h); !errors.Is(err, geometry.ErrInvalidInput) {
			t.Errorf("%dx%d: expected ErrInvalidInput, got %v", sz.w, sz.h, err)
		}
	}

	far := [4]geometry.Point{geometry.Pt(0, 0), geometry.Pt(200, 0), geometry.Pt(200, 49), geometry.Pt(0, 49)}
	if _, err := WarpTo(img, far, 10, 10); !errors.Is(err, geometry.ErrInvalidInput) {
		t.Errorf("far corner: expected ErrInvalidInput, got %v", err)
	}
}
