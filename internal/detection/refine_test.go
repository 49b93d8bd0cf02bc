package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// chamferedOutline walks a rectangle outline clockwise from the top edge,
// cutting each corner diagonally by cut pixels.
func chamferedOutline(x1, y1, x2, y2, cut int) []geometry.Point {
	var pts []geometry.Point
	for x := x1 + cut; x < x2-cut; x++ {
		pts = append(pts, geometry.Pt(x, y1))
	}
	for k := 0; k < cut; k++ {
		pts = append(pts, geometry.Pt(x2-cut+k, y1+k))
	}
	for y := y1 + cut; y < y2-cut; y++ {
		pts = append(pts, geometry.Pt(x2, y))
	}
	for k := 0; k < cut; k++ {
		pts = append(pts, geometry.Pt(x2-k, y2-cut+k))
	}
	for x := x2 - cut; x > x1+cut; x-- {
		pts = append(pts, geometry.Pt(x, y2))
	}
	for k := 0; k < cut; k++ {
		pts = append(pts, geometry.Pt(x1+cut-k, y2-k))
	}
	for y := y2 - cut; y > y1+cut; y-- {
		pts = append(pts, geometry.Pt(x1, y))
	}
	for k := 0; k < cut; k++ {
		pts = append(pts, geometry.Pt(x1+k, y1+cut-k))
	}
	return pts
}

func TestRefineCorners_Chamfered(t *testing.T) {
	contour := chamferedOutline(10, 10, 210, 110, 4)
	poly := geometry.ApproxPolygon(contour, 0.02*geometry.Perimeter(contour))
	if len(poly) != 4 {
		t.Fatalf("got %d vertices, want 4: %v", len(poly), poly)
	}

	refined := refineCorners(contour, geometry.Quad(poly), 20)
	corners, err := geometry.Canonicalize(refined)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}

	want := geometry.Quad{geometry.Pt(10, 10), geometry.Pt(210, 10), geometry.Pt(210, 110), geometry.Pt(10, 110)}
	for i := range want {
		if corners[i] != want[i] {
			t.Errorf("corner %d: got %v, want %v", i, corners[i], want[i])
		}
	}
}

func TestRefineCorners_ShiftLimit(t *testing.T) {
	contour := chamferedOutline(10, 10, 210, 110, 4)
	poly := geometry.Quad(geometry.ApproxPolygon(contour, 0.02*geometry.Perimeter(contour)))

	// A zero shift budget keeps every vertex where it was.
	kept := refineCorners(contour, poly, 0)
	for i := range poly {
		if kept[i] != poly[i] {
			t.Errorf("vertex %d moved from %v to %v", i, poly[i], kept[i])
		}
	}
}

func TestRefineCorners_UnknownVertex(t *testing.T) {
	contour := chamferedOutline(0, 0, 50, 50, 2)
	q := geometry.Quad{geometry.Pt(-1, -1), geometry.Pt(50, 0), geometry.Pt(50, 50), geometry.Pt(0, 50)}

	got := refineCorners(contour, q, 10)
	for i := range q {
		if got[i] != q[i] {
			t.Errorf("vertex %d changed for a quad not on the contour", i)
		}
	}
}

func TestIntersect(t *testing.T) {
	h := line{P: geometry.PointF{X: 0, Y: 5}, D: geometry.PointF{X: 1, Y: 0}}
	v := line{P: geometry.PointF{X: 3, Y: 0}, D: geometry.PointF{X: 0, Y: 1}}

	p, ok := intersect(h, v)
	if !ok || math.Abs(p.X-3) > 1e-9 || math.Abs(p.Y-5) > 1e-9 {
		t.Errorf("intersect: got %v %v, want (3,5)", p, ok)
	}

	if _, ok := intersect(h, h); ok {
		t.Error("parallel lines should not intersect")
	}
}
