package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidInput is returned when a caller supplies a malformed quad or an
// empty image. It is fatal to the call and never silently corrected.
var ErrInvalidInput = errors.New("invalid input")

// Corner indices of a canonical quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Quad is an ordered sequence of vertices describing a detected paper
// boundary. Only quads with exactly four vertices are valid.
type Quad []Point

// Validate reports ErrInvalidInput unless q has exactly four vertices.
func (q Quad) Validate() error {
	if len(q) != 4 {
		return fmt.Errorf("%w: quad has %d points, want 4", ErrInvalidInput, len(q))
	}
	return nil
}

// Clone returns a copy that does not share storage with q.
func (q Quad) Clone() Quad {
	if q == nil {
		return nil
	}
	out := make(Quad, len(q))
	copy(out, q)
	return out
}

// Translate returns q shifted by (dx, dy).
func (q Quad) Translate(dx, dy int) Quad {
	out := make(Quad, len(q))
	for i, p := range q {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Centroid returns the mean of the vertices.
func (q Quad) Centroid() PointF {
	var c PointF
	if len(q) == 0 {
		return c
	}
	for _, p := range q {
		c.X += float64(p.X)
		c.Y += float64(p.Y)
	}
	c.X /= float64(len(q))
	c.Y /= float64(len(q))
	return c
}

// Bounds returns the axis-aligned bounding rectangle of the vertices.
// Max is exclusive, so a quad with a vertex at x=699 yields Max.X=700.
func (q Quad) Bounds() image.Rectangle {
	if len(q) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(q[0].X, q[0].Y, q[0].X+1, q[0].Y+1)
	for _, p := range q[1:] {
		r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}
	return r
}

// Canonicalize returns the vertices in [top-left, top-right, bottom-right,
// bottom-left] order.
//
// Assignment rule:
//   - top-left: the vertex minimising x+y
//   - bottom-right: the vertex maximising x+y among the rest
//   - top-right: the vertex with the largest x among the remaining two,
//     ties broken by the smallest y
//   - bottom-left: the vertex left over
//
// Each role is chosen from vertices not yet assigned, so near-degenerate quads
// (equal sums, duplicated corners) fall back to the unused vertex instead of
// assigning one vertex to two roles. The result may be geometrically poor for
// such quads but always has four distinct source indices.
func Canonicalize(q Quad) (Quad, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var used [4]bool
	sum := func(i int) int { return q[i].X + q[i].Y }

	tl := 0
	for i := 1; i < 4; i++ {
		if sum(i) < sum(tl) {
			tl = i
		}
	}
	used[tl] = true

	br := -1
	for i := 0; i < 4; i++ {
		if used[i] {
			continue
		}
		if br < 0 || sum(i) > sum(br) {
			br = i
		}
	}
	used[br] = true

	tr := -1
	for i := 0; i < 4; i++ {
		if used[i] {
			continue
		}
		if tr < 0 || q[i].X > q[tr].X || (q[i].X == q[tr].X && q[i].Y < q[tr].Y) {
			tr = i
		}
	}
	used[tr] = true

	bl := -1
	for i := 0; i < 4; i++ {
		if !used[i] {
			bl = i
			break
		}
	}

	return Quad{q[tl], q[tr], q[br], q[bl]}, nil
}

// Shrink moves every vertex toward the centroid by factor (0.05 = 5% of the
// vertex's distance from the centroid) and clamps the result to a
// width×height image.
func Shrink(q Quad, factor float64, width, height int) (Quad, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if factor < 0 || factor >= 1 {
		return nil, fmt.Errorf("%w: shrink factor %.3f outside [0,1)", ErrInvalidInput, factor)
	}

	c := q.Centroid()
	keep := 1 - factor
	out := make(Quad, 4)
	for i, p := range q {
		moved := PointF{
			X: c.X + (float64(p.X)-c.X)*keep,
			Y: c.Y + (float64(p.Y)-c.Y)*keep,
		}
		out[i] = moved.Round()
	}
	return Clamp(out, width, height), nil
}

// Clamp limits every vertex to [0,width-1]×[0,height-1].
func Clamp(q Quad, width, height int) Quad {
	out := make(Quad, len(q))
	for i, p := range q {
		out[i] = Point{X: clampInt(p.X, 0, width-1), Y: clampInt(p.Y, 0, height-1)}
	}
	return out
}

// MaxDisplacement returns the largest distance between vertex i of a and
// vertex i of b. Both quads must be valid.
func MaxDisplacement(a, b Quad) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	var worst float64
	for i := range a {
		worst = math.Max(worst, a[i].Distance(b[i]))
	}
	return worst, nil
}

// EdgeLengths returns the top, right, bottom and left edge lengths of a
// canonical quad.
func EdgeLengths(c Quad) (top, right, bottom, left float64) {
	top = c[TopLeft].Distance(c[TopRight])
	right = c[TopRight].Distance(c[BottomRight])
	bottom = c[BottomLeft].Distance(c[BottomRight])
	left = c[TopLeft].Distance(c[BottomLeft])
	return top, right, bottom, left
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
