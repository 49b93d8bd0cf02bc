package detection

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// line is a 2D line through P with unit direction D.
type line struct {
	P, D geometry.PointF
}

// refineCorners replaces each vertex of quad with the intersection of
// straight lines fitted to the contour on either side of it. Blur and
// morphology round off the page corners; the sides stay straight, so their
// intersection recovers the true corner.
//
// quad must list contour points in contour order. A vertex is kept as is
// when a side is too short to fit or the intersection lands further than
// maxShift from it.
func refineCorners(contour []geometry.Point, quad geometry.Quad, maxShift float64) geometry.Quad {
	idx := make([]int, len(quad))
	for i, v := range quad {
		idx[i] = indexOf(contour, v)
		if idx[i] < 0 {
			return quad
		}
	}

	sides := make([]*line, len(quad))
	for i := range quad {
		sides[i] = fitSide(contour, idx[i], idx[(i+1)%len(quad)])
	}

	out := quad.Clone()
	for i := range quad {
		prev := sides[(i+len(quad)-1)%len(quad)]
		next := sides[i]
		if prev == nil || next == nil {
			continue
		}
		p, ok := intersect(*prev, *next)
		if !ok || p.Distance(quad[i].ToFloat()) > maxShift {
			continue
		}
		out[i] = p.Round()
	}
	return out
}

// fitSide fits a total-least-squares line to the contour arc from index a
// to index b, ignoring an eighth of the arc at each end.
func fitSide(contour []geometry.Point, a, b int) *line {
	n := len(contour)
	length := (b - a + n) % n
	margin := length / 8
	count := length - 2*margin
	if count < 3 {
		return nil
	}

	xs := make([]float64, count)
	ys := make([]float64, count)
	for k := 0; k < count; k++ {
		p := contour[(a+margin+k)%n]
		xs[k] = float64(p.X)
		ys[k] = float64(p.Y)
	}

	mx, my := stat.Mean(xs, nil), stat.Mean(ys, nil)
	sxx := stat.Variance(xs, nil)
	syy := stat.Variance(ys, nil)
	sxy := stat.Covariance(xs, ys, nil)

	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)
	return &line{
		P: geometry.PointF{X: mx, Y: my},
		D: geometry.PointF{X: math.Cos(theta), Y: math.Sin(theta)},
	}
}

func intersect(l1, l2 line) (geometry.PointF, bool) {
	den := l1.D.X*l2.D.Y - l1.D.Y*l2.D.X
	if math.Abs(den) < 1e-6 {
		return geometry.PointF{}, false
	}
	dx, dy := l2.P.X-l1.P.X, l2.P.Y-l1.P.Y
	t := (dx*l2.D.Y - dy*l2.D.X) / den
	return geometry.PointF{X: l1.P.X + t*l1.D.X, Y: l1.P.Y + t*l1.D.Y}, true
}

func indexOf(contour []geometry.Point, p geometry.Point) int {
	for i, c := range contour {
		if c == p {
			return i
		}
	}
	return -1
}
