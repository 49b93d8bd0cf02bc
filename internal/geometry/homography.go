package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Homography is a row-major 3×3 projective transform normalised so that the
// bottom-right element is 1.
type Homography [9]float64

// PerspectiveTransform solves the homography mapping each src[i] onto dst[i].
//
// The eight unknowns h0..h7 (h8 fixed at 1) come from two equations per
// correspondence:
//
//	u = (h0*x + h1*y + h2) / (h6*x + h7*y + 1)
//	v = (h3*x + h4*y + h5) / (h6*x + h7*y + 1)
//
// An ill-conditioned but solvable system is accepted. A singular system
// (three collinear points, duplicated corners) returns ErrInvalidInput.
func PerspectiveTransform(src, dst [4]PointF) (Homography, error) {
	if hasCollinearTriple(src) || hasCollinearTriple(dst) {
		return Homography{}, fmt.Errorf("%w: three of the four corners are collinear", ErrInvalidInput)
	}

	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		B.SetVec(2*i, u)

		A.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		B.SetVec(2*i+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil && !isConditionWarning(err) {
		return Homography{}, fmt.Errorf("%w: perspective transform: %v", ErrInvalidInput, err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	return h, nil
}

// Inverse returns the transform mapping destination points back to source
// points.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, append([]float64(nil), h[:]...))

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil && !isConditionWarning(err) {
		return Homography{}, fmt.Errorf("%w: homography not invertible: %v", ErrInvalidInput, err)
	}

	scale := inv.At(2, 2)
	if scale == 0 {
		return Homography{}, fmt.Errorf("%w: homography not invertible", ErrInvalidInput)
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c) / scale
		}
	}
	return out, nil
}

// Apply maps p through the transform.
func (h Homography) Apply(p PointF) PointF {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		w = 1e-12
	}
	return PointF{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// isConditionWarning reports whether err is gonum's ill-conditioning warning,
// which still comes with a usable result. An infinite condition number means
// the matrix is singular.
func isConditionWarning(err error) bool {
	var cond mat.Condition
	return errors.As(err, &cond) && !math.IsInf(float64(cond), 0) && !math.IsNaN(float64(cond))
}

// hasCollinearTriple reports whether any three of the points lie on one line,
// which leaves the eight-unknown system without a unique solution.
func hasCollinearTriple(pts [4]PointF) bool {
	for skip := 0; skip < 4; skip++ {
		var tri [3]PointF
		n := 0
		for i, p := range pts {
			if i != skip {
				tri[n] = p
				n++
			}
		}
		cross := (tri[1].X-tri[0].X)*(tri[2].Y-tri[0].Y) - (tri[1].Y-tri[0].Y)*(tri[2].X-tri[0].X)
		if math.Abs(cross) < 1e-9 {
			return true
		}
	}
	return false
}
