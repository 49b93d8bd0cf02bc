package geometry

import (
	"image"
	"math"
)

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// ToFloat converts to PointF.
func (p Point) ToFloat() PointF {
	return PointF{X: float64(p.X), Y: float64(p.Y)}
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// ImagePoint converts to the standard library point type.
func (p Point) ImagePoint() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return p.ToFloat().Distance(other.ToFloat())
}

// PointF is a sub-pixel coordinate used by transforms and sampling.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p PointF) Distance(other PointF) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Round returns the nearest integer pixel.
func (p PointF) Round() Point {
	return Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}
