package geometry

import "math"

// Area returns the absolute enclosed area of a closed polygon using the
// shoelace formula. Fewer than three points enclose nothing.
func Area(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var twice int64
	for i := range pts {
		j := (i + 1) % len(pts)
		twice += int64(pts[i].X)*int64(pts[j].Y) - int64(pts[j].X)*int64(pts[i].Y)
	}
	return math.Abs(float64(twice)) / 2
}

// Perimeter returns the arc length of a closed polygon.
func Perimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := range pts {
		total += pts[i].Distance(pts[(i+1)%len(pts)])
	}
	return total
}

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker algorithm.
// Points farther than epsilon from the simplified outline are kept as vertices.
//
// A closed curve has no natural endpoints, so the curve is split at its two
// mutually farthest points (found by two farthest-point passes from the first
// point). Those points are always hull vertices, so a traced quadrilateral
// splits at two of its corners. A final pass drops vertices that lie within
// epsilon of the line through their neighbours.
//
// The result keeps the traversal direction of the input contour.
func ApproxPolygon(contour []Point, epsilon float64) []Point {
	n := len(contour)
	if n < 3 {
		out := make([]Point, n)
		copy(out, contour)
		return out
	}

	a := farthestFrom(contour, contour[0])
	b := farthestFrom(contour, contour[a])
	if a == b {
		return []Point{contour[a]}
	}

	first := douglasPeucker(arc(contour, a, b), epsilon)
	second := douglasPeucker(arc(contour, b, a), epsilon)

	out := make([]Point, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return dropCollinear(out, epsilon)
}

// farthestFrom returns the index of the contour point farthest from p.
func farthestFrom(contour []Point, p Point) int {
	best := 0
	bestDist := -1.0
	for i, q := range contour {
		d := p.Distance(q)
		if d > bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// arc returns the points from index from to index to (both inclusive),
// walking forward and wrapping around the end of the contour.
func arc(contour []Point, from, to int) []Point {
	n := len(contour)
	length := (to-from+n)%n + 1
	out := make([]Point, length)
	for i := 0; i < length; i++ {
		out[i] = contour[(from+i)%n]
	}
	return out
}

// douglasPeucker simplifies an open polyline, always keeping both endpoints.
// Iterative so that long contours cannot exhaust the stack.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	last := len(pts) - 1
	if last < 2 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}

	keep := make([]bool, len(pts))
	keep[0] = true
	keep[last] = true

	stack := [][2]int{{0, last}}
	for len(stack) > 0 {
		span := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		start, end := span[0], span[1]
		if end-start < 2 {
			continue
		}

		index := -1
		maxDist := 0.0
		for i := start + 1; i < end; i++ {
			d := lineDistance(pts[i], pts[start], pts[end])
			if d > maxDist {
				index = i
				maxDist = d
			}
		}

		if index >= 0 && maxDist > epsilon {
			keep[index] = true
			stack = append(stack, [2]int{start, index}, [2]int{index, end})
		}
	}

	out := make([]Point, 0, 8)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// dropCollinear removes vertices of a closed polygon that sit within epsilon
// of the line through their two neighbours, until none remain.
func dropCollinear(poly []Point, epsilon float64) []Point {
	for len(poly) > 3 {
		removed := false
		for i := 0; i < len(poly); i++ {
			prev := poly[(i+len(poly)-1)%len(poly)]
			next := poly[(i+1)%len(poly)]
			if lineDistance(poly[i], prev, next) <= epsilon {
				poly = append(poly[:i:i], poly[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}
	return poly
}

// lineDistance is the perpendicular distance from p to the line through a and
// b, or the distance to a when a and b coincide.
func lineDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p.Distance(a)
	}
	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / length
}
