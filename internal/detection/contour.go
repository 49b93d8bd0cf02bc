package detection

import (
	"image"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Contour is the outer boundary of one 8-connected mask component.
type Contour struct {
	// Points walks the boundary clockwise starting at the component's
	// top-most, left-most pixel.
	Points []geometry.Point

	// Area is the shoelace area enclosed by Points.
	Area float64

	// Pixels is the number of pixels in the component.
	Pixels int
}

// neighbours lists the 8 directions clockwise starting east, in image
// coordinates (y grows downward).
var neighbours = [8]geometry.Point{
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
}

const west = 4

// FindContours returns the outer contour of every connected component of
// non-zero pixels in mask, in raster order of their first pixel. Holes are
// not traced.
func FindContours(mask *image.Gray) []Contour {
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return nil
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+width]
		for x, v := range row {
			fg[y*width+x] = v != 0
		}
	}

	visited := make([]bool, width*height)
	var contours []Contour

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !fg[i] || visited[i] {
				continue
			}

			pts := traceBoundary(fg, width, height, geometry.Pt(x, y))
			pixels := floodFill(fg, visited, x, y, width, height)
			for k := range pts {
				pts[k].X += b.Min.X
				pts[k].Y += b.Min.Y
			}
			contours = append(contours, Contour{
				Points: pts,
				Area:   geometry.Area(pts),
				Pixels: pixels,
			})
		}
	}

	return contours
}

// traceBoundary follows the outer boundary of the component containing
// start with Moore-neighbour tracing. start must be the component's first
// pixel in raster order, so its west neighbour is background.
//
// Tracing stops when start is re-entered in the same direction as the first
// move, which closes the loop correctly for one-pixel-wide necks.
func traceBoundary(fg []bool, width, height int, start geometry.Point) []geometry.Point {
	isFg := func(p geometry.Point) bool {
		return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height && fg[p.Y*width+p.X]
	}

	contour := []geometry.Point{start}
	cur := start
	back := west
	firstDir := -1
	limit := 4*width*height + 8

	for step := 0; step < limit; step++ {
		found := -1
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if isFg(cur.Add(neighbours[d])) {
				found = d
				break
			}
		}
		if found < 0 {
			// Isolated pixel.
			return contour
		}

		if cur == start {
			if firstDir < 0 {
				firstDir = found
			} else if found == firstDir {
				return contour
			}
		}

		next := cur.Add(neighbours[found])
		prev := cur.Add(neighbours[(found+7)%8])
		back = direction(next, prev)

		if next != start {
			contour = append(contour, next)
		}
		cur = next
	}

	return contour
}

// direction returns the index in neighbours of the unit step from a to b.
func direction(a, b geometry.Point) int {
	dx, dy := b.X-a.X, b.Y-a.Y
	for i, n := range neighbours {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return west
}

// floodFill marks every pixel 8-connected to (startX, startY) as visited and
// returns how many were marked.
func floodFill(fg, visited []bool, startX, startY, width, height int) int {
	stack := []geometry.Point{{X: startX, Y: startY}}
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if visited[i] || !fg[i] {
			continue
		}

		visited[i] = true
		count++

		// 8-connected neighbors
		for _, n := range neighbours {
			stack = append(stack, geometry.Point{X: p.X + n.X, Y: p.Y + n.Y})
		}
	}

	return count
}
