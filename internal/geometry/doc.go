// Package geometry provides the point, quadrilateral and projective-transform
// primitives shared by document detection, tracking and rectification.
//
// # Coordinate System
//
// All coordinates are pixel positions in source-image space:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Quadrilaterals
//
// A Quad is an ordered list of vertices. It is only valid with exactly four
// vertices; operations that require a valid quad return ErrInvalidInput
// otherwise. Vertex order is whatever the producer emitted (for detection,
// contour traversal order) until Canonicalize assigns the fixed
// top-left, top-right, bottom-right, bottom-left order.
//
// # Transforms
//
// Homography is a 3×3 projective transform solved from four point
// correspondences with gonum's dense linear solver.
package geometry
