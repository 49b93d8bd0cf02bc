// Package detection finds a sheet of paper in a photograph.
//
// # Pipeline
//
// DetectQuad runs these steps on every image:
//
//  1. Paper mask: pixels that are bright (high HSV value) and nearly grey
//     (low saturation), within an optional hue band.
//  2. Box blur followed by re-thresholding, which smooths ragged edges.
//  3. Morphological close then open, which fills printed text and removes
//     small bright clutter.
//  4. Outer contours of the 8-connected mask components.
//  5. The largest contour whose area fraction lies within the configured
//     bounds. Too small means noise; nearly the whole frame means there is
//     no contrast to separate page from background.
//  6. Douglas-Peucker simplification; only a four-vertex result counts.
//  7. Optional shrink toward the centroid to trim background at the edges.
//
// # Coordinate System
//
// Returned vertices are in the input image's coordinate space: origin at
// the top-left, X rightward, Y downward. Large images are searched at a
// reduced size (Options.MaxSide) and the corners scaled back.
//
// # Errors
//
// Not finding a document is a normal outcome reported through
// QuadResult.Found. Empty images and out-of-range options return errors
// wrapping geometry.ErrInvalidInput.
package detection
