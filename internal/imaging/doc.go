// Package imaging provides the image plumbing around document scanning:
// decoding photographs and camera frames, colour conversion for the paper
// mask, PNG payloads for MCP responses, the quad preview overlay, and the
// readability enhancement applied to a rectified page.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Functions that return a
// new image return it with bounds starting at (0,0).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and never modify their input image.
//
// # Colour Representation
//
// HSV values use H in degrees (0-360) and S, V on a 0-255 scale, matching
// the thresholds in the detection options. Hex colours are "#RRGGBB" or
// "#RRGGBBAA".
package imaging
