// Package tracking follows a detected page across a stream of camera frames
// and decides when it has been held still long enough to capture.
//
// # Stability
//
// Two consecutive detections are stable when, after putting both into
// [TL, TR, BR, BL] order, no corner moved by StableDistance pixels or more.
// The comparison is always against the previous frame, so a slow drift
// that never jumps more than the threshold between frames still counts as
// stable.
//
// # Capture Rule
//
// A capture fires when detections have been stable for at least the hold
// duration. Any frame without a detection resets the clock, and so does a
// capture, so a page held still for a long time produces one capture per
// hold period rather than one per frame.
//
// # Concurrency
//
// Advance is a pure function over State. Tracker wraps it for hosts that
// feed frames from one goroutine while controlling the session from
// another: every state change happens under one mutex, so a Reset is never
// observed half-applied by a frame.
package tracking
