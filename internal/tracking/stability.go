package tracking

import (
	"fmt"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Options configures the stability rule.
type Options struct {
	// StableDistance is the per-corner displacement, in pixels, below
	// which two detections count as the same page position.
	StableDistance float64 `json:"stable_distance"`

	// HoldSeconds is how long detections must stay stable before a capture.
	HoldSeconds float64 `json:"hold_seconds"`
}

// DefaultOptions returns a 10 px threshold and a 3 s hold.
func DefaultOptions() Options {
	return Options{
		StableDistance: 10,
		HoldSeconds:    3,
	}
}

// Hold returns HoldSeconds as a duration.
func (o Options) Hold() time.Duration {
	return time.Duration(o.HoldSeconds * float64(time.Second))
}

// Validate checks that the threshold is positive and the hold not negative.
func (o Options) Validate() error {
	if o.StableDistance <= 0 {
		return fmt.Errorf("%w: stable_distance %v must be positive", geometry.ErrInvalidInput, o.StableDistance)
	}
	if o.HoldSeconds < 0 {
		return fmt.Errorf("%w: hold_seconds %v must not be negative", geometry.ErrInvalidInput, o.HoldSeconds)
	}
	return nil
}

// IsStable reports whether current and previous describe the same page
// position. Both quads are put into canonical corner order before every
// corner is compared with its counterpart; the result is true iff the
// largest displacement is below threshold. Missing or malformed quads are
// never stable.
func IsStable(current, previous geometry.Quad, threshold float64) bool {
	c, err := geometry.Canonicalize(current)
	if err != nil {
		return false
	}
	p, err := geometry.Canonicalize(previous)
	if err != nil {
		return false
	}
	d, err := geometry.MaxDisplacement(c, p)
	if err != nil {
		return false
	}
	return d < threshold
}

// State is everything remembered between frames.
type State struct {
	// Previous is the last detection, nil when nothing is being tracked.
	Previous geometry.Quad

	// StableSince is when the current stable run began.
	StableSince time.Time
}

// Tracking reports whether a stable run is in progress.
func (s State) Tracking() bool {
	return s.Previous != nil
}

// Remaining returns how much longer the page must stay still at now before
// a capture fires. It is zero when nothing is tracked.
func (s State) Remaining(now time.Time, opts Options) time.Duration {
	if !s.Tracking() {
		return 0
	}
	left := opts.Hold() - now.Sub(s.StableSince)
	if left < 0 {
		return 0
	}
	return left
}

// Advance applies one frame's detection to s and reports whether a capture
// fires. detected is nil when the frame had no detection.
//
//   - No detection: tracking stops.
//   - First detection, or a jump of StableDistance or more: the clock
//     restarts at now.
//   - Stable for at least the hold duration: capture, and tracking stops.
//
// The returned state never shares memory with detected.
func Advance(s State, detected geometry.Quad, now time.Time, opts Options) (State, bool) {
	if detected.Validate() != nil {
		return State{}, false
	}

	if !s.Tracking() || !IsStable(detected, s.Previous, opts.StableDistance) {
		return State{Previous: detected.Clone(), StableSince: now}, false
	}

	if now.Sub(s.StableSince) >= opts.Hold() {
		return State{}, true
	}

	return State{Previous: detected.Clone(), StableSince: s.StableSince}, false
}
