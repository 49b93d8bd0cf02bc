package tracking

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
)

var (
	// ErrIdle is returned when frames or captures arrive while the tracker
	// is not running, and for a frame whose session ended while it was being
	// detected.
	ErrIdle = errors.New("tracker is idle")

	// ErrNoFrame is returned by CaptureNow before any frame was processed.
	ErrNoFrame = errors.New("no frame received yet")
)

// Mode is the tracker's session state.
type Mode int

const (
	// ModeIdle: not running; frames are rejected.
	ModeIdle Mode = iota
	// ModeLive: running, no page currently tracked.
	ModeLive
	// ModeStabilizing: a page is tracked and the hold countdown is running.
	ModeStabilizing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLive:
		return "live"
	case ModeStabilizing:
		return "stabilizing"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Frame is one camera image. A zero Time means "now".
type Frame struct {
	Image image.Image
	Time  time.Time
}

// CaptureEvent is a frame chosen for scanning.
type CaptureEvent struct {
	ID    string        `json:"id"`
	Image image.Image   `json:"-"`
	Quad  geometry.Quad `json:"quad,omitempty"`
	Time  time.Time     `json:"time"`

	// Manual is true for CaptureNow, false for a stability capture.
	Manual bool `json:"manual"`
}

// Update is the result of processing one frame.
type Update struct {
	// Display is the frame with the current detection drawn over it.
	Display *image.RGBA `json:"-"`

	Detection *detection.QuadResult `json:"detection,omitempty"`
	Mode      Mode                  `json:"mode"`
	Remaining time.Duration         `json:"remaining"`

	// Capture is set on the frame that completed a stable hold.
	Capture *CaptureEvent `json:"capture,omitempty"`

	// Err is set instead of the other fields when the frame failed.
	Err error `json:"-"`
}

// Config bundles the settings a Tracker needs.
type Config struct {
	Detection detection.Options       `json:"detection"`
	Stability Options                 `json:"stability"`
	Overlay   docimaging.OverlayStyle `json:"overlay"`
}

// DefaultConfig returns default detection, stability and overlay settings.
func DefaultConfig() Config {
	return Config{
		Detection: detection.DefaultOptions(),
		Stability: DefaultOptions(),
		Overlay:   docimaging.DefaultOverlayStyle(),
	}
}

// Status is a point-in-time view of a Tracker.
type Status struct {
	Mode        Mode          `json:"mode"`
	Frames      int           `json:"frames"`
	Captures    int           `json:"captures"`
	StableSince time.Time     `json:"stable_since"`
	Remaining   time.Duration `json:"remaining"`
	LastQuad    geometry.Quad `json:"last_quad,omitempty"`
}

// Tracker runs the capture rule over a live frame sequence.
//
// Tracker is safe for concurrent use. Detection runs outside the lock, so
// a slow frame does not block Stop or Reset.
type Tracker struct {
	cfg Config

	mu       sync.Mutex
	mode     Mode
	session  uint64 // bumped whenever a session starts or ends
	state    State
	latest   *Frame
	lastQuad geometry.Quad
	lastTime time.Time
	frames   int
	captures int
}

// New creates an idle tracker.
func New(cfg Config) (*Tracker, error) {
	if err := cfg.Detection.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Stability.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{cfg: cfg}, nil
}

// Start begins a session. Starting a running tracker restarts it.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = ModeLive
	t.session++
	t.resetLocked()
}

// Stop ends the session and drops the latest frame.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = ModeIdle
	t.session++
	t.resetLocked()
}

// Reset clears the stability clock without leaving the session.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{}
	if t.mode == ModeStabilizing {
		t.mode = ModeLive
	}
}

func (t *Tracker) resetLocked() {
	t.state = State{}
	t.latest = nil
	t.lastQuad = nil
	t.lastTime = time.Time{}
}

// Mode returns the current mode.
func (t *Tracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Process detects the page in f, advances the stability state and returns
// the preview. The returned update carries a capture event on the frame
// that completes a hold; the session stays live afterwards.
func (t *Tracker) Process(f Frame) (*Update, error) {
	if f.Image == nil {
		return nil, fmt.Errorf("%w: frame has no image", geometry.ErrInvalidInput)
	}
	t.mu.Lock()
	mode, session := t.mode, t.session
	t.mu.Unlock()
	if mode == ModeIdle {
		return nil, ErrIdle
	}
	if f.Time.IsZero() {
		f.Time = time.Now()
	}

	res, err := detection.DetectQuad(f.Image, t.cfg.Detection)
	if err != nil {
		return nil, err
	}
	var detected geometry.Quad
	if res.Found {
		detected = res.Corners
	}

	t.mu.Lock()
	if t.mode == ModeIdle || t.session != session {
		// Stopped or restarted while detecting.
		t.mu.Unlock()
		return nil, ErrIdle
	}
	next, captured := Advance(t.state, detected, f.Time, t.cfg.Stability)
	t.state = next
	t.latest = &f
	t.lastQuad = detected.Clone()
	t.lastTime = f.Time
	t.frames++
	if captured {
		t.captures++
	}
	if next.Tracking() {
		t.mode = ModeStabilizing
	} else {
		t.mode = ModeLive
	}
	upd := &Update{
		Detection: res,
		Mode:      t.mode,
		Remaining: next.Remaining(f.Time, t.cfg.Stability),
	}
	t.mu.Unlock()

	if captured {
		upd.Capture = &CaptureEvent{
			ID:    uuid.NewString(),
			Image: f.Image,
			Quad:  detected.Clone(),
			Time:  f.Time,
		}
	}

	display, err := docimaging.DrawQuadOverlay(f.Image, detected, t.cfg.Overlay, statusLabel(upd))
	if err != nil {
		return nil, err
	}
	upd.Display = display

	return upd, nil
}

// CaptureNow captures the most recent frame regardless of stability and
// ends the session. The event carries the frame's detection, if any.
func (t *Tracker) CaptureNow() (*CaptureEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode == ModeIdle {
		return nil, ErrIdle
	}
	if t.latest == nil {
		return nil, ErrNoFrame
	}

	ev := &CaptureEvent{
		ID:     uuid.NewString(),
		Image:  t.latest.Image,
		Quad:   t.lastQuad.Clone(),
		Time:   t.latest.Time,
		Manual: true,
	}
	t.captures++
	t.mode = ModeIdle
	t.session++
	t.resetLocked()
	return ev, nil
}

// Snapshot returns the tracker's current status.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Mode:        t.mode,
		Frames:      t.frames,
		Captures:    t.captures,
		StableSince: t.state.StableSince,
		Remaining:   t.state.Remaining(t.lastTime, t.cfg.Stability),
		LastQuad:    t.lastQuad.Clone(),
	}
}

func statusLabel(u *Update) string {
	switch {
	case u.Capture != nil:
		return "Captured"
	case u.Mode == ModeStabilizing:
		return fmt.Sprintf("Hold still %.1fs", u.Remaining.Seconds())
	default:
		return "Searching for page"
	}
}
