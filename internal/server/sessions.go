package server

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/tracking"
)

// session is one live capture run.
type session struct {
	id        string
	cfg       config.Config
	tracker   *tracking.Tracker
	enhance   bool
	outputDir string
	created   time.Time
}

// lookup returns the session with the given ID.
func (s *Server) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %q", id)
	}
	return sess, nil
}

// captureResult is a captured frame and the page cut out of it.
type captureResult struct {
	ID      string        `json:"id"`
	Manual  bool          `json:"manual"`
	Time    time.Time     `json:"time"`
	Corners geometry.Quad `json:"corners,omitempty"`
	Page    *pageResult   `json:"page"`
}

// finishCapture crops, enhances and optionally saves the page of ev.
// A manual capture without a detected page keeps the whole frame.
func (sess *session) finishCapture(ev *tracking.CaptureEvent) (*captureResult, error) {
	var (
		page *image.NRGBA
		err  error
	)
	if len(ev.Quad) == 4 {
		page, err = cropPage(ev.Image, ev.Quad, sess.cfg.Crop)
	} else {
		page = docimaging.ToNRGBA(ev.Image)
	}
	if err != nil {
		return nil, err
	}
	if sess.enhance {
		page, err = docimaging.Enhance(page, sess.cfg.Enhance)
		if err != nil {
			return nil, err
		}
	}

	var outputPath string
	if sess.outputDir != "" {
		outputPath = filepath.Join(sess.outputDir, ev.ID+".png")
	}
	rendered, err := renderPage(page, outputPath, sess.cfg.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	if sess.cfg.Debug() {
		log.Printf("session %s: captured %s (manual=%v)", sess.id, ev.ID, ev.Manual)
	}
	return &captureResult{
		ID:      ev.ID,
		Manual:  ev.Manual,
		Time:    ev.Time,
		Corners: ev.Quad,
		Page:    rendered,
	}, nil
}

// statusResult reports a session's state.
type statusResult struct {
	SessionID        string        `json:"session_id"`
	Mode             tracking.Mode `json:"mode"`
	Frames           int           `json:"frames"`
	Captures         int           `json:"captures"`
	RemainingSeconds float64       `json:"remaining_seconds"`
	LastCorners      geometry.Quad `json:"last_corners,omitempty"`
}

func newStatusResult(id string, st tracking.Status) *statusResult {
	return &statusResult{
		SessionID:        id,
		Mode:             st.Mode,
		Frames:           st.Frames,
		Captures:         st.Captures,
		RemainingSeconds: st.Remaining.Seconds(),
		LastCorners:      st.LastQuad,
	}
}

// === Session Handlers ===

type sessionStartArgs struct {
	Config    json.RawMessage `json:"config,omitempty"`
	Enhance   *bool           `json:"enhance,omitempty"`
	OutputDir string          `json:"output_dir,omitempty"`
}

func (s *Server) handleSessionStart(args json.RawMessage) (interface{}, error) {
	var a sessionStartArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	cfg, err := s.cfg.Merge(a.Config)
	if err != nil {
		return nil, err
	}
	tr, err := tracking.New(cfg.TrackerConfig())
	if err != nil {
		return nil, err
	}
	tr.Start()

	sess := &session{
		id:        uuid.NewString(),
		cfg:       cfg,
		tracker:   tr,
		enhance:   true,
		outputDir: a.OutputDir,
		created:   time.Now(),
	}
	if a.Enhance != nil {
		sess.enhance = *a.Enhance
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if cfg.Debug() {
		log.Printf("session %s started", sess.id)
	}
	return newStatusResult(sess.id, tr.Snapshot()), nil
}

type sessionFrameArgs struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`

	// TimeMS is the frame timestamp in Unix milliseconds. 0 means now.
	TimeMS int64 `json:"time_ms,omitempty"`

	// Preview returns the overlay image when true (the default).
	Preview *bool `json:"preview,omitempty"`
}

type frameResult struct {
	SessionID        string                  `json:"session_id"`
	Mode             tracking.Mode           `json:"mode"`
	RemainingSeconds float64                 `json:"remaining_seconds"`
	Detection        *detection.QuadResult   `json:"detection"`
	Preview          *docimaging.ImageResult `json:"preview,omitempty"`
	Capture          *captureResult          `json:"capture,omitempty"`
}

func (s *Server) handleSessionFrame(args json.RawMessage) (interface{}, error) {
	var a sessionFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}

	img, err := docimaging.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	frame := tracking.Frame{Image: img}
	if a.TimeMS != 0 {
		frame.Time = time.UnixMilli(a.TimeMS)
	}

	upd, err := sess.tracker.Process(frame)
	if err != nil {
		return nil, err
	}

	res := &frameResult{
		SessionID:        sess.id,
		Mode:             upd.Mode,
		RemainingSeconds: upd.Remaining.Seconds(),
		Detection:        upd.Detection,
	}
	if a.Preview == nil || *a.Preview {
		res.Preview, err = docimaging.EncodePNG(upd.Display, sess.cfg.PreviewMaxSide)
		if err != nil {
			return nil, err
		}
	}
	if upd.Capture != nil {
		res.Capture, err = sess.finishCapture(upd.Capture)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

type sessionIDArgs struct {
	SessionID string `json:"session_id"`
}

// handleSessionCapture captures the latest frame immediately. The session
// becomes idle and accepts no further frames until it is started again.
func (s *Server) handleSessionCapture(args json.RawMessage) (interface{}, error) {
	var a sessionIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	ev, err := sess.tracker.CaptureNow()
	if err != nil {
		return nil, err
	}
	return sess.finishCapture(ev)
}

func (s *Server) handleSessionReset(args json.RawMessage) (interface{}, error) {
	var a sessionIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	// An idle session is restarted so it can take frames again.
	if sess.tracker.Mode() == tracking.ModeIdle {
		sess.tracker.Start()
	} else {
		sess.tracker.Reset()
	}
	return newStatusResult(sess.id, sess.tracker.Snapshot()), nil
}

func (s *Server) handleSessionStop(args json.RawMessage) (interface{}, error) {
	var a sessionIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	sess.tracker.Stop()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	if sess.cfg.Debug() {
		log.Printf("session %s stopped after %s", sess.id, time.Since(sess.created).Round(time.Millisecond))
	}
	return newStatusResult(sess.id, sess.tracker.Snapshot()), nil
}
