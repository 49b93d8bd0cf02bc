package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "doc_detect_quad", "doc_scan").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.safeExecute(params.Name, params.Arguments)
	if err != nil {
		if s.cfg.Debug() {
			log.Printf("%s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each still-image handler:
//  1. Unmarshals arguments from JSON
//  2. Merges the optional "config" override over the server configuration
//  3. Loads the photograph through the cache
//  4. Runs detection, rectification or enhancement
//  5. Returns the result or error
//
// Session handlers load frames without the cache, since a frame grabber
// usually rewrites the same file.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Still images
	case "doc_load":
		return s.handleDocLoad(args)
	case "doc_detect_quad":
		return s.handleDocDetectQuad(args)
	case "doc_mask":
		return s.handleDocMask(args)
	case "doc_preview":
		return s.handleDocPreview(args)

	// Page extraction
	case "doc_rectify":
		return s.handleDocRectify(args)
	case "doc_adjust_corners":
		return s.handleDocAdjustCorners(args)
	case "doc_scan":
		return s.handleDocScan(args)
	case "doc_enhance":
		return s.handleDocEnhance(args)

	// Live sessions
	case "doc_session_start":
		return s.handleSessionStart(args)
	case "doc_session_frame":
		return s.handleSessionFrame(args)
	case "doc_session_capture":
		return s.handleSessionCapture(args)
	case "doc_session_reset":
		return s.handleSessionReset(args)
	case "doc_session_stop":
		return s.handleSessionStop(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// safeExecute runs executeTool, reporting a panic as a tool error.
func (s *Server) safeExecute(name string, args json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in %s: %v", name, r)
			result, err = nil, fmt.Errorf("internal error in %s: %v", name, r)
		}
	}()
	return s.executeTool(name, args)
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared argument handling ===

type pointArg struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func toQuad(pts []pointArg) geometry.Quad {
	if len(pts) == 0 {
		return nil
	}
	q := make(geometry.Quad, len(pts))
	for i, p := range pts {
		q[i] = geometry.Pt(p.X, p.Y)
	}
	return q
}

// imageArgs is embedded by every still-image tool.
type imageArgs struct {
	Path   string          `json:"path"`
	Config json.RawMessage `json:"config,omitempty"`
}

// load merges the call's config override and loads the photograph.
func (s *Server) load(a imageArgs) (image.Image, config.Config, error) {
	cfg, err := s.cfg.Merge(a.Config)
	if err != nil {
		return nil, cfg, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, cfg, err
	}
	return img, cfg, nil
}

// pageResult describes an extracted page.
type pageResult struct {
	Width      int                     `json:"width"`
	Height     int                     `json:"height"`
	OutputPath string                  `json:"output_path,omitempty"`
	Image      *docimaging.ImageResult `json:"image"`
}

// renderPage optionally saves page at full resolution and returns it
// encoded for the client.
func renderPage(page image.Image, outputPath string, maxSide int) (*pageResult, error) {
	if outputPath != "" {
		if err := docimaging.SaveFile(page, outputPath); err != nil {
			return nil, err
		}
	}
	enc, err := docimaging.EncodePNG(page, maxSide)
	if err != nil {
		return nil, err
	}
	b := page.Bounds()
	return &pageResult{
		Width:      b.Dx(),
		Height:     b.Dy(),
		OutputPath: outputPath,
		Image:      enc,
	}, nil
}

// cropPage cuts the page out of img with the configured crop mode.
func cropPage(img image.Image, q geometry.Quad, crop scanner.Crop) (*image.NRGBA, error) {
	if crop == scanner.CropBounds {
		return rectify.CropBounds(img, q)
	}
	return rectify.Rectify(img, q)
}

// === Still Image Handlers ===

func (s *Server) handleDocLoad(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return docimaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleDocDetectQuad(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, cfg, err := s.load(a)
	if err != nil {
		return nil, err
	}
	return detection.DetectQuad(img, cfg.Detection)
}

type maskResult struct {
	*docimaging.ImageResult
	PaperFraction float64 `json:"paper_fraction"`
}

func (s *Server) handleDocMask(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, cfg, err := s.load(a)
	if err != nil {
		return nil, err
	}

	mask, err := detection.BuildMask(img, cfg.Detection)
	if err != nil {
		return nil, err
	}
	on := 0
	for _, v := range mask.Pix {
		if v > 127 {
			on++
		}
	}

	enc, err := docimaging.EncodePNG(mask, cfg.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	return &maskResult{
		ImageResult:   enc,
		PaperFraction: float64(on) / float64(len(mask.Pix)),
	}, nil
}

type docPreviewArgs struct {
	imageArgs
	Corners []pointArg `json:"corners,omitempty"`
	Label   string     `json:"label,omitempty"`
}

type previewResult struct {
	Detection *detection.QuadResult   `json:"detection,omitempty"`
	Corners   geometry.Quad           `json:"corners,omitempty"`
	Image     *docimaging.ImageResult `json:"image"`
}

func (s *Server) handleDocPreview(args json.RawMessage) (interface{}, error) {
	var a docPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, cfg, err := s.load(a.imageArgs)
	if err != nil {
		return nil, err
	}

	res := &previewResult{}
	quad := toQuad(a.Corners)
	if quad == nil {
		det, err := detection.DetectQuad(img, cfg.Detection)
		if err != nil {
			return nil, err
		}
		res.Detection = det
		quad = det.Corners
		if a.Label == "" {
			a.Label = "No page found"
			if det.Found {
				a.Label = fmt.Sprintf("Page %.0f%%", det.AreaFraction*100)
			}
		}
	} else if err := quad.Validate(); err != nil {
		return nil, err
	}
	res.Corners = quad

	overlay, err := docimaging.DrawQuadOverlay(img, quad, cfg.Overlay, a.Label)
	if err != nil {
		return nil, err
	}
	res.Image, err = docimaging.EncodePNG(overlay, cfg.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Page Extraction Handlers ===

type docRectifyArgs struct {
	imageArgs
	Corners    []pointArg `json:"corners,omitempty"`
	OutputPath string     `json:"output_path,omitempty"`
}

func (s *Server) handleDocRectify(args json.RawMessage) (interface{}, error) {
	var a docRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, cfg, err := s.load(a.imageArgs)
	if err != nil {
		return nil, err
	}

	quad := toQuad(a.Corners)
	if quad == nil {
		det, err := detection.DetectQuad(img, cfg.Detection)
		if err != nil {
			return nil, err
		}
		if !det.Found {
			return nil, scanner.ErrNoDetection
		}
		quad = det.Corners
	}

	page, err := cropPage(img, quad, cfg.Crop)
	if err != nil {
		return nil, err
	}
	return renderPage(page, a.OutputPath, cfg.PreviewMaxSide)
}

type docAdjustCornersArgs struct {
	imageArgs
	Corners    []pointArg `json:"corners"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	Enhance    bool       `json:"enhance,omitempty"`
	OutputPath string     `json:"output_path,omitempty"`
}

// handleDocAdjustCorners warps user-placed corners, given as top-left,
// top-right, bottom-right, bottom-left. The output defaults to the size of
// the source photograph.
func (s *Server) handleDocAdjustCorners(args json.RawMessage) (interface{}, error) {
	var a docAdjustCornersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	quad := toQuad(a.Corners)
	if err := quad.Validate(); err != nil {
		return nil, err
	}
	img, cfg, err := s.load(a.imageArgs)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if a.Width == 0 {
		a.Width = b.Dx()
	}
	if a.Height == 0 {
		a.Height = b.Dy()
	}

	corners := [4]geometry.Point{quad[0], quad[1], quad[2], quad[3]}
	page, err := rectify.WarpTo(img, corners, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	if a.Enhance {
		page, err = docimaging.Enhance(page, cfg.Enhance)
		if err != nil {
			return nil, err
		}
	}
	return renderPage(page, a.OutputPath, cfg.PreviewMaxSide)
}

type docScanArgs struct {
	imageArgs
	Enhance    *bool  `json:"enhance,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

type scanResult struct {
	Found     bool                  `json:"found"`
	Detection *detection.QuadResult `json:"detection"`
	Page      *pageResult           `json:"page,omitempty"`
}

// handleDocScan runs the full still-image pipeline. A photograph without a
// page is reported with found=false rather than as a tool failure.
func (s *Server) handleDocScan(args json.RawMessage) (interface{}, error) {
	var a docScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	enhance := true
	if a.Enhance != nil {
		enhance = *a.Enhance
	}
	img, cfg, err := s.load(a.imageArgs)
	if err != nil {
		return nil, err
	}

	sc, err := scanner.New(cfg.ScannerOptions(enhance))
	if err != nil {
		return nil, err
	}
	res, err := sc.Scan(img)
	if errors.Is(err, scanner.ErrNoDetection) {
		return &scanResult{Detection: res.Detection}, nil
	}
	if err != nil {
		return nil, err
	}

	page, err := renderPage(res.Page, a.OutputPath, cfg.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	return &scanResult{Found: true, Detection: res.Detection, Page: page}, nil
}

type docEnhanceArgs struct {
	imageArgs
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleDocEnhance(args json.RawMessage) (interface{}, error) {
	var a docEnhanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, cfg, err := s.load(a.imageArgs)
	if err != nil {
		return nil, err
	}
	page, err := docimaging.Enhance(img, cfg.Enhance)
	if err != nil {
		return nil, err
	}
	return renderPage(page, a.OutputPath, cfg.PreviewMaxSide)
}
