package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the " + what,
	}
}

const configDescription = "Partial configuration overriding the server defaults for this call, " +
	"e.g. {\"detection\": {\"val_min\": 160, \"shrink_factor\": 0.05}}. " +
	"Sections: detection, stability, enhance, overlay, crop, preview_max_side."

func configProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": configDescription,
	}
}

func cornersProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"minItems":    4,
		"maxItems":    4,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "integer"},
				"y": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x", "y"},
		},
	}
}

func outputPathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional path to save the full-resolution page; the format follows the extension (.png, .jpg, .tif, .bmp, .gif)",
	}
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by doc_session_start",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Still images
		{
			Name:        "doc_load",
			Description: "Load a photograph and return its dimensions, format and file size. The decoded image is cached for the other doc_* tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "doc_detect_quad",
			Description: "Find the sheet of paper in a photograph. Returns found=false when no bright, low-saturation four-sided region covers between min_area_fraction and max_area_fraction of the image. Corners are ordered top-left, top-right, bottom-right, bottom-left.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("image file"),
					"config": configProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "doc_mask",
			Description: "Return the cleaned paper mask used by detection as a base64 PNG, with the fraction of the image it covers. Use this to tune the colour thresholds when detection fails.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("image file"),
					"config": configProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "doc_preview",
			Description: "Draw the page outline over the photograph and return it as a base64 PNG. Without corners the page is detected first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty("image file"),
					"corners": cornersProperty("Optional outline to draw instead of the detected one"),
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Optional caption drawn in the top-left corner",
					},
					"config": configProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Page extraction
		{
			Name:        "doc_rectify",
			Description: "Warp the page onto an upright rectangle sized from its longer opposite edges. Corners may be given in any order; without corners the page is detected first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("image file"),
					"corners":     cornersProperty("Optional page corners in image coordinates"),
					"output_path": outputPathProperty(),
					"config":      configProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "doc_adjust_corners",
			Description: "Warp a hand-placed outline to a fixed size. Corners are used exactly as given: top-left, top-right, bottom-right, bottom-left. The output defaults to the photograph's own dimensions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty("image file"),
					"corners": cornersProperty("Corners ordered top-left, top-right, bottom-right, bottom-left"),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Output width in pixels (default: image width)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Output height in pixels (default: image height)",
					},
					"enhance": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply sharpen, contrast stretch and brightness",
						"default":     false,
					},
					"output_path": outputPathProperty(),
					"config":      configProperty(),
				},
				"required": []string{"path", "corners"},
			},
		},
		{
			Name:        "doc_scan",
			Description: "Detect, crop and enhance the page in one step. Reports found=false with the detection details when no page is visible.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("image file"),
					"enhance": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply sharpen, contrast stretch and brightness",
						"default":     true,
					},
					"output_path": outputPathProperty(),
					"config":      configProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "doc_enhance",
			Description: "Sharpen, contrast-stretch and brighten an image for readability, typically a page already rectified.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("image file"),
					"output_path": outputPathProperty(),
					"config":      configProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Live sessions
		{
			Name:        "doc_session_start",
			Description: "Start a live capture session. Feed camera frames with doc_session_frame; a page that stays within stable_distance pixels for hold_seconds is captured automatically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"enhance": map[string]interface{}{
						"type":        "boolean",
						"description": "Enhance captured pages",
						"default":     true,
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory where captured pages are saved as <capture id>.png",
					},
					"config": configProperty(),
				},
			},
		},
		{
			Name:        "doc_session_frame",
			Description: "Process one camera frame. Returns the session mode, seconds left before auto-capture, the detection, an overlay preview and, on the frame that completes a stable hold, the captured page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"path":       pathProperty("frame image; frames are never cached"),
					"time_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Frame timestamp in Unix milliseconds (default: now)",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the overlay preview",
						"default":     true,
					},
				},
				"required": []string{"session_id", "path"},
			},
		},
		{
			Name:        "doc_session_capture",
			Description: "Capture the most recent frame now, regardless of stability. The session goes idle until doc_session_reset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "doc_session_reset",
			Description: "Restart the stability countdown. An idle session is made live again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "doc_session_stop",
			Description: "End a session and release it. Returns the final frame and capture counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
