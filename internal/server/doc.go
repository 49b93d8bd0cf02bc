// Package server implements the MCP (Model Context Protocol) server for
// document scanning.
//
// The server exposes page detection, perspective correction and live
// auto-capture as MCP tools over a JSON-RPC 2.0 stdio transport, so an MCP
// client can turn photographs and camera frames into flat, readable pages.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Still images:
//   - doc_load: Load a photograph and report its metadata
//   - doc_detect_quad: Find the page quadrilateral
//   - doc_mask: Show the paper mask detection works from
//   - doc_preview: Draw the page outline over the photograph
//
// Page extraction:
//   - doc_rectify: Warp the page to an upright rectangle
//   - doc_adjust_corners: Warp hand-placed corners to a fixed size
//   - doc_scan: Detect, crop and enhance in one call
//   - doc_enhance: Sharpen and brighten an image
//
// Live sessions:
//   - doc_session_start: Begin tracking a frame sequence
//   - doc_session_frame: Process one frame, auto-capturing when stable
//   - doc_session_capture: Capture the latest frame now
//   - doc_session_reset: Restart the stability countdown
//   - doc_session_stop: End the session
//
// # Configuration
//
// The server is created with a config.Config, normally from DOCSCAN_*
// environment variables. Every tool that takes a "config" argument merges
// it over that base for the one call; sessions keep the merged
// configuration for their whole life.
//
// # Image Caching
//
// Still photographs are cached by path and reused across tool calls. Session
// frames bypass the cache because a frame grabber usually overwrites the same
// file for every frame.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A photograph without a page is not an error: doc_detect_quad and doc_scan
// report found=false.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(cfg).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
