// Package server implements the MCP (Model Context Protocol) server for the
// document scanner.
//
// The server exposes the scanning pipeline as tools so that an MCP client can
// load a photograph, find the page in it, let a user correct the outline on a
// preview and export an upright, enhanced scan.
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
// Loading and Detection:
//   - scan_load: Load image and get metadata
//   - scan_detect: Find the document outline and open an editing session
//   - scan_preview: Render the outline on a display-sized preview
//
// Corner Editing:
//   - scan_hit_test: Grab the corner under a screen point
//   - scan_drag: Move the grabbed corner
//   - scan_release: Let go of the grabbed corner
//   - scan_set_corners: Replace the outline with explicit corners
//
// Output:
//   - scan_rectify: Unwarp the page
//   - scan_enhance: Unwarp and enhance the page
//   - scan_export: Write the page as PDF or an image file
//
// Diagnostics:
//   - scan_edge_detect: Show the detector's edge map
//
// # Sessions
//
// Each image path has at most one editing session. scan_detect opens or
// replaces it; the editing tools fail with kind "no_session" until it
// exists. Output tools cut along a finalized copy of the session, so the
// outline can still be corrected after a rejected rectification.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, -32000 for any other tool failure
//   - message: Human-readable error description
//   - data: {"kind": ..., "error": ...} where kind is one of
//     image_decode_failure, degenerate_quadrilateral, no_session,
//     no_corner_grabbed, session_finalized, file_not_found, invalid_arguments
//     or tool_failure
//
// # Usage
//
//	p, err := pipeline.New(pipeline.DefaultConfig(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(p, logger).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
