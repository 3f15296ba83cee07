package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photographed document",
	}
}

func pointProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	}
}

func mappingProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Screen mapping returned by scan_preview: screen = image*scale + offset. Defaults to identity.",
		"properties": map[string]interface{}{
			"scale":    map[string]interface{}{"type": "number"},
			"offset_x": map[string]interface{}{"type": "number"},
			"offset_y": map[string]interface{}{"type": "number"},
		},
	}
}

func cornersProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"minItems":    4,
		"maxItems":    4,
		"items":       pointProperty("Image-space corner"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Loading and Detection
		{
			Name:        "scan_load",
			Description: "Load a photographed document and return its dimensions, channel count and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scan_detect",
			Description: "Detect the document outline. Returns the four corners (top-left, top-right, bottom-right, bottom-left) or the full frame when no outline is found, and opens a corner editing session for the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Canny low threshold. Default 75",
						"default":     75,
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "Canny high threshold. Default 200",
						"default":     200,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scan_preview",
			Description: "Render a display-sized preview with the current outline drawn on it. Returns a base64 PNG and the screen mapping to use for scan_hit_test and scan_drag.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Display box width. Default 800",
						"default":     800,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Display box height. Default 600",
						"default":     600,
					},
					"edge_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex. Default #00FFFF",
					},
				},
				"required": []string{"path"},
			},
		},

		// Corner Editing
		{
			Name:        "scan_hit_test",
			Description: "Grab the corner within 15 screen units of a point. Returns the corner index or hit=false.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"x":       map[string]interface{}{"type": "number", "description": "Screen X"},
					"y":       map[string]interface{}{"type": "number", "description": "Screen Y"},
					"mapping": mappingProperty(),
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "scan_drag",
			Description: "Move the grabbed corner (or the given corner) to a screen point. The position is clamped to the image and corners are not reordered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"x":       map[string]interface{}{"type": "number", "description": "Screen X"},
					"y":       map[string]interface{}{"type": "number", "description": "Screen Y"},
					"mapping": mappingProperty(),
					"corner": map[string]interface{}{
						"type":        "integer",
						"description": "Corner to move (0=top-left, 1=top-right, 2=bottom-right, 3=bottom-left). Defaults to the grabbed corner",
						"minimum":     0,
						"maximum":     3,
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "scan_release",
			Description: "Release the grabbed corner.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scan_set_corners",
			Description: "Replace the outline with explicit image-space corners in any order. Corners are sorted into top-left, top-right, bottom-right, bottom-left when possible and clamped to the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"corners": cornersProperty("Four image-space corners"),
				},
				"required": []string{"path", "corners"},
			},
		},

		// Output
		{
			Name:        "scan_rectify",
			Description: "Unwarp the outlined page to an upright A4-proportioned image. Returns a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"corners": cornersProperty("Optional corners to use instead of the session outline"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scan_enhance",
			Description: "Unwarp and enhance the outlined page into a high-contrast grayscale scan. Returns a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"corners": cornersProperty("Optional corners to use instead of the session outline"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scan_export",
			Description: "Unwarp and enhance the outlined page and write it to output_path. A .pdf extension produces an A4 PDF page; .png and .jpg write an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Destination file (.pdf, .png, .jpg)",
					},
					"corners": cornersProperty("Optional corners to use instead of the session outline"),
					"raw": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip enhancement and export the rectified color page",
						"default":     false,
					},
				},
				"required": []string{"path", "output_path"},
			},
		},

		// Diagnostics
		{
			Name:        "scan_edge_detect",
			Description: "Run the detector's edge stage and return the edge map as a base64 PNG. Useful to see why an outline was or was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Canny low threshold. Default 75",
						"default":     75,
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "Canny high threshold. Default 200",
						"default":     200,
					},
				},
				"required": []string{"path"},
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
