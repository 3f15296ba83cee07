package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/s-elg/scannning-app/internal/geometry"
)

// createTestImageFile writes a light page on a dark desk and returns its
// path. The page covers [margin, width-margin] x [margin, height-margin].
func createTestImageFile(t *testing.T, width, height, margin int) string {
	t.Helper()

	desk := color.RGBA{40, 40, 40, 255}
	paper := color.RGBA{230, 230, 230, 255}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := desk
			if x >= margin && x <= width-margin && y >= margin && y <= height-margin {
				c = paper
			}
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// callTool issues a tools/call request and decodes the tool result into out.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode %s result: %v", name, err)
		}
	}
	return nil
}

func errorKindOf(t *testing.T, e *MCPError) string {
	t.Helper()
	data, ok := e.Data.(map[string]string)
	if !ok {
		t.Fatalf("error data has type %T", e.Data)
	}
	return data["kind"]
}

func mustCall(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()
	if e := callTool(t, s, name, args, out); e != nil {
		t.Fatalf("%s failed: %s %v", name, e.Message, e.Data)
	}
}

type quadResult struct {
	Quad geometry.Quad `json:"quad"`
}

func TestHandleToolsCall_ScanLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 120, 90, 10)

	var info struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Channels  int    `json:"channels"`
		Format    string `json:"format"`
		Extension string `json:"extension"`
	}
	mustCall(t, s, "scan_load", map[string]interface{}{"path": imgPath}, &info)

	if info.Width != 120 || info.Height != 90 {
		t.Errorf("dimensions: got %dx%d, want 120x90", info.Width, info.Height)
	}
	if info.Format != "png" || info.Extension != "png" {
		t.Errorf("format: got %s/%s, want png/png", info.Format, info.Extension)
	}
}

func TestHandleToolsCall_ScanFlow(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 600, 800, 40)

	var det struct {
		Quad       geometry.Quad `json:"quad"`
		Found      bool          `json:"found"`
		Ordered    bool          `json:"ordered"`
		Candidates int           `json:"candidates"`
		Width      int           `json:"width"`
		Height     int           `json:"height"`
	}
	mustCall(t, s, "scan_detect", map[string]interface{}{"path": imgPath}, &det)

	if !det.Found || !det.Ordered {
		t.Fatalf("expected the page outline, got found=%v ordered=%v", det.Found, det.Ordered)
	}
	if d := geometry.Distance(det.Quad[geometry.TopLeft], geometry.Pt(40, 40)); d > 5 {
		t.Errorf("top-left: got %v, want near (40,40)", det.Quad[geometry.TopLeft])
	}
	if det.Width != 600 || det.Height != 800 {
		t.Errorf("dimensions: got %dx%d", det.Width, det.Height)
	}

	// Preview at 0.9 of the 0.25 fit scale and grab the top-left marker there.
	var preview struct {
		Width   int                    `json:"width"`
		Mapping geometry.ScreenMapping `json:"mapping"`
	}
	mustCall(t, s, "scan_preview", map[string]interface{}{
		"path": imgPath, "width": 150, "height": 200,
	}, &preview)
	if preview.Width != 150 || preview.Mapping.Scale != 0.225 {
		t.Fatalf("unexpected preview: %+v", preview)
	}
	if preview.Mapping.OffsetX != 7 || preview.Mapping.OffsetY != 10 {
		t.Fatalf("unexpected preview offset: %+v", preview.Mapping)
	}

	screen := preview.Mapping.ToScreen(det.Quad[geometry.TopLeft])
	mapping := preview.Mapping

	var hit CornerResult
	mustCall(t, s, "scan_hit_test", map[string]interface{}{
		"path": imgPath, "x": screen.X + 2, "y": screen.Y + 2, "mapping": mapping,
	}, &hit)
	if !hit.Hit || hit.Corner != geometry.TopLeft || hit.CornerName != "top-left" {
		t.Fatalf("expected to grab top-left, got %+v", hit)
	}

	target := preview.Mapping.ToScreen(geometry.Pt(100, 100))
	var dragged CornerResult
	mustCall(t, s, "scan_drag", map[string]interface{}{
		"path": imgPath, "x": target.X, "y": target.Y, "mapping": mapping,
	}, &dragged)
	if geometry.Distance(dragged.Quad[geometry.TopLeft], geometry.Pt(100, 100)) > 1e-6 {
		t.Errorf("top-left after drag: got %v, want (100,100)", dragged.Quad[geometry.TopLeft])
	}

	var released CornerResult
	mustCall(t, s, "scan_release", map[string]interface{}{"path": imgPath}, &released)
	if released.Corner != -1 {
		t.Errorf("release should drop the corner, got %d", released.Corner)
	}

	var page struct {
		Width       int           `json:"width"`
		Height      int           `json:"height"`
		Channels    int           `json:"channels"`
		ImageBase64 string        `json:"image_base64"`
		Quad        geometry.Quad `json:"quad"`
	}
	mustCall(t, s, "scan_rectify", map[string]interface{}{"path": imgPath}, &page)
	if page.Channels != 3 || page.Width == 0 || page.Height == 0 || page.ImageBase64 == "" {
		t.Errorf("unexpected rectified page: %dx%dx%d", page.Width, page.Height, page.Channels)
	}
	if geometry.Distance(page.Quad[geometry.TopLeft], geometry.Pt(100, 100)) > 1e-6 {
		t.Errorf("rectify should use the edited outline, got %v", page.Quad)
	}

	mustCall(t, s, "scan_enhance", map[string]interface{}{"path": imgPath}, &page)
	if page.Channels != 1 {
		t.Errorf("enhanced page channels: got %d, want 1", page.Channels)
	}

	// The session is still editable after output.
	mustCall(t, s, "scan_drag", map[string]interface{}{
		"path": imgPath, "x": 90, "y": 90, "corner": 0,
	}, &dragged)
	if dragged.Quad[geometry.TopLeft] != geometry.Pt(90, 90) {
		t.Errorf("drag after rectify: got %v", dragged.Quad[geometry.TopLeft])
	}
}

func TestHandleToolsCall_ScanExport(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 300, 400, 20)
	dir := t.TempDir()

	tests := []struct {
		name         string
		output       string
		raw          bool
		wantFormat   string
		wantChannels int
	}{
		{"pdf", "page.pdf", false, "pdf", 1},
		{"png", "page.png", false, "image", 1},
		{"raw jpeg", "page.jpg", true, "image", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.output)
			var res ExportResult
			mustCall(t, s, "scan_export", map[string]interface{}{
				"path": imgPath, "output_path": out, "raw": tt.raw,
			}, &res)

			if res.Format != tt.wantFormat || res.Channels != tt.wantChannels {
				t.Errorf("got format=%s channels=%d, want %s/%d", res.Format, res.Channels, tt.wantFormat, tt.wantChannels)
			}
			if _, err := os.Stat(out); err != nil {
				t.Errorf("output not written: %v", err)
			}
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "page.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("page.pdf is not a PDF")
	}
}

func TestHandleToolsCall_DegenerateOutline(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 200, 200, 20)

	mustCall(t, s, "scan_set_corners", map[string]interface{}{
		"path": imgPath,
		"corners": []map[string]float64{
			{"x": 10, "y": 10}, {"x": 10, "y": 10}, {"x": 150, "y": 150}, {"x": 10, "y": 150},
		},
	}, nil)

	e := callTool(t, s, "scan_rectify", map[string]interface{}{"path": imgPath}, nil)
	if e == nil {
		t.Fatal("expected rectify to reject the outline")
	}
	if e.Code != -32000 {
		t.Errorf("code: got %d, want -32000", e.Code)
	}
	if kind := errorKindOf(t, e); kind != "degenerate_quadrilateral" {
		t.Errorf("kind: got %s, want degenerate_quadrilateral", kind)
	}

	// Corners are accepted in any order and the session recovers.
	var set quadResult
	mustCall(t, s, "scan_set_corners", map[string]interface{}{
		"path": imgPath,
		"corners": []map[string]float64{
			{"x": 180, "y": 180}, {"x": 20, "y": 20}, {"x": 20, "y": 180}, {"x": 180, "y": 20},
		},
	}, &set)
	want := geometry.Quad{{X: 20, Y: 20}, {X: 180, Y: 20}, {X: 180, Y: 180}, {X: 20, Y: 180}}
	if set.Quad != want {
		t.Errorf("set corners: got %v, want %v", set.Quad, want)
	}
	mustCall(t, s, "scan_rectify", map[string]interface{}{"path": imgPath}, nil)
}

func TestHandleToolsCall_ExplicitCorners(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 200, 200, 20)

	var page PageResult
	mustCall(t, s, "scan_rectify", map[string]interface{}{
		"path": imgPath,
		"corners": []map[string]float64{
			{"x": 0, "y": 0}, {"x": 99, "y": 0}, {"x": 99, "y": 140}, {"x": 0, "y": 140},
		},
	}, &page)
	if page.ImageResult == nil || page.Height != 140 || page.Width != 99 {
		t.Errorf("unexpected page: %+v", page.ImageResult)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 100, 10)

	junk := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(junk, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		wantCode int
		wantKind string
	}{
		{"undecodable", "scan_load", map[string]interface{}{"path": junk}, -32000, "image_decode_failure"},
		{"missing file", "scan_detect", map[string]interface{}{"path": "/nonexistent/photo.jpg"}, -32000, "file_not_found"},
		{"missing path", "scan_detect", map[string]interface{}{}, -32602, "invalid_arguments"},
		{"bad thresholds", "scan_detect", map[string]interface{}{"path": imgPath, "threshold_low": 300, "threshold_high": 100}, -32602, "invalid_arguments"},
		{"no session", "scan_hit_test", map[string]interface{}{"path": imgPath, "x": 1, "y": 1}, -32000, "no_session"},
		{"missing point", "scan_hit_test", map[string]interface{}{"path": imgPath}, -32602, "invalid_arguments"},
		{"bad corner", "scan_drag", map[string]interface{}{"path": imgPath, "x": 1, "y": 1, "corner": 7}, -32602, "invalid_arguments"},
		{"three corners", "scan_set_corners", map[string]interface{}{"path": imgPath, "corners": []map[string]float64{{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 1, "y": 1}}}, -32602, "invalid_arguments"},
		{"no output path", "scan_export", map[string]interface{}{"path": imgPath}, -32602, "invalid_arguments"},
		{"unknown tool", "scan_ocr", map[string]interface{}{"path": imgPath}, -32602, "invalid_arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := callTool(t, s, tt.tool, tt.args, nil)
			if e == nil {
				t.Fatal("expected an error")
			}
			if e.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d", e.Code, tt.wantCode)
			}
			if kind := errorKindOf(t, e); kind != tt.wantKind {
				t.Errorf("kind: got %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestHandleToolsCall_DragWithoutGrab(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 100, 10)

	mustCall(t, s, "scan_detect", map[string]interface{}{"path": imgPath}, nil)

	e := callTool(t, s, "scan_drag", map[string]interface{}{"path": imgPath, "x": 5, "y": 5}, nil)
	if e == nil {
		t.Fatal("expected an error")
	}
	if kind := errorKindOf(t, e); kind != "no_corner_grabbed" {
		t.Errorf("kind: got %s, want no_corner_grabbed", kind)
	}
}

func TestHandleToolsCall_HitTestMiss(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 200, 200, 20)

	mustCall(t, s, "scan_detect", map[string]interface{}{"path": imgPath}, nil)

	var res CornerResult
	mustCall(t, s, "scan_hit_test", map[string]interface{}{"path": imgPath, "x": 100, "y": 100}, &res)
	if res.Hit || res.Corner != -1 || res.CornerName != "" {
		t.Errorf("expected a miss, got %+v", res)
	}
}

func TestHandleToolsCall_PreviewOpensSession(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 200, 100, 10)

	var preview struct {
		Width       int                    `json:"width"`
		Height      int                    `json:"height"`
		Mapping     geometry.ScreenMapping `json:"mapping"`
		ImageBase64 string                 `json:"image_base64"`
	}
	mustCall(t, s, "scan_preview", map[string]interface{}{"path": imgPath}, &preview)

	if preview.Width != 800 || preview.Height != 600 {
		t.Errorf("default box: got %dx%d, want 800x600", preview.Width, preview.Height)
	}
	if preview.Mapping.Scale != 3.6 || preview.Mapping.OffsetX != 40 || preview.Mapping.OffsetY != 120 {
		t.Errorf("mapping: got %+v, want scale 3.6 offset (40,120)", preview.Mapping)
	}
	if preview.ImageBase64 == "" {
		t.Error("preview image is empty")
	}

	s.mu.Lock()
	_, ok := s.sessions[imgPath]
	s.mu.Unlock()
	if !ok {
		t.Error("preview should open a session")
	}
}

func TestHandleToolsCall_EdgeDetect(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 100, 20)

	var res struct {
		Width      int `json:"width"`
		EdgePixels int `json:"edge_pixels"`
	}
	mustCall(t, s, "scan_edge_detect", map[string]interface{}{"path": imgPath}, &res)

	if res.Width != 100 || res.EdgePixels == 0 {
		t.Errorf("unexpected edge result: %+v", res)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp == nil || resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("code: got %d, want -32602", resp.Error.Code)
	}
}

func TestMappingOrIdentity(t *testing.T) {
	if m := mappingOrIdentity(nil); m != geometry.Identity {
		t.Errorf("nil mapping: got %+v", m)
	}
	m := mappingOrIdentity(&geometry.ScreenMapping{OffsetX: 5})
	if m.Scale != 1 || m.OffsetX != 5 {
		t.Errorf("zero scale: got %+v, want scale 1 offset 5", m)
	}
}
