package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"

	"github.com/s-elg/scannning-app/internal/detection"
	"github.com/s-elg/scannning-app/internal/editor"
	"github.com/s-elg/scannning-app/internal/export"
	"github.com/s-elg/scannning-app/internal/geometry"
	"github.com/s-elg/scannning-app/internal/imaging"
	"github.com/s-elg/scannning-app/internal/rectify"
)

var (
	errInvalidArguments = errors.New("invalid arguments")
	errNoSession        = errors.New("no editing session for image, run scan_detect first")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scan_detect", "scan_export").
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
// Bad arguments return code -32602. Any other tool failure returns -32000
// with data {"kind": ..., "error": ...}, where kind names the failure class.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		kind := errorKind(err)
		s.log.WithError(err).WithFields(logrus.Fields{
			"tool": params.Name,
			"kind": kind,
		}).Warn("Tool failed")

		data := map[string]string{"kind": kind, "error": err.Error()}
		if errors.Is(err, errInvalidArguments) {
			return s.errorResponse(req.ID, -32602, "Invalid params", data)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", data)
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

// errorKind classifies err for the error data of a failed tool call.
func errorKind(err error) string {
	switch {
	case errors.Is(err, errInvalidArguments):
		return "invalid_arguments"
	case errors.Is(err, imaging.ErrImageDecode):
		return "image_decode_failure"
	case errors.Is(err, rectify.ErrDegenerateQuadrilateral):
		return "degenerate_quadrilateral"
	case errors.Is(err, editor.ErrSessionFinalized):
		return "session_finalized"
	case errors.Is(err, editor.ErrNoCornerGrabbed):
		return "no_corner_grabbed"
	case errors.Is(err, errNoSession):
		return "no_session"
	case errors.Is(err, fs.ErrNotExist):
		return "file_not_found"
	default:
		return "tool_failure"
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Loading and Detection
	case "scan_load":
		return s.handleScanLoad(args)
	case "scan_detect":
		return s.handleScanDetect(args)
	case "scan_preview":
		return s.handleScanPreview(args)

	// Corner Editing
	case "scan_hit_test":
		return s.handleScanHitTest(args)
	case "scan_drag":
		return s.handleScanDrag(args)
	case "scan_release":
		return s.handleScanRelease(args)
	case "scan_set_corners":
		return s.handleScanSetCorners(args)

	// Output
	case "scan_rectify":
		return s.handleScanRectify(args)
	case "scan_enhance":
		return s.handleScanEnhance(args)
	case "scan_export":
		return s.handleScanExport(args)

	// Diagnostics
	case "scan_edge_detect":
		return s.handleScanEdgeDetect(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArguments, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

// decodeArgs unmarshals args into v and checks the image path.
func decodeArgs(args json.RawMessage, v interface{ imagePath() string }) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing arguments", errInvalidArguments)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	if v.imagePath() == "" {
		return fmt.Errorf("%w: path is required", errInvalidArguments)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) imagePath() string { return a.Path }

// mappingOrIdentity treats a missing mapping or a zero scale as identity
// scaling, keeping any offsets.
func mappingOrIdentity(m *geometry.ScreenMapping) geometry.ScreenMapping {
	if m == nil {
		return geometry.Identity
	}
	out := *m
	if out.Scale == 0 {
		out.Scale = 1
	}
	return out
}

// cornersToQuad validates caller-supplied corners and sorts them into
// corner roles. Points that cannot be ordered are kept as given.
func cornersToQuad(corners []geometry.Point) (geometry.Quad, error) {
	if len(corners) != 4 {
		return geometry.Quad{}, fmt.Errorf("%w: expected 4 corners, got %d", errInvalidArguments, len(corners))
	}
	var pts [4]geometry.Point
	copy(pts[:], corners)
	if q, ok := geometry.OrderCorners(pts); ok {
		return q, nil
	}
	return geometry.Quad(pts), nil
}

// === Session helpers ===

// openSession replaces any session for path with one editing q.
func (s *Server) openSession(path string, r *imaging.Raster, q geometry.Quad) {
	sess := s.pipeline.NewSession(r, q)
	s.mu.Lock()
	s.sessions[path] = sess
	s.mu.Unlock()
}

// withSession runs fn on the session for path while holding the lock.
func (s *Server) withSession(path string, fn func(*editor.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[path]
	if !ok {
		return errNoSession
	}
	return fn(sess)
}

// sessionQuad returns the current outline for path, detecting one and
// opening a session when none exists yet.
func (s *Server) sessionQuad(path string, r *imaging.Raster) geometry.Quad {
	s.mu.Lock()
	sess, ok := s.sessions[path]
	if ok {
		q := sess.Quad()
		s.mu.Unlock()
		return q
	}
	s.mu.Unlock()

	q := s.pipeline.Detect(r)
	s.openSession(path, r, q)
	return q
}

// finalQuad picks the outline an output tool cuts along: explicit corners
// when given, otherwise a finalized copy of the session. The session itself
// stays editable so a rejected outline can be corrected.
func (s *Server) finalQuad(path string, r *imaging.Raster, corners []geometry.Point) (geometry.Quad, error) {
	if corners != nil {
		return cornersToQuad(corners)
	}

	s.mu.Lock()
	sess, ok := s.sessions[path]
	var snapshot *editor.Session
	if ok {
		snapshot = sess.Clone()
	}
	s.mu.Unlock()

	if snapshot == nil {
		q := s.pipeline.Detect(r)
		s.openSession(path, r, q)
		snapshot = s.pipeline.NewSession(r, q)
	}
	return snapshot.Finalize()
}

// === Loading and Detection Handlers ===

func (s *Server) handleScanLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type scanDetectArgs struct {
	pathArgs
	ThresholdLow  *float64 `json:"threshold_low"`
	ThresholdHigh *float64 `json:"threshold_high"`
}

// DetectResult is returned by scan_detect.
type DetectResult struct {
	detection.Result
	Corners [4]string `json:"corner_names"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
}

func (s *Server) handleScanDetect(args json.RawMessage) (interface{}, error) {
	var a scanDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var res detection.Result
	if a.ThresholdLow != nil || a.ThresholdHigh != nil {
		cfg := s.pipeline.Config().Detector
		if a.ThresholdLow != nil {
			cfg.LowThreshold = *a.ThresholdLow
		}
		if a.ThresholdHigh != nil {
			cfg.HighThreshold = *a.ThresholdHigh
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArguments, err)
		}
		res = detection.NewDetector(cfg).Detect(r)
		s.log.WithFields(logrus.Fields{
			"path":  a.Path,
			"low":   cfg.LowThreshold,
			"high":  cfg.HighThreshold,
			"found": res.Found,
		}).Info("Detection with custom thresholds")
	} else {
		res = s.pipeline.DetectResult(r)
	}

	s.openSession(a.Path, r, res.Quad)

	return &DetectResult{
		Result:  res,
		Corners: geometry.CornerNames,
		Width:   r.Width,
		Height:  r.Height,
	}, nil
}

type scanPreviewArgs struct {
	pathArgs
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	EdgeColor string `json:"edge_color"`
}

func (s *Server) handleScanPreview(args json.RawMessage) (interface{}, error) {
	var a scanPreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width == 0 {
		a.Width = imaging.DefaultPreviewWidth
	}
	if a.Height == 0 {
		a.Height = imaging.DefaultPreviewHeight
	}
	if a.Width < 0 || a.Height < 0 {
		return nil, fmt.Errorf("%w: invalid preview size %dx%d", errInvalidArguments, a.Width, a.Height)
	}

	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	style := imaging.DefaultOverlayStyle()
	if a.EdgeColor != "" {
		style.EdgeColor = a.EdgeColor
	}
	return imaging.RenderPreview(r, s.sessionQuad(a.Path, r), a.Width, a.Height, style)
}

// === Corner Editing Handlers ===

type screenPointArgs struct {
	pathArgs
	X       *float64                `json:"x"`
	Y       *float64                `json:"y"`
	Mapping *geometry.ScreenMapping `json:"mapping"`
}

func (a *screenPointArgs) point() (geometry.Point, error) {
	if a.X == nil || a.Y == nil {
		return geometry.Point{}, fmt.Errorf("%w: x and y are required", errInvalidArguments)
	}
	return geometry.Pt(*a.X, *a.Y), nil
}

// CornerResult reports the session's outline after an editing step.
type CornerResult struct {
	Hit        bool          `json:"hit"`
	Corner     int           `json:"corner"`
	CornerName string        `json:"corner_name,omitempty"`
	Quad       geometry.Quad `json:"quad"`
}

func newCornerResult(sess *editor.Session, hit bool) *CornerResult {
	res := &CornerResult{Hit: hit, Corner: sess.Grabbed(), Quad: sess.Quad()}
	if res.Corner >= 0 {
		res.CornerName = geometry.CornerNames[res.Corner]
	}
	return res
}

func (s *Server) handleScanHitTest(args json.RawMessage) (interface{}, error) {
	var a screenPointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	pt, err := a.point()
	if err != nil {
		return nil, err
	}

	var res *CornerResult
	err = s.withSession(a.Path, func(sess *editor.Session) error {
		_, hit, err := sess.Grab(pt, mappingOrIdentity(a.Mapping))
		if err != nil {
			return err
		}
		res = newCornerResult(sess, hit)
		return nil
	})
	return res, err
}

type scanDragArgs struct {
	screenPointArgs
	Corner *int `json:"corner"`
}

func (s *Server) handleScanDrag(args json.RawMessage) (interface{}, error) {
	var a scanDragArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	pt, err := a.point()
	if err != nil {
		return nil, err
	}
	if a.Corner != nil && (*a.Corner < 0 || *a.Corner > 3) {
		return nil, fmt.Errorf("%w: corner must be 0-3, got %d", errInvalidArguments, *a.Corner)
	}

	var res *CornerResult
	err = s.withSession(a.Path, func(sess *editor.Session) error {
		if a.Corner != nil {
			if err := sess.GrabCorner(*a.Corner); err != nil {
				return err
			}
		}
		if _, err := sess.Drag(pt, mappingOrIdentity(a.Mapping)); err != nil {
			return err
		}
		res = newCornerResult(sess, true)
		return nil
	})
	return res, err
}

func (s *Server) handleScanRelease(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var res *CornerResult
	err := s.withSession(a.Path, func(sess *editor.Session) error {
		sess.Release()
		res = newCornerResult(sess, false)
		return nil
	})
	return res, err
}

type scanSetCornersArgs struct {
	pathArgs
	Corners []geometry.Point `json:"corners"`
}

func (s *Server) handleScanSetCorners(args json.RawMessage) (interface{}, error) {
	var a scanSetCornersArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	q, err := cornersToQuad(a.Corners)
	if err != nil {
		return nil, err
	}

	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[a.Path]
	if !ok {
		sess = s.pipeline.NewSession(r, q)
		s.sessions[a.Path] = sess
	}
	err = sess.SetQuad(q)
	res := newCornerResult(sess, false)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Output Handlers ===

type scanOutputArgs struct {
	pathArgs
	Corners []geometry.Point `json:"corners"`
}

// PageResult is an encoded output page together with the outline it was
// cut along.
type PageResult struct {
	*imaging.ImageResult
	Quad geometry.Quad `json:"quad"`
}

func (s *Server) loadForOutput(a *scanOutputArgs) (*imaging.Raster, geometry.Quad, error) {
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, geometry.Quad{}, err
	}
	q, err := s.finalQuad(a.Path, r, a.Corners)
	if err != nil {
		return nil, geometry.Quad{}, err
	}
	return r, q, nil
}

func (s *Server) handleScanRectify(args json.RawMessage) (interface{}, error) {
	var a scanOutputArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, q, err := s.loadForOutput(&a)
	if err != nil {
		return nil, err
	}

	page, err := s.pipeline.Rectify(r, q)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeRaster(page)
	if err != nil {
		return nil, err
	}
	return &PageResult{ImageResult: encoded, Quad: q}, nil
}

func (s *Server) handleScanEnhance(args json.RawMessage) (interface{}, error) {
	var a scanOutputArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, q, err := s.loadForOutput(&a)
	if err != nil {
		return nil, err
	}

	page, err := s.pipeline.Rectify(r, q)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeRaster(s.pipeline.Enhance(page))
	if err != nil {
		return nil, err
	}
	return &PageResult{ImageResult: encoded, Quad: q}, nil
}

type scanExportArgs struct {
	scanOutputArgs
	OutputPath string `json:"output_path"`
	Raw        bool   `json:"raw"`
}

// ExportResult describes a written page.
type ExportResult struct {
	OutputPath string        `json:"output_path"`
	Format     string        `json:"format"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Channels   int           `json:"channels"`
	Quad       geometry.Quad `json:"quad"`
}

func (s *Server) handleScanExport(args json.RawMessage) (interface{}, error) {
	var a scanExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("%w: output_path is required", errInvalidArguments)
	}
	r, q, err := s.loadForOutput(&a.scanOutputArgs)
	if err != nil {
		return nil, err
	}

	page, err := s.pipeline.Rectify(r, q)
	if err != nil {
		return nil, err
	}
	if !a.Raw {
		page = s.pipeline.Enhance(page)
	}
	if err := s.pipeline.Save(a.OutputPath, page); err != nil {
		return nil, err
	}

	format := "image"
	if export.IsPDF(a.OutputPath) {
		format = "pdf"
	}
	return &ExportResult{
		OutputPath: a.OutputPath,
		Format:     format,
		Width:      page.Width,
		Height:     page.Height,
		Channels:   page.Channels,
		Quad:       q,
	}, nil
}

// === Diagnostics Handlers ===

type scanEdgeDetectArgs struct {
	pathArgs
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
}

func (s *Server) handleScanEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a scanEdgeDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	def := detection.DefaultConfig()
	if a.ThresholdLow == 0 {
		a.ThresholdLow = def.LowThreshold
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = def.HighThreshold
	}
	if a.ThresholdHigh < a.ThresholdLow {
		return nil, fmt.Errorf("%w: threshold_high %v below threshold_low %v", errInvalidArguments, a.ThresholdHigh, a.ThresholdLow)
	}

	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(r, a.ThresholdLow, a.ThresholdHigh)
}
