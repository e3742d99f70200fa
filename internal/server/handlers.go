package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/ocr-similarity-mcp/internal/imaging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/ocr"
	"github.com/ironsheep/ocr-similarity-mcp/internal/search"
	"github.com/ironsheep/ocr-similarity-mcp/internal/similarity"
)

// defaultPreprocessScale matches the enlargement the extractor applies.
const defaultPreprocessScale = 2.0

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_find_similar").
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

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("Tool execution failed", "tool", params.Name, "error", err)
		var argErr *argumentError
		if errors.As(err, &argErr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Information
	case "image_load":
		return s.handleImageLoad(args)

	// Preprocessing
	case "image_preprocess":
		return s.handleImagePreprocess(args)
	case "image_preprocess_filters":
		return s.handleImagePreprocessFilters(args)

	// OCR
	case "image_ocr_text":
		return s.handleImageOCRText(args)
	case "ocr_info":
		return s.handleOCRInfo(args)

	// Similarity
	case "text_similarity":
		return s.handleTextSimilarity(args)
	case "image_find_similar":
		return s.handleImageFindSimilar(args)
	case "similarity_report_export":
		return s.handleSimilarityReportExport(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// argumentError marks a tool failure caused by the caller's arguments.
type argumentError struct {
	msg string
}

func (e *argumentError) Error() string {
	return e.msg
}

func invalidArgs(format string, a ...interface{}) error {
	return &argumentError{msg: fmt.Sprintf(format, a...)}
}

// decodeArgs unmarshals tool arguments; absent arguments decode as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidArgs("invalid arguments: %v", err)
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidArgs("%s is required", name)
	}
	return nil
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireField("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// loadRegion loads path through the cache and crops it to region when given.
func (s *Server) loadRegion(path string, region *imaging.Region) (image.Image, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return img, nil
	}
	cropped, err := imaging.Crop(img, *region)
	if err != nil {
		return nil, invalidArgs("%v", err)
	}
	return cropped, nil
}

// === Preprocessing Handlers ===

type imagePreprocessArgs struct {
	Path   string          `json:"path"`
	Filter string          `json:"filter"`
	Scale  float64         `json:"scale"`
	Region *imaging.Region `json:"region"`
}

type preprocessResult struct {
	Filter string  `json:"filter"`
	Scale  float64 `json:"scale"`
	*imaging.ImageResult
}

func (s *Server) handleImagePreprocess(args json.RawMessage) (interface{}, error) {
	var a imagePreprocessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireField("path", a.Path); err != nil {
		return nil, err
	}
	if a.Filter == "" {
		a.Filter = string(imaging.FilterNone)
	}
	if a.Scale <= 0 {
		a.Scale = defaultPreprocessScale
	}

	img, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	out, err := imaging.Preprocess(img, imaging.Filter(a.Filter), a.Scale)
	if err != nil {
		return nil, invalidArgs("%v", err)
	}
	encoded, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	return &preprocessResult{Filter: a.Filter, Scale: a.Scale, ImageResult: encoded}, nil
}

func (s *Server) handleImagePreprocessFilters(_ json.RawMessage) (interface{}, error) {
	return map[string]interface{}{
		"filters": imaging.Filters(),
	}, nil
}

// === OCR Handlers ===

type imageOCRTextArgs struct {
	Path      string            `json:"path"`
	Language  string            `json:"language"`
	Region    *imaging.Region   `json:"region"`
	PSM       *int              `json:"psm"`
	OEM       *int              `json:"oem"`
	Variables map[string]string `json:"variables"`
}

// recognizeOptions starts from the search defaults and applies the
// caller's overrides.
func (a imageOCRTextArgs) recognizeOptions() (ocr.RecognizeOptions, error) {
	opts := ocr.DefaultRecognizeOptions(a.Language)
	if a.PSM != nil {
		opts.PageSegMode = *a.PSM
	}
	if a.OEM != nil {
		opts.EngineMode = *a.OEM
	}
	opts.Variables = a.Variables
	if err := opts.Validate(); err != nil {
		return opts, invalidArgs("%v", err)
	}
	return opts, nil
}

func (s *Server) handleImageOCRText(args json.RawMessage) (interface{}, error) {
	var a imageOCRTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireField("path", a.Path); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.Language
	}
	opts, err := a.recognizeOptions()
	if err != nil {
		return nil, err
	}

	img, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	return s.extractor.Analyze(img, a.Path, opts)
}

// infoReporter is implemented by engines that can describe themselves.
type infoReporter interface {
	Info() ocr.Info
}

func (s *Server) handleOCRInfo(_ json.RawMessage) (interface{}, error) {
	if r, ok := s.ocrEngine.(infoReporter); ok {
		return r.Info(), nil
	}
	return ocr.Info{Available: true, Backend: fmt.Sprintf("%T", s.ocrEngine)}, nil
}

// === Similarity Handlers ===

type textSimilarityArgs struct {
	TextA string `json:"text_a"`
	TextB string `json:"text_b"`
}

type textSimilarityResult struct {
	Similarity  float64           `json:"similarity"`
	Method      similarity.Method `json:"method"`
	NormalizedA string            `json:"normalized_a"`
	NormalizedB string            `json:"normalized_b"`
}

func (s *Server) handleTextSimilarity(args json.RawMessage) (interface{}, error) {
	var a textSimilarityArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	score, method := s.scorer.ScoreWithMethod(a.TextA, a.TextB)
	return &textSimilarityResult{
		Similarity:  score,
		Method:      method,
		NormalizedA: similarity.Normalize(a.TextA),
		NormalizedB: similarity.Normalize(a.TextB),
	}, nil
}

type findSimilarArgs struct {
	Reference string   `json:"reference"`
	Folder    string   `json:"folder"`
	Threshold *float64 `json:"threshold"`
	Language  string   `json:"language"`
}

// searchConfig merges the call arguments over the server defaults.
func (a findSimilarArgs) searchConfig(defaults search.Config) search.Config {
	cfg := defaults
	if a.Threshold != nil {
		cfg.Threshold = *a.Threshold
	}
	if a.Language != "" {
		cfg.Language = a.Language
	}
	return cfg
}

func (a findSimilarArgs) validate() error {
	if err := requireField("reference", a.Reference); err != nil {
		return err
	}
	return requireField("folder", a.Folder)
}

type findSimilarResult struct {
	*search.Report
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// runSearch separates reported search conditions from internal failures.
func (s *Server) runSearch(a findSimilarArgs) (*findSimilarResult, error) {
	report, err := s.engine.Search(a.Reference, a.Folder, a.searchConfig(s.cfg.Search()))
	kind := search.Kind(err)
	if kind == search.KindInternal {
		return nil, err
	}

	res := &findSimilarResult{Report: report, ErrorKind: kind}
	if err != nil {
		res.Message = err.Error()
	}
	return res, nil
}

func (s *Server) handleImageFindSimilar(args json.RawMessage) (interface{}, error) {
	var a findSimilarArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.runSearch(a)
}

type reportExportArgs struct {
	findSimilarArgs
	Output string `json:"output"`
}

type reportExportResult struct {
	Output       string        `json:"output"`
	Format       search.Format `json:"format"`
	ResultsCount int           `json:"results_count"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	Message      string        `json:"message,omitempty"`
}

func (s *Server) handleSimilarityReportExport(args json.RawMessage) (interface{}, error) {
	var a reportExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := requireField("output", a.Output); err != nil {
		return nil, err
	}
	format, err := search.FormatForPath(a.Output)
	if err != nil {
		return nil, invalidArgs("%v", err)
	}

	res, err := s.runSearch(a.findSimilarArgs)
	if err != nil {
		return nil, err
	}
	if err := res.Report.Save(a.Output); err != nil {
		return nil, err
	}

	s.logger.Info("Report exported", "output", a.Output, "results", res.ResultsCount)
	return &reportExportResult{
		Output:       a.Output,
		Format:       format,
		ResultsCount: res.ResultsCount,
		ErrorKind:    res.ErrorKind,
		Message:      res.Message,
	}, nil
}
