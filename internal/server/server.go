package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/ocr-similarity-mcp/internal/config"
	"github.com/ironsheep/ocr-similarity-mcp/internal/imaging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/logging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/ocr"
	"github.com/ironsheep/ocr-similarity-mcp/internal/search"
	"github.com/ironsheep/ocr-similarity-mcp/internal/similarity"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cfg       config.Config
	cache     *imaging.ImageCache
	extractor *ocr.Extractor
	scorer    *similarity.Scorer
	engine    *search.Engine
	logger    logging.Logger
	ocrEngine ocr.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithEngine replaces the Tesseract engine.
func WithEngine(engine ocr.Engine) Option {
	return func(s *Server) {
		s.ocrEngine = engine
	}
}

// WithLogger sets the server logger. The default discards output.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		cache:  imaging.NewImageCache(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ocrEngine == nil {
		s.ocrEngine = ocr.NewTesseractEngine(cfg.OCR())
	}

	s.extractor = ocr.NewExtractor(s.ocrEngine, s.logger)
	s.scorer = similarity.NewScorer(similarity.WithLogger(s.logger))
	s.engine = search.NewEngine(s.extractor, search.WithScorer(s.scorer), search.WithLogger(s.logger))
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("Failed to parse request", "error", err)
			continue
		}

		s.logger.Debug("Request received", "method", req.Method)
		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("Failed to encode response", "method", req.Method, "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "ocr-similarity-mcp",
				"version": Version,
			},
		},
	}
}
