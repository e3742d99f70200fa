package server

import "github.com/ironsheep/ocr-similarity-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func searchProps() map[string]interface{} {
	return map[string]interface{}{
		"reference": stringProp("Absolute path to the reference image"),
		"folder":    stringProp("Folder whose images are compared with the reference"),
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Minimum similarity in [0, 1]. Defaults to the server configuration (0.5)",
			"minimum":     0,
			"maximum":     1,
		},
		"language": stringProp("Tesseract language code, e.g. 'eng', 'pol' or 'pol+eng'. Defaults to the server configuration"),
	}
}

func regionProp() map[string]interface{} {
	coord := func(description string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "integer",
			"description": description,
		}
	}
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional region to use instead of the whole image",
		"properties": map[string]interface{}{
			"x1": coord("Left edge X coordinate (0-based)"),
			"y1": coord("Top edge Y coordinate (0-based)"),
			"x2": coord("Right edge X coordinate (exclusive)"),
			"y2": coord("Bottom edge Y coordinate (exclusive)"),
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

func filterNames() []string {
	filters := imaging.Filters()
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = string(f)
	}
	return names
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	exportProps := searchProps()
	exportProps["output"] = stringProp("Report file path; the extension selects the format (.json, .yaml or .yml)")

	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, color depth and whether it has a dark background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Preprocessing
		{
			Name:        "image_preprocess",
			Description: "Apply a named OCR preprocessing filter and return the result as base64-encoded PNG. Use this to see what the OCR engine will read.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
					"filter": map[string]interface{}{
						"type":        "string",
						"description": "Filter name (see image_preprocess_filters). Default 'none'",
						"enum":        filterNames(),
						"default":     "none",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor applied before filtering. Default 2.0",
						"default":     2.0,
					},
					"region": regionProp(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_preprocess_filters",
			Description: "List the available preprocessing filter names.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// OCR
		{
			Name:        "image_ocr_text",
			Description: "Extract text from an image with Tesseract. Returns the raw and normalized text, character and line counts, and the mean word confidence when the engine reports one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     stringProp("Absolute path to the image file"),
					"language": stringProp("Tesseract language code, e.g. 'eng', 'pol' or 'pol+eng'. Defaults to the server configuration"),
					"region":   regionProp(),
					"psm": map[string]interface{}{
						"type":        "integer",
						"description": "Tesseract page segmentation mode (--psm). Defaults to 6, a single uniform block of text",
						"minimum":     0,
						"maximum":     13,
					},
					"oem": map[string]interface{}{
						"type":        "integer",
						"description": "Tesseract OCR engine mode (--oem). Defaults to 1, the LSTM engine",
						"minimum":     0,
						"maximum":     3,
					},
					"variables": map[string]interface{}{
						"type":                 "object",
						"description":          "Extra Tesseract parameters, e.g. {\"tessedit_char_whitelist\": \"0123456789\"}",
						"additionalProperties": map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether the OCR engine is available, its version and the training data directory in use.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Similarity
		{
			Name:        "text_similarity",
			Description: "Score the similarity of two texts in [0, 1] after normalization. Reports which scoring method produced the value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text_a": stringProp("First text"),
					"text_b": stringProp("Second text"),
				},
				"required": []string{"text_a", "text_b"},
			},
		},
		{
			Name:        "image_find_similar",
			Description: "Find images in a folder whose OCR text is similar to the text of a reference image. Results are sorted by descending similarity. Conditions such as an empty folder are reported in error_kind.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": searchProps(),
				"required":   []string{"reference", "folder"},
			},
		},
		{
			Name:        "similarity_report_export",
			Description: "Run image_find_similar and write the report to a JSON or YAML file.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": exportProps,
				"required":   []string{"reference", "folder", "output"},
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
