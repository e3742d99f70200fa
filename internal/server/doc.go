// Package server implements the MCP (Model Context Protocol) server for OCR
// text similarity search.
//
// This package provides a JSON-RPC 2.0 server that exposes text extraction and
// similarity search through the MCP protocol, so an MCP client can ask which
// scanned documents in a folder read like a given reference scan.
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
// Image Information:
//   - image_load: Load image and get metadata
//
// Preprocessing:
//   - image_preprocess: Apply a named filter and return the image
//   - image_preprocess_filters: List filter names
//
// OCR:
//   - image_ocr_text: Extract text with statistics
//   - ocr_info: Engine version and training data
//
// Similarity:
//   - text_similarity: Score two texts
//   - image_find_similar: Rank the images of a folder against a reference
//   - similarity_report_export: Write a search report as JSON or YAML
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for missing or malformed arguments, -32000 for tool failures
//   - message: Human-readable error description
//   - data: The Go error string
//
// Search conditions (no text in the reference, no candidate images,
// unreadable folder, invalid threshold) are not protocol errors. They are
// reported in the error_kind and message fields of the search result, next
// to an empty result list.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg, server.WithLogger(logger))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
