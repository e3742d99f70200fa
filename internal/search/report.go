package search

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a report serialization format.
type Format string

// Supported report formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", ignoring case.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported report format: %q", name)
}

// FormatForPath picks the format from the file extension of path.
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("report path %q has no extension", path)
	}
	return ParseFormat(ext)
}

// Report is the serializable result of one search.
type Report struct {
	ReferenceImage string  `json:"reference_image" yaml:"reference_image"`
	SearchFolder   string  `json:"search_folder" yaml:"search_folder"`
	Timestamp      string  `json:"timestamp" yaml:"timestamp"`
	ResultsCount   int     `json:"results_count" yaml:"results_count"`
	Results        []Match `json:"results" yaml:"results"`
}

// NewReport builds a Report stamped with at in RFC 3339 form.
func NewReport(referencePath, folder string, at time.Time, matches []Match) *Report {
	return &Report{
		ReferenceImage: referencePath,
		SearchFolder:   folder,
		Timestamp:      at.Format(time.RFC3339),
		ResultsCount:   len(matches),
		Results:        matches,
	}
}

// Write serializes the report to w.
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported report format: %q", format)
}

// Save writes the report to path in the format implied by its extension.
func (r *Report) Save(path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.Write(f, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// ReadReport decodes a report written by Write.
func ReadReport(rd io.Reader, format Format) (*Report, error) {
	var r Report
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&r)
	case FormatYAML:
		err = yaml.NewDecoder(rd).Decode(&r)
	default:
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
