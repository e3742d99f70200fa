package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/ironsheep/ocr-similarity-mcp/internal/config"
)

func TestRunSearch_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"one argument", []string{"ref.png"}},
		{"three arguments", []string{"ref.png", "dir", "extra"}},
		{"bad format", []string{"-format", "xml", "ref.png", "dir"}},
		{"unknown flag", []string{"-colour", "red", "ref.png", "dir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := runSearch(tt.args, &stdout, &stderr); code != exitUsage {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, exitUsage, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("unexpected stdout: %s", stdout.String())
			}
		})
	}
}

func TestRunWatch_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runWatch([]string{"only-one"}, &stdout, &stderr); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr.String(), "<reference> and <folder>") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestSearchFlags_Apply(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var sf searchFlags
	sf.register(fs)
	if err := fs.Parse([]string{"-lang", "pol+eng", "ref.png", "dir"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Threshold = 0.7
	if err := sf.apply(fs, &cfg); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Language != "pol+eng" {
		t.Errorf("Language = %q, want pol+eng", cfg.Language)
	}
	// Flags left unset keep the configured value.
	if cfg.Threshold != 0.7 {
		t.Errorf("Threshold = %v, want 0.7", cfg.Threshold)
	}

	ref, folder, err := positional(fs)
	if err != nil || ref != "ref.png" || folder != "dir" {
		t.Errorf("positional = %q, %q, %v", ref, folder, err)
	}
}

func TestSearchFlags_ApplyInvalidThreshold(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var sf searchFlags
	sf.register(fs)
	if err := fs.Parse([]string{"-threshold", "1.5"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	if err := sf.apply(fs, &cfg); err == nil {
		t.Error("apply should reject a threshold above 1")
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, want := range []string{"search", "watch", "OCRSIM_LOG_LEVEL", "TESSDATA_PREFIX"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage does not mention %s", want)
		}
	}
}
