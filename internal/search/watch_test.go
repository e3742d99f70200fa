package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_RerunsOnChange(t *testing.T) {
	folder := touch(t, t.TempDir(), "a.png")
	ref := filepath.Join(touch(t, t.TempDir(), "ref.png"), "ref.png")

	extractor := newFakeExtractor(map[string]string{
		"ref.png": "reference",
		"a.png":   "text a",
		"b.png":   "text b",
	})
	engine := NewEngine(extractor, WithScorer(constScorer(0.9)))

	reports := make(chan *Report, 10)
	watcher := NewWatcher(engine, ref, folder, Config{Threshold: 0.5}, 20*time.Millisecond, func(r *Report, err error) {
		if err != nil {
			t.Errorf("search error: %v", err)
		}
		reports <- r
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	first := waitReport(t, reports)
	if first.ResultsCount != 1 {
		t.Fatalf("initial report has %d results, want 1", first.ResultsCount)
	}

	// Unsupported files do not trigger a search.
	if err := os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "b.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	second := waitReport(t, reports)
	if second.ResultsCount != 2 {
		t.Errorf("report after change has %d results, want 2", second.ResultsCount)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestWatcher_MissingFolder(t *testing.T) {
	engine := NewEngine(newFakeExtractor(nil))
	watcher := NewWatcher(engine, "ref.png", filepath.Join(t.TempDir(), "missing"), DefaultConfig(), 0, nil)

	if err := watcher.Run(context.Background()); err == nil {
		t.Error("Run should fail for a missing folder")
	}
}

func TestWatcher_InvalidConfig(t *testing.T) {
	engine := NewEngine(newFakeExtractor(nil))
	watcher := NewWatcher(engine, "ref.png", t.TempDir(), Config{Threshold: 3}, 0, nil)

	if err := watcher.Run(context.Background()); Kind(err) != KindInvalidConfig {
		t.Errorf("Run = %v, want invalid config", err)
	}
}

func waitReport(t *testing.T, reports <-chan *Report) *Report {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a report")
		return nil
	}
}
