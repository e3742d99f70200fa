package search

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/ocr-similarity-mcp/internal/imaging"
)

// DefaultDebounce is how long a Watcher waits for the folder to settle.
const DefaultDebounce = 300 * time.Millisecond

// ReportFunc receives the outcome of each search run by a Watcher.
type ReportFunc func(report *Report, err error)

// Watcher re-runs a search whenever supported image files in the folder are
// created, written, renamed or removed. Bursts of events within the debounce
// interval trigger a single search.
type Watcher struct {
	engine    *Engine
	reference string
	folder    string
	cfg       Config
	debounce  time.Duration
	onReport  ReportFunc
}

// NewWatcher creates a Watcher. A debounce <= 0 uses DefaultDebounce.
func NewWatcher(engine *Engine, referencePath, folder string, cfg Config, debounce time.Duration, onReport ReportFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		engine:    engine,
		reference: referencePath,
		folder:    folder,
		cfg:       cfg,
		debounce:  debounce,
		onReport:  onReport,
	}
}

// Run searches once, then again after every settled change, until ctx is
// done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.cfg.Validate(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.folder); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFolderRead, w.folder, err)
	}

	logger := w.engine.logger
	logger.Info("Watching folder", "folder", w.folder, "debounce", w.debounce.String())
	w.run()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching folder", "folder", w.folder)
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("Folder changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.run()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "folder", w.folder, "error", err)
		}
	}
}

func (w *Watcher) run() {
	report, err := w.engine.Search(w.reference, w.folder, w.cfg)
	if w.onReport != nil {
		w.onReport(report, err)
	}
}

func relevant(ev fsnotify.Event) bool {
	if !imaging.IsSupported(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
