package search

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ironsheep/ocr-similarity-mcp/internal/imaging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/logging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/ocr"
	"github.com/ironsheep/ocr-similarity-mcp/internal/similarity"
)

const (
	// DefaultThreshold is the minimum similarity used when none is configured.
	DefaultThreshold = 0.5

	// PreviewLength is the number of characters kept in a match preview.
	PreviewLength = 200

	previewMarker = "..."
)

// Config controls a single search.
type Config struct {
	// Threshold is the inclusive minimum similarity, in [0, 1].
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Language is passed through to the OCR engine ("eng", "pol+eng", ...).
	// Empty means ocr.DefaultLanguage.
	Language string `json:"language" yaml:"language"`
}

// DefaultConfig returns a Config with DefaultThreshold and DefaultLanguage.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, Language: ocr.DefaultLanguage}
}

// Validate checks the threshold range.
func (c Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidConfig, c.Threshold)
	}
	return nil
}

func (c Config) language() string {
	if c.Language == "" {
		return ocr.DefaultLanguage
	}
	return c.Language
}

// Match is one candidate image that passed the threshold.
type Match struct {
	Path        string  `json:"path" yaml:"path"`
	Filename    string  `json:"filename" yaml:"filename"`
	Similarity  float64 `json:"similarity" yaml:"similarity"`
	TextPreview string  `json:"text" yaml:"text"`
}

// TextExtractor recognizes the text of an image file. Implementations return
// empty text when the image cannot be read or contains no text.
type TextExtractor interface {
	ExtractDetailed(imagePath, language string) ocr.ExtractedText
}

// TextScorer scores the similarity of two texts in [0, 1].
type TextScorer interface {
	Score(a, b string) float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default similarity.Scorer.
func WithScorer(s TextScorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithLogger sets the logger used for progress and absorbed failures.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine runs similarity searches. It holds no per-search state and may be
// shared by concurrent searches when its extractor and scorer allow it.
type Engine struct {
	extractor TextExtractor
	scorer    TextScorer
	logger    logging.Logger
	now       func() time.Time
}

// NewEngine creates an Engine that reads text through extractor.
func NewEngine(extractor TextExtractor, opts ...Option) *Engine {
	e := &Engine{
		extractor: extractor,
		logger:    logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scorer == nil {
		e.scorer = similarity.NewScorer(similarity.WithLogger(e.logger))
	}
	return e
}

// FindSimilar returns the images in folder whose text scores at least
// cfg.Threshold against the text of referencePath, best first.
func (e *Engine) FindSimilar(referencePath, folder string, cfg Config) ([]Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lang := cfg.language()

	e.logger.Info("Extracting reference text", "reference", referencePath, "language", lang)
	refText := e.extract(referencePath, lang).NormalizedText
	if refText == "" {
		return []Match{}, ErrNoTextInReference
	}

	candidates, err := candidateImages(folder, referencePath)
	if err != nil {
		return []Match{}, err
	}
	if len(candidates) == 0 {
		return []Match{}, ErrNoCandidateImages
	}
	e.logger.Info("Scanning candidates", "folder", folder, "count", len(candidates))

	matches := make([]Match, 0, len(candidates))
	for i, path := range candidates {
		extracted := e.extract(path, lang)
		text := extracted.NormalizedText
		if text == "" {
			e.logger.Debug("Skipping candidate without text", "path", path)
			continue
		}

		score := e.scorer.Score(refText, text)
		e.logger.Debug("Scored candidate", "index", i+1, "total", len(candidates), "path", path, "similarity", score)
		if score < cfg.Threshold {
			continue
		}

		matches = append(matches, Match{
			Path:        path,
			Filename:    filepath.Base(path),
			Similarity:  score,
			TextPreview: Preview(extracted.RawText),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	e.logger.Info("Search complete", "reference", referencePath, "matches", len(matches))
	return matches, nil
}

// extract isolates one image's extraction. A panic is logged and treated as
// an image without text so the remaining candidates are still scored.
func (e *Engine) extract(path, lang string) (text ocr.ExtractedText) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Text extraction failed", "path", path, "error", fmt.Sprint(r))
			text = ocr.ExtractedText{SourcePath: path}
		}
	}()
	return e.extractor.ExtractDetailed(path, lang)
}

// Search runs FindSimilar and wraps the result in a Report. The report is
// returned even when a search condition is reported, with no results.
func (e *Engine) Search(referencePath, folder string, cfg Config) (*Report, error) {
	matches, err := e.FindSimilar(referencePath, folder, cfg)
	if matches == nil {
		matches = []Match{}
	}
	return NewReport(referencePath, folder, e.now(), matches), err
}

// Preview truncates text to PreviewLength characters, appending "..." when
// anything was cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + previewMarker
}

// candidateImages lists the supported regular files of folder in name order,
// leaving out the reference image itself. A symlink counts when its target
// is a regular file.
func candidateImages(folder, referencePath string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFolderRead, folder, err)
	}

	ref := resolvePath(referencePath)

	var paths []string
	for _, entry := range entries {
		if !imaging.IsSupported(entry.Name()) {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		if !isRegularFile(entry, path) {
			continue
		}
		if resolvePath(path) == ref {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func isRegularFile(entry os.DirEntry, path string) bool {
	mode := entry.Type()
	if mode&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return mode.IsRegular()
}

// resolvePath returns the absolute, symlink-free form of path, or the
// cleaned absolute path when the file cannot be resolved.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
