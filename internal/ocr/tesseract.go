package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Opaque Tesseract mode constants passed through to the engine.
const (
	// EngineModeLSTM selects the LSTM neural net engine (--oem 1).
	EngineModeLSTM = 1
	// PageSegModeSingleBlock treats the image as a single uniform block of text (--psm 6).
	PageSegModeSingleBlock = int(gosseract.PSM_SINGLE_BLOCK)

	maxEngineMode  = 3  // OEM_DEFAULT
	maxPageSegMode = 13 // PSM_RAW_LINE
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// RecognizeOptions are the per-call engine parameters.
type RecognizeOptions struct {
	// Language is a Tesseract language code or a "+"-joined list.
	Language string
	// EngineMode is the --oem value.
	EngineMode int
	// PageSegMode is the --psm value.
	PageSegMode int
	// Variables are extra Tesseract parameters, applied like a config file.
	Variables map[string]string
}

// DefaultRecognizeOptions returns the fixed modes used for similarity search
// with the given language, or DefaultLanguage when it is blank.
func DefaultRecognizeOptions(language string) RecognizeOptions {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return RecognizeOptions{
		Language:    language,
		EngineMode:  EngineModeLSTM,
		PageSegMode: PageSegModeSingleBlock,
	}
}

// Validate checks the modes against the ranges Tesseract accepts and the
// variables against the config file syntax.
func (o RecognizeOptions) Validate() error {
	if o.EngineMode < 0 || o.EngineMode > maxEngineMode {
		return fmt.Errorf("engine mode %d out of range [0, %d]", o.EngineMode, maxEngineMode)
	}
	if o.PageSegMode < 0 || o.PageSegMode > maxPageSegMode {
		return fmt.Errorf("page segmentation mode %d out of range [0, %d]", o.PageSegMode, maxPageSegMode)
	}
	for name, value := range o.Variables {
		if name == "" || strings.ContainsAny(name, " \t\r\n") {
			return fmt.Errorf("invalid variable name %q", name)
		}
		if strings.ContainsAny(value, "\r\n") {
			return fmt.Errorf("variable %s: value must be a single line", name)
		}
	}
	return nil
}

// configLines renders the init-time parameters in Tesseract config file
// syntax. The engine mode is only read when the API is initialized, so it
// travels in a config file rather than through SetVariable. The modes come
// last and override a variable of the same name.
func configLines(opts RecognizeOptions) []string {
	names := make([]string, 0, len(opts.Variables))
	for name := range opts.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+2)
	for _, name := range names {
		lines = append(lines, name+" "+opts.Variables[name])
	}
	return append(lines,
		fmt.Sprintf("tessedit_ocr_engine_mode %d", opts.EngineMode),
		fmt.Sprintf("tessedit_pageseg_mode %d", opts.PageSegMode),
	)
}

// writeConfigFile writes configLines to a temporary file and returns its path.
func writeConfigFile(opts RecognizeOptions) (string, error) {
	f, err := os.CreateTemp("", "ocrsim-*.config")
	if err != nil {
		return "", err
	}
	_, werr := f.WriteString(strings.Join(configLines(opts), "\n") + "\n")
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(f.Name())
		return "", werr
	}
	return f.Name(), nil
}

// Engine recognizes text in an image.
type Engine interface {
	Recognize(img image.Image, opts RecognizeOptions) (string, error)
}

// ConfidenceReporter is implemented by engines that can report their own
// recognition confidence in [0, 1].
type ConfidenceReporter interface {
	Confidence(img image.Image, opts RecognizeOptions) (float64, error)
}

// Config holds engine-wide settings fixed at construction.
type Config struct {
	// TessdataPrefix is the directory containing *.traineddata files.
	// Empty means auto-discovery (see package docs).
	TessdataPrefix string
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is a recognized word with its location and engine confidence.
type Word struct {
	Text string `json:"text"`

	// Confidence is the engine's confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// TesseractEngine implements Engine and ConfidenceReporter with gosseract.
//
// Each call uses its own gosseract client, so a TesseractEngine is safe for
// concurrent use.
type TesseractEngine struct {
	tessdata string
}

// NewTesseractEngine creates an engine, resolving the training data location once.
func NewTesseractEngine(cfg Config) *TesseractEngine {
	return &TesseractEngine{tessdata: ResolveTessdata(cfg.TessdataPrefix)}
}

// TessdataPath returns the resolved training data directory, or "" when the
// library default is used.
func (e *TesseractEngine) TessdataPath() string {
	return e.tessdata
}

// Recognize implements Engine.
func (e *TesseractEngine) Recognize(img image.Image, opts RecognizeOptions) (string, error) {
	sess, err := e.newSession(img, opts)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	text, err := sess.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Words returns the recognized words with bounding boxes and confidence.
// Empty words are filtered out.
func (e *TesseractEngine) Words(img image.Image, opts RecognizeOptions) ([]Word, error) {
	sess, err := e.newSession(img, opts)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	boxes, err := sess.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return words, nil
}

// Confidence implements ConfidenceReporter: the mean confidence of the words
// Tesseract scored above zero. An image with no such words has confidence 0.
func (e *TesseractEngine) Confidence(img image.Image, opts RecognizeOptions) (float64, error) {
	words, err := e.Words(img, opts)
	if err != nil {
		return 0, err
	}
	return MeanConfidence(words), nil
}

// MeanConfidence averages the confidences greater than zero.
func MeanConfidence(words []Word) float64 {
	var sum float64
	n := 0
	for _, w := range words {
		if w.Confidence > 0 {
			sum += w.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// session is a configured client plus the config file it initializes from.
// Tesseract reads the file lazily on the first recognition call, so the file
// lives as long as the client.
type session struct {
	client     *gosseract.Client
	configPath string
}

func (s *session) Close() {
	s.client.Close()
	if s.configPath != "" {
		os.Remove(s.configPath)
	}
}

func (e *TesseractEngine) newSession(img image.Image, opts RecognizeOptions) (*session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	configPath, err := writeConfigFile(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to write config file: %w", err)
	}

	sess := &session{client: gosseract.NewClient(), configPath: configPath}

	if e.tessdata != "" {
		if err := sess.client.SetTessdataPrefix(e.tessdata); err != nil {
			sess.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := sess.client.SetLanguage(SplitLanguages(opts.Language)...); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := sess.client.SetConfigFile(configPath); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to set OEM: %w", err)
	}

	if err := sess.client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}

	if err := sess.client.SetImageFromBytes(buf.Bytes()); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	return sess, nil
}

// SplitLanguages splits a "+"-joined language string into codes.
// An empty string yields DefaultLanguage.
func SplitLanguages(language string) []string {
	var langs []string
	for _, code := range strings.Split(language, "+") {
		if code = strings.TrimSpace(code); code != "" {
			langs = append(langs, code)
		}
	}
	if len(langs) == 0 {
		return []string{DefaultLanguage}
	}
	return langs
}

// ResolveTessdata finds the training data directory.
//
// The explicit prefix wins when it exists. Otherwise a "tessdata" directory
// next to the (symlink-resolved) executable is used, then TESSDATA_PREFIX.
// An empty result leaves the choice to the Tesseract library.
func ResolveTessdata(explicit string) string {
	if explicit != "" && isDir(explicit) {
		return explicit
	}

	if exePath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exePath); err == nil {
			exePath = resolved
		}
		candidate := filepath.Join(filepath.Dir(exePath), "tessdata")
		if isDir(candidate) {
			return candidate
		}
	}

	if env := os.Getenv("TESSDATA_PREFIX"); env != "" && isDir(env) {
		return env
	}

	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Info describes the OCR subsystem.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	TessdataPath string `json:"tessdata_path,omitempty"`
}

// Info reports the Tesseract version and the training data in use.
func (e *TesseractEngine) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdata != "" {
		if err := client.SetTessdataPrefix(e.tessdata); err != nil {
			return Info{Backend: "gosseract", Error: err.Error()}
		}
	}

	version := client.Version()
	if version == "" {
		return Info{
			Available: false,
			Error:     "tesseract did not report a version",
			Backend:   "gosseract",
		}
	}

	return Info{
		Available:    true,
		Version:      version,
		Backend:      "gosseract",
		TessdataPath: e.tessdata,
	}
}
