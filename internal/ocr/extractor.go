package ocr

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ocr-similarity-mcp/internal/logging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/similarity"
)

// UpscaleFactor is the fixed enlargement applied before recognition.
const UpscaleFactor = 2

// ExtractedText is the text recognized in one image.
type ExtractedText struct {
	SourcePath     string `json:"source_path"`
	RawText        string `json:"raw_text"`
	NormalizedText string `json:"normalized_text"`
}

// Extractor turns images into text through an Engine.
//
// Every call converts the image to grayscale and upscales it by UpscaleFactor
// with Catmull-Rom (cubic) interpolation. Extract always recognizes with
// DefaultRecognizeOptions; Analyze takes the options from the caller.
type Extractor struct {
	engine Engine
	logger logging.Logger
}

// NewExtractor creates an Extractor. A nil logger discards log output.
func NewExtractor(engine Engine, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{engine: engine, logger: logger}
}

// Extract returns the trimmed text recognized in the image at imagePath.
// Failures, including a panicking engine, are logged and yield "".
func (x *Extractor) Extract(imagePath, language string) string {
	text, err := x.extractPath(imagePath, language)
	if err != nil {
		x.logger.Warn("Text extraction failed", "path", imagePath, "error", err)
		return ""
	}
	return text
}

// ExtractDetailed returns the raw and normalized text for imagePath.
func (x *Extractor) ExtractDetailed(imagePath, language string) ExtractedText {
	raw := x.Extract(imagePath, language)
	return ExtractedText{
		SourcePath:     imagePath,
		RawText:        raw,
		NormalizedText: similarity.Normalize(raw),
	}
}

// Analysis is the result of a single-image OCR run with statistics.
type Analysis struct {
	ExtractedText

	// CharCount is the number of characters in the trimmed raw text.
	CharCount int `json:"char_count"`

	// LineCount is the number of non-empty lines.
	LineCount int `json:"line_count"`

	// Confidence is the engine's mean word confidence (0.0 to 1.0).
	// Nil when the engine does not report confidence.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Analyze recognizes an in-memory image with explicit engine options and
// reports text statistics. source is recorded as the SourcePath of the
// result. Unlike Extract it returns engine errors to the caller.
func (x *Extractor) Analyze(img image.Image, source string, opts RecognizeOptions) (*Analysis, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = DefaultLanguage
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	prepared := Prepare(img)

	raw, err := x.engine.Recognize(prepared, opts)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)

	result := &Analysis{
		ExtractedText: ExtractedText{
			SourcePath:     source,
			RawText:        raw,
			NormalizedText: similarity.Normalize(raw),
		},
		CharCount: len([]rune(raw)),
		LineCount: countLines(raw),
	}

	if reporter, ok := x.engine.(ConfidenceReporter); ok {
		conf, err := reporter.Confidence(prepared, opts)
		if err != nil {
			x.logger.Debug("Engine confidence unavailable", "source", source, "error", err)
		} else {
			result.Confidence = &conf
		}
	}

	return result, nil
}

func (x *Extractor) extractPath(imagePath, language string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panicked: %v", r)
		}
	}()

	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	if img.Bounds().Empty() {
		return "", fmt.Errorf("empty image")
	}

	text, err = x.engine.Recognize(Prepare(img), DefaultRecognizeOptions(language))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Prepare converts img to single-channel grayscale enlarged UpscaleFactor
// times with Catmull-Rom interpolation.
func Prepare(img image.Image) *image.Gray {
	b := img.Bounds()
	resized := imaging.Resize(imaging.Grayscale(img), b.Dx()*UpscaleFactor, b.Dy()*UpscaleFactor, imaging.CatmullRom)

	gray := image.NewGray(resized.Bounds())
	draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return gray
}

func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
