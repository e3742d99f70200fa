package ocr

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// fakeEngine records what the extractor hands to the engine.
type fakeEngine struct {
	text  string
	err   error
	panic bool

	gotOpts RecognizeOptions
	gotImg  image.Image
	calls   int
}

func (f *fakeEngine) Recognize(img image.Image, opts RecognizeOptions) (string, error) {
	f.calls++
	f.gotImg = img
	f.gotOpts = opts
	if f.panic {
		panic("engine exploded")
	}
	return f.text, f.err
}

type confidentEngine struct {
	fakeEngine
	conf    float64
	confErr error
}

func (c *confidentEngine) Confidence(img image.Image, opts RecognizeOptions) (float64, error) {
	return c.conf, c.confErr
}

// writePNG writes a solid image to dir/name and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestExtractor_FixedPreprocessingAndModes(t *testing.T) {
	engine := &fakeEngine{text: "  Hello World \n"}
	x := NewExtractor(engine, nil)
	path := writePNG(t, t.TempDir(), "ref.png", 30, 20)

	got := x.Extract(path, "pol+eng")
	if got != "Hello World" {
		t.Errorf("Extract = %q, want trimmed text", got)
	}

	if engine.gotOpts.Language != "pol+eng" {
		t.Errorf("language = %q, want pol+eng", engine.gotOpts.Language)
	}
	if engine.gotOpts.EngineMode != EngineModeLSTM {
		t.Errorf("engine mode = %d, want %d", engine.gotOpts.EngineMode, EngineModeLSTM)
	}
	if engine.gotOpts.PageSegMode != PageSegModeSingleBlock {
		t.Errorf("page seg mode = %d, want %d", engine.gotOpts.PageSegMode, PageSegModeSingleBlock)
	}

	gray, ok := engine.gotImg.(*image.Gray)
	if !ok {
		t.Fatalf("engine received %T, want *image.Gray", engine.gotImg)
	}
	if gray.Bounds().Dx() != 60 || gray.Bounds().Dy() != 40 {
		t.Errorf("engine image is %dx%d, want 60x40", gray.Bounds().Dx(), gray.Bounds().Dy())
	}
}

func TestExtractor_DefaultLanguage(t *testing.T) {
	engine := &fakeEngine{text: "x"}
	x := NewExtractor(engine, nil)
	path := writePNG(t, t.TempDir(), "a.png", 4, 4)

	x.Extract(path, "")
	if engine.gotOpts.Language != DefaultLanguage {
		t.Errorf("language = %q, want %q", engine.gotOpts.Language, DefaultLanguage)
	}
}

func TestExtractor_FailuresYieldEmpty(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "a.png", 4, 4)
	corrupt := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(corrupt, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		engine *fakeEngine
		path   string
	}{
		{"missing file", &fakeEngine{text: "x"}, filepath.Join(dir, "missing.png")},
		{"corrupt file", &fakeEngine{text: "x"}, corrupt},
		{"engine error", &fakeEngine{err: errors.New("tesseract crashed")}, good},
		{"engine panic", &fakeEngine{panic: true}, good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewExtractor(tt.engine, nil)
			if got := x.Extract(tt.path, "eng"); got != "" {
				t.Errorf("Extract = %q, want empty", got)
			}
		})
	}
}

func TestExtractor_ExtractDetailed(t *testing.T) {
	x := NewExtractor(&fakeEngine{text: "Faktura VAT, Nr. 12"}, nil)
	path := writePNG(t, t.TempDir(), "inv.png", 4, 4)

	got := x.ExtractDetailed(path, "pol")
	if got.SourcePath != path {
		t.Errorf("SourcePath = %q", got.SourcePath)
	}
	if got.RawText != "Faktura VAT, Nr. 12" {
		t.Errorf("RawText = %q", got.RawText)
	}
	if got.NormalizedText != "faktura vat nr 12" {
		t.Errorf("NormalizedText = %q", got.NormalizedText)
	}
}

func TestExtractor_Analyze(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	opts := DefaultRecognizeOptions("eng")

	engine := &confidentEngine{fakeEngine: fakeEngine{text: "line one\n\n  line two  \n"}, conf: 0.87}
	result, err := NewExtractor(engine, nil).Analyze(img, "doc.png", opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.SourcePath != "doc.png" {
		t.Errorf("SourcePath = %q", result.SourcePath)
	}
	if result.RawText != "line one\n\n  line two" {
		t.Errorf("RawText = %q", result.RawText)
	}
	if result.LineCount != 2 {
		t.Errorf("LineCount = %d, want 2", result.LineCount)
	}
	if result.CharCount != len("line one\n\n  line two") {
		t.Errorf("CharCount = %d", result.CharCount)
	}
	if result.Confidence == nil || *result.Confidence != 0.87 {
		t.Errorf("Confidence = %v, want 0.87", result.Confidence)
	}
	if b := engine.gotImg.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("engine saw %dx%d, want 16x16", b.Dx(), b.Dy())
	}

	plain, err := NewExtractor(&fakeEngine{text: "x"}, nil).Analyze(img, "doc.png", opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if plain.Confidence != nil {
		t.Errorf("engine without confidence reported %v", *plain.Confidence)
	}

	engine.confErr = errors.New("no boxes")
	noConf, err := NewExtractor(engine, nil).Analyze(img, "doc.png", opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if noConf.Confidence != nil {
		t.Error("failed confidence query should leave Confidence nil")
	}
}

func TestExtractor_AnalyzePassesOptions(t *testing.T) {
	engine := &fakeEngine{text: " field value "}
	x := NewExtractor(engine, nil)

	opts := RecognizeOptions{
		EngineMode:  0,
		PageSegMode: 7,
		Variables:   map[string]string{"tessedit_char_whitelist": "0123456789"},
	}
	result, err := x.Analyze(image.NewGray(image.Rect(0, 0, 6, 4)), "scan.png", opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.RawText != "field value" {
		t.Errorf("RawText = %q", result.RawText)
	}

	got := engine.gotOpts
	if got.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", got.Language, DefaultLanguage)
	}
	if got.EngineMode != 0 || got.PageSegMode != 7 {
		t.Errorf("modes = oem %d psm %d, want oem 0 psm 7", got.EngineMode, got.PageSegMode)
	}
	if got.Variables["tessedit_char_whitelist"] != "0123456789" {
		t.Errorf("Variables = %v", got.Variables)
	}
}

func TestExtractor_AnalyzeErrors(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))

	tests := []struct {
		name string
		img  image.Image
		opts RecognizeOptions
		err  error
	}{
		{"empty image", image.NewGray(image.Rect(0, 0, 0, 0)), DefaultRecognizeOptions("eng"), nil},
		{"engine error", img, DefaultRecognizeOptions("eng"), errors.New("boom")},
		{"bad psm", img, RecognizeOptions{EngineMode: 1, PageSegMode: 14}, nil},
		{"bad oem", img, RecognizeOptions{EngineMode: -1, PageSegMode: 6}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{text: "x", err: tt.err}
			if _, err := NewExtractor(engine, nil).Analyze(tt.img, "a.png", tt.opts); err == nil {
				t.Error("Analyze should fail")
			}
			if tt.err == nil && engine.calls != 0 {
				t.Error("engine should not be called for rejected input")
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 7; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	gray := Prepare(img)
	if gray.Bounds().Dx() != 14 || gray.Bounds().Dy() != 6 {
		t.Fatalf("Prepare size = %v, want 14x6", gray.Bounds())
	}
	if v := gray.GrayAt(5, 3).Y; v < 250 {
		t.Errorf("white pixel became %d", v)
	}
}
