package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCrop(t *testing.T) {
	img := textLike(40, 30, color.White, color.Black)

	out, err := Crop(img, Region{X1: 10, Y1: 10, X2: 30, Y2: 20})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("size = %dx%d, want 20x10", b.Dx(), b.Dy())
	}
	// The crop lies inside the dark bar.
	if v := grayAt(out, 5, 5); v != 0 {
		t.Errorf("cropped pixel = %d, want 0", v)
	}
}

func TestCrop_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 25, 25))
	img.Set(5, 5, color.White)

	out, err := Crop(img, Region{X1: 0, Y1: 0, X2: 2, Y2: 2})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if v := grayAt(out, 0, 0); v != 255 {
		t.Errorf("region should be relative to the image origin, got %d", v)
	}
}

func TestCrop_Invalid(t *testing.T) {
	img := solid(20, 10, color.White)

	tests := []struct {
		name   string
		region Region
	}{
		{"negative", Region{X1: -1, Y1: 0, X2: 5, Y2: 5}},
		{"too wide", Region{X1: 0, Y1: 0, X2: 21, Y2: 5}},
		{"too tall", Region{X1: 0, Y1: 0, X2: 5, Y2: 11}},
		{"empty", Region{X1: 5, Y1: 5, X2: 5, Y2: 8}},
		{"inverted", Region{X1: 8, Y1: 5, X2: 4, Y2: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.region); err == nil {
				t.Error("Crop should fail")
			}
		})
	}
}
