package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Filter names a preprocessing pipeline applied before OCR.
type Filter string

// Available filters. Every filter except FilterNone first enlarges the image
// by the requested scale factor with Catmull-Rom interpolation; all but
// FilterNone and FilterScale then work on the grayscale image.
const (
	FilterNone              Filter = "none"
	FilterScale             Filter = "scale"
	FilterScaleContrast     Filter = "scale-contrast"
	FilterScaleSharpen      Filter = "scale-sharpen"
	FilterGrayScale         Filter = "gray-scale"
	FilterAdaptiveThreshold Filter = "adaptive-threshold"
	FilterOtsu              Filter = "otsu"
	FilterInvert            Filter = "invert"
	FilterAutoInvert        Filter = "auto-invert"
	FilterDenoise           Filter = "denoise"
	FilterAggressive        Filter = "aggressive"
)

// Tuning constants for the filters.
const (
	contrastAlpha = 1.2
	contrastBeta  = 10

	// adaptiveRadius approximates an 11x11 neighbourhood.
	adaptiveRadius = 5
	adaptiveOffset = 2

	denoiseRadius = 1
	closeRadius   = 1

	// darkLightness is the mean CIE L* below which an image counts as dark.
	darkLightness = 0.5
)

var sharpenKernel = [9]float64{
	-1, -1, -1,
	-1, 9, -1,
	-1, -1, -1,
}

// filterFuncs map a filter to its work after scaling.
var filterFuncs = map[Filter]func(image.Image) image.Image{
	FilterScale:             func(img image.Image) image.Image { return img },
	FilterScaleContrast:     contrast,
	FilterScaleSharpen:      sharpen,
	FilterGrayScale:         grayscale,
	FilterAdaptiveThreshold: func(img image.Image) image.Image { return adaptiveThreshold(grayscale(img)) },
	FilterOtsu:              otsu,
	FilterInvert:            func(img image.Image) image.Image { return effect.Invert(grayscale(img)) },
	FilterAutoInvert:        autoInvert,
	FilterDenoise:           func(img image.Image) image.Image { return effect.Median(grayscale(img), denoiseRadius) },
	FilterAggressive:        aggressive,
}

// Filters returns every filter name in display order.
func Filters() []Filter {
	return []Filter{
		FilterNone,
		FilterScale,
		FilterScaleContrast,
		FilterScaleSharpen,
		FilterGrayScale,
		FilterAdaptiveThreshold,
		FilterOtsu,
		FilterInvert,
		FilterAutoInvert,
		FilterDenoise,
		FilterAggressive,
	}
}

// Preprocess applies the named filter. A scale <= 0 is treated as 1.
func Preprocess(img image.Image, name Filter, scale float64) (image.Image, error) {
	if name == FilterNone || name == "" {
		return img, nil
	}

	fn, ok := filterFuncs[name]
	if !ok {
		return nil, fmt.Errorf("unknown preprocessing filter: %s", name)
	}

	return fn(Scale(img, scale)), nil
}

// Scale enlarges (or shrinks) img by factor using Catmull-Rom interpolation.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	return imaging.Resize(img, w, h, imaging.CatmullRom)
}

func grayscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// contrast computes v*alpha + beta per channel, saturating at 0 and 255.
func contrast(img image.Image) image.Image {
	return imaging.AdjustFunc(grayscale(img), func(c color.NRGBA) color.NRGBA {
		v := saturate(float64(c.R)*contrastAlpha + contrastBeta)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func sharpen(img image.Image) image.Image {
	return imaging.Convolve3x3(grayscale(img), sharpenKernel, nil)
}

// adaptiveThreshold marks a pixel white when it is brighter than its
// Gaussian-weighted neighbourhood mean minus adaptiveOffset.
func adaptiveThreshold(gray image.Image) *image.Gray {
	mean := blur.Gaussian(gray, adaptiveRadius)

	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := color.GrayModel.Convert(gray.At(x, y)).(color.Gray).Y
			m := color.GrayModel.Convert(mean.At(x, y)).(color.Gray).Y
			if int(v) > int(m)-adaptiveOffset {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func otsu(img image.Image) image.Image {
	gray := grayscale(img)
	level := OtsuLevel(gray)
	// segment.Threshold keeps values >= level; Otsu keeps values > level.
	if level < 255 {
		level++
	}
	return segment.Threshold(gray, level)
}

// OtsuLevel returns the gray level that maximises between-class variance.
func OtsuLevel(img image.Image) uint8 {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i * n)
	}

	var (
		sumBack    float64
		weightBack int
		best       float64
		level      uint8
	)
	for t := 0; t < 256; t++ {
		weightBack += hist[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t * hist[t])

		meanBack := sumBack / float64(weightBack)
		meanFore := (sumAll - sumBack) / float64(weightFore)
		between := float64(weightBack) * float64(weightFore) * (meanBack - meanFore) * (meanBack - meanFore)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

func autoInvert(img image.Image) image.Image {
	gray := grayscale(img)
	if IsDarkBackground(gray) {
		return effect.Invert(gray)
	}
	return gray
}

// aggressive blurs, applies an adaptive threshold and closes small gaps.
func aggressive(img image.Image) image.Image {
	blurred := blur.Gaussian(grayscale(img), 1)
	thresh := adaptiveThreshold(blurred)
	return effect.Erode(effect.Dilate(thresh, closeRadius), closeRadius)
}

// IsDarkBackground reports whether the mean CIE L* lightness of img, sampled
// on a grid of about 64x64 points, is below one half.
func IsDarkBackground(img image.Image) bool {
	b := img.Bounds()
	if b.Empty() {
		return false
	}

	stepX := max(1, b.Dx()/64)
	stepY := max(1, b.Dy()/64)

	var sum float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixels carry no colour.
				continue
			}
			l, _, _ := c.Lab()
			sum += l
			n++
		}
	}
	if n == 0 {
		return false
	}
	return sum/float64(n) < darkLightness
}

func saturate(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}
