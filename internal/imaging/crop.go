package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in image coordinates. (X1, Y1) is inclusive and
// (X2, Y2) exclusive, both relative to the image's top-left corner.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Crop extracts region from img, for example to read a single field of a
// scanned form.
func Crop(img image.Image, region Region) (image.Image, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if region.X1 < 0 || region.Y1 < 0 || region.X2 > w || region.Y2 > h {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds %dx%d",
			region.X1, region.Y1, region.X2, region.Y2, w, h)
	}
	if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	rect := image.Rect(region.X1, region.Y1, region.X2, region.Y2).Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}
