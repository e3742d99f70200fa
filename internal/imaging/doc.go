// Package imaging loads images and prepares them for OCR.
//
// Images are decoded from PNG, JPEG, GIF, BMP and TIFF files. IsSupported
// decides which files in a folder count as candidates for a search; the
// decision is made on the file extension alone, ignoring case.
//
// # Preprocessing
//
// Preprocess applies one of the named filters returned by Filters. Every
// filter except "none" first rescales the image, then optionally converts it
// to grayscale and binarizes or cleans it:
//
//	scale               resize only
//	scale-contrast      grayscale, then v*1.2 + 10 saturated to [0, 255]
//	scale-sharpen       grayscale, then a 3x3 sharpening kernel
//	gray-scale          grayscale
//	adaptive-threshold  Gaussian-weighted local mean minus 2
//	otsu                global Otsu threshold
//	invert              grayscale negative
//	auto-invert         negative only when IsDarkBackground reports true
//	denoise             median filter
//	aggressive          blur, adaptive threshold, then a morphological close
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Filters are stateless and
// never modify their input, so they can be called concurrently.
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. Entries are revalidated against the file's modification time and
// size, so a file rewritten between calls is decoded again.
package imaging
