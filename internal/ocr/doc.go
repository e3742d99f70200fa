// Package ocr extracts text from images using Tesseract.
//
// The package is split along the engine boundary:
//
//   - Engine is the external text-recognition capability. TesseractEngine
//     implements it with gosseract/v2; tests substitute their own.
//   - Extractor is the adapter the rest of the module talks to. It applies a
//     fixed preprocessing step (single-channel grayscale, 2x Catmull-Rom
//     upscale) and calls the engine with fixed modes: LSTM engine, uniform
//     block of text.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Languages
//
// Languages are passed through as Tesseract codes. Several languages are
// joined with "+":
//   - "eng" - English
//   - "pol" - Polish
//   - "deu" - German
//   - "pol+eng" - Polish and English
//
// # Training Data Location
//
// TesseractEngine looks for training data in this order: the prefix given in
// Config, a "tessdata" directory next to the executable, the TESSDATA_PREFIX
// environment variable, and finally the library's compiled-in default.
//
// # Error Handling
//
// Extractor.Extract never returns an error. Unreadable files and engine
// failures are logged and produce an empty string, which callers treat as
// "no text". Engine methods return wrapped errors.
//
// Confidence is only ever reported when the engine provides it; nothing in
// this package estimates confidence from text length.
package ocr
