// Package search finds images whose OCR text resembles a reference image.
//
// An Engine extracts the reference text, enumerates the supported image files
// of a folder in lexical order, scores each candidate's text against the
// reference and returns the candidates at or above the configured threshold,
// best first. Candidates with equal scores keep their enumeration order.
//
// Reported conditions are sentinel errors (ErrNoTextInReference,
// ErrNoCandidateImages, ErrFolderRead, ErrInvalidConfig) that callers test
// with errors.Is, or map to a stable name with Kind. Problems with individual
// candidates never fail a search: an unreadable candidate simply yields no
// text and is skipped.
//
// Report wraps a result list with its inputs and a timestamp and can be
// written as JSON or YAML. Watcher re-runs a search whenever the folder
// changes.
package search
