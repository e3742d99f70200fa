package search

import "errors"

// Reported search conditions.
var (
	ErrNoTextInReference = errors.New("no text found in reference image")
	ErrNoCandidateImages = errors.New("no candidate images found in folder")
	ErrFolderRead        = errors.New("failed to read search folder")
	ErrInvalidConfig     = errors.New("invalid search configuration")
)

// Kind names returned by Kind.
const (
	KindNoTextInReference = "no_text_in_reference"
	KindNoCandidateImages = "no_candidate_images"
	KindFolderRead        = "folder_read"
	KindInvalidConfig     = "invalid_config"
	KindInternal          = "internal"
)

// Kind maps err to a stable name. It returns "" for a nil error and
// KindInternal for errors that are not search conditions.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoTextInReference):
		return KindNoTextInReference
	case errors.Is(err, ErrNoCandidateImages):
		return KindNoCandidateImages
	case errors.Is(err, ErrFolderRead):
		return KindFolderRead
	case errors.Is(err, ErrInvalidConfig):
		return KindInvalidConfig
	}
	return KindInternal
}
