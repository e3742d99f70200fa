// Package similarity normalizes OCR text and scores how alike two texts are.
//
// Scores are always in [0, 1]. A Scorer first asks its VectorStrategy (by
// default a TF-IDF model over unigrams and bigrams, built with gonum) for a
// cosine similarity. When the strategy is absent or cannot produce a value,
// the Scorer answers with a manual blend of term-frequency cosine and Jaccard
// word overlap:
//
//	score = 0.8*cosine + 0.2*jaccard
//
// If that blend is not a finite number, the character-level sequence ratio
// of the two normalized texts is used instead.
//
// Both inputs are passed through Normalize before scoring, so callers may
// hand in raw OCR output.
package similarity
