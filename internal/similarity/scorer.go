package similarity

import (
	"fmt"
	"math"

	"github.com/ironsheep/ocr-similarity-mcp/internal/logging"
)

// Method names the scoring path that produced a similarity value.
type Method string

const (
	// MethodEmpty means one of the texts normalized to nothing; the score is 0.
	MethodEmpty Method = "empty"
	// MethodVector means the VectorStrategy produced the score.
	MethodVector Method = "tfidf"
	// MethodManual means the term-frequency cosine / Jaccard blend produced the score.
	MethodManual Method = "manual"
	// MethodSequence means the character sequence ratio produced the score.
	MethodSequence Method = "sequence"
)

// VectorStrategy computes a vector-space similarity for two normalized texts.
//
// Implementations report ok=false when they cannot score the pair; the
// Scorer then falls back to its manual method. A strategy may panic (gonum
// does on shape mismatches); the Scorer recovers and treats that as ok=false.
type VectorStrategy interface {
	TryVectorSimilarity(a, b string) (score float64, ok bool)
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithVectorStrategy sets the preferred scoring strategy. Passing nil leaves
// only the manual method.
func WithVectorStrategy(v VectorStrategy) Option {
	return func(s *Scorer) {
		s.vector = v
	}
}

// WithLogger sets the logger used to report scoring fallbacks.
func WithLogger(logger logging.Logger) Option {
	return func(s *Scorer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scorer computes similarity scores in [0, 1] between two texts.
//
// A Scorer holds no mutable state after construction and is safe for
// concurrent use.
type Scorer struct {
	vector VectorStrategy
	logger logging.Logger
}

// NewScorer creates a Scorer. By default it prefers a TF-IDF strategy capped
// at DefaultMaxFeatures terms.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		vector: NewTFIDF(DefaultMaxFeatures),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the similarity of a and b in [0, 1].
func (s *Scorer) Score(a, b string) float64 {
	score, _ := s.ScoreWithMethod(a, b)
	return score
}

// ScoreWithMethod returns the similarity of a and b together with the path
// that produced it.
func (s *Scorer) ScoreWithMethod(a, b string) (float64, Method) {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0, MethodEmpty
	}

	if s.vector != nil {
		if score, ok := s.tryVector(na, nb); ok {
			return clamp(score), MethodVector
		}
		s.logger.Debug("Vector similarity unavailable, using manual scoring",
			"len_a", len(na),
			"len_b", len(nb),
		)
	}

	score, err := manualSimilarity(na, nb)
	if err != nil {
		s.logger.Debug("Manual similarity failed, using sequence ratio", "error", err)
		return clamp(sequenceRatio(na, nb)), MethodSequence
	}
	return score, MethodManual
}

// tryVector runs the vector strategy, turning panics and non-finite values
// into ok=false.
func (s *Scorer) tryVector(a, b string) (score float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Vector similarity panicked", "error", fmt.Sprint(r))
			score, ok = 0, false
		}
	}()

	score, ok = s.vector.TryVectorSimilarity(a, b)
	if ok && !finite(score) {
		return 0, false
	}
	return score, ok
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
