package similarity

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Weights of the manual blend.
const (
	cosineWeight  = 0.8
	jaccardWeight = 0.2
)

var errNonFinite = errors.New("similarity is not a finite number")

// manualSimilarity blends term-frequency cosine and Jaccard word overlap.
// It needs nothing beyond the standard library and is always available.
func manualSimilarity(a, b string) (float64, error) {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0, nil
	}

	ca, cb := countWords(wa), countWords(wb)

	vocab := make([]string, 0, len(ca)+len(cb))
	for w := range ca {
		vocab = append(vocab, w)
	}
	for w := range cb {
		if _, ok := ca[w]; !ok {
			vocab = append(vocab, w)
		}
	}
	sort.Strings(vocab)

	var dot, magA, magB float64
	shared := 0
	for _, w := range vocab {
		ta := float64(ca[w]) / float64(len(wa))
		tb := float64(cb[w]) / float64(len(wb))
		dot += ta * tb
		magA += ta * ta
		magB += tb * tb
		if ca[w] > 0 && cb[w] > 0 {
			shared++
		}
	}

	cosine := 0.0
	if magA > 0 && magB > 0 {
		cosine = dot / (math.Sqrt(magA) * math.Sqrt(magB))
	}

	jaccard := 0.0
	if len(vocab) > 0 {
		jaccard = float64(shared) / float64(len(vocab))
	}

	score := cosineWeight*cosine + jaccardWeight*jaccard
	if !finite(score) {
		return 0, errNonFinite
	}
	return clamp(score), nil
}

func countWords(ws []string) map[string]int {
	counts := make(map[string]int, len(ws))
	for _, w := range ws {
		counts[w]++
	}
	return counts
}

// sequenceRatio is the longest-matching-block ratio 2*M/T over the runes of a and b.
func sequenceRatio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
