package similarity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary.
const DefaultMaxFeatures = 1000

// TFIDF is a VectorStrategy that weights unigrams and bigrams by term
// frequency and smoothed inverse document frequency over the two-document
// corpus being compared, then takes the cosine of the L2-normalised vectors.
//
// The idf of a term is ln((1+n)/(1+df)) + 1 with n = 2, so terms shared by
// both documents weigh 1 and terms unique to one document weigh about 1.405.
type TFIDF struct {
	maxFeatures int
}

// NewTFIDF creates a TF-IDF strategy. maxFeatures <= 0 means DefaultMaxFeatures.
func NewTFIDF(maxFeatures int) *TFIDF {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDF{maxFeatures: maxFeatures}
}

// TryVectorSimilarity implements VectorStrategy.
func (t *TFIDF) TryVectorSimilarity(a, b string) (float64, bool) {
	docs := [][]string{terms(words(a)), terms(words(b))}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0, false
	}

	counts := make([]map[string]int, len(docs))
	for i, doc := range docs {
		counts[i] = make(map[string]int, len(doc))
		for _, term := range doc {
			counts[i][term]++
		}
	}

	vocab := t.vocabulary(counts)
	if len(vocab) == 0 {
		return 0, false
	}

	vecs := make([]*mat.VecDense, len(docs))
	for i := range docs {
		data := make([]float64, len(vocab))
		for j, term := range vocab {
			tf := counts[i][term]
			if tf == 0 {
				continue
			}
			data[j] = float64(tf) * idf(term, counts)
		}

		v := mat.NewVecDense(len(vocab), data)
		norm := mat.Norm(v, 2)
		if norm == 0 {
			// Every term of this document fell outside the vocabulary cap.
			return 0, false
		}
		v.ScaleVec(1/norm, v)
		vecs[i] = v
	}

	return mat.Dot(vecs[0], vecs[1]), true
}

// vocabulary keeps the maxFeatures most frequent terms across the corpus,
// breaking frequency ties by term order, and returns them sorted by term.
func (t *TFIDF) vocabulary(counts []map[string]int) []string {
	total := make(map[string]int)
	for _, c := range counts {
		for term, n := range c {
			total[term] += n
		}
	}

	vocab := make([]string, 0, len(total))
	for term := range total {
		vocab = append(vocab, term)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if total[vocab[i]] != total[vocab[j]] {
			return total[vocab[i]] > total[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})

	if len(vocab) > t.maxFeatures {
		vocab = vocab[:t.maxFeatures]
	}
	sort.Strings(vocab)
	return vocab
}

func idf(term string, counts []map[string]int) float64 {
	df := 0
	for _, c := range counts {
		if c[term] > 0 {
			df++
		}
	}
	n := float64(len(counts))
	return math.Log((1+n)/(1+float64(df))) + 1
}

// terms returns the unigrams followed by the bigrams of tokens.
func terms(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
