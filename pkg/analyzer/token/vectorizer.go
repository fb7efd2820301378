package token

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxFeatures caps the vocabulary built over a pair of documents.
const DefaultMaxFeatures = 1000

var (
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	ErrInvalidCap      = errors.New("max features must be positive")
)

// Vectorizer builds L2-normalised TF-IDF vectors over a small corpus using
// raw term counts and smoothed inverse document frequency.
type Vectorizer struct {
	MaxFeatures int
}

// FitTransform returns one vector per document and the vocabulary that
// indexes them.
func (v Vectorizer) FitTransform(docs []string) ([][]float64, []string, error) {
	if v.MaxFeatures < 1 {
		return nil, nil, ErrInvalidCap
	}

	counts := make([]map[string]float64, len(docs))
	total := make(map[string]float64)
	df := make(map[string]float64)
	for i, doc := range docs {
		counts[i] = make(map[string]float64)
		for _, term := range strings.Fields(strings.ToLower(doc)) {
			if counts[i][term] == 0 {
				df[term]++
			}
			counts[i][term]++
			total[term]++
		}
	}
	if len(total) == 0 {
		return nil, nil, ErrEmptyVocabulary
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
	if len(vocab) > v.MaxFeatures {
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	vectors := make([][]float64, len(docs))
	for i := range docs {
		vec := make([]float64, len(vocab))
		for j, term := range vocab {
			if tf := counts[i][term]; tf > 0 {
				vec[j] = tf * (math.Log((1+n)/(1+df[term])) + 1)
			}
		}
		norm := floats.Norm(vec, 2)
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			return nil, nil, fmt.Errorf("document %d: non-finite norm", i)
		}
		if norm > 0 {
			floats.Scale(1/norm, vec)
		}
		vectors[i] = vec
	}
	return vectors, vocab, nil
}

// Cosine returns the cosine similarity of two equal-length vectors. A zero
// vector is dissimilar to everything.
func Cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
