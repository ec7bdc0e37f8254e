package kialo

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/m-mizutani/argubots/pkg/model"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "as": true, "by": true, "from": true, "so": true,
	"if": true, "than": true, "then": true, "there": true, "their": true,
	"they": true, "them": true, "we": true, "you": true, "he": true,
	"she": true, "his": true, "her": true, "our": true, "your": true,
	"not": true, "no": true, "can": true, "which": true, "who": true,
	"what": true, "i": true, "me": true, "my": true, "into": true,
}

// tokenize lowercases text, splits it on anything that is not a letter or a
// digit and drops stop words and single characters. Repeated words are kept.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, w := range fields {
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// BM25 is an Okapi BM25 lexical ranker. Every occurrence of a query term
// contributes to the score, so a query that repeats a word weighs it more.
type BM25 struct {
	k1      float64
	b       float64
	epsilon float64

	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// BM25Option configures a BM25 ranker.
type BM25Option func(*BM25)

// WithBM25Params overrides the term saturation (k1) and length normalisation
// (b) parameters.
func WithBM25Params(k1, b float64) BM25Option {
	return func(r *BM25) {
		r.k1 = k1
		r.b = b
	}
}

// NewBM25 creates a BM25 ranker with k1=1.5, b=0.75 and a negative IDF floor
// of 0.25 times the average IDF.
func NewBM25(opts ...BM25Option) *BM25 {
	r := &BM25{
		k1:      1.5,
		b:       0.75,
		epsilon: 0.25,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *BM25) Index(_ context.Context, claims []model.Claim) error {
	r.termFreqs = make([]map[string]int, len(claims))
	r.docLens = make([]int, len(claims))
	r.idf = make(map[string]float64)

	docFreq := make(map[string]int)
	total := 0
	for i, c := range claims {
		tokens := tokenize(string(c))
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			docFreq[t]++
		}
		r.termFreqs[i] = tf
		r.docLens[i] = len(tokens)
		total += len(tokens)
	}

	if len(claims) == 0 {
		return nil
	}
	r.avgDocLen = float64(total) / float64(len(claims))

	// Common terms get a negative IDF from the Okapi formula; those are
	// floored to a small positive value based on the average IDF.
	n := float64(len(claims))
	idfSum := 0.0
	var negative []string
	for t, df := range docFreq {
		idf := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		r.idf[t] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, t)
		}
	}
	floor := r.epsilon * idfSum / float64(len(docFreq))
	for _, t := range negative {
		r.idf[t] = floor
	}
	return nil
}

func (r *BM25) Score(_ context.Context, query string) ([]float64, error) {
	scores := make([]float64, len(r.termFreqs))
	if r.avgDocLen == 0 {
		return scores, nil
	}

	for _, q := range tokenize(query) {
		idf, ok := r.idf[q]
		if !ok {
			continue
		}
		for i, tf := range r.termFreqs {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			norm := 1 - r.b + r.b*float64(r.docLens[i])/r.avgDocLen
			scores[i] += idf * f * (r.k1 + 1) / (f + r.k1*norm)
		}
	}
	return scores, nil
}
