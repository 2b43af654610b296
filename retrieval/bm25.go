package retrieval

import "math"

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25 is an in-memory Okapi BM25 index over tokenized documents.
type BM25 struct {
	docs  []map[string]int
	df    map[string]int
	dl    []int
	avgdl float64
}

// NewBM25 indexes the given tokenized corpus. An empty corpus is valid and
// scores every query as zero.
func NewBM25(corpus [][]string) *BM25 {
	b := &BM25{
		docs: make([]map[string]int, len(corpus)),
		df:   make(map[string]int),
		dl:   make([]int, len(corpus)),
	}
	total := 0
	for i, tokens := range corpus {
		freq := make(map[string]int, len(tokens))
		for _, t := range tokens {
			freq[t]++
		}
		for t := range freq {
			b.df[t]++
		}
		b.docs[i] = freq
		b.dl[i] = len(tokens)
		total += len(tokens)
	}
	if len(corpus) > 0 {
		b.avgdl = float64(total) / float64(len(corpus))
	}
	return b
}

// Scores returns one raw Okapi score per indexed document.
func (b *BM25) Scores(query []string) []float64 {
	scores := make([]float64, len(b.docs))
	n := float64(len(b.docs))
	for _, term := range query {
		df, ok := b.df[term]
		if !ok {
			continue
		}
		idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
		for i, freq := range b.docs {
			tf := float64(freq[term])
			if tf == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(b.dl[i])/b.avgdl)
			scores[i] += idf * tf * (bm25K1 + 1) / (tf + norm)
		}
	}
	return scores
}

// normalizeScores rescales scores into [0, 1] with min-max normalization.
// A flat score vector normalizes to all zeros.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	out := make([]float64, len(scores))
	spread := hi - lo
	if spread < 1e-9 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / spread
	}
	return out
}
