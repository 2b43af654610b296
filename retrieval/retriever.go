package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultAlpha          = 0.5
	defaultTopK           = 5
	defaultQueryCacheSize = 128
)

// Result is one ranked fragment.
type Result struct {
	Document
	Score float64
}

// Retriever answers schema questions with a blend of semantic and lexical
// scores: alpha weights the embedding side, 1-alpha the BM25 side. Without an
// embedder (or when embedding a query fails) it falls back to pure BM25.
type Retriever struct {
	docs       []StoredDocument
	bm25       *BM25
	embedder   Embedder
	queryCache *lru.Cache[string, []float32]
	alpha      float64
	topK       int
}

type RetrieverOption func(*Retriever)

// WithAlpha sets the semantic/lexical blend weight, clamped to [0, 1].
func WithAlpha(alpha float64) RetrieverOption {
	return func(r *Retriever) {
		r.alpha = min(max(alpha, 0), 1)
	}
}

// WithTopK sets how many fragments a search returns.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// NewRetriever loads the store's fragments and builds the lexical index.
// embedder may be nil for BM25-only retrieval.
func NewRetriever(ctx context.Context, store *Store, embedder Embedder, opts ...RetrieverOption) (*Retriever, error) {
	docs, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("build retriever: %w", err)
	}
	corpus := make([][]string, len(docs))
	for i, doc := range docs {
		corpus[i] = Tokenize(doc.Content)
	}
	cache, err := lru.New[string, []float32](defaultQueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("build retriever: %w", err)
	}

	r := &Retriever{
		docs:       docs,
		bm25:       NewBM25(corpus),
		embedder:   embedder,
		queryCache: cache,
		alpha:      defaultAlpha,
		topK:       defaultTopK,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Search ranks the corpus against the query and returns up to topK fragments.
// An empty result is a valid answer: an empty corpus, an unembeddable query
// against an all-semantic blend, or a query sharing no terms with the corpus
// all yield fewer (or zero) results rather than an error.
func (r *Retriever) Search(ctx context.Context, query string) []Result {
	if len(r.docs) == 0 {
		return nil
	}

	lexical := normalizeScores(r.bm25.Scores(Tokenize(query)))

	alpha := r.alpha
	var semantic []float64
	if r.embedder != nil && alpha > 0 {
		vec, err := r.queryVector(ctx, query)
		if err != nil {
			slog.Warn("query embedding failed, falling back to lexical search", "error", err)
			alpha = 0
		} else {
			raw := make([]float64, len(r.docs))
			for i, doc := range r.docs {
				raw[i] = cosineSimilarity(vec, doc.Embedding)
			}
			semantic = normalizeScores(raw)
		}
	} else {
		alpha = 0
	}

	ranked := make([]Result, 0, len(r.docs))
	for i, doc := range r.docs {
		score := (1 - alpha) * lexical[i]
		if semantic != nil {
			score += alpha * semantic[i]
		}
		if score <= 0 {
			continue
		}
		ranked = append(ranked, Result{Document: doc.Document, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	return ranked
}

func (r *Retriever) queryVector(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := r.queryCache.Get(query); ok {
		return vec, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	r.queryCache.Add(query, vec)
	return vec, nil
}

// IndexSchemaJSON splits documentation JSON into fragments, embeds them when
// an embedder is available, and upserts everything into the store.
func IndexSchemaJSON(ctx context.Context, store *Store, embedder Embedder, raw []byte) (int, error) {
	docs, err := SplitSchemaJSON(raw)
	if err != nil {
		return 0, err
	}
	var embeddings [][]float32
	if embedder != nil {
		texts := make([]string, len(docs))
		for i, doc := range docs {
			texts[i] = doc.Content
		}
		embeddings, err = embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed fragments: %w", err)
		}
	}
	if err := store.Put(ctx, docs, embeddings); err != nil {
		return 0, err
	}
	return len(docs), nil
}
