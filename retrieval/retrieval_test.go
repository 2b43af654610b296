package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docJSON = `{
	"wf_definition": {"name": "workflow name", "type": "workflow type discriminator"},
	"starter_scheduler": {"cronHour": "hour of day", "cronMinute": "minute of hour"},
	"rest_call_config": {"url": "endpoint url", "method": "http verb"},
	"version": 1
}`

// fakeEmbedder maps texts containing a marker word onto fixed axes so cosine
// similarity is fully deterministic.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vecs, _ := f.EmbedBatch(ctx, []string{text})
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := []float32{0.1, 0.1, 0.1}
		for j, marker := range []string{"scheduler", "rest", "wf_definition"} {
			if containsToken(text, marker) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func containsToken(text, marker string) bool {
	for _, tok := range Tokenize(text) {
		if tok == marker {
			return true
		}
	}
	return false
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "fragments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTokenize(t *testing.T) {
	cases := map[string][]string{
		"restCallConfig":      {"rest", "call", "config"},
		"rest_call_config":    {"rest", "call", "config"},
		"Cron-Hour: 9, OK??":  {"cron", "hour", "9", "ok"},
		"  plain words here ": {"plain", "words", "here"},
		"":                    {},
	}
	for in, want := range cases {
		assert.ElementsMatch(t, want, Tokenize(in), "input %q", in)
	}
}

func TestSplitSchemaJSON(t *testing.T) {
	docs, err := SplitSchemaJSON([]byte(docJSON))
	require.NoError(t, err)
	require.Len(t, docs, 4)

	seen := map[string]Document{}
	ids := map[string]bool{}
	for _, d := range docs {
		seen[d.ModelType] = d
		assert.False(t, ids[d.ID], "duplicate fragment id")
		ids[d.ID] = true
	}

	wf := seen["wf_definition"]
	assert.Contains(t, wf.Content, "wf_definition")
	assert.Contains(t, wf.Content, "name: workflow name")
	assert.Contains(t, wf.Content, "type: workflow type discriminator")
	assert.JSONEq(t, `{"name": "workflow name", "type": "workflow type discriminator"}`, wf.Payload)

	assert.Equal(t, "version: 1", seen["version"].Content)
}

func TestSplitSchemaJSONRejectsMalformed(t *testing.T) {
	_, err := SplitSchemaJSON([]byte(`{"broken":`))
	assert.Error(t, err)
}

func TestBM25RanksMatchingDocumentHigher(t *testing.T) {
	corpus := [][]string{
		Tokenize("scheduler cron hour minute"),
		Tokenize("rest call url method"),
		Tokenize("kafka topic consumer group"),
	}
	bm := NewBM25(corpus)

	scores := bm.Scores(Tokenize("cron schedule for the hour"))
	assert.Greater(t, scores[0], scores[1])
	assert.Greater(t, scores[0], scores[2])

	unknown := bm.Scores(Tokenize("zanzibar"))
	assert.Equal(t, []float64{0, 0, 0}, unknown)
}

func TestNormalizeScores(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, normalizeScores([]float64{2, 4, 6}))
	assert.Equal(t, []float64{0, 0, 0}, normalizeScores([]float64{3, 3, 3}))
	assert.Empty(t, normalizeScores(nil))
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "b", ModelType: "starter_scheduler", Content: "scheduler cron", Payload: `{"cronHour": "h"}`},
		{ID: "a", ModelType: "rest_call_config", Content: "rest call url", Payload: `{"url": "u"}`},
	}
	embeddings := [][]float32{{1, 0}, {0, 1}}
	require.NoError(t, store.Put(ctx, docs, embeddings))

	loaded, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	// Ordered by model type.
	assert.Equal(t, "rest_call_config", loaded[0].ModelType)
	assert.Equal(t, []float32{0, 1}, loaded[0].Embedding)
	assert.Equal(t, "starter_scheduler", loaded[1].ModelType)
	assert.Equal(t, []float32{1, 0}, loaded[1].Embedding)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Upsert replaces rather than duplicates, and nil embeddings are allowed.
	require.NoError(t, store.Put(ctx, docs[:1], nil))
	loaded, err = store.All(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Nil(t, loaded[1].Embedding)
}

func TestStoreRejectsMismatchedEmbeddings(t *testing.T) {
	store := openTestStore(t)
	err := store.Put(context.Background(), []Document{{ID: "a", ModelType: "m"}}, [][]float32{{1}, {2}})
	assert.Error(t, err)
}

func indexFixture(t *testing.T, store *Store, embedder Embedder) {
	t.Helper()
	n, err := IndexSchemaJSON(context.Background(), store, embedder, []byte(docJSON))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRetrieverLexicalOnly(t *testing.T) {
	store := openTestStore(t)
	indexFixture(t, store, nil)

	r, err := NewRetriever(context.Background(), store, nil)
	require.NoError(t, err)

	results := r.Search(context.Background(), "what hour does the cron run")
	require.NotEmpty(t, results)
	assert.Equal(t, "starter_scheduler", results[0].ModelType)
}

func TestRetrieverHybridPrefersSemanticMatch(t *testing.T) {
	store := openTestStore(t)
	embedder := &fakeEmbedder{}
	indexFixture(t, store, embedder)

	r, err := NewRetriever(context.Background(), store, embedder, WithAlpha(1))
	require.NoError(t, err)

	results := r.Search(context.Background(), "scheduler")
	require.NotEmpty(t, results)
	assert.Equal(t, "starter_scheduler", results[0].ModelType)
}

func TestRetrieverFallsBackWhenEmbeddingFails(t *testing.T) {
	store := openTestStore(t)
	indexFixture(t, store, &fakeEmbedder{})

	failing := &fakeEmbedder{err: errors.New("quota exceeded")}
	r, err := NewRetriever(context.Background(), store, failing, WithAlpha(0.5))
	require.NoError(t, err)

	results := r.Search(context.Background(), "rest call url")
	require.NotEmpty(t, results, "lexical fallback must still answer")
	assert.Equal(t, "rest_call_config", results[0].ModelType)
}

func TestRetrieverEmptyCorpus(t *testing.T) {
	store := openTestStore(t)
	r, err := NewRetriever(context.Background(), store, nil)
	require.NoError(t, err)

	assert.Empty(t, r.Search(context.Background(), "anything"))
}

func TestRetrieverTopK(t *testing.T) {
	store := openTestStore(t)
	indexFixture(t, store, nil)

	r, err := NewRetriever(context.Background(), store, nil, WithTopK(1))
	require.NoError(t, err)

	results := r.Search(context.Background(), "name type url method cron")
	assert.Len(t, results, 1)
}

func TestNewGenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewGenAIEmbedder(context.Background(), "", "")
	assert.Error(t, err)
}

func TestRetrieverCachesQueryEmbeddings(t *testing.T) {
	store := openTestStore(t)
	embedder := &fakeEmbedder{}
	indexFixture(t, store, embedder)

	r, err := NewRetriever(context.Background(), store, embedder, WithAlpha(1))
	require.NoError(t, err)

	embedder.calls = 0
	r.Search(context.Background(), "scheduler")
	r.Search(context.Background(), "scheduler")
	assert.Equal(t, 1, embedder.calls)
}
