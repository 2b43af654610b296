// Package retrieval serves schema documentation fragments for the
// clarification cycle: the documentation JSON is split per model type,
// indexed lexically (BM25) and semantically (embeddings), and queried with a
// blended score. An empty result set is a valid answer, not an error.
package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Document is one retrievable schema fragment.
type Document struct {
	ID string
	// ModelType is the top-level documentation key the fragment documents,
	// e.g. "wf_definition" or "starter_scheduler".
	ModelType string
	// Content is the flattened text used for indexing.
	Content string
	// Payload is the fragment's original JSON value.
	Payload string
}

// SplitSchemaJSON splits a documentation JSON object into one document per
// top-level key. Object values are flattened into "key sub: value …" text;
// scalars become "key: value".
func SplitSchemaJSON(raw []byte) ([]Document, error) {
	var data map[string]any
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse documentation json: %w", err)
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		value := data[key]
		payload, err := sonic.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal fragment %q: %w", key, err)
		}
		docs = append(docs, Document{
			ID:        uuid.NewString(),
			ModelType: key,
			Content:   flatten(key, value),
			Payload:   string(payload),
		})
	}
	return docs, nil
}

func flatten(key string, value any) string {
	obj, ok := value.(map[string]any)
	if !ok {
		return fmt.Sprintf("%s: %v", key, value)
	}
	subKeys := make([]string, 0, len(obj))
	for k := range obj {
		subKeys = append(subKeys, k)
	}
	sort.Strings(subKeys)

	parts := make([]string, 0, len(subKeys)+1)
	parts = append(parts, key)
	for _, k := range subKeys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, obj[k]))
	}
	return strings.Join(parts, " ")
}
