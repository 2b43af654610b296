package retrieval

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// Store persists documentation fragments and their embeddings in SQLite.
// Embeddings are stored as JSON arrays and compared in-process; corpora of a
// few hundred fragments do not need a vector index.
type Store struct {
	db *sql.DB
}

// StoredDocument is a Document plus its persisted embedding, which is nil for
// fragments indexed without an embedder.
type StoredDocument struct {
	Document
	Embedding []float32
}

// OpenStore opens (or creates) the fragment database at path. Use ":memory:"
// for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fragment store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS fragments (
			id         TEXT PRIMARY KEY,
			model_type TEXT NOT NULL,
			content    TEXT NOT NULL,
			payload    TEXT NOT NULL,
			embedding  TEXT
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create fragments table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts fragments with their embeddings. embeddings may be nil (no
// embedder configured) or must match docs element-for-element.
func (s *Store) Put(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if embeddings != nil && len(embeddings) != len(docs) {
		return fmt.Errorf("store fragments: %d embeddings for %d documents",
			len(embeddings), len(docs))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store fragments: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fragments (id, model_type, content, payload, embedding)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store fragments: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		var embedding any
		if embeddings != nil && embeddings[i] != nil {
			encoded, err := sonic.Marshal(embeddings[i])
			if err != nil {
				return fmt.Errorf("encode embedding for %q: %w", doc.ModelType, err)
			}
			embedding = string(encoded)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.ModelType, doc.Content, doc.Payload, embedding); err != nil {
			return fmt.Errorf("store fragment %q: %w", doc.ModelType, err)
		}
	}
	return tx.Commit()
}

// All loads every stored fragment, ordered by model type.
func (s *Store) All(ctx context.Context) ([]StoredDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_type, content, payload, embedding
		FROM fragments ORDER BY model_type`)
	if err != nil {
		return nil, fmt.Errorf("load fragments: %w", err)
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		var doc StoredDocument
		var embedding sql.NullString
		if err := rows.Scan(&doc.ID, &doc.ModelType, &doc.Content, &doc.Payload, &embedding); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		if embedding.Valid {
			if err := sonic.UnmarshalString(embedding.String, &doc.Embedding); err != nil {
				return nil, fmt.Errorf("decode embedding for %q: %w", doc.ModelType, err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count reports the number of stored fragments.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fragments: %w", err)
	}
	return n, nil
}
