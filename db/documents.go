// ABOUTME: SQLite-backed implementation of the store.Documents port
// ABOUTME: Stores one JSON document per (collection, id) row and merges with json_patch
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/prospecta/store"
)

// DocumentStore persists documents in the local SQLite database.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore wraps an already-initialized database handle.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Open opens (creating if needed) the database at path and returns a store over it.
func Open(path string) (*DocumentStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewDocumentStore(db), nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := store.ValidateKey(collection, id); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return []byte(data), nil
}

func (s *DocumentStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := store.ValidateKey(collection, id); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return fmt.Errorf("failed to put %s/%s: invalid JSON", collection, id)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, collection, id, string(doc))
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DocumentStore) Merge(ctx context.Context, collection, id string, doc []byte) error {
	if err := store.ValidateKey(collection, id); err != nil {
		return err
	}
	var patch map[string]any
	if err := json.Unmarshal(doc, &patch); err != nil {
		return store.ErrNotAnObject
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, json_patch('{}', ?), CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = json_patch(documents.data, excluded.data),
			updated_at = CURRENT_TIMESTAMP
	`, collection, id, string(doc))
	if err != nil {
		return fmt.Errorf("failed to merge %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := store.ValidateKey(collection, id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY updated_at DESC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		out[id] = []byte(data)
	}
	return out, rows.Err()
}

func (s *DocumentStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *DocumentStore) Close() error {
	return s.db.Close()
}
