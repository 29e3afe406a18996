// ABOUTME: Persistence port shared by every service: collections of JSON documents keyed by id
// ABOUTME: Backed by SQLite (db), Charm KV or Badger (charm), or the in-memory fake for tests
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidKey  = errors.New("invalid document key")
	ErrNotAnObject = errors.New("document is not a JSON object")
)

// Documents is an opaque document store. Values are JSON objects.
type Documents interface {
	// Get returns the raw document or ErrNotFound.
	Get(ctx context.Context, collection, id string) ([]byte, error)
	// Put inserts or replaces the document wholesale.
	Put(ctx context.Context, collection, id string, doc []byte) error
	// Merge applies doc as a JSON merge patch (RFC 7396), inserting when absent.
	Merge(ctx context.Context, collection, id string, doc []byte) error
	// Delete removes the document or returns ErrNotFound.
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in the collection keyed by id.
	List(ctx context.Context, collection string) (map[string][]byte, error)
	// Collections returns the names of all non-empty collections.
	Collections(ctx context.Context) ([]string, error)
	Close() error
}

// ValidateKey rejects collection/id pairs that cannot be stored.
func ValidateKey(collection, id string) error {
	if collection == "" || id == "" {
		return fmt.Errorf("%w: collection=%q id=%q", ErrInvalidKey, collection, id)
	}
	for _, r := range collection {
		if r == '/' {
			return fmt.Errorf("%w: collection %q contains '/'", ErrInvalidKey, collection)
		}
	}
	return nil
}

// GetJSON decodes the document into out.
func GetJSON(ctx context.Context, docs Documents, collection, id string, out any) error {
	data, err := docs.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// PutJSON encodes v and stores it wholesale.
func PutJSON(ctx context.Context, docs Documents, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	return docs.Put(ctx, collection, id, data)
}

// MergeJSON encodes v and merges it into the stored document.
func MergeJSON(ctx context.Context, docs Documents, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	return docs.Merge(ctx, collection, id, data)
}

// ListJSON decodes every document in the collection.
func ListJSON[T any](ctx context.Context, docs Documents, collection string) ([]T, error) {
	raw, err := docs.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for id, data := range raw {
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
		}
		items = append(items, item)
	}
	return items, nil
}
