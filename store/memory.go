// ABOUTME: In-memory document store
// ABOUTME: Used by tests and the memory backend

package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Documents implementation used by tests and dry runs.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, collection, id string) ([]byte, error) {
	if err := ValidateKey(collection, id); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (m *Memory) Put(_ context.Context, collection, id string, doc []byte) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(collection, id, doc)
	return nil
}

func (m *Memory) Merge(_ context.Context, collection, id string, doc []byte) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	merged, err := MergePatch(m.collections[collection][id], doc)
	if err != nil {
		return err
	}
	m.put(collection, id, merged)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	delete(docs, id)
	if len(docs) == 0 {
		delete(m.collections, collection)
	}
	return nil
}

func (m *Memory) List(_ context.Context, collection string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.collections[collection]))
	for id, doc := range m.collections[collection] {
		out[id] = clone(doc)
	}
	return out, nil
}

func (m *Memory) Collections(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) put(collection, id string, doc []byte) {
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		m.collections[collection] = docs
	}
	docs[id] = clone(doc)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
