// ABOUTME: Shared fixtures for service tests
// ABOUTME: Step clock, metrics recorder and a write-failing store

package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harperreed/prospecta/store"
)

var testNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

// stepClock advances one second per call so creation order is observable.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newClock() *stepClock {
	return &stepClock{now: testNow}
}

type countingRecorder struct {
	mu      sync.Mutex
	created map[string]int
}

func (r *countingRecorder) RecordProspectCreated(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.created == nil {
		r.created = map[string]int{}
	}
	r.created[source]++
}

func newDocs() store.Documents {
	return store.NewMemory()
}

func ptr[T any](v T) *T {
	return &v
}

var errPutFailed = errors.New("put failed")

// failingDocs refuses writes to one collection once armed.
type failingDocs struct {
	store.Documents
	collection string
	armed      bool
}

func (d *failingDocs) Put(ctx context.Context, collection, id string, doc []byte) error {
	if d.armed && collection == d.collection {
		return errPutFailed
	}
	return d.Documents.Put(ctx, collection, id, doc)
}
