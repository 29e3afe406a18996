// ABOUTME: Shared construction for the CRUD services: clock, ids, and metrics hooks
// ABOUTME: Every service is stateless over a store.Documents and safe to share across requests
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

// Recorder receives domain counters.
type Recorder interface {
	RecordProspectCreated(source string)
}

type nopRecorder struct{}

func (nopRecorder) RecordProspectCreated(string) {}

// Option configures a service.
type Option func(*base)

type base struct {
	docs     store.Documents
	now      func() time.Time
	recorder Recorder
	calendar models.CalendarSettings
}

func newBase(docs store.Documents, opts []Option) base {
	b := base{docs: docs, now: time.Now, recorder: nopRecorder{}, calendar: models.DefaultCalendarSettings()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(b *base) { b.recorder = r }
}

// WithCalendarDefaults sets the calendar settings reported until some are saved.
func WithCalendarDefaults(cs models.CalendarSettings) Option {
	return func(b *base) { b.calendar = cs }
}

// newID returns a random entity id.
func newID() string {
	return uuid.New().String()
}

// newSortableID returns a time-ordered id for append-only records.
func newSortableID() string {
	return ulid.Make().String()
}

// getDoc decodes collection/id into out, turning a missing document into NotFoundError.
func (b base) getDoc(ctx context.Context, collection, entity, id string, out any) error {
	err := store.GetJSON(ctx, b.docs, collection, id, out)
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

// deleteDoc removes collection/id, turning a missing document into NotFoundError.
func (b base) deleteDoc(ctx context.Context, collection, entity, id string) error {
	err := b.docs.Delete(ctx, collection, id)
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
