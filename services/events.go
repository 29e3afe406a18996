// ABOUTME: Local event store: calendar events, categories, and calendar settings
// ABOUTME: Receives synced Google events and serves the calendar screens
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

const (
	EventCollection    = "events"
	CategoryCollection = "categories"
	SettingsCollection = "calendar_settings"

	settingsID = "default"

	entityEvent    = "event"
	entityCategory = "category"

	// CategoryGeneral is assigned to local events saved without a category.
	CategoryGeneral = "general"
)

// DefaultCategories are seeded the first time categories are read.
var DefaultCategories = []models.Category{
	{ID: CategoryGeneral, Name: "General", Color: "#6B7280"},
	{ID: "meeting", Name: "Reunión", Color: "#3B82F6"},
	{ID: "call", Name: "Llamada", Color: "#10B981"},
	{ID: "follow-up", Name: "Seguimiento", Color: "#F59E0B"},
	{ID: "personal", Name: "Personal", Color: "#8B5CF6"},
	{ID: models.CategoryGoogle, Name: "Google Calendar", Color: "#EA4335"},
}

type EventStore struct {
	base
	seedMu sync.Mutex
}

func NewEventStore(docs store.Documents, opts ...Option) *EventStore {
	return &EventStore{base: newBase(docs, opts)}
}

// List returns events overlapping [from, to), ordered by start. A zero bound
// is unbounded.
func (s *EventStore) List(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	all, err := store.ListJSON[models.Event](ctx, s.docs, EventCollection)
	if err != nil {
		return nil, err
	}
	out := []models.Event{}
	for _, e := range all {
		if !to.IsZero() && !e.Start.Before(to) {
			continue
		}
		if !from.IsZero() && e.End.Before(from) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (s *EventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := s.getDoc(ctx, EventCollection, entityEvent, id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Save validates and stores a local event, assigning an id when it has none.
func (s *EventStore) Save(ctx context.Context, e models.Event) (*models.Event, error) {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return nil, invalid("title", "is required")
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return nil, invalid("start", "start and end are required")
	}
	if e.End.Before(e.Start) {
		return nil, invalid("end", "must not be before start")
	}

	now := s.now()
	if e.ID == "" {
		e.ID = newID()
		e.CreatedAt = now
	} else if existing, err := s.Get(ctx, e.ID); err == nil {
		e.CreatedAt = existing.CreatedAt
		if e.GoogleEventID == "" {
			e.GoogleEventID = existing.GoogleEventID
		}
	} else if !IsNotFound(err) {
		return nil, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	applyEventDefaults(&e, settings)

	if err := store.PutJSON(ctx, s.docs, EventCollection, e.ID, e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, EventCollection, entityEvent, id)
}

// UpsertEvents replaces each event by id. Calling it twice with the same
// events leaves the store unchanged.
func (s *EventStore) UpsertEvents(ctx context.Context, events []models.Event) error {
	for _, e := range events {
		if err := store.PutJSON(ctx, s.docs, EventCollection, e.ID, e); err != nil {
			return fmt.Errorf("failed to store event %s: %w", e.ID, err)
		}
	}
	return nil
}

// RemoveEvent drops the local copy of an event; a missing event is ignored.
func (s *EventStore) RemoveEvent(ctx context.Context, id string) error {
	err := s.docs.Delete(ctx, EventCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func applyEventDefaults(e *models.Event, settings *models.CalendarSettings) {
	if e.Category == "" {
		e.Category = CategoryGeneral
	}
	if e.Status == "" {
		e.Status = models.EventConfirmed
	}
	if e.Visibility == "" {
		e.Visibility = models.VisibilityDefault
	}
	if e.Attendees == nil {
		e.Attendees = []models.Attendee{}
	}
	for i := range e.Attendees {
		if e.Attendees[i].ID == "" {
			e.Attendees[i].ID = newSortableID()
		}
		if e.Attendees[i].Status == "" {
			e.Attendees[i].Status = models.AttendeeNeedsAction
		}
	}
	if e.Reminders == nil {
		e.Reminders = []models.Reminder{}
		if settings.DefaultReminderMinutes > 0 {
			e.Reminders = append(e.Reminders, models.Reminder{Method: "popup", Minutes: settings.DefaultReminderMinutes})
		}
	}
	e.IsRecurring = e.RecurrenceRule != ""
}

// Categories

// Categories returns every category ordered by name, seeding the defaults
// into an empty collection.
func (s *EventStore) Categories(ctx context.Context) ([]models.Category, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	all, err := store.ListJSON[models.Category](ctx, s.docs, CategoryCollection)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		for _, c := range DefaultCategories {
			if err := store.PutJSON(ctx, s.docs, CategoryCollection, c.ID, c); err != nil {
				return nil, fmt.Errorf("failed to seed categories: %w", err)
			}
		}
		all = append(all, DefaultCategories...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (s *EventStore) SaveCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, invalid("name", "is required")
	}
	if c.Color != "" && !validColor(c.Color) {
		return nil, invalid("color", "%q is not a #RRGGBB color", c.Color)
	}
	if c.ID == "" {
		c.ID = slug(c.Name)
	}
	if err := store.PutJSON(ctx, s.docs, CategoryCollection, c.ID, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *EventStore) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, CategoryCollection, entityCategory, id)
}

func validColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return newSortableID()
	}
	return out
}

// Settings

// Settings returns the stored calendar settings or the defaults.
func (s *EventStore) Settings(ctx context.Context) (*models.CalendarSettings, error) {
	settings := s.calendar
	err := store.GetJSON(ctx, s.docs, SettingsCollection, settingsID, &settings)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings merges patch (a JSON merge patch over the settings document)
// into the current settings.
func (s *EventStore) UpdateSettings(ctx context.Context, patch []byte) (*models.CalendarSettings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	merged, err := store.MergePatch(raw, patch)
	if err != nil {
		return nil, invalid("settings", "%v", err)
	}

	var next models.CalendarSettings
	if err := json.Unmarshal(merged, &next); err != nil {
		return nil, invalid("settings", "%v", err)
	}
	if err := validateSettings(next); err != nil {
		return nil, err
	}
	if err := store.PutJSON(ctx, s.docs, SettingsCollection, settingsID, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func validateSettings(cs models.CalendarSettings) error {
	if cs.DefaultCalendarID == "" {
		return invalid("defaultCalendarId", "is required")
	}
	if _, err := time.LoadLocation(cs.TimeZone); err != nil {
		return invalid("timeZone", "unknown zone %q", cs.TimeZone)
	}
	if cs.DefaultReminderMinutes < 0 {
		return invalid("defaultReminderMinutes", "must not be negative")
	}
	if cs.SyncMonthsBefore < 0 || cs.SyncMonthsBefore > models.MaxSyncMonths {
		return invalid("syncMonthsBefore", "must be between 0 and %d", models.MaxSyncMonths)
	}
	if cs.SyncMonthsAfter < 0 || cs.SyncMonthsAfter > models.MaxSyncMonths {
		return invalid("syncMonthsAfter", "must be between 0 and %d", models.MaxSyncMonths)
	}
	return nil
}
