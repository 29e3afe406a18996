// ABOUTME: Google Calendar list/sync/create/update/delete over the managed credential
// ABOUTME: Sync stores every event in a calendar-month window and records sync state
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

const (
	calendarService = "calendar"
	maxResults      = 250 // Google Calendar API max per page

	// SyncStateCollection holds one document per synced service.
	SyncStateCollection = "sync_state"
)

// EventSink receives events fetched from Google.
type EventSink interface {
	// UpsertEvents replaces each event by id.
	UpsertEvents(ctx context.Context, events []models.Event) error
	// RemoveEvent drops a local copy; a missing event is not an error.
	RemoveEvent(ctx context.Context, id string) error
}

// SettingsSource supplies the stored calendar settings.
type SettingsSource interface {
	Settings(ctx context.Context) (*models.CalendarSettings, error)
}

// CalendarService talks to one Google calendar on behalf of the installation.
type CalendarService struct {
	tokens     *TokenManager
	sink       EventSink
	docs       store.Documents
	calendarID string
	endpoint   string
	opts       options
}

// NewCalendarService wires the calendar API to the local event store. docs
// holds sync state; endpoint overrides Google's base URL when non-empty.
// calendarID is used unless WithSettings supplies a default calendar.
func NewCalendarService(tokens *TokenManager, sink EventSink, docs store.Documents, calendarID, endpoint string, opts ...Option) *CalendarService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &CalendarService{
		tokens:     tokens,
		sink:       sink,
		docs:       docs,
		calendarID: calendarID,
		endpoint:   endpoint,
		opts:       o,
	}
}

func (s *CalendarService) client(ctx context.Context) (*calendar.Service, error) {
	return NewCalendarClient(ctx, s.tokens, s.endpoint)
}

// target resolves the calendar id and time zone, preferring stored settings.
func (s *CalendarService) target(ctx context.Context) (string, *time.Location, error) {
	calendarID, loc := s.calendarID, s.opts.now().Location()
	if s.opts.settings == nil {
		return calendarID, loc, nil
	}

	settings, err := s.opts.settings.Settings(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load calendar settings: %w", err)
	}
	if settings.DefaultCalendarID != "" {
		calendarID = settings.DefaultCalendarID
	}
	if settings.TimeZone != "" {
		if loc, err = time.LoadLocation(settings.TimeZone); err != nil {
			return "", nil, fmt.Errorf("invalid calendar time zone %q: %w", settings.TimeZone, err)
		}
	}
	return calendarID, loc, nil
}

// ListEvents returns single (expanded) events between timeMin and timeMax ordered by start.
func (s *CalendarService) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]models.Event, error) {
	calendarID, _, err := s.target(ctx)
	if err != nil {
		return nil, err
	}
	return s.listEvents(ctx, calendarID, timeMin, timeMax)
}

func (s *CalendarService) listEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]models.Event, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(calendarID).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime")
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	events := []models.Event{}
	skipped := 0
	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			ev, ok := mapEvent(item)
			if !ok {
				skipped++
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, calendarError("list", err)
	}

	if skipped > 0 {
		s.opts.logger.Debug("skipped calendar events without a start", "count", skipped)
	}
	return events, nil
}

// SyncWindow returns the calendar-month window [first day of month-before,
// first day of month after+1) around now.
func SyncWindow(now time.Time, monthsBefore, monthsAfter int) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month()-time.Month(monthsBefore), 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month()+time.Month(monthsAfter)+1, 1, 0, 0, 0, 0, now.Location())
	return start, end
}

// ValidateWindow rejects month offsets outside 0..models.MaxSyncMonths.
func ValidateWindow(monthsBefore, monthsAfter int) error {
	if monthsBefore < 0 || monthsBefore > models.MaxSyncMonths {
		return fmt.Errorf("%w: monthsBefore must be between 0 and %d, got %d", ErrInvalidWindow, models.MaxSyncMonths, monthsBefore)
	}
	if monthsAfter < 0 || monthsAfter > models.MaxSyncMonths {
		return fmt.Errorf("%w: monthsAfter must be between 0 and %d, got %d", ErrInvalidWindow, models.MaxSyncMonths, monthsAfter)
	}
	return nil
}

// Window validates the offsets and returns the sync window around now in the
// calendar's time zone.
func (s *CalendarService) Window(ctx context.Context, monthsBefore, monthsAfter int) (time.Time, time.Time, error) {
	_, start, end, err := s.window(ctx, monthsBefore, monthsAfter)
	return start, end, err
}

func (s *CalendarService) window(ctx context.Context, monthsBefore, monthsAfter int) (string, time.Time, time.Time, error) {
	if err := ValidateWindow(monthsBefore, monthsAfter); err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	calendarID, loc, err := s.target(ctx)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	start, end := SyncWindow(s.opts.now().In(loc), monthsBefore, monthsAfter)
	return calendarID, start, end, nil
}

// Sync fetches the window around now and upserts every event into the sink.
// Running it twice with unchanged remote data leaves the store unchanged.
// An invalid window fails before anything is fetched or recorded.
func (s *CalendarService) Sync(ctx context.Context, monthsBefore, monthsAfter int) ([]models.Event, error) {
	calendarID, start, end, err := s.window(ctx, monthsBefore, monthsAfter)
	if err != nil {
		return nil, err
	}

	state := s.loadState(ctx)
	state.Status = models.SyncStatusSyncing
	state.WindowStart = &start
	state.WindowEnd = &end
	state.ErrorMessage = ""
	s.saveState(ctx, state)

	events, err := s.listEvents(ctx, calendarID, start, end)
	if err == nil {
		err = s.sink.UpsertEvents(ctx, events)
	}
	if err != nil {
		state.Status = models.SyncStatusError
		state.ErrorMessage = err.Error()
		s.saveState(ctx, state)
		s.opts.recorder.RecordCalendarSync("error", 0)
		return nil, err
	}

	synced := s.opts.now()
	state.Status = models.SyncStatusIdle
	state.LastSyncTime = &synced
	state.EventCount = len(events)
	s.saveState(ctx, state)
	s.opts.recorder.RecordCalendarSync("success", len(events))
	s.opts.logger.Info("calendar synced", "calendar", calendarID, "events", len(events), "from", start.Format(dateLayout), "to", end.Format(dateLayout))

	return events, nil
}

// Status returns the last recorded sync state, idle when none exists.
func (s *CalendarService) Status(ctx context.Context) (*models.SyncState, error) {
	var state models.SyncState
	err := store.GetJSON(ctx, s.docs, SyncStateCollection, calendarService, &state)
	if errors.Is(err, store.ErrNotFound) {
		return &models.SyncState{Service: calendarService, Status: models.SyncStatusIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return &state, nil
}

func (s *CalendarService) loadState(ctx context.Context) *models.SyncState {
	state, err := s.Status(ctx)
	if err != nil {
		return &models.SyncState{Service: calendarService}
	}
	return state
}

// saveState is best-effort; a failed write must not mask the sync outcome.
func (s *CalendarService) saveState(ctx context.Context, state *models.SyncState) {
	state.UpdatedAt = s.opts.now()
	if err := store.PutJSON(ctx, s.docs, SyncStateCollection, calendarService, state); err != nil {
		s.opts.logger.Warn("failed to record sync state", "err", err)
	}
}

// CreateEvent inserts ev into Google and stores the returned copy locally.
func (s *CalendarService) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	calendarID, _, err := s.target(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(calendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return nil, calendarError("insert", err)
	}
	return s.storeReturned(ctx, created)
}

// UpdateEvent replaces the Google event id with ev and stores the returned copy locally.
func (s *CalendarService) UpdateEvent(ctx context.Context, id string, ev models.Event) (*models.Event, error) {
	calendarID, _, err := s.target(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := svc.Events.Update(calendarID, id, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return nil, calendarError("update", err)
	}
	return s.storeReturned(ctx, updated)
}

// DeleteEvent removes the Google event and its local copy.
func (s *CalendarService) DeleteEvent(ctx context.Context, id string) error {
	calendarID, _, err := s.target(ctx)
	if err != nil {
		return err
	}
	svc, err := s.client(ctx)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(calendarID, id).Context(ctx).Do(); err != nil {
		return calendarError("delete", err)
	}
	return s.sink.RemoveEvent(ctx, id)
}

func (s *CalendarService) storeReturned(ctx context.Context, g *calendar.Event) (*models.Event, error) {
	ev, ok := mapEvent(g)
	if !ok {
		return nil, &CalendarFetchError{Op: "map", Err: errors.New("google returned an event without a start")}
	}
	if err := s.sink.UpsertEvents(ctx, []models.Event{ev}); err != nil {
		return nil, err
	}
	return &ev, nil
}
