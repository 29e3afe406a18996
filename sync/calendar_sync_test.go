// ABOUTME: Tests for calendar listing, sync and event writes
// ABOUTME: An httptest server stands in for the Calendar API

package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

func eventsPathFor(calendarID string) string {
	return "/calendar/v3/calendars/" + calendarID + "/events"
}

var firstPage = `{
  "kind": "calendar#events",
  "nextPageToken": "page-2",
  "items": [
    {
      "id": "evt-timed",
      "status": "confirmed",
      "summary": "Demo con cliente",
      "description": "Revisar cotización",
      "location": "Oficina",
      "hangoutLink": "https://meet.google.com/abc-defg-hij",
      "created": "2025-03-01T09:00:00Z",
      "updated": "2025-03-02T09:00:00Z",
      "creator": {"email": "ventas@example.com"},
      "start": {"dateTime": "2025-03-20T15:00:00Z"},
      "end": {"dateTime": "2025-03-20T16:00:00Z"},
      "attendees": [
        {"email": "ana@example.com", "displayName": "Ana", "responseStatus": "accepted"},
        {"email": "luis@example.com", "optional": true}
      ],
      "reminders": {"useDefault": false, "overrides": [{"method": "popup", "minutes": 15}]},
      "extendedProperties": {"private": {"category": "ventas"}}
    }
  ]
}`

var secondPage = `{
  "kind": "calendar#events",
  "items": [
    {
      "id": "evt-allday",
      "summary": "Feriado",
      "created": "2025-02-01T09:00:00Z",
      "updated": "2025-02-01T09:00:00Z",
      "start": {"date": "2025-04-01"},
      "end": {"date": "2025-04-02"},
      "recurringEventId": "series-1"
    },
    {
      "id": "evt-nostart",
      "status": "cancelled"
    }
  ]
}`

// calendarAPI fakes the events collection of the Calendar API.
type calendarAPI struct {
	*httptest.Server
	mu       stdsync.Mutex
	calendar string
	queries  []map[string]string
	auth     []string
	fail     int
	created  map[string]any
}

func newCalendarAPI(t *testing.T) *calendarAPI {
	t.Helper()
	api := &calendarAPI{calendar: "primary"}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		api.auth = append(api.auth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		eventsPath := eventsPathFor(api.calendar)

		if api.fail != 0 {
			w.WriteHeader(api.fail)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"Rate Limit Exceeded"}}`)
			return
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == eventsPath:
			q := r.URL.Query()
			api.queries = append(api.queries, map[string]string{
				"singleEvents": q.Get("singleEvents"),
				"orderBy":      q.Get("orderBy"),
				"timeMin":      q.Get("timeMin"),
				"timeMax":      q.Get("timeMax"),
				"pageToken":    q.Get("pageToken"),
			})
			if q.Get("pageToken") == "page-2" {
				_, _ = io.WriteString(w, secondPage)
				return
			}
			_, _ = io.WriteString(w, firstPage)

		case r.Method == http.MethodPost && r.URL.Path == eventsPath:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			api.created = body
			body["id"] = "evt-new"
			body["created"] = "2025-03-15T10:00:00Z"
			body["updated"] = "2025-03-15T10:00:00Z"
			_ = json.NewEncoder(w).Encode(body)

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, eventsPath+"/"):
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			body["id"] = strings.TrimPrefix(r.URL.Path, eventsPath+"/")
			_ = json.NewEncoder(w).Encode(body)

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, eventsPath+"/"):
			w.WriteHeader(http.StatusNoContent)

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.Close)
	return api
}

func newTestCalendar(t *testing.T, api *calendarAPI, docs store.Documents, cred *models.Credential, opts ...Option) *CalendarService {
	t.Helper()
	creds := NewDocumentCredentials(docs, "proj")
	if cred != nil {
		storedCredential(t, creds, *cred)
	}
	tokens := newTestManager(t, nil, creds)
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.New(io.Discard)),
	}, opts...)
	return NewCalendarService(tokens, &memorySink{docs: docs}, docs, "primary", api.URL+"/calendar/v3/", opts...)
}

func validCredential() *models.Credential {
	return &models.Credential{
		AccessToken:  "cal-token",
		RefreshToken: "r",
		ExpiryDate:   testNow.Add(time.Hour).UnixMilli(),
	}
}

func TestListEventsMapsAndPaginates(t *testing.T) {
	api := newCalendarAPI(t)
	cal := newTestCalendar(t, api, store.NewMemory(), validCredential())

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	events, err := cal.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Len(t, api.queries, 2)
	assert.Equal(t, "true", api.queries[0]["singleEvents"])
	assert.Equal(t, "startTime", api.queries[0]["orderBy"])
	assert.Equal(t, "2025-03-01T00:00:00Z", api.queries[0]["timeMin"])
	assert.Equal(t, "2025-05-01T00:00:00Z", api.queries[0]["timeMax"])
	assert.Equal(t, "page-2", api.queries[1]["pageToken"])
	assert.Equal(t, "Bearer cal-token", api.auth[0])

	timed := events[0]
	assert.Equal(t, "evt-timed", timed.ID)
	assert.Equal(t, "evt-timed", timed.GoogleEventID)
	assert.Equal(t, "Demo con cliente", timed.Title)
	assert.False(t, timed.AllDay)
	assert.Equal(t, time.Date(2025, 3, 20, 15, 0, 0, 0, time.UTC), timed.Start.UTC())
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", timed.MeetLink)
	assert.Equal(t, "ventas", timed.Category)
	assert.Equal(t, "ventas@example.com", timed.CreatedBy)
	require.Len(t, timed.Attendees, 2)
	assert.Equal(t, models.AttendeeAccepted, timed.Attendees[0].Status)
	assert.Equal(t, "Ana", timed.Attendees[0].Name)
	assert.Equal(t, models.AttendeeNeedsAction, timed.Attendees[1].Status)
	assert.True(t, timed.Attendees[1].IsOptional)
	assert.Equal(t, []models.Reminder{{Method: "popup", Minutes: 15}}, timed.Reminders)

	allDay := events[1]
	assert.True(t, allDay.AllDay)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), allDay.Start)
	assert.Equal(t, models.CategoryGoogle, allDay.Category)
	assert.Equal(t, models.EventConfirmed, allDay.Status)
	assert.Equal(t, models.VisibilityDefault, allDay.Visibility)
	assert.True(t, allDay.IsRecurring)
	assert.Empty(t, allDay.Attendees)
}

func TestListEventsNotAuthenticated(t *testing.T) {
	api := newCalendarAPI(t)
	cal := newTestCalendar(t, api, store.NewMemory(), nil)

	_, err := cal.ListEvents(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, api.auth, "no request reaches Google without a credential")
}

func TestListEventsFetchError(t *testing.T) {
	api := newCalendarAPI(t)
	api.fail = http.StatusForbidden
	cal := newTestCalendar(t, api, store.NewMemory(), validCredential())

	_, err := cal.ListEvents(context.Background(), time.Time{}, time.Time{})

	var fetchErr *CalendarFetchError
	require.True(t, errors.As(err, &fetchErr), "expected CalendarFetchError, got %v", err)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "Forbidden")
	assert.Contains(t, err.Error(), "Rate Limit Exceeded")
}

func TestSyncWindow(t *testing.T) {
	start, end := SyncWindow(testNow, 1, 1)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), end)

	jan := time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
	start, end = SyncWindow(jan, 1, 1)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestSyncIsIdempotent(t *testing.T) {
	api := newCalendarAPI(t)
	docs := store.NewMemory()
	cal := newTestCalendar(t, api, docs, validCredential())
	ctx := context.Background()

	events, err := cal.Sync(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	first, err := docs.List(ctx, "events")
	require.NoError(t, err)
	require.Len(t, first, 2)

	_, err = cal.Sync(ctx, 1, 1)
	require.NoError(t, err)

	second, err := docs.List(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	state, err := cal.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Equal(t, 2, state.EventCount)
	require.NotNil(t, state.LastSyncTime)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), state.WindowStart.UTC())
}

func TestSyncRejectsInvalidWindow(t *testing.T) {
	api := newCalendarAPI(t)
	docs := store.NewMemory()
	cal := newTestCalendar(t, api, docs, validCredential())
	ctx := context.Background()

	tests := []struct {
		name          string
		before, after int
	}{
		{"negative before", -6, 0},
		{"negative after", 1, -1},
		{"too many before", models.MaxSyncMonths + 1, 1},
		{"too many after", 1, models.MaxSyncMonths + 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cal.Sync(ctx, tc.before, tc.after)
			assert.ErrorIs(t, err, ErrInvalidWindow)

			_, _, err = cal.Window(ctx, tc.before, tc.after)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}

	assert.Empty(t, api.auth, "no request reaches Google for an invalid window")
	state, err := cal.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.WindowStart)

	_, err = cal.Sync(ctx, 0, 0)
	require.NoError(t, err, "zero months is the current month only")
	require.Len(t, api.queries, 2)
	assert.Equal(t, "2025-03-01T00:00:00Z", api.queries[0]["timeMin"])
	assert.Equal(t, "2025-04-01T00:00:00Z", api.queries[0]["timeMax"])
}

func TestSyncFollowsStoredSettings(t *testing.T) {
	api := newCalendarAPI(t)
	api.calendar = "team-calendar"
	docs := store.NewMemory()
	settings := models.DefaultCalendarSettings()
	settings.DefaultCalendarID = "team-calendar"
	settings.TimeZone = "America/Mexico_City"
	cal := newTestCalendar(t, api, docs, validCredential(), WithSettings(staticSettings{settings: settings}))
	ctx := context.Background()

	events, err := cal.Sync(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	require.NotEmpty(t, api.queries)
	assert.Equal(t, "2025-02-01T00:00:00-06:00", api.queries[0]["timeMin"])
	assert.Equal(t, "2025-05-01T00:00:00-06:00", api.queries[0]["timeMax"])

	_, err = cal.CreateEvent(ctx, models.Event{
		Title: "Junta",
		Start: time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 21, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Junta", api.created["summary"])
}

func TestSyncFailsWhenSettingsUnavailable(t *testing.T) {
	api := newCalendarAPI(t)
	cal := newTestCalendar(t, api, store.NewMemory(), validCredential(),
		WithSettings(staticSettings{err: errors.New("store offline")}))

	_, err := cal.Sync(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")
	assert.Empty(t, api.auth)
}

func TestMapEventWithoutTimestampsIsStable(t *testing.T) {
	raw := &calendar.Event{
		Id:    "evt-bare",
		Start: &calendar.EventDateTime{DateTime: "2025-03-20T15:00:00Z"},
		End:   &calendar.EventDateTime{DateTime: "2025-03-20T16:00:00Z"},
	}

	first, ok := mapEvent(raw)
	require.True(t, ok)
	second, ok := mapEvent(raw)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.True(t, first.CreatedAt.IsZero())
	assert.True(t, first.UpdatedAt.IsZero())
}

func TestSyncRecordsErrorState(t *testing.T) {
	api := newCalendarAPI(t)
	api.fail = http.StatusInternalServerError
	docs := store.NewMemory()
	cal := newTestCalendar(t, api, docs, validCredential())
	ctx := context.Background()

	_, err := cal.Sync(ctx, 1, 1)
	require.Error(t, err)

	state, err := cal.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Contains(t, state.ErrorMessage, "Internal Server Error")
}

func TestStatusDefaultsToIdle(t *testing.T) {
	api := newCalendarAPI(t)
	cal := newTestCalendar(t, api, store.NewMemory(), validCredential())

	state, err := cal.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Equal(t, "calendar", state.Service)
}

func TestCreateUpdateDeleteEvent(t *testing.T) {
	api := newCalendarAPI(t)
	docs := store.NewMemory()
	cal := newTestCalendar(t, api, docs, validCredential())
	ctx := context.Background()

	ev := models.Event{
		Title:     "Llamada",
		Start:     time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC),
		End:       time.Date(2025, 3, 21, 9, 30, 0, 0, time.UTC),
		Category:  "seguimiento",
		Reminders: []models.Reminder{{Method: "email", Minutes: 60}},
		Attendees: []models.Attendee{{Email: "ana@example.com", Status: models.AttendeeNeedsAction}},
	}

	created, err := cal.CreateEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "evt-new", created.ID)
	assert.Equal(t, "seguimiento", created.Category)
	assert.Equal(t, "Llamada", api.created["summary"])
	assert.Equal(t, "2025-03-21T09:00:00Z", api.created["start"].(map[string]any)["dateTime"])

	var stored models.Event
	require.NoError(t, store.GetJSON(ctx, docs, "events", "evt-new", &stored))
	assert.Equal(t, "Llamada", stored.Title)

	ev.Title = "Llamada reprogramada"
	updated, err := cal.UpdateEvent(ctx, "evt-new", ev)
	require.NoError(t, err)
	assert.Equal(t, "Llamada reprogramada", updated.Title)

	require.NoError(t, cal.DeleteEvent(ctx, "evt-new"))
	_, err = docs.Get(ctx, "events", "evt-new")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
