// ABOUTME: Conversion between Google Calendar API events and local events
// ABOUTME: Handles all-day vs timed boundaries, attendees, reminders, and the category property
package sync

import (
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/prospecta/models"
)

const (
	dateLayout          = "2006-01-02"
	categoryPropertyKey = "category"
)

// mapEvent converts a Google event into the local shape. ok is false for
// events without a usable start (e.g. cancelled recurring instances).
// The result depends only on e, so re-syncing unchanged events is a no-op.
func mapEvent(e *calendar.Event) (models.Event, bool) {
	if e == nil || e.Start == nil {
		return models.Event{}, false
	}

	start, allDay, ok := parseEventTime(e.Start)
	if !ok {
		return models.Event{}, false
	}
	end, _, ok := parseEventTime(e.End)
	if !ok {
		end = start
	}

	ev := models.Event{
		ID:            e.Id,
		Title:         e.Summary,
		Description:   e.Description,
		Start:         start,
		End:           end,
		AllDay:        allDay,
		Location:      e.Location,
		MeetLink:      meetLink(e),
		Attendees:     make([]models.Attendee, 0, len(e.Attendees)),
		Category:      models.CategoryGoogle,
		Reminders:     []models.Reminder{},
		IsRecurring:   len(e.Recurrence) > 0 || e.RecurringEventId != "",
		GoogleEventID: e.Id,
		Status:        e.Status,
		Visibility:    e.Visibility,
		CreatedAt:     parseTimestamp(e.Created),
		UpdatedAt:     parseTimestamp(e.Updated),
	}

	if ev.Status == "" {
		ev.Status = models.EventConfirmed
	}
	if ev.Visibility == "" {
		ev.Visibility = models.VisibilityDefault
	}
	if e.Creator != nil {
		ev.CreatedBy = e.Creator.Email
	} else if e.Organizer != nil {
		ev.CreatedBy = e.Organizer.Email
	}
	if e.ExtendedProperties != nil {
		if c := e.ExtendedProperties.Private[categoryPropertyKey]; c != "" {
			ev.Category = c
		}
	}

	for _, rule := range e.Recurrence {
		if strings.HasPrefix(rule, "RRULE:") {
			ev.RecurrenceRule = strings.TrimPrefix(rule, "RRULE:")
			break
		}
	}

	for _, a := range e.Attendees {
		if a == nil {
			continue
		}
		status := a.ResponseStatus
		if status == "" {
			status = models.AttendeeNeedsAction
		}
		id := a.Id
		if id == "" {
			id = a.Email
		}
		ev.Attendees = append(ev.Attendees, models.Attendee{
			ID:         id,
			Email:      a.Email,
			Name:       a.DisplayName,
			Status:     status,
			IsOptional: a.Optional,
		})
	}

	if e.Reminders != nil {
		for _, r := range e.Reminders.Overrides {
			if r == nil {
				continue
			}
			ev.Reminders = append(ev.Reminders, models.Reminder{Method: r.Method, Minutes: r.Minutes})
		}
	}

	return ev, true
}

// parseEventTime reads a date (all-day) or dateTime value.
func parseEventTime(t *calendar.EventDateTime) (time.Time, bool, bool) {
	if t == nil {
		return time.Time{}, false, false
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		return parsed, false, err == nil
	}
	if t.Date != "" {
		loc := time.UTC
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		parsed, err := time.ParseInLocation(dateLayout, t.Date, loc)
		return parsed, true, err == nil
	}
	return time.Time{}, false, false
}

// parseTimestamp returns the zero time for a missing or malformed value.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func meetLink(e *calendar.Event) string {
	if e.HangoutLink != "" {
		return e.HangoutLink
	}
	if e.ConferenceData == nil {
		return ""
	}
	for _, ep := range e.ConferenceData.EntryPoints {
		if ep != nil && ep.EntryPointType == "video" {
			return ep.Uri
		}
	}
	return ""
}

// toGoogleEvent builds the request body for insert and update.
func toGoogleEvent(ev models.Event) *calendar.Event {
	g := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Status:      ev.Status,
		Visibility:  ev.Visibility,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{categoryPropertyKey: ev.Category},
		},
	}

	if ev.AllDay {
		g.Start = &calendar.EventDateTime{Date: ev.Start.Format(dateLayout)}
		g.End = &calendar.EventDateTime{Date: ev.End.Format(dateLayout)}
	} else {
		g.Start = &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)}
		g.End = &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)}
	}

	for _, a := range ev.Attendees {
		g.Attendees = append(g.Attendees, &calendar.EventAttendee{
			Email:          a.Email,
			DisplayName:    a.Name,
			ResponseStatus: a.Status,
			Optional:       a.IsOptional,
		})
	}

	if len(ev.Reminders) > 0 {
		g.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		}
		for _, r := range ev.Reminders {
			g.Reminders.Overrides = append(g.Reminders.Overrides, &calendar.EventReminder{
				Method:  r.Method,
				Minutes: r.Minutes,
			})
		}
	}

	if ev.RecurrenceRule != "" {
		g.Recurrence = []string{"RRULE:" + ev.RecurrenceRule}
	}

	return g
}
