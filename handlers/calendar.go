// ABOUTME: Calendar MCP tool handlers
// ABOUTME: Implements list_events, schedule_event, and sync_calendar tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/sync"
)

type CalendarHandlers struct {
	events   *services.EventStore
	calendar *sync.CalendarService
}

// NewCalendarHandlers serves the local event store; calendar may be nil when
// Google is not configured, which disables sync_calendar.
func NewCalendarHandlers(events *services.EventStore, calendar *sync.CalendarService) *CalendarHandlers {
	return &CalendarHandlers{events: events, calendar: calendar}
}

type ListEventsInput struct {
	From string `json:"from,omitempty" jsonschema:"Start date YYYY-MM-DD (default today)"`
	Days int    `json:"days,omitempty" jsonschema:"Number of days to include (default 7)"`
}

type ListEventsOutput struct {
	Events []models.Event `json:"events"`
	Count  int            `json:"count"`
}

func (h *CalendarHandlers) ListEvents(ctx context.Context, _ *mcp.CallToolRequest, input ListEventsInput) (*mcp.CallToolResult, ListEventsOutput, error) {
	from, err := parseDate(input.From)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	if from.IsZero() {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	days := input.Days
	if days <= 0 {
		days = 7
	}

	events, err := h.events.List(ctx, from, from.AddDate(0, 0, days))
	if err != nil {
		return nil, ListEventsOutput{}, fmt.Errorf("failed to list events: %w", err)
	}
	return nil, ListEventsOutput{Events: events, Count: len(events)}, nil
}

type ScheduleEventInput struct {
	Title       string `json:"title" jsonschema:"Event title (required)"`
	Start       string `json:"start" jsonschema:"Start time in RFC 3339 format (required)"`
	End         string `json:"end" jsonschema:"End time in RFC 3339 format (required, not before start)"`
	Description string `json:"description,omitempty" jsonschema:"Event description"`
	Location    string `json:"location,omitempty" jsonschema:"Event location"`
	Category    string `json:"category,omitempty" jsonschema:"Category id"`
}

func (h *CalendarHandlers) ScheduleEvent(ctx context.Context, _ *mcp.CallToolRequest, input ScheduleEventInput) (*mcp.CallToolResult, models.Event, error) {
	start, err := time.Parse(time.RFC3339, input.Start)
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, input.End)
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("invalid end: %w", err)
	}

	ev, err := h.events.Save(ctx, models.Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Category:    input.Category,
		Start:       start,
		End:         end,
		CreatedBy:   "mcp",
	})
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("failed to schedule event: %w", err)
	}
	return nil, *ev, nil
}

type SyncCalendarInput struct {
	MonthsBefore *int `json:"months_before,omitempty" jsonschema:"Calendar months before the current one, 0-12 (default from settings)"`
	MonthsAfter  *int `json:"months_after,omitempty" jsonschema:"Calendar months after the current one, 0-12 (default from settings)"`
}

type SyncCalendarOutput struct {
	Synced bool `json:"synced"`
	Events int  `json:"events"`
}

func (h *CalendarHandlers) SyncCalendar(ctx context.Context, _ *mcp.CallToolRequest, input SyncCalendarInput) (*mcp.CallToolResult, SyncCalendarOutput, error) {
	if h.calendar == nil {
		return nil, SyncCalendarOutput{}, fmt.Errorf("google calendar is not configured")
	}
	settings, err := h.events.Settings(ctx)
	if err != nil {
		return nil, SyncCalendarOutput{}, fmt.Errorf("failed to load calendar settings: %w", err)
	}
	before, after := settings.SyncMonthsBefore, settings.SyncMonthsAfter
	if input.MonthsBefore != nil {
		before = *input.MonthsBefore
	}
	if input.MonthsAfter != nil {
		after = *input.MonthsAfter
	}
	if err := sync.ValidateWindow(before, after); err != nil {
		return nil, SyncCalendarOutput{}, err
	}

	events, err := h.calendar.Sync(ctx, before, after)
	if err != nil {
		return nil, SyncCalendarOutput{}, fmt.Errorf("failed to sync calendar: %w", err)
	}
	return nil, SyncCalendarOutput{Synced: true, Events: len(events)}, nil
}
