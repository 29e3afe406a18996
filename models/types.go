// ABOUTME: Data models for calendar and Google credential entities
// ABOUTME: Defines Credential, Event, Attendee, Reminder, Category, and sync state structs
package models

import (
	"time"
)

// TokenSafetyMargin is how long before expiry an access token stops being usable.
const TokenSafetyMargin = 5 * time.Minute

// Credential is the mutable half of the Google OAuth credential.
// Client id/secret/redirect uri live in config.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiryDate   int64  `json:"expiry_date"` // epoch milliseconds
}

// Expiry returns expiry_date as a time.
func (c *Credential) Expiry() time.Time {
	return time.UnixMilli(c.ExpiryDate)
}

// Usable reports whether the access token can still be sent at now.
func (c *Credential) Usable(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	return now.Before(c.Expiry().Add(-TokenSafetyMargin))
}

// Attendee response statuses.
const (
	AttendeeNeedsAction = "needsAction"
	AttendeeDeclined    = "declined"
	AttendeeTentative   = "tentative"
	AttendeeAccepted    = "accepted"
)

// Event statuses and visibilities.
const (
	EventConfirmed = "confirmed"
	EventTentative = "tentative"
	EventCancelled = "cancelled"

	VisibilityDefault = "default"
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// CategoryGoogle is assigned to synced events that carry no category of their own.
const CategoryGoogle = "google"

type Attendee struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Status     string `json:"status"`
	IsOptional bool   `json:"isOptional"`
}

type Reminder struct {
	Method  string `json:"method"`
	Minutes int64  `json:"minutes"`
}

type Event struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	AllDay         bool       `json:"allDay"`
	Location       string     `json:"location,omitempty"`
	MeetLink       string     `json:"meetLink,omitempty"`
	Attendees      []Attendee `json:"attendees"`
	Category       string     `json:"category"`
	Reminders      []Reminder `json:"reminders"`
	IsRecurring    bool       `json:"isRecurring"`
	RecurrenceRule string     `json:"recurrenceRule,omitempty"`
	GoogleEventID  string     `json:"googleEventId,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Status         string     `json:"status"`
	Visibility     string     `json:"visibility"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CalendarSettings struct {
	DefaultCalendarID      string `json:"defaultCalendarId"`
	TimeZone               string `json:"timeZone"`
	DefaultReminderMinutes int64  `json:"defaultReminderMinutes"`
	SyncMonthsBefore       int    `json:"syncMonthsBefore"`
	SyncMonthsAfter        int    `json:"syncMonthsAfter"`
	AutoSync               bool   `json:"autoSync"`
}

// MaxSyncMonths bounds each side of the calendar sync window.
const MaxSyncMonths = 12

// DefaultCalendarSettings returns the settings used before anything is saved.
func DefaultCalendarSettings() CalendarSettings {
	return CalendarSettings{
		DefaultCalendarID:      "primary",
		TimeZone:               "UTC",
		DefaultReminderMinutes: 30,
		SyncMonthsBefore:       1,
		SyncMonthsAfter:        1,
	}
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

type SyncState struct {
	Service      string     `json:"service"`
	Status       string     `json:"status"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	WindowStart  *time.Time `json:"window_start,omitempty"`
	WindowEnd    *time.Time `json:"window_end,omitempty"`
	EventCount   int        `json:"event_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
