// ABOUTME: Calendar API client setup for Google Calendar integration
// ABOUTME: Builds a Calendar service whose requests carry the managed bearer token
package sync

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarClient creates a Google Calendar API service authenticated by tokens.
// A non-empty endpoint replaces Google's base URL and must end in a slash.
func NewCalendarClient(ctx context.Context, tokens *TokenManager, endpoint string) (*calendar.Service, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token manager cannot be nil")
	}

	opts := []option.ClientOption{option.WithHTTPClient(tokens.HTTPClient(ctx))}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}
