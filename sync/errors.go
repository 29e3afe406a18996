// ABOUTME: Error taxonomy for the Google OAuth and Calendar integration
// ABOUTME: Status text from Google is carried so callers can report it verbatim
package sync

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var (
	// ErrNotAuthenticated means no credential is stored for this installation.
	ErrNotAuthenticated = errors.New("google calendar is not connected")

	// ErrNoRefreshToken means the stored credential cannot be refreshed.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrInvalidWindow means a sync window month offset is out of range.
	ErrInvalidWindow = errors.New("invalid sync window")
)

// AuthExchangeError is returned when Google rejects an authorization code.
type AuthExchangeError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *AuthExchangeError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("failed to exchange authorization code: %s", e.Status)
	}
	return fmt.Sprintf("failed to exchange authorization code: %v", e.Err)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// AuthRefreshError is returned when Google rejects a refresh token grant.
type AuthRefreshError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *AuthRefreshError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("failed to refresh access token: %s", e.Status)
	}
	return fmt.Sprintf("failed to refresh access token: %v", e.Err)
}

func (e *AuthRefreshError) Unwrap() error { return e.Err }

// Rejected reports whether Google refused the grant itself (revoked or
// expired refresh token, deleted client) rather than failing transiently.
func (e *AuthRefreshError) Rejected() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnauthorized
}

// CalendarFetchError is returned when a Calendar API call fails.
type CalendarFetchError struct {
	Op         string
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *CalendarFetchError) Error() string {
	switch {
	case e.Status != "" && e.Message != "":
		return fmt.Sprintf("calendar %s failed: %s: %s", e.Op, e.Status, e.Message)
	case e.Status != "":
		return fmt.Sprintf("calendar %s failed: %s", e.Op, e.Status)
	default:
		return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
	}
}

func (e *CalendarFetchError) Unwrap() error { return e.Err }

// tokenStatus extracts the HTTP status of a failed token endpoint call.
func tokenStatus(err error) (int, string) {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode, http.StatusText(re.Response.StatusCode)
	}
	return 0, ""
}

// calendarError classifies a Calendar API failure. Authentication failures
// raised while attaching the bearer token pass through unchanged.
func calendarError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return ErrNotAuthenticated
	case errors.Is(err, ErrNoRefreshToken):
		return ErrNoRefreshToken
	}

	var refreshErr *AuthRefreshError
	if errors.As(err, &refreshErr) {
		return refreshErr
	}

	fetchErr := &CalendarFetchError{Op: op, Err: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		fetchErr.StatusCode = apiErr.Code
		fetchErr.Status = http.StatusText(apiErr.Code)
		fetchErr.Message = apiErr.Message
	}
	return fetchErr
}
