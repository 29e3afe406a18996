// ABOUTME: Error to status mapping and shared request parsing
// ABOUTME: Failures render as a JSON error body

package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/prospecta/logging"
	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/sync"
)

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var (
		notFound   *services.NotFoundError
		validation *services.ValidationError
		duplicate  *services.DuplicateEmailError
	)
	switch {
	case sync.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, sync.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &duplicate), errors.Is(err, services.ErrLastAdmin):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {"error": ...} with the status matching err.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "err", err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseTime accepts RFC 3339 timestamps and YYYY-MM-DD dates; empty is the zero time.
func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD date, got " + v)
	}
	return t, nil
}

// queryRange reads [from, to) query parameters.
func queryRange(c *gin.Context, fromKey, toKey string) (time.Time, time.Time, error) {
	from, err := parseTime(c.Query(fromKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime(c.Query(toKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
