// ABOUTME: Shared fixtures for sync tests
// ABOUTME: Fake token server, managers and settings stubs

package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

var testNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

// tokenServer fakes Google's token endpoint and counts grants by type.
type tokenServer struct {
	*httptest.Server
	exchanges atomic.Int32
	refreshes atomic.Int32
	status    int
	body      map[string]any
	delay     time.Duration
	lastForm  atomic.Value
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{
		status: http.StatusOK,
		body: map[string]any{
			"access_token": "new-access",
			"expires_in":   3599,
			"scope":        "https://www.googleapis.com/auth/calendar",
			"token_type":   "Bearer",
		},
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.lastForm.Store(r.PostForm)
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			ts.exchanges.Add(1)
		case "refresh_token":
			ts.refreshes.Add(1)
		}
		if ts.delay > 0 {
			time.Sleep(ts.delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ts.status)
		_ = json.NewEncoder(w).Encode(ts.body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testGoogleConfig(tokenURL string) config.GoogleConfig {
	return config.GoogleConfig{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURI:  "http://localhost:8080/calendar/auth/callback",
		TokenURL:     tokenURL,
	}
}

func newTestManager(t *testing.T, ts *tokenServer, creds CredentialStore) *TokenManager {
	t.Helper()
	tokenURL := ""
	if ts != nil {
		tokenURL = ts.URL
	}
	return NewTokenManager(
		NewOAuthConfig(testGoogleConfig(tokenURL)),
		creds,
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.New(io.Discard)),
	)
}

func storedCredential(t *testing.T, creds CredentialStore, cred models.Credential) {
	t.Helper()
	if err := creds.Save(context.Background(), &cred); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}
}

// memorySink stores events as documents, the way the event store does.
type memorySink struct {
	docs store.Documents
}

func (m *memorySink) UpsertEvents(ctx context.Context, events []models.Event) error {
	for _, ev := range events {
		if err := store.PutJSON(ctx, m.docs, "events", ev.ID, ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *memorySink) RemoveEvent(ctx context.Context, id string) error {
	err := m.docs.Delete(ctx, "events", id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// staticSettings serves fixed calendar settings.
type staticSettings struct {
	settings models.CalendarSettings
	err      error
}

func (s staticSettings) Settings(context.Context) (*models.CalendarSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	settings := s.settings
	return &settings, nil
}
