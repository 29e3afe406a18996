// ABOUTME: Tests for the OAuth token manager
// ABOUTME: Covers exchange, refresh margins and rejected refreshes

package sync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

func TestAuthURL(t *testing.T) {
	m := newTestManager(t, nil, NewDocumentCredentials(store.NewMemory(), "proj"))

	u, err := url.Parse(m.AuthURL())
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/calendar/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "code", q.Get("response_type"))
	for _, scope := range Scopes {
		assert.Contains(t, q.Get("scope"), scope)
	}
}

func TestExchangeCodeStoresCredential(t *testing.T) {
	ts := newTokenServer(t)
	ts.body["refresh_token"] = "refresh-1"
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	m := newTestManager(t, ts, creds)

	cred, err := m.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.Equal(t, "Bearer", cred.TokenType)
	assert.Equal(t, "https://www.googleapis.com/auth/calendar", cred.Scope)
	assert.Equal(t, testNow.Add(3599*time.Second).UnixMilli(), cred.ExpiryDate)

	form := ts.lastForm.Load().(url.Values)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "auth-code", form.Get("code"))
	assert.Equal(t, "client-123", form.Get("client_id"))
	assert.Equal(t, "secret-456", form.Get("client_secret"))
	assert.Equal(t, "http://localhost:8080/calendar/auth/callback", form.Get("redirect_uri"))

	stored, err := creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *cred, *stored)
	assert.EqualValues(t, 1, ts.exchanges.Load())
}

func TestExchangeCodeFailureStoresNothing(t *testing.T) {
	ts := newTokenServer(t)
	ts.status = http.StatusBadRequest
	ts.body = map[string]any{"error": "invalid_grant", "error_description": "Bad code"}
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	m := newTestManager(t, ts, creds)

	_, err := m.ExchangeCode(context.Background(), "bad-code")

	var exErr *AuthExchangeError
	require.True(t, errors.As(err, &exErr), "expected AuthExchangeError, got %v", err)
	assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
	assert.Contains(t, err.Error(), "Bad Request")

	_, err = creds.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidAccessTokenNoRefreshWhenUsable(t *testing.T) {
	ts := newTokenServer(t)
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	storedCredential(t, creds, models.Credential{
		AccessToken:  "still-good",
		RefreshToken: "refresh-1",
		ExpiryDate:   testNow.Add(10 * time.Minute).UnixMilli(),
	})
	m := newTestManager(t, ts, creds)

	tok, err := m.ValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "still-good", tok)
	assert.EqualValues(t, 0, ts.refreshes.Load())
}

func TestValidAccessTokenRefreshesInsideMargin(t *testing.T) {
	ts := newTokenServer(t)
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	storedCredential(t, creds, models.Credential{
		AccessToken:  "nearly-expired",
		RefreshToken: "refresh-1",
		Scope:        "original-scope",
		ExpiryDate:   testNow.Add(4 * time.Minute).UnixMilli(),
	})
	m := newTestManager(t, ts, creds)

	tok, err := m.ValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok)
	assert.EqualValues(t, 1, ts.refreshes.Load())

	form := ts.lastForm.Load().(url.Values)
	assert.Equal(t, "refresh-1", form.Get("refresh_token"))

	stored, err := creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
	assert.Equal(t, "original-scope", stored.Scope)
	assert.Equal(t, testNow.Add(3599*time.Second).UnixMilli(), stored.ExpiryDate)
}

func TestValidAccessTokenNotAuthenticated(t *testing.T) {
	ts := newTokenServer(t)
	m := newTestManager(t, ts, NewDocumentCredentials(store.NewMemory(), "proj"))

	_, err := m.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.True(t, IsAuthError(err))
}

func TestRefreshWithoutRefreshTokenMakesNoCalls(t *testing.T) {
	ts := newTokenServer(t)
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	storedCredential(t, creds, models.Credential{
		AccessToken: "expired",
		ExpiryDate:  testNow.Add(-time.Hour).UnixMilli(),
	})
	m := newTestManager(t, ts, creds)

	_, err := m.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	_, err = m.RefreshAccessToken(context.Background(), &models.Credential{AccessToken: "x"})
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	assert.EqualValues(t, 0, ts.refreshes.Load())
	assert.EqualValues(t, 0, ts.exchanges.Load())
}

func TestRefreshFailureLeavesCredentialUntouched(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]any
		text     string
		rejected bool
	}{
		{"revoked grant", http.StatusBadRequest, map[string]any{"error": "invalid_grant"}, "Bad Request", true},
		{"deleted client", http.StatusUnauthorized, map[string]any{"error": "invalid_client"}, "Unauthorized", true},
		{"google outage", http.StatusServiceUnavailable, map[string]any{"error": "backend_error"}, "Service Unavailable", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTokenServer(t)
			ts.status = tc.status
			ts.body = tc.body
			creds := NewDocumentCredentials(store.NewMemory(), "proj")
			original := models.Credential{
				AccessToken:  "expired",
				RefreshToken: "refresh-1",
				ExpiryDate:   testNow.Add(-time.Minute).UnixMilli(),
			}
			storedCredential(t, creds, original)
			m := newTestManager(t, ts, creds)
			ctx := context.Background()
			require.True(t, m.Connected(ctx))

			_, err := m.ValidAccessToken(ctx)

			var refreshErr *AuthRefreshError
			require.True(t, errors.As(err, &refreshErr), "expected AuthRefreshError, got %v", err)
			assert.Contains(t, err.Error(), tc.text)
			assert.Equal(t, tc.rejected, refreshErr.Rejected())
			assert.Equal(t, tc.rejected, IsAuthError(err))
			assert.Equal(t, !tc.rejected, m.Connected(ctx))

			stored, err := creds.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, original, *stored)
		})
	}
}

func TestReconnectAfterRejectedRefresh(t *testing.T) {
	ts := newTokenServer(t)
	ts.status = http.StatusBadRequest
	ts.body = map[string]any{"error": "invalid_grant"}
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	storedCredential(t, creds, models.Credential{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		ExpiryDate:   testNow.Add(-time.Minute).UnixMilli(),
	})
	m := newTestManager(t, ts, creds)
	ctx := context.Background()

	_, err := m.ValidAccessToken(ctx)
	require.True(t, IsAuthError(err))
	require.False(t, m.Connected(ctx))

	ts.status = http.StatusOK
	ts.body = map[string]any{
		"access_token":  "fresh-access",
		"refresh_token": "refresh-2",
		"expires_in":    3599,
		"token_type":    "Bearer",
	}
	_, err = m.ExchangeCode(ctx, "new-code")
	require.NoError(t, err)
	assert.True(t, m.Connected(ctx))
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	ts := newTokenServer(t)
	ts.delay = 50 * time.Millisecond
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	storedCredential(t, creds, models.Credential{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		ExpiryDate:   testNow.Add(-time.Minute).UnixMilli(),
	})
	m := newTestManager(t, ts, creds)

	const callers = 10
	var wg stdsync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.ValidAccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "new-access", tokens[i])
	}
	assert.EqualValues(t, 1, ts.refreshes.Load())
}

func TestConnectedAndDisconnect(t *testing.T) {
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	m := newTestManager(t, nil, creds)
	ctx := context.Background()

	assert.False(t, m.Connected(ctx))

	storedCredential(t, creds, models.Credential{AccessToken: "a", RefreshToken: "r"})
	assert.True(t, m.Connected(ctx))

	require.NoError(t, m.Disconnect(ctx))
	assert.False(t, m.Connected(ctx))
	require.NoError(t, m.Disconnect(ctx), "disconnecting twice is not an error")
}

type failingCredentials struct{ CredentialStore }

func (failingCredentials) Load(context.Context) (*models.Credential, error) {
	return nil, errors.New("store offline")
}

func TestConnectedDegradesToFalse(t *testing.T) {
	m := newTestManager(t, nil, failingCredentials{})
	assert.False(t, m.Connected(context.Background()))
}

func TestHTTPClientAttachesBearerToken(t *testing.T) {
	creds := NewDocumentCredentials(store.NewMemory(), "proj")
	storedCredential(t, creds, models.Credential{
		AccessToken:  "bearer-1",
		RefreshToken: "r",
		ExpiryDate:   testNow.Add(time.Hour).UnixMilli(),
	})
	m := newTestManager(t, nil, creds)

	var got string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer api.Close()

	resp, err := m.HTTPClient(context.Background()).Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer bearer-1", got)
}

func TestHTTPClientWithoutCredential(t *testing.T) {
	m := newTestManager(t, nil, NewDocumentCredentials(store.NewMemory(), "proj"))

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the API without a token")
	}))
	defer api.Close()

	_, err := m.HTTPClient(context.Background()).Get(api.URL)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
