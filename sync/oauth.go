// ABOUTME: OAuth configuration and token lifecycle for Google APIs
// ABOUTME: Code exchange, refresh with a safety margin, and coalesced concurrent refreshes
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"

	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/models"
)

// Scopes requested on the consent screen.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// authState is echoed back by Google on the callback. There is one installation
// per deployment, so it is fixed.
const authState = "prospecta-calendar"

// NewOAuthConfig creates OAuth2 config for Google APIs.
func NewOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	// Credentials go in the form body; auto-detection would retry a failed call.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}
}

// Recorder receives counts of token and sync operations.
type Recorder interface {
	RecordTokenOperation(operation, result string)
	RecordCalendarSync(result string, events int)
}

type nopRecorder struct{}

func (nopRecorder) RecordTokenOperation(string, string) {}
func (nopRecorder) RecordCalendarSync(string, int)      {}

// Option configures a TokenManager or CalendarService.
type Option func(*options)

type options struct {
	httpClient *http.Client
	now        func() time.Time
	recorder   Recorder
	logger     *log.Logger
	settings   SettingsSource
}

func defaultOptions() options {
	return options{
		httpClient: http.DefaultClient,
		now:        time.Now,
		recorder:   nopRecorder{},
		logger:     log.Default(),
	}
}

// WithHTTPClient sets the client used for calls to Google.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithSettings makes a CalendarService follow the stored calendar settings
// for its calendar id and time zone.
func WithSettings(src SettingsSource) Option {
	return func(o *options) { o.settings = src }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// TokenManager owns the installation's Google credential.
type TokenManager struct {
	config  *oauth2.Config
	creds   CredentialStore
	opts    options
	flights singleflight.Group

	// rejected is the last refresh token Google refused.
	rejected atomic.Pointer[string]
}

func NewTokenManager(cfg *oauth2.Config, creds CredentialStore, opts ...Option) *TokenManager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TokenManager{config: cfg, creds: creds, opts: o}
}

// AuthURL returns the Google consent URL. Offline access and a forced consent
// prompt make Google issue a refresh token every time.
func (m *TokenManager) AuthURL() string {
	return m.config.AuthCodeURL(authState, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (m *TokenManager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.opts.httpClient)
}

// ExchangeCode trades an authorization code for a credential and stores it.
// Nothing is stored when Google rejects the code.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (*models.Credential, error) {
	tok, err := m.config.Exchange(m.clientContext(ctx), code)
	if err != nil {
		m.opts.recorder.RecordTokenOperation("exchange", "error")
		status, text := tokenStatus(err)
		return nil, &AuthExchangeError{StatusCode: status, Status: text, Err: err}
	}

	cred := &models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        extraString(tok, "scope"),
		TokenType:    tok.TokenType,
		ExpiryDate:   m.expiryMillis(tok),
	}
	if err := m.creds.Save(ctx, cred); err != nil {
		m.opts.recorder.RecordTokenOperation("exchange", "error")
		return nil, err
	}

	m.rejected.Store(nil)
	m.opts.recorder.RecordTokenOperation("exchange", "success")
	m.opts.logger.Info("google calendar connected", "expires", cred.Expiry().UTC().Format(time.RFC3339))
	return cred, nil
}

// RefreshAccessToken obtains a new access token for stored. Only the access
// token and expiry change; the refresh token is kept.
func (m *TokenManager) RefreshAccessToken(ctx context.Context, stored *models.Credential) (*models.Credential, error) {
	if stored == nil || stored.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	src := m.config.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: stored.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		m.opts.recorder.RecordTokenOperation("refresh", "error")
		status, text := tokenStatus(err)
		m.opts.logger.Warn("access token refresh failed", "status", status, "err", err)
		refreshErr := &AuthRefreshError{StatusCode: status, Status: text, Err: err}
		if refreshErr.Rejected() {
			token := stored.RefreshToken
			m.rejected.Store(&token)
		}
		return nil, refreshErr
	}

	expiry := m.expiryMillis(tok)
	if err := m.creds.UpdateAccessToken(ctx, tok.AccessToken, expiry); err != nil {
		m.opts.recorder.RecordTokenOperation("refresh", "error")
		return nil, err
	}

	m.opts.recorder.RecordTokenOperation("refresh", "success")
	m.opts.logger.Debug("access token refreshed")

	updated := *stored
	updated.AccessToken = tok.AccessToken
	updated.ExpiryDate = expiry
	return &updated, nil
}

// ValidAccessToken returns an access token that is good for at least the
// safety margin, refreshing first when needed. Concurrent callers share one refresh.
func (m *TokenManager) ValidAccessToken(ctx context.Context) (string, error) {
	cred, err := m.creds.Load(ctx)
	if err != nil {
		return "", err
	}
	if cred.Usable(m.opts.now()) {
		return cred.AccessToken, nil
	}

	v, err, _ := m.flights.Do("refresh", func() (any, error) {
		// The flight outlives any single caller's cancellation.
		fctx := context.WithoutCancel(ctx)

		// Another flight may have refreshed between our load and now.
		current, err := m.creds.Load(fctx)
		if err != nil {
			return nil, err
		}
		if current.Usable(m.opts.now()) {
			return current, nil
		}
		return m.RefreshAccessToken(fctx, current)
	})
	if err != nil {
		return "", err
	}
	return v.(*models.Credential).AccessToken, nil
}

// Connected reports whether a credential is stored and Google has not refused
// its refresh token. Any error reads as false.
func (m *TokenManager) Connected(ctx context.Context) bool {
	cred, err := m.creds.Load(ctx)
	if err != nil || cred == nil || (cred.AccessToken == "" && cred.RefreshToken == "") {
		return false
	}
	if rejected := m.rejected.Load(); rejected != nil && cred.RefreshToken != "" && *rejected == cred.RefreshToken {
		return false
	}
	return true
}

// Disconnect forgets the stored credential.
func (m *TokenManager) Disconnect(ctx context.Context) error {
	if err := m.creds.Delete(ctx); err != nil {
		return err
	}
	m.opts.logger.Info("google calendar disconnected")
	return nil
}

// HTTPClient returns a client that attaches a valid bearer token to every request.
func (m *TokenManager) HTTPClient(ctx context.Context) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: &managedTokenSource{ctx: ctx, manager: m},
			Base:   m.opts.httpClient.Transport,
		},
	}
}

// managedTokenSource defers to ValidAccessToken on every call so the safety
// margin applies; oauth2.ReuseTokenSource would only refresh at hard expiry.
type managedTokenSource struct {
	ctx     context.Context
	manager *TokenManager
}

func (s *managedTokenSource) Token() (*oauth2.Token, error) {
	access, err := s.manager.ValidAccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

// expiryMillis computes expiry_date from expires_in relative to our clock,
// falling back to the expiry oauth2 derived itself.
func (m *TokenManager) expiryMillis(tok *oauth2.Token) int64 {
	if secs, ok := extraSeconds(tok, "expires_in"); ok {
		return m.opts.now().Add(time.Duration(secs) * time.Second).UnixMilli()
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.UnixMilli()
	}
	return 0
}

func extraSeconds(tok *oauth2.Token, key string) (int64, bool) {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func extraString(tok *oauth2.Token, key string) string {
	if s, ok := tok.Extra(key).(string); ok {
		return s
	}
	return ""
}

// IsAuthError reports whether err means no usable credential is stored and
// the user must connect Google again.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNoRefreshToken) {
		return true
	}
	var refreshErr *AuthRefreshError
	return errors.As(err, &refreshErr) && refreshErr.Rejected()
}
